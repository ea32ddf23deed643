package sim

import "github.com/sirupsen/logrus"

// dmqHorizon bounds every delay this engine ever schedules. The only entries
// ever enqueued are ReadyToProceed messages with a delay of 1, so any horizon
// above 1 suffices; 4*M also exceeds the longest bus-mediated operation
// (A + M + F, with F = 2*BlockSize) for block sizes up to 128 bytes.
const dmqHorizon = memFetchCycles * 4

// Simulator is the per-cycle driver: it owns every component and ticks them
// in the fixed order processors → caches → bus, then drains the delayed
// message queue.
type Simulator struct {
	cfg    Config
	procs  []*Processor
	caches []*Cache
	bus    *Bus
	dmq    *DMQ
	stats  *Statistics
	cycle  uint64
}

// NewSimulator builds and wires every component for a run over the given
// per-processor instruction traces. Protocol and geometry come from cfg,
// already validated by the caller: configuration errors surface at
// startup, before any cycle runs.
func NewSimulator(cfg Config, traces []TraceSource) *Simulator {
	n := len(traces)
	stats := NewStatistics(n)
	dmq := NewDMQ(dmqHorizon)
	bus := NewBus(cfg)

	caches := make([]*Cache, n)
	for i := 0; i < n; i++ {
		caches[i] = NewCache(i, cfg)
		caches[i].wire(bus, dmq, stats)
	}
	bus.wire(caches, stats)

	procs := make([]*Processor, n)
	for i := 0; i < n; i++ {
		procs[i] = NewProcessor(i, caches[i], traces[i], stats)
	}

	return &Simulator{cfg: cfg, procs: procs, caches: caches, bus: bus, dmq: dmq, stats: stats}
}

// Run advances the simulation until every processor has executed its End
// instruction, the bus is idle, and the DMQ holds nothing further — then
// returns the final statistics and the number of cycles elapsed.
func (s *Simulator) Run() (*Statistics, uint64) {
	for {
		s.cycle++
		s.step()
		if logrus.IsLevelEnabled(logrus.TraceLevel) {
			logrus.Tracef("[cycle %07d] bus=%v", s.cycle, s.bus.state.kind)
		}
		if s.terminated() {
			break
		}
	}
	return s.stats, s.cycle
}

func (s *Simulator) step() {
	for _, p := range s.procs {
		p.Tick(s.cycle)
	}
	for _, c := range s.caches {
		c.Tick(s.cycle)
	}
	s.bus.Tick()
	s.deliver()
}

// deliver drains messages due exactly this cycle in the fixed cross-recipient
// order (processors ascending, caches ascending, bus) — of the closed
// MessageKind set, only MsgReadyToProceed is ever enqueued.
func (s *Simulator) deliver() {
	for _, e := range s.dmq.DrainDue(s.cycle) {
		switch e.payload.Kind {
		case MsgReadyToProceed:
			s.procs[e.recipient.ID].SetReadyToProceed()
		default:
			violate("dmq-unexpected-kind", "delivered unexpected message kind %v to %v", e.payload.Kind, e.recipient)
		}
	}
}

func (s *Simulator) terminated() bool {
	for _, p := range s.procs {
		if !p.Done() {
			return false
		}
	}
	if !s.bus.Idle() {
		return false
	}
	return !s.dmq.HasFutureEntries(s.cycle)
}

// Stats exposes the live statistics sink, mainly for tests that want to
// inspect intermediate state without waiting for Run to return.
func (s *Simulator) Stats() *Statistics { return s.stats }

// Cycle returns the current cycle counter.
func (s *Simulator) Cycle() uint64 { return s.cycle }
