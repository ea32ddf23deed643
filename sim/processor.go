package sim

// TraceSource is the external collaborator a Processor pulls instructions
// from: a lazy, restartable stream, one call per
// instruction. Next returns an Instruction{Kind: InstrEnd} once exhausted,
// matching the trace file format, where end-of-file is the implicit End, so
// callers never need a separate "has more" check.
type TraceSource interface {
	Next() Instruction
}

// procStateKind is the processor's own state.
type procStateKind int8

const (
	procReady procStateKind = iota
	procExecutingOther
	procWaitingForCache
	procReadyToProceed
	procDone
)

// Processor drives one trace against its own cache. Ticking cascades
// through same-cycle transitions (ExecutingOther's last unit, and
// ReadyToProceed) until it reaches a cycle's stable resting point, which is
// how a trace of "Other(3); End" drives a processor through exactly 4
// cycles: 3 charged compute ticks plus one idle tick that
// both closes out the countdown and discovers End in the same cycle.
type Processor struct {
	id    int
	cache *Cache
	trace TraceSource
	stats *Statistics

	state     procStateKind
	remaining uint64 // ExecutingOther's countdown; the tick that finds it at 1 charges no compute
}

// NewProcessor builds a processor bound to its own cache and trace, ready at
// construction — its first Tick dispatches the trace's first instruction.
func NewProcessor(id int, cache *Cache, trace TraceSource, stats *Statistics) *Processor {
	return &Processor{id: id, cache: cache, trace: trace, stats: stats, state: procReady}
}

// Done reports whether this processor has executed its End instruction.
func (p *Processor) Done() bool { return p.state == procDone }

// SetReadyToProceed is called by the simulator when the DMQ delivers a
// ReadyToProceed message to this processor. It only flags the transition;
// the cascade into the next instruction happens on the following Tick.
func (p *Processor) SetReadyToProceed() {
	if p.state != procWaitingForCache {
		violate("proc-ready-while-not-waiting", "processor %d got ReadyToProceed while state=%v", p.id, p.state)
	}
	p.state = procReadyToProceed
}

// Tick advances this processor by one cycle.
func (p *Processor) Tick(now uint64) {
	switch p.state {
	case procDone:
		return
	case procWaitingForCache:
		p.stats.RecordMemStall(p.id, 1)
		return
	case procReadyToProceed:
		p.state = procReady
		p.dispatch(now)
	case procExecutingOther:
		if p.remaining == 1 {
			p.state = procReady
			p.dispatch(now)
			return
		}
		p.stats.RecordCompute(p.id, 1)
		p.remaining--
	case procReady:
		p.dispatch(now)
	}
}

// dispatch fetches and begins the next instruction. It is only ever called
// from within Tick, so every call happens on a cycle that has not yet
// charged anything for this processor.
func (p *Processor) dispatch(now uint64) {
	instr := p.trace.Next()
	switch instr.Kind {
	case InstrOther:
		p.stats.RecordCompute(p.id, 1)
		p.state = procExecutingOther
		p.remaining = instr.Cycles
	case InstrLoad:
		p.cache.OnPrSig(now, SigRead, instr.Address)
		p.state = procWaitingForCache
		p.stats.RecordMemStall(p.id, 1)
	case InstrStore:
		p.cache.OnPrSig(now, SigWrite, instr.Address)
		p.state = procWaitingForCache
		p.stats.RecordMemStall(p.id, 1)
	case InstrEnd:
		// This tick discovers termination and charges nothing else, so it
		// is the one genuinely idle cycle in an otherwise fully-accounted
		// timeline: "Other 3; End" totals 4 cycles, 3 charged plus this one.
		p.stats.RecordIdle(p.id, 1)
		p.state = procDone
		p.stats.RecordFinished(p.id, now)
	}
}
