package sim

// ProcStats accumulates the per-processor counters the report emits: cycle
// breakdown, access counts, and the private/shared and invalidation
// breakdowns.
type ProcStats struct {
	ComputeCycles   uint64
	MemStallCycles  uint64
	IdleCycles      uint64
	Loads           uint64
	Stores          uint64
	Misses          uint64
	PrivateAccesses uint64
	SharedAccesses  uint64
	Invalidations   uint64 // times this cache's block was invalidated by another cache's signal
	Writebacks      uint64 // dirty evictions this cache performed
	FinishedAtCycle uint64
	Finished        bool
}

// TotalCycles is the sum of the compute, memory-stall and idle buckets. Every
// tick before Done charges exactly one of them, so once the processor is
// Done this equals the cycle at which it finished.
func (p ProcStats) TotalCycles() uint64 {
	return p.ComputeCycles + p.MemStallCycles + p.IdleCycles
}

// MissRate is Misses over total memory accesses (Loads+Stores), or 0 with no
// accesses at all.
func (p ProcStats) MissRate() float64 {
	total := p.Loads + p.Stores
	if total == 0 {
		return 0
	}
	return float64(p.Misses) / float64(total)
}

// BusStats accumulates aggregate traffic: total bytes moved, invalidations
// and updates delivered, and a breakdown by signal kind for the --detailed
// report.
type BusStats struct {
	TrafficBytes    uint64
	BytesBySignal   [4]uint64 // indexed by BusSignalKind
	CountBySignal   [4]uint64
	Invalidations   uint64
	Updates         uint64
}

// Statistics is the sink every component writes through during a run. It
// owns no simulation state of its own.
type Statistics struct {
	Proc []ProcStats
	Bus  BusStats
}

// NewStatistics allocates per-processor counters for n processors.
func NewStatistics(n int) *Statistics {
	return &Statistics{Proc: make([]ProcStats, n)}
}

func (s *Statistics) RecordCompute(procID int, cycles uint64) {
	s.Proc[procID].ComputeCycles += cycles
}

func (s *Statistics) RecordMemStall(procID int, cycles uint64) {
	s.Proc[procID].MemStallCycles += cycles
}

func (s *Statistics) RecordIdle(procID int, cycles uint64) {
	s.Proc[procID].IdleCycles += cycles
}

func (s *Statistics) RecordFinished(procID int, cycle uint64) {
	s.Proc[procID].Finished = true
	s.Proc[procID].FinishedAtCycle = cycle
}

// RecordAccess counts a load or store attempt and, if it missed, the miss.
func (s *Statistics) RecordAccess(procID int, sig ProcSignal, hit bool) {
	p := &s.Proc[procID]
	if sig == SigWrite {
		p.Stores++
	} else {
		p.Loads++
	}
	if !hit {
		p.Misses++
	}
}

func (s *Statistics) RecordPrivateAccess(procID int) { s.Proc[procID].PrivateAccesses++ }
func (s *Statistics) RecordSharedAccess(procID int)  { s.Proc[procID].SharedAccesses++ }
func (s *Statistics) RecordWriteback(procID int)     { s.Proc[procID].Writebacks++ }

// RecordInvalidation counts a snoop-caused invalidation against both the
// invalidated cache's own counter and the run-wide aggregate.
func (s *Statistics) RecordInvalidation(procID int) {
	s.Proc[procID].Invalidations++
	s.Bus.Invalidations++
}

// RecordBusTraffic attributes bytes and a transaction count to sig.Kind.
// BusRd and BusRdX move a full block; BusUpd moves one word (only the
// written word needs to travel, not the whole block, in a write-update
// protocol); Flush is priced the same as a block transfer.
func (s *Statistics) RecordBusTraffic(kind BusSignalKind, blockBytes int) {
	var n uint64
	switch kind {
	case BusUpd:
		n = wordBytes
	default:
		n = uint64(blockBytes)
	}
	s.Bus.TrafficBytes += n
	s.Bus.BytesBySignal[kind] += n
	s.Bus.CountBySignal[kind]++
	if kind == BusUpd {
		s.Bus.Updates++
	}
}

// wordBytes is the assumed machine word width used to size BusUpd traffic;
// snoop-query latency is defined in terms of a single address word but its
// byte width is never pinned down elsewhere, so this is a documented
// assumption rather than a derived constant (see DESIGN.md).
const wordBytes = 4
