package sim

// busStateKind is the bus's own state: Free,
// AcquiredBy a cache while its request is resolving, or Transmitting while
// draining the internal queue of signals a grant produced.
type busStateKind int8

const (
	busFree busStateKind = iota
	busAcquiredBy
	busTransmitting
)

type busState struct {
	kind      busStateKind
	owner     int // valid when kind == busAcquiredBy
	remaining uint64
}

// Bus is the single shared bus all caches arbitrate over. Grants are
// resolved synchronously inside Tick: the moment a cache is popped off the
// acquirer FIFO, its on_bus_granted is invoked in the same call, so any
// Transmit it issues sees the bus already owned by it — legal only when
// owned by origin or Transmitting.
type Bus struct {
	cfg Config

	state     busState
	acquirers *acquirerFIFO
	txQueue   []BusSignal // transactions awaiting bus "airtime" bookkeeping
	overhead  uint64      // accrues extra cycles discovered during an in-progress grant

	grantInProgress bool

	caches []*Cache
	stats  *Statistics
}

// NewBus builds an idle bus. caches and stats are wired by the simulator
// once all components exist.
func NewBus(cfg Config) *Bus {
	return &Bus{cfg: cfg, acquirers: newAcquirerFIFO()}
}

func (b *Bus) wire(caches []*Cache, stats *Statistics) {
	b.caches = caches
	b.stats = stats
}

// Acquire enqueues cacheID's request. Idempotent while already pending.
func (b *Bus) Acquire(cacheID int) {
	b.acquirers.Push(cacheID)
}

// ShareQuery reports whether any cache other than origin holds addr in a
// non-Invalid state — the share? predicate every grant resolution consults.
func (b *Bus) ShareQuery(origin int, addr uint64) bool {
	for i, c := range b.caches {
		if i == origin {
			continue
		}
		if present, _ := c.Snoop(addr); present {
			return true
		}
	}
	return false
}

// Transmit broadcasts sig to every cache but origin and charges its bytes
// against aggregate traffic. Legal only while the bus is owned by origin (a
// grant in progress) or already Transmitting a prior signal's airtime.
// Extra cycles the broadcast provokes (flush costs at snooping caches) are
// folded into the active grant's overhead, or — for the rarer case of a
// transmit outside grant resolution — into the bus's own remaining count.
func (b *Bus) Transmit(origin int, sig BusSignal) {
	owned := b.state.kind == busAcquiredBy && b.state.owner == origin
	if !owned && b.state.kind != busTransmitting {
		violate("bus-transmit-not-owner", "cache %d transmitted %v while bus state=%v", origin, sig.Kind, b.state.kind)
	}
	extra := b.broadcast(origin, sig)
	if b.grantInProgress {
		b.overhead += extra
	} else {
		b.state.remaining += extra
	}
	b.txQueue = append(b.txQueue, sig)
	b.stats.RecordBusTraffic(sig.Kind, b.cfg.BlockSize)
}

// TransmitImmediate broadcasts sig without going through bus ownership at
// all — MESI's Shared+Write upgrade transmits BusRdX and proceeds in the
// same cycle, never enqueuing an acquire. The only snoopers that
// can receive it are in Shared themselves, which never incurs a flush, so
// there is no overhead to route anywhere.
func (b *Bus) TransmitImmediate(sig BusSignal, origin *Cache) {
	b.broadcast(origin.id, sig)
	b.stats.RecordBusTraffic(sig.Kind, b.cfg.BlockSize)
}

func (b *Bus) broadcast(origin int, sig BusSignal) uint64 {
	var extra uint64
	for i, c := range b.caches {
		if i == origin {
			continue
		}
		extra += c.OnBusSignal(sig)
	}
	return extra
}

// addOverhead lets a cache charge its grant resolution for a side effect
// discovered mid-grant — specifically, the writeback cost of a dirty
// eviction on install. Only ever called while a grant is in progress.
func (b *Bus) addOverhead(extra uint64) {
	if b.grantInProgress {
		b.overhead += extra
		return
	}
	b.state.remaining += extra
}

// Tick advances the bus state machine one cycle.
func (b *Bus) Tick() {
	switch b.state.kind {
	case busFree:
		if b.acquirers.Len() == 0 {
			return
		}
		cacheID := b.acquirers.Pop()
		b.state = busState{kind: busAcquiredBy, owner: cacheID}
		b.overhead = 0
		b.grantInProgress = true
		t := b.caches[cacheID].OnBusGranted()
		b.grantInProgress = false
		b.state.remaining = t + b.overhead
		if b.state.remaining == 0 {
			b.resolveAcquiredDone()
		}
	case busAcquiredBy:
		if b.state.remaining > 0 {
			b.state.remaining--
		}
		if b.state.remaining == 0 {
			b.resolveAcquiredDone()
		}
	case busTransmitting:
		if b.state.remaining > 0 {
			b.state.remaining--
		}
		if b.state.remaining == 0 {
			b.resolveTransmittingDone()
		}
	}
}

// resolveAcquiredDone and resolveTransmittingDone drain the transaction
// queue's bus-occupancy bookkeeping: each entry bills 2 more cycles of
// airtime regardless of how many entries a single grant produced, which
// resolved the otherwise-underspecified question of what happens to a
// grant's second transmit (Dragon's Write-miss-with-sharers case sends both
// BusRd and BusUpd) — see DESIGN.md.
func (b *Bus) resolveAcquiredDone() {
	b.drainOrFree()
}

func (b *Bus) resolveTransmittingDone() {
	b.drainOrFree()
}

func (b *Bus) drainOrFree() {
	if len(b.txQueue) == 0 {
		b.state = busState{kind: busFree}
		return
	}
	b.txQueue = b.txQueue[1:]
	b.state = busState{kind: busTransmitting, remaining: 2}
}

// Idle reports whether the bus has no owner, no in-flight transmission, and
// nobody queued — the bus's contribution to the simulator's termination
// check.
func (b *Bus) Idle() bool {
	return b.state.kind == busFree && b.acquirers.Len() == 0
}

func (k busStateKind) String() string {
	switch k {
	case busFree:
		return "Free"
	case busAcquiredBy:
		return "AcquiredBy"
	case busTransmitting:
		return "Transmitting"
	default:
		return "Unknown"
	}
}
