package sim

// cacheCtrlKind is the cache's own control state, distinct from the
// per-block coherence state held in the tag store.
type cacheCtrlKind int8

const (
	ctrlIdle cacheCtrlKind = iota
	ctrlWaitingForBus
	ctrlResolvingRequest
)

// Cache is one snooping cache: a tag store plus the control state machine
// that dispatches to the MESI or Dragon tables in protocol.go and talks to
// the shared Bus. Bus and peer-cache wiring happen post-construction, since
// the simulator driver builds all components before any of them reference
// each other — Go's garbage collector makes the direct pointer cycle this
// implies harmless, unlike the index-indirection a language without a
// collector would need.
type Cache struct {
	id   int
	cfg  Config
	ts   *TagStore
	bus  *Bus
	dmq  *DMQ
	proc Recipient // the owning processor, for ReadyToProceed delivery

	stats *Statistics

	ctrl       cacheCtrlKind
	pendingSig ProcSignal
	pendingAdr uint64
	resolving  uint64 // remaining cycles while ctrl == ctrlResolvingRequest
}

// NewCache builds an idle cache of the given id over an empty tag store.
// Bus, DMQ and Statistics are wired by the simulator after construction.
func NewCache(id int, cfg Config) *Cache {
	return &Cache{
		id:   id,
		cfg:  cfg,
		ts:   NewTagStore(cfg),
		ctrl: ctrlIdle,
	}
}

func (c *Cache) wire(bus *Bus, dmq *DMQ, stats *Statistics) {
	c.bus = bus
	c.dmq = dmq
	c.stats = stats
	c.proc = Recipient{Kind: CompProcessor, ID: c.id}
}

// Snoop answers the bus's share? query for addr: present reports whether
// this cache holds the block in any non-Invalid state; dirty reports whether
// that state is Modified (or Dragon's SharedModified).
func (c *Cache) Snoop(addr uint64) (present, dirty bool) {
	_, _, state, ok := c.ts.Lookup(addr)
	if !ok {
		return false, false
	}
	return true, state == StateModified || state == StateSharedModified
}

// OnPrSig handles a processor signal synchronously:
// a hit settles immediately and schedules ReadyToProceed with delay 1; a
// miss (or a Dragon shared-upgrade) queues an acquire and parks in
// WaitingForBus. It is an engine bug to call this while a request is already
// outstanding.
func (c *Cache) OnPrSig(now uint64, sig ProcSignal, addr uint64) {
	if c.ctrl != ctrlIdle {
		violate("cache-pr-sig-while-busy", "cache %d got on_pr_sig while ctrl=%v", c.id, c.ctrl)
	}

	_, _, state, present := c.ts.Lookup(addr)
	if present {
		action := c.dispatchPrSigPresent(state, sig, addr)
		c.stats.RecordAccess(c.id, sig, true)
		c.ts.Touch(addr)
		if action.needsBus {
			// Dragon's SharedClean/SharedModified write-upgrade: still a
			// hit, but still needs the bus to broadcast BusUpd.
			c.enqueueAcquire(sig, addr)
			return
		}
		c.ts.SetState(addr, action.newState)
		if action.signal != nil {
			c.bus.TransmitImmediate(*action.signal, c)
		}
		// Classified by whether the block was already shared at the moment
		// of access, not by the state the access leaves it in — a Shared
		// block upgraded to Modified by this very write still counts as a
		// shared reference (see DESIGN.md's private/shared classification).
		c.finalizeAccessClassification(state == StateShared || state == StateSharedClean || state == StateSharedModified)
		c.scheduleReadyToProceed(now)
		return
	}

	c.stats.RecordAccess(c.id, sig, false) // classification finalized at resolution
	c.enqueueAcquire(sig, addr)
}

func (c *Cache) enqueueAcquire(sig ProcSignal, addr uint64) {
	c.ctrl = ctrlWaitingForBus
	c.pendingSig = sig
	c.pendingAdr = addr
	c.bus.Acquire(c.id)
}

// OnBusGranted is called synchronously by the bus once it grants this
// cache's outstanding acquire. It resolves the request against the
// protocol's table, transmits whatever signals the table calls for, installs
// or upgrades the block, and returns the latency t the bus should hold for —
// separate from the bus's own remaining_cycles, which also folds in
// overhead accrued from snoop reactions during this same call.
func (c *Cache) OnBusGranted() uint64 {
	if c.ctrl != ctrlWaitingForBus {
		violate("cache-granted-while-idle", "cache %d granted bus while ctrl=%v", c.id, c.ctrl)
	}

	addr := c.pendingAdr
	sig := c.pendingSig
	_, _, state, present := c.ts.Lookup(addr)
	shareAny := c.bus.ShareQuery(c.id, addr)

	result := c.dispatchOnBusGranted(present, state, sig, addr, shareAny)
	for _, kind := range result.signals {
		c.bus.Transmit(c.id, BusSignal{Kind: kind, Address: addr, Origin: c.id})
	}

	if present {
		c.ts.SetState(addr, result.newState)
	} else {
		c.install(addr, result.newState)
	}
	// Per the "classify at share? time" rule, a miss resolved while another
	// cache held the block is a shared reference even if it resolves to a
	// private-looking state (e.g. MESI's Write-miss-with-sharers ends
	// Modified, but another cache's copy was live at the moment of access).
	c.finalizeAccessClassification(shareAny)

	c.ctrl = ctrlResolvingRequest
	c.resolving = result.latency
	return result.latency
}

// install places a newly-fetched block at MRU, charging a writeback against
// the bus's overhead accumulator and traffic stats if the evicted entry was
// dirty. Called only while a grant resolution is in progress, so bus is
// always non-nil and mid-grant.
func (c *Cache) install(addr uint64, state BlockState) {
	evicted, evictedAddr, evictedState := c.ts.Insert(addr, state)
	if !evicted {
		return
	}
	dirty := evictedState == StateModified || evictedState == StateSharedModified
	if dirty {
		c.bus.addOverhead(c.cfg.flushCycles())
		c.stats.RecordWriteback(c.id)
		c.stats.RecordBusTraffic(Flush, c.cfg.BlockSize)
	}
	_ = evictedAddr
}

// OnBusSignal handles a snoop: another cache's transaction reaching this
// cache's tag store. It is called by the bus during Transmit, once per
// cache other than the signal's origin.
func (c *Cache) OnBusSignal(sig BusSignal) (extraCycles uint64) {
	_, _, state, present := c.ts.Lookup(sig.Address)
	if !present {
		return 0
	}
	result := c.dispatchOnBusSignal(state, sig)
	if result.newState == StateInvalid {
		c.ts.Remove(sig.Address)
		c.stats.RecordInvalidation(c.id)
	} else {
		c.ts.SetState(sig.Address, result.newState)
	}
	if result.extra > 0 {
		c.stats.RecordBusTraffic(Flush, c.cfg.BlockSize)
	}
	return result.extra
}

// Tick advances the resolving countdown. Idle and WaitingForBus are
// transition-free no-ops here; their next moves are both driven externally
// (a new on_pr_sig call, or the bus's grant).
func (c *Cache) Tick(now uint64) {
	if c.ctrl != ctrlResolvingRequest {
		return
	}
	if c.resolving <= 1 {
		c.dmq.Enqueue(now, 1, c.proc, Message{Kind: MsgReadyToProceed})
		c.ctrl = ctrlIdle
		return
	}
	c.resolving--
}

// scheduleReadyToProceed is the hit path's equivalent of Tick's last
// countdown step: it never enters ResolvingRequest at all since a hit's
// latency is exactly the DMQ's own delay.
func (c *Cache) scheduleReadyToProceed(now uint64) {
	c.dmq.Enqueue(now, 1, c.proc, Message{Kind: MsgReadyToProceed})
}

// finalizeAccessClassification records the private-vs-shared breakdown of
// the report's output: shared iff another cache held the block (share?) at
// the moment this access was settled.
func (c *Cache) finalizeAccessClassification(shared bool) {
	if shared {
		c.stats.RecordSharedAccess(c.id)
	} else {
		c.stats.RecordPrivateAccess(c.id)
	}
}
