package sim

// This file encodes the MESI (Illinois) and Dragon transition tables as two
// small families of pure-ish functions operating on a *Cache receiver, one
// dispatcher per handler kind: a tagged variant per message kind, with one
// dispatcher per component.

// prSigAction is what on_pr_sig decides to do for a present block: either
// the access is a hit settled immediately (possibly after a local state
// change and/or a silent or bus-visible signal), or the cache must acquire
// the bus.
type prSigAction struct {
	needsBus bool
	newState BlockState // valid when !needsBus
	signal   *BusSignal // non-nil if a signal must go out without full arbitration (MESI Shared+Write upgrade)
}

// dispatchPrSigPresent handles the on_pr_sig transition table for a block
// that is already present (not absent/Invalid), split by protocol.
func (c *Cache) dispatchPrSigPresent(state BlockState, sig ProcSignal, addr uint64) prSigAction {
	if c.cfg.Protocol == ProtocolMESI {
		return mesiPrSigPresent(state, sig, addr, c.id)
	}
	return dragonPrSigPresent(state, sig)
}

func mesiPrSigPresent(state BlockState, sig ProcSignal, addr uint64, origin int) prSigAction {
	switch state {
	case StateShared:
		if sig == SigRead {
			return prSigAction{needsBus: false, newState: StateShared}
		}
		// Shared, Write: transmit BusRdX and upgrade locally, an
		// immediate action ("transmit BusRdX... proceed"), unlike the
		// absent/Invalid case, which explicitly
		// enqueues an acquire and waits — so this upgrade's invalidation
		// broadcast rides the bus without going through full FIFO
		// arbitration. See DESIGN.md for the resolved ambiguity.
		return prSigAction{
			needsBus: false,
			newState: StateModified,
			signal:   &BusSignal{Kind: BusRdX, Address: addr, Origin: origin},
		}
	case StateExclusive:
		if sig == SigRead {
			return prSigAction{needsBus: false, newState: StateExclusive}
		}
		// silent upgrade, no bus signal at all.
		return prSigAction{needsBus: false, newState: StateModified}
	case StateModified:
		return prSigAction{needsBus: false, newState: StateModified}
	default:
		violate("mesi-pr-sig-bad-state", "on_pr_sig present dispatch saw state %v", state)
		return prSigAction{}
	}
}

func dragonPrSigPresent(state BlockState, sig ProcSignal) prSigAction {
	switch state {
	case StateExclusive:
		if sig == SigRead {
			return prSigAction{needsBus: false, newState: StateExclusive}
		}
		return prSigAction{needsBus: false, newState: StateModified}
	case StateSharedClean:
		if sig == SigRead {
			return prSigAction{needsBus: false, newState: StateSharedClean}
		}
		return prSigAction{needsBus: true}
	case StateSharedModified:
		if sig == SigRead {
			return prSigAction{needsBus: false, newState: StateSharedModified}
		}
		return prSigAction{needsBus: true}
	case StateModified:
		return prSigAction{needsBus: false, newState: StateModified}
	default:
		violate("dragon-pr-sig-bad-state", "on_pr_sig present dispatch saw state %v", state)
		return prSigAction{}
	}
}

// grantResult is what on_bus_granted computes: the total latency t the
// requester will wait, the signals to transmit (in order), and the state to
// install/set on this cache.
type grantResult struct {
	latency  uint64
	signals  []BusSignalKind
	newState BlockState
}

// dispatchOnBusGranted handles the on_bus_granted transition table. present and
// state describe the requesting cache's own block immediately before grant
// (absent for a true miss; SharedClean/SharedModified for a Dragon upgrade
// that still needed the bus).
func (c *Cache) dispatchOnBusGranted(present bool, state BlockState, sig ProcSignal, addr uint64, shareAny bool) grantResult {
	if c.cfg.Protocol == ProtocolMESI {
		return mesiOnBusGranted(sig, shareAny, c.cfg)
	}
	return dragonOnBusGranted(present, state, sig, shareAny, c.cfg)
}

func mesiOnBusGranted(sig ProcSignal, shareAny bool, cfg Config) grantResult {
	c := cfg.cacheToCacheCycles()
	if sig == SigRead {
		if shareAny {
			return grantResult{latency: snoopQueryCycles + c, signals: []BusSignalKind{BusRd}, newState: StateShared}
		}
		return grantResult{latency: snoopQueryCycles + memFetchCycles, signals: []BusSignalKind{BusRd}, newState: StateExclusive}
	}
	// Write
	if shareAny {
		return grantResult{latency: snoopQueryCycles + c, signals: []BusSignalKind{BusRdX}, newState: StateModified}
	}
	return grantResult{latency: snoopQueryCycles + memFetchCycles, signals: []BusSignalKind{BusRdX}, newState: StateModified}
}

func dragonOnBusGranted(present bool, state BlockState, sig ProcSignal, shareAny bool, cfg Config) grantResult {
	c := cfg.cacheToCacheCycles()
	if !present {
		if sig == SigRead {
			if shareAny {
				return grantResult{latency: snoopQueryCycles + c, signals: []BusSignalKind{BusRd}, newState: StateSharedClean}
			}
			return grantResult{latency: snoopQueryCycles + memFetchCycles, signals: []BusSignalKind{BusRd}, newState: StateExclusive}
		}
		// Write, absent
		if shareAny {
			return grantResult{latency: snoopQueryCycles + c, signals: []BusSignalKind{BusRd, BusUpd}, newState: StateSharedModified}
		}
		return grantResult{latency: snoopQueryCycles + memFetchCycles, signals: []BusSignalKind{BusRd}, newState: StateModified}
	}

	// present: Dragon upgrade paths, both only reachable for Write.
	switch state {
	case StateSharedClean:
		if shareAny {
			return grantResult{latency: snoopQueryCycles, signals: []BusSignalKind{BusUpd}, newState: StateSharedModified}
		}
		return grantResult{latency: snoopQueryCycles, signals: []BusSignalKind{BusUpd}, newState: StateModified}
	case StateSharedModified:
		if shareAny {
			return grantResult{latency: snoopQueryCycles, signals: []BusSignalKind{BusUpd}, newState: StateSharedModified}
		}
		return grantResult{latency: snoopQueryCycles, signals: []BusSignalKind{BusUpd}, newState: StateModified}
	default:
		violate("dragon-grant-bad-state", "on_bus_granted upgrade dispatch saw state %v", state)
		return grantResult{}
	}
}

// snoopResult is what on_bus_signal computes: the new state (StateInvalid
// meaning "remove the entry") and any extra flush cost incurred.
type snoopResult struct {
	newState BlockState
	extra    uint64
}

func (c *Cache) dispatchOnBusSignal(state BlockState, sig BusSignal) snoopResult {
	if c.cfg.Protocol == ProtocolMESI {
		return mesiOnBusSignal(state, sig, c.cfg.ChargeExclusiveToSharedFlush, c.cfg.flushCycles())
	}
	return dragonOnBusSignal(state, sig, c.cfg.flushCycles())
}

func mesiOnBusSignal(state BlockState, sig BusSignal, chargeExclusiveFlush bool, flush uint64) snoopResult {
	switch state {
	case StateInvalid:
		return snoopResult{newState: StateInvalid}
	case StateShared:
		switch sig.Kind {
		case BusRd:
			return snoopResult{newState: StateShared}
		case BusRdX:
			return snoopResult{newState: StateInvalid}
		}
	case StateExclusive:
		switch sig.Kind {
		case BusRd:
			extra := uint64(0)
			if chargeExclusiveFlush {
				extra = flush
			}
			return snoopResult{newState: StateShared, extra: extra}
		case BusRdX:
			return snoopResult{newState: StateInvalid, extra: flush}
		}
	case StateModified:
		switch sig.Kind {
		case BusRd:
			return snoopResult{newState: StateShared, extra: flush}
		case BusRdX:
			return snoopResult{newState: StateInvalid, extra: flush}
		}
	}
	violate("mesi-snoop-bad-case", "on_bus_signal saw state=%v signal=%v", state, sig.Kind)
	return snoopResult{}
}

func dragonOnBusSignal(state BlockState, sig BusSignal, flush uint64) snoopResult {
	switch state {
	case StateInvalid:
		return snoopResult{newState: StateInvalid}
	case StateExclusive:
		if sig.Kind == BusRd {
			return snoopResult{newState: StateSharedClean}
		}
	case StateSharedClean:
		// BusRd: stay. BusUpd: stay (value locally updated by the
		// updater's own data path; this snooper's tag/state is unaffected).
		return snoopResult{newState: StateSharedClean}
	case StateSharedModified:
		switch sig.Kind {
		case BusRd:
			return snoopResult{newState: StateSharedModified, extra: flush}
		case BusUpd:
			return snoopResult{newState: StateSharedClean}
		}
	case StateModified:
		if sig.Kind == BusRd {
			return snoopResult{newState: StateSharedModified}
		}
	}
	violate("dragon-snoop-bad-case", "on_bus_signal saw state=%v signal=%v", state, sig.Kind)
	return snoopResult{}
}
