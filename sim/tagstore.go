package sim

// tagEntry is one way of a cache set: a block's tag and coherence state.
type tagEntry struct {
	tag   uint64
	state BlockState
}

// tagSet holds at most Associativity entries, ordered LRU-first, MRU-last.
// Tags within a set are pairwise distinct.
type tagSet struct {
	entries []tagEntry
}

func (s *tagSet) indexOf(tag uint64) int {
	for i, e := range s.entries {
		if e.tag == tag {
			return i
		}
	}
	return -1
}

// TagStore is the per-cache metadata mapping tags to block states and LRU
// order. An absent entry uniformly models Invalid; there is no explicit
// Invalid entry ever stored.
type TagStore struct {
	cfg  Config
	sets []tagSet
}

// NewTagStore builds an empty tag store for the given geometry.
func NewTagStore(cfg Config) *TagStore {
	return &TagStore{
		cfg:  cfg,
		sets: make([]tagSet, cfg.NumSets()),
	}
}

// Lookup returns the set/way/state of addr's block if present. ok is false
// for an absent or (uniformly) Invalid block.
func (ts *TagStore) Lookup(addr uint64) (setIdx, wayIdx int, state BlockState, ok bool) {
	setIdx = ts.cfg.setIndex(addr)
	tag := ts.cfg.blockTag(addr)
	wayIdx = ts.sets[setIdx].indexOf(tag)
	if wayIdx < 0 {
		return setIdx, -1, StateInvalid, false
	}
	return setIdx, wayIdx, ts.sets[setIdx].entries[wayIdx].state, true
}

// Touch moves addr's entry to the MRU end of its set. addr must be present;
// calling Touch on an absent block is an engine bug — every call site checks
// Lookup first, since every hit must touch.
func (ts *TagStore) Touch(addr uint64) {
	setIdx := ts.cfg.setIndex(addr)
	tag := ts.cfg.blockTag(addr)
	set := &ts.sets[setIdx]
	i := set.indexOf(tag)
	if i < 0 {
		violate("tagstore-touch-absent", "touch on absent block 0x%x", addr)
	}
	e := set.entries[i]
	set.entries = append(append(set.entries[:i:i], set.entries[i+1:]...), e)
}

// SetState overwrites the state of an already-present block without moving
// it in LRU order — used by bus-signal (snoop) handlers, which change state
// but are not themselves an access under the touch/insert rules below.
func (ts *TagStore) SetState(addr uint64, state BlockState) {
	setIdx := ts.cfg.setIndex(addr)
	tag := ts.cfg.blockTag(addr)
	set := &ts.sets[setIdx]
	i := set.indexOf(tag)
	if i < 0 {
		violate("tagstore-setstate-absent", "SetState on absent block 0x%x", addr)
	}
	set.entries[i].state = state
}

// Remove deletes addr's entry outright — used when a snoop handler
// transitions a block to Invalid, since Invalid is modelled by absence.
func (ts *TagStore) Remove(addr uint64) {
	setIdx := ts.cfg.setIndex(addr)
	tag := ts.cfg.blockTag(addr)
	set := &ts.sets[setIdx]
	i := set.indexOf(tag)
	if i < 0 {
		return
	}
	set.entries = append(set.entries[:i], set.entries[i+1:]...)
}

// Insert installs a new block at MRU, evicting the current LRU entry first
// if the set is full. It reports the evicted entry, if any,
// so the caller can decide whether it was dirty and charge a writeback —
// the tag store itself has no notion of "dirty", only of per-protocol
// BlockState, which the cache interprets.
func (ts *TagStore) Insert(addr uint64, state BlockState) (evicted bool, evictedAddr uint64, evictedState BlockState) {
	setIdx := ts.cfg.setIndex(addr)
	tag := ts.cfg.blockTag(addr)
	set := &ts.sets[setIdx]

	if i := set.indexOf(tag); i >= 0 {
		// Re-installing a present block (e.g. a resolved miss that raced
		// with an already-present entry) just updates state and moves MRU.
		set.entries = append(append(set.entries[:i:i], set.entries[i+1:]...), tagEntry{tag: tag, state: state})
		return false, 0, StateInvalid
	}

	if len(set.entries) >= ts.cfg.Associativity {
		victim := set.entries[0]
		set.entries = set.entries[1:]
		evicted = true
		evictedAddr = ts.cfg.blockAddr(victim.tag, setIdx)
		evictedState = victim.state
	}
	set.entries = append(set.entries, tagEntry{tag: tag, state: state})
	return evicted, evictedAddr, evictedState
}

// mruTag returns the tag at the MRU end of a set, or false when the set is
// empty. It has no caller in this package.
func (ts *TagStore) mruTag(setIdx int) (uint64, bool) {
	set := ts.sets[setIdx]
	if len(set.entries) == 0 {
		return 0, false
	}
	return set.entries[len(set.entries)-1].tag, true
}
