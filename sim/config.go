package sim

import "math/bits"

// Config groups the cache geometry and protocol selection for a run, one
// struct per concern rather than a pile of loose parameters.
type Config struct {
	Protocol      Protocol
	CacheSize     int // total bytes per cache
	Associativity int // ways per set
	BlockSize     int // bytes per block

	// ChargeExclusiveToSharedFlush decides whether MESI's Exclusive+BusRd→
	// Shared snoop charges a flush. Defaults to false (no charge), the more
	// common convention among snooping-protocol implementations.
	ChargeExclusiveToSharedFlush bool
}

// DefaultConfig returns the CLI's default geometry: 4096-byte cache, 2-way
// associative, 32-byte blocks.
func DefaultConfig(protocol Protocol) Config {
	return Config{
		Protocol:      protocol,
		CacheSize:     4096,
		Associativity: 2,
		BlockSize:     32,
	}
}

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

// Validate enforces the configuration-error taxonomy: geometry
// parameters must all be powers of two, and the number of sets they imply
// must be a whole number of sets, not a fraction.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.CacheSize) {
		return &ConfigError{Field: "cache-size", Reason: "must be a power of two"}
	}
	if !isPowerOfTwo(c.Associativity) {
		return &ConfigError{Field: "associativity", Reason: "must be a power of two"}
	}
	if !isPowerOfTwo(c.BlockSize) {
		return &ConfigError{Field: "block-size", Reason: "must be a power of two"}
	}
	if c.CacheSize%(c.Associativity*c.BlockSize) != 0 {
		return &ConfigError{Field: "cache-size", Reason: "must be an integer multiple of associativity*block-size"}
	}
	if c.NumSets() < 1 {
		return &ConfigError{Field: "cache-size", Reason: "geometry implies fewer than one set"}
	}
	return nil
}

// NumSets returns the derived number of sets.
func (c Config) NumSets() int {
	return c.CacheSize / (c.Associativity * c.BlockSize)
}

// OffsetBits, IndexBits and TagBits return the derived bit widths of a
// word-aligned address.
func (c Config) OffsetBits() int { return bits.TrailingZeros(uint(c.BlockSize)) }
func (c Config) IndexBits() int  { return bits.TrailingZeros(uint(c.NumSets())) }
func (c Config) TagBits(addrBits int) int {
	return addrBits - c.OffsetBits() - c.IndexBits()
}

// cacheToCacheCycles (C) is the cache-to-cache transfer cost: two cycles per
// byte of a block.
func (c Config) cacheToCacheCycles() uint64 {
	return uint64(2 * c.BlockSize)
}

// flushCycles (F) is the cost of writing a dirty block back to memory: also
// two cycles per byte of a block.
func (c Config) flushCycles() uint64 {
	return uint64(2 * c.BlockSize)
}

// setIndex and blockTag split a word-aligned address per the derived
// geometry: offset bits are discarded (blocks are the unit of coherence),
// the next IndexBits() select the set, and the remainder is the tag.
func (c Config) setIndex(addr uint64) int {
	return int((addr / uint64(c.BlockSize)) % uint64(c.NumSets()))
}

func (c Config) blockTag(addr uint64) uint64 {
	return addr / uint64(c.BlockSize) / uint64(c.NumSets())
}

// blockAddr reconstructs the block-aligned address from a tag and set index;
// used when reporting eviction/writeback addresses.
func (c Config) blockAddr(tag uint64, set int) uint64 {
	return (tag*uint64(c.NumSets()) + uint64(set)) * uint64(c.BlockSize)
}
