package sim

import "fmt"

// InstrKind identifies the variant of an Instruction.
type InstrKind int8

const (
	InstrLoad InstrKind = iota
	InstrStore
	InstrOther
	InstrEnd
)

func (k InstrKind) String() string {
	switch k {
	case InstrLoad:
		return "Load"
	case InstrStore:
		return "Store"
	case InstrOther:
		return "Other"
	case InstrEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// Instruction is the tagged variant produced by a trace source: Load(address),
// Store(address), Other(cycles) or End.
type Instruction struct {
	Kind    InstrKind
	Address uint64 // valid for Load/Store
	Cycles  uint64 // valid for Other, strictly positive
}

func (i Instruction) String() string {
	switch i.Kind {
	case InstrLoad, InstrStore:
		return fmt.Sprintf("%s(0x%x)", i.Kind, i.Address)
	case InstrOther:
		return fmt.Sprintf("Other(%d)", i.Cycles)
	default:
		return i.Kind.String()
	}
}

// Protocol selects the coherence protocol a run simulates.
type Protocol int8

const (
	ProtocolMESI Protocol = iota
	ProtocolDragon
)

func (p Protocol) String() string {
	switch p {
	case ProtocolMESI:
		return "MESI"
	case ProtocolDragon:
		return "Dragon"
	default:
		return "Unknown"
	}
}

// ParseProtocol parses a protocol name from CLI/config input.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "MESI", "mesi":
		return ProtocolMESI, nil
	case "Dragon", "dragon":
		return ProtocolDragon, nil
	default:
		return 0, &ConfigError{Field: "protocol", Reason: fmt.Sprintf("unknown protocol %q (want MESI or Dragon)", s)}
	}
}

// BlockState is the per-block coherence state. MESI uses
// {Invalid,Shared,Exclusive,Modified}; Dragon uses
// {Invalid,Exclusive,SharedClean,SharedModified,Modified}. An absent tag-store
// entry is the uniform representation of Invalid (see tagstore.go); BlockState
// only appears with a value other than StateInvalid while an entry exists.
type BlockState int8

const (
	StateInvalid BlockState = iota
	StateShared             // MESI only
	StateExclusive
	StateModified
	StateSharedClean    // Dragon only
	StateSharedModified // Dragon only
)

func (s BlockState) String() string {
	switch s {
	case StateInvalid:
		return "Invalid"
	case StateShared:
		return "Shared"
	case StateExclusive:
		return "Exclusive"
	case StateModified:
		return "Modified"
	case StateSharedClean:
		return "SharedClean"
	case StateSharedModified:
		return "SharedModified"
	default:
		return "Unknown"
	}
}

// ProcSignal is the signal a processor raises to its own cache.
type ProcSignal int8

const (
	SigRead ProcSignal = iota
	SigWrite
)

func (s ProcSignal) String() string {
	if s == SigWrite {
		return "Write"
	}
	return "Read"
}

// BusSignalKind enumerates the four bus transactions.
type BusSignalKind int8

const (
	BusRd BusSignalKind = iota
	BusRdX
	BusUpd
	Flush
)

func (k BusSignalKind) String() string {
	switch k {
	case BusRd:
		return "BusRd"
	case BusRdX:
		return "BusRdX"
	case BusUpd:
		return "BusUpd"
	case Flush:
		return "Flush"
	default:
		return "Unknown"
	}
}

// BusSignal is a transaction broadcast on the bus. Origin is the id of the
// cache that produced it; it is carried explicitly here, even though the
// originator is implicit in the protocol description, since Go handlers
// need it to skip self-snooping.
type BusSignal struct {
	Kind    BusSignalKind
	Address uint64
	Origin  int
}

// latency constants for bus-mediated operations.
const (
	// snoopQueryCycles (A) is the fixed cost of querying peer caches'
	// tag stores at grant time: 2 * address_word_count, and address is a
	// single word in this model.
	snoopQueryCycles uint64 = 2
	// memFetchCycles (M) is the cost of a memory fetch on a true miss.
	memFetchCycles uint64 = 100
)

// cacheToCacheCycles (C) and flushCycles (F) depend on the configured block
// size and are computed by Config.
