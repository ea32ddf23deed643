// Package trace parses and replays per-processor instruction traces: plain
// text files, one instruction per line, in a simple opcode/operand format.
package trace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/coherence-sim/coherence-sim/sim"
)

// Source is the external collaborator sim.Processor drives: a lazy,
// restartable instruction stream. Reset adds the ability to rewind a
// trace and replay it from the start.
type Source interface {
	sim.TraceSource
	Reset()
}

// Reader is a Source backed by a fully-parsed trace file. Trace files in
// this domain are small enough that parsing once up front and replaying
// from a slice is simpler than re-seeking a file handle on Reset, and it
// lets parse errors surface before the first cycle runs rather than mid-run.
type Reader struct {
	path  string
	instr []sim.Instruction
	pos   int
}

// Load parses path into a restartable Reader. A line is one of:
//
//	0 <hex addr>     Load
//	1 <hex addr>     Store
//	2 <hex cycles>   Other
//
// Blank lines and lines starting with '#' are skipped. The format has no End
// opcode: end-of-file is the implicit End, and Load appends an InstrEnd after
// the last parsed line so Next's contract (always terminates with InstrEnd)
// holds.
func Load(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace %s: %w", path, err)
	}
	defer f.Close()

	r := &Reader{path: path}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		instr, err := parseLine(line)
		if err != nil {
			return nil, &sim.TraceParseError{File: path, Line: lineNo, Text: line, Err: err}
		}
		r.instr = append(r.instr, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", path, err)
	}
	if len(r.instr) == 0 || r.instr[len(r.instr)-1].Kind != sim.InstrEnd {
		r.instr = append(r.instr, sim.Instruction{Kind: sim.InstrEnd})
	}
	return r, nil
}

func parseLine(line string) (sim.Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return sim.Instruction{}, fmt.Errorf("want 2 fields, got %d", len(fields))
	}
	opcode, operand := fields[0], fields[1]
	switch opcode {
	case "0", "1":
		addr, err := parseHex(operand)
		if err != nil {
			return sim.Instruction{}, fmt.Errorf("bad address %q: %w", operand, err)
		}
		kind := sim.InstrLoad
		if opcode == "1" {
			kind = sim.InstrStore
		}
		return sim.Instruction{Kind: kind, Address: addr}, nil
	case "2":
		cycles, err := parseHex(operand)
		if err != nil {
			return sim.Instruction{}, fmt.Errorf("bad cycle count %q: %w", operand, err)
		}
		if cycles == 0 {
			return sim.Instruction{}, fmt.Errorf("Other cycle count must be strictly positive, got 0")
		}
		return sim.Instruction{Kind: sim.InstrOther, Cycles: cycles}, nil
	default:
		return sim.Instruction{}, fmt.Errorf("unknown opcode %q", opcode)
	}
}

// parseHex parses a trace operand as hexadecimal, unconditionally — every
// opcode's operand is hex, with or without an "0x" prefix.
func parseHex(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

// Next returns the next instruction, repeating InstrEnd forever once the
// trace is exhausted.
func (r *Reader) Next() sim.Instruction {
	if r.pos >= len(r.instr) {
		return sim.Instruction{Kind: sim.InstrEnd}
	}
	instr := r.instr[r.pos]
	r.pos++
	return instr
}

// Reset rewinds the cursor to the start of the trace.
func (r *Reader) Reset() {
	r.pos = 0
}

// Len reports the number of parsed instructions, including the trailing End.
func (r *Reader) Len() int { return len(r.instr) }
