package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coherence-sim/coherence-sim/sim"
)

func writeTraceFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "p0.trace")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing trace fixture: %v", err)
	}
	return path
}

func TestLoad_ParsesLoadStoreAndOther(t *testing.T) {
	// GIVEN a trace file exercising all three opcodes, with blank lines, a
	// comment, an explicit "0x" prefix, and an unprefixed operand that only
	// reads correctly as hex (0x64 and 14 are both hex, not decimal)
	path := writeTraceFile(t, "# comment\n0 0x40\n\n1 0x64\n2 14\n")

	// WHEN loaded
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// THEN it parses Load(0x40), Store(0x64=100), Other(0x14=20), then an implicit End
	want := []sim.Instruction{
		{Kind: sim.InstrLoad, Address: 0x40},
		{Kind: sim.InstrStore, Address: 0x64},
		{Kind: sim.InstrOther, Cycles: 0x14},
		{Kind: sim.InstrEnd},
	}
	for i, w := range want {
		got := r.Next()
		if got != w {
			t.Errorf("instr[%d]: got %v, want %v", i, got, w)
		}
	}
}

func TestLoad_UnknownOpcode_IsTraceParseError(t *testing.T) {
	path := writeTraceFile(t, "3 0x00\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for an unknown opcode")
	}
	var tpe *sim.TraceParseError
	if !asTraceParseError(err, &tpe) {
		t.Fatalf("expected *sim.TraceParseError, got %T: %v", err, err)
	}
	if tpe.Line != 1 {
		t.Errorf("Line: got %d, want 1", tpe.Line)
	}
}

func asTraceParseError(err error, target **sim.TraceParseError) bool {
	tpe, ok := err.(*sim.TraceParseError)
	if ok {
		*target = tpe
	}
	return ok
}

func TestLoad_NoTrailingEnd_AppendsOneImplicitly(t *testing.T) {
	path := writeTraceFile(t, "2 1\n")

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len: got %d, want 2 (Other + implicit End)", r.Len())
	}
	r.Next()
	if got := r.Next(); got.Kind != sim.InstrEnd {
		t.Errorf("last instruction: got %v, want End", got)
	}
}

func TestReader_Reset_RewindsToStart(t *testing.T) {
	path := writeTraceFile(t, "2 1\n")
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	first := r.Next()
	r.Next()
	r.Reset()
	if got := r.Next(); got != first {
		t.Errorf("after Reset, first instruction: got %v, want %v", got, first)
	}
}

func TestLoad_OtherWithZeroCycles_IsAnError(t *testing.T) {
	path := writeTraceFile(t, "2 0\n")
	if _, err := Load(path); err == nil {
		t.Error("expected an error for Other with 0 cycles")
	}
}
