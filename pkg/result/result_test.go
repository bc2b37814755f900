package result

import (
	"bytes"
	"testing"

	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/optimizer"
	"github.com/ilmenit/Phaistos/pkg/ospec"
)

func TestNewSolutionCarriesSpecAndResultFields(t *testing.T) {
	spec := ospec.OptimizationSpec{Goal: ospec.Size, RunAddress: 0x0800}
	res := optimizer.Result{
		Instructions:    []inst.Instruction{{Op: 0xA2, Operand: 3}}, // LDX #3
		Metric:          2,
		Cycles:          2,
		SequencesTested: 42,
	}

	s := NewSolution(spec, res)
	if s.RunAddress != 0x0800 {
		t.Errorf("RunAddress = %#04x, want 0x0800", s.RunAddress)
	}
	if len(s.Bytes) != 2 || s.Bytes[0] != 0xA2 || s.Bytes[1] != 3 {
		t.Errorf("Bytes = %v, want [0xA2, 0x03]", s.Bytes)
	}
	if s.Goal != "size" {
		t.Errorf("Goal = %q, want %q", s.Goal, "size")
	}
	if s.SequencesTested != 42 {
		t.Errorf("SequencesTested = %d, want 42", s.SequencesTested)
	}
}

func TestInstructionsRoundTripsThroughBytes(t *testing.T) {
	s := Solution{Bytes: []byte{0xA2, 0x03, 0xE8}} // LDX #3 ; INX
	instrs := s.Instructions()
	if len(instrs) != 2 {
		t.Fatalf("expected 2 decoded instructions, got %d", len(instrs))
	}
	if instrs[0].Op != 0xA2 || instrs[0].Operand != 3 {
		t.Errorf("instrs[0] = %+v, want LDX #3", instrs[0])
	}
	if instrs[1].Op != 0xE8 {
		t.Errorf("instrs[1] = %+v, want INX", instrs[1])
	}
}

func TestDisassemblyProducesOneLinePerInstruction(t *testing.T) {
	s := Solution{Bytes: []byte{0xA2, 0x03, 0xE8}}
	disasm := s.Disassembly()
	lines := 1
	for _, c := range disasm {
		if c == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines of disassembly, got %d in %q", lines, disasm)
	}
}

func TestWriteJSONThenReadJSONRoundTrips(t *testing.T) {
	s := Solution{RunAddress: 0x2000, Bytes: []byte{0xA2, 0x03}, Size: 2, Cycles: 2, Goal: "size", SequencesTested: 7}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, s); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.RunAddress != s.RunAddress || got.Size != s.Size || got.Cycles != s.Cycles ||
		got.Goal != s.Goal || got.SequencesTested != s.SequencesTested || !bytes.Equal(got.Bytes, s.Bytes) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, s)
	}
}
