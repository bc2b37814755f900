package verify

import (
	"testing"

	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

// identitySpec asks for A unchanged and nothing else observed: RUN at
// $0800, A is ANY on input and SAME on output.
func identitySpec() ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		RunAddress: 0x0800,
		InputCPU:   ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		InputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		OutputCPU:  ospec.CPUState{A: value.SameValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
	}
}

func TestVerifyIdentityAcceptsBRKOnly(t *testing.T) {
	e := New(identitySpec())
	candidate := []inst.Instruction{{Op: 0x00}} // BRK: halts immediately, touches nothing but SP/flags
	if ok, reason := e.VerifyWithExplanation(candidate); !ok {
		t.Fatalf("BRK-only candidate should satisfy an identity-on-A spec: %s", reason)
	}
}

func TestVerifyIdentityRejectsClobber(t *testing.T) {
	e := New(identitySpec())
	candidate := []inst.Instruction{
		{Op: 0xA9, Operand: 0x42}, // LDA #$42
		{Op: 0x00},                // BRK
	}
	if ok, _ := e.VerifyWithExplanation(candidate); ok {
		t.Fatal("a candidate that overwrites A must fail a SAME(A) spec")
	}
}

// exactResultSpec asks for X == $05 unconditionally regardless of input.
func exactResultSpec() ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		RunAddress: 0x0800,
		InputCPU:   ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		InputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		OutputCPU:  ospec.CPUState{A: value.AnyValue(), X: value.ExactValue(0x05), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
	}
}

func TestVerifyExactRegisterAcceptsMatchingLoad(t *testing.T) {
	e := New(exactResultSpec())
	candidate := []inst.Instruction{
		{Op: 0xA2, Operand: 0x05}, // LDX #$05
		{Op: 0x00},                // BRK
	}
	if ok, reason := e.VerifyWithExplanation(candidate); !ok {
		t.Fatalf("LDX #5 should satisfy X == 5: %s", reason)
	}
}

func TestVerifyExactRegisterRejectsWrongValue(t *testing.T) {
	e := New(exactResultSpec())
	candidate := []inst.Instruction{
		{Op: 0xA2, Operand: 0x06}, // LDX #$06
		{Op: 0x00},
	}
	if ok, _ := e.VerifyWithExplanation(candidate); ok {
		t.Fatal("LDX #6 must fail a spec requiring X == 5")
	}
}

// memorySpec requires the byte at $0010 to end up equal to whatever A held
// on entry: A is ANY on input, and $0010 is ANY on input, SAME on output.
func memorySpec() ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		RunAddress:  0x0800,
		InputCPU:    ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		InputFlags:  ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		InputMemory: []ospec.MemoryRegion{{Address: 0x0010, Bytes: []value.Value{value.AnyValue()}}},
		OutputCPU:   ospec.CPUState{A: value.SameValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		OutputMemory: []ospec.MemoryRegion{{Address: 0x0010, Bytes: []value.Value{value.SameValue()}}},
	}
}

func TestVerifyMemorySameAcceptsPassthrough(t *testing.T) {
	e := New(memorySpec())
	candidate := []inst.Instruction{{Op: 0x00}} // BRK: touches neither A nor $0010
	if ok, reason := e.VerifyWithExplanation(candidate); !ok {
		t.Fatalf("no-op candidate should preserve $0010: %s", reason)
	}
}

func TestVerifyMemorySameRejectsStompingSTA(t *testing.T) {
	e := New(memorySpec())
	candidate := []inst.Instruction{
		{Op: 0xA9, Operand: 0x99}, // LDA #$99
		{Op: 0x85, Operand: 0x10}, // STA $10
		{Op: 0x00},
	}
	if ok, _ := e.VerifyWithExplanation(candidate); ok {
		t.Fatal("overwriting $0010 with a fixed value must fail a SAME($0010) spec whenever A differs from the stored byte")
	}
}

func TestVerifyRejectsUnauthorizedWrite(t *testing.T) {
	spec := identitySpec()
	e := New(spec)
	candidate := []inst.Instruction{
		{Op: 0xA9, Operand: 0x01}, // LDA #1
		{Op: 0x85, Operand: 0x20}, // STA $20: no output memory region declares this address
		{Op: 0x00},
	}
	if ok, _ := e.VerifyWithExplanation(candidate); ok {
		t.Fatal("a write outside every declared output region must fail verification")
	}
}

func TestSizeCountsEncodedBytes(t *testing.T) {
	e := New(identitySpec())
	candidate := []inst.Instruction{
		{Op: 0xA9, Operand: 0x01}, // LDA #1: 2 bytes
		{Op: 0x00},                // BRK: 1 byte
	}
	if got := e.Size(candidate); got != 3 {
		t.Errorf("Size: got %d, want 3", got)
	}
}

func TestCyclesReflectsCandidateLength(t *testing.T) {
	e := New(identitySpec())
	shorter := []inst.Instruction{{Op: 0x00}}
	longer := []inst.Instruction{{Op: 0xA9, Operand: 0x01}, {Op: 0x00}}
	if e.Cycles(longer) <= e.Cycles(shorter) {
		t.Error("adding an instruction ahead of BRK should not decrease reported cycle count")
	}
}

func TestGenerateTestVectorsNoInfluenceStaysSingleton(t *testing.T) {
	// every input is ANY and every output is ANY: nothing is observed, so
	// no dimension is swept and exactly one (base) vector is produced.
	spec := ospec.OptimizationSpec{
		RunAddress:  0x0800,
		InputCPU:    ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		InputFlags:  ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		OutputCPU:   ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
	}
	vectors := GenerateTestVectors(spec)
	if len(vectors) != 1 {
		t.Errorf("expected a single base vector when nothing is observed, got %d", len(vectors))
	}
}

func TestGenerateTestVectorsSweepsExactTarget(t *testing.T) {
	// X is ANY on input and pinned EXACT on output: even though the target
	// value doesn't vary, the candidate's correctness might depend on the
	// starting value of X, so the input must still be swept.
	vectors := GenerateTestVectors(exactResultSpec())
	if len(vectors) != len(BoundaryValues) {
		t.Errorf("expected %d vectors sweeping X, got %d", len(BoundaryValues), len(vectors))
	}
}

// swapSpec requires A and X to trade places, using a declared zero-page
// scratch byte rather than the stack: the 6502 has no Y->X transfer, so a
// pure-register A/X swap needs a third storage slot somewhere, and
// spec.md §8 scenario 5 only rules out the stack, not memory.
func swapSpec() ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		RunAddress:     0x0800,
		InputCPU:       ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		InputFlags:     ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		InputMemory:    []ospec.MemoryRegion{{Address: 0x02, Bytes: []value.Value{value.AnyValue()}}},
		OutputCPU:      ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags:    ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		OutputMemory:   []ospec.MemoryRegion{{Address: 0x02, Bytes: []value.Value{value.AnyValue()}}},
		RegisterCopies: []ospec.RegisterCopy{{From: "X", To: "A"}, {From: "A", To: "X"}},
	}
}

func TestVerifyRegisterCopyAcceptsSwapViaScratchByte(t *testing.T) {
	e := New(swapSpec())
	candidate := []inst.Instruction{
		{Op: 0x85, Operand: 0x02}, // STA $02: temp = old A
		{Op: 0x8A},                // TXA: A = old X
		{Op: 0xA6, Operand: 0x02}, // LDX $02: X = old A
	}
	if ok, reason := e.VerifyWithExplanation(candidate); !ok {
		t.Fatalf("STA temp; TXA; LDX temp should satisfy an A/X swap spec: %s", reason)
	}
}

func TestVerifyRegisterCopyRejectsNoopOnNonIdentity(t *testing.T) {
	e := New(swapSpec())
	candidate := []inst.Instruction{{Op: 0x00}} // BRK: A and X keep their starting values
	if ok, reason := e.VerifyWithExplanation(candidate); ok {
		t.Fatalf("a no-op candidate must fail an A/X swap spec whenever A != X on input: %s", reason)
	}
}

func TestGenerateTestVectorsSweepsInfluencingInput(t *testing.T) {
	spec := identitySpec() // A is ANY in, SAME out: must be swept
	vectors := GenerateTestVectors(spec)
	if len(vectors) != len(BoundaryValues) {
		t.Errorf("expected %d vectors sweeping A, got %d", len(BoundaryValues), len(vectors))
	}
	seen := map[byte]bool{}
	for _, v := range vectors {
		seen[v.CPU.A] = true
	}
	if len(seen) != len(BoundaryValues) {
		t.Errorf("expected %d distinct A values across vectors, got %d", len(BoundaryValues), len(seen))
	}
}
