package optimizer

import (
	"testing"
	"time"

	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

// anyFlags builds a FlagState with every flag ANY, the baseline every
// scenario below starts from before pinning the flags it actually cares
// about.
func anyFlags() ospec.FlagState {
	return ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()}
}

func anyCPU() ospec.CPUState {
	return ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()}
}

const scenarioTimeout = 10 * time.Second

// zeroAccumulatorSpec is scenario 1: CPU_OUT A:0x00, FLAGS_OUT Z:1,N:0.
func zeroAccumulatorSpec() ospec.OptimizationSpec {
	outFlags := anyFlags()
	outFlags.Z = value.ExactValue(1)
	outFlags.N = value.ExactValue(0)
	return ospec.OptimizationSpec{
		Goal:        ospec.Size,
		RunAddress:  0x1000,
		InputCPU:    anyCPU(),
		InputFlags:  anyFlags(),
		OutputCPU:   ospec.CPUState{A: value.ExactValue(0x00), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags: outFlags,
	}
}

func TestScenarioZeroAccumulator(t *testing.T) {
	d := New(zeroAccumulatorSpec(), Config{MaxLength: 3, NumWorkers: 2, Timeout: scenarioTimeout})
	res := d.Optimize()

	if !res.Found() {
		t.Fatal("expected a candidate zeroing the accumulator")
	}
	if got := inst.SeqBytes(res.Instructions); len(got) != 2 || got[0] != 0xA9 || got[1] != 0x00 {
		t.Errorf("expected LDA #$00 (A9 00), got % X", got)
	}
}

// preserveAndSetCarrySpec is scenario 2: CPU_OUT A:SAME, FLAGS_OUT C:1.
func preserveAndSetCarrySpec() ospec.OptimizationSpec {
	outFlags := anyFlags()
	outFlags.C = value.ExactValue(1)
	return ospec.OptimizationSpec{
		Goal:        ospec.Size,
		RunAddress:  0x1000,
		InputCPU:    anyCPU(),
		InputFlags:  anyFlags(),
		OutputCPU:   ospec.CPUState{A: value.SameValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags: outFlags,
	}
}

func TestScenarioPreserveAAndSetCarry(t *testing.T) {
	d := New(preserveAndSetCarrySpec(), Config{MaxLength: 3, NumWorkers: 2, Timeout: scenarioTimeout})
	res := d.Optimize()

	if !res.Found() {
		t.Fatal("expected a candidate preserving A and setting carry")
	}
	if got := inst.SeqBytes(res.Instructions); len(got) != 1 || got[0] != 0x38 {
		t.Errorf("expected SEC (38), got % X", got)
	}
}

// copyZeroPageSpec is scenario 3: copy $80 to $81, leaving $80 unchanged.
// spec.md §8 writes the $81 postcondition as "SAME(of 0x80)" — equal to a
// *different* input cell, not the SAME value kind's own same-cell
// equality (spec.md §6's grammar never defines a cross-address SAME
// literal). ospec.MemoryCopy is the Go-level construct for exactly this
// relation; see DESIGN.md's Open Question resolution.
func copyZeroPageSpec() ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		Goal:         ospec.Size,
		RunAddress:   0x1000,
		InputCPU:     anyCPU(),
		InputFlags:   anyFlags(),
		InputMemory:  []ospec.MemoryRegion{{Address: 0x80, Bytes: []value.Value{value.AnyValue()}}},
		OutputCPU:    anyCPU(),
		OutputFlags:  anyFlags(),
		OutputMemory: []ospec.MemoryRegion{{Address: 0x80, Bytes: []value.Value{value.SameValue()}}, {Address: 0x81, Bytes: []value.Value{value.AnyValue()}}},
		MemoryCopies: []ospec.MemoryCopy{{From: 0x80, To: 0x81}},
	}
}

func TestScenarioCopyZeroPage(t *testing.T) {
	d := New(copyZeroPageSpec(), Config{MaxLength: 5, NumWorkers: 2, Timeout: scenarioTimeout})
	res := d.Optimize()

	if !res.Found() {
		t.Fatal("expected a candidate copying $80 to $81")
	}
	if got := inst.SeqBytes(res.Instructions); len(got) != 4 || got[0] != 0xA5 || got[1] != 0x80 || got[2] != 0x85 || got[3] != 0x81 {
		t.Errorf("expected LDA $80; STA $81 (A5 80 85 81), got % X", got)
	}
}

// incrementMemorySpec pins a single concrete input/output pair at $10;
// spec.md §8 scenario 4 expresses "input+1" via two such pinned specs
// rather than a single universal relation, since EXACT/EXACT at a shared
// address is already representable with no new construct.
func incrementMemorySpec(in, out byte) ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		Goal:         ospec.Size,
		RunAddress:   0x1000,
		InputCPU:     anyCPU(),
		InputFlags:   anyFlags(),
		InputMemory:  []ospec.MemoryRegion{{Address: 0x10, Bytes: []value.Value{value.ExactValue(in)}}},
		OutputCPU:    anyCPU(),
		OutputFlags:  anyFlags(),
		OutputMemory: []ospec.MemoryRegion{{Address: 0x10, Bytes: []value.Value{value.ExactValue(out)}}},
	}
}

func TestScenarioIncrementMemoryByte(t *testing.T) {
	d := New(incrementMemorySpec(0x00, 0x01), Config{MaxLength: 3, NumWorkers: 2, Timeout: scenarioTimeout})
	res := d.Optimize()
	if !res.Found() {
		t.Fatal("expected a candidate incrementing $10 for the 0x00->0x01 vector")
	}
	got := inst.SeqBytes(res.Instructions)
	if len(got) != 2 || got[0] != 0xE6 || got[1] != 0x10 {
		t.Errorf("expected INC $10 (E6 10), got % X", got)
	}

	wrap := New(incrementMemorySpec(0xFF, 0x00), Config{MaxLength: 3, NumWorkers: 2, Timeout: scenarioTimeout})
	wrapRes := wrap.Optimize()
	if !wrapRes.Found() {
		t.Fatal("expected a candidate incrementing $10 for the 0xFF->0x00 wraparound vector")
	}
	if wrapGot := inst.SeqBytes(wrapRes.Instructions); len(wrapGot) != 2 || wrapGot[0] != 0xE6 || wrapGot[1] != 0x10 {
		t.Errorf("expected INC $10 (E6 10) for the wraparound vector too, got % X", wrapGot)
	}
}

// swapASpec is scenario 5: CPU_OUT A:SAME(of X), X:SAME(of A). Like
// scenario 3, the cross-register relation needs ospec.RegisterCopy
// rather than the same-cell SAME kind. The 6502 has no Y->X transfer, so
// a pure-register swap through Y alone can't work (whichever value
// passes through Y second overwrites the one still needed in A); a
// declared zero-page scratch byte gives the search a third slot to use
// instead, honoring scenario 5's "without using stack" — which rules out
// the stack specifically, not memory.
func swapASpec() ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		Goal:           ospec.Size,
		RunAddress:     0x1000,
		InputCPU:       anyCPU(),
		InputFlags:     anyFlags(),
		InputMemory:    []ospec.MemoryRegion{{Address: 0x02, Bytes: []value.Value{value.AnyValue()}}},
		OutputCPU:      ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags:    anyFlags(),
		OutputMemory:   []ospec.MemoryRegion{{Address: 0x02, Bytes: []value.Value{value.AnyValue()}}},
		RegisterCopies: []ospec.RegisterCopy{{From: "X", To: "A"}, {From: "A", To: "X"}},
	}
}

func TestScenarioSwapAAndX(t *testing.T) {
	d := New(swapASpec(), Config{MaxLength: 5, NumWorkers: 2, Timeout: scenarioTimeout})
	res := d.Optimize()

	// spec.md §8 scenario 5 itself disclaims a single expected byte
	// pattern here ("the test asserts equivalence of behavior, not the
	// byte pattern; any ... sequence passing all vectors is optimal"):
	// Optimize only ever returns a candidate the verification engine
	// accepted against every generated test vector, so Found() already
	// is the correctness assertion this scenario calls for.
	if !res.Found() {
		t.Fatal("expected a candidate swapping A and X")
	}
}

// clearBlockSpec is scenario 6: zero four consecutive bytes at $0200.
func clearBlockSpec() ospec.OptimizationSpec {
	zeros := []value.Value{value.ExactValue(0), value.ExactValue(0), value.ExactValue(0), value.ExactValue(0)}
	return ospec.OptimizationSpec{
		Goal:         ospec.Size,
		RunAddress:   0x1000,
		InputCPU:     anyCPU(),
		InputFlags:   anyFlags(),
		OutputCPU:    anyCPU(),
		OutputFlags:  anyFlags(),
		OutputMemory: []ospec.MemoryRegion{{Address: 0x0200, Bytes: zeros}},
	}
}

func TestScenarioClearFourByteBlock(t *testing.T) {
	d := New(clearBlockSpec(), Config{MaxLength: 12, NumWorkers: 4, Timeout: 30 * time.Second})
	res := d.Optimize()

	if !res.Found() {
		t.Fatal("expected a candidate clearing $0200..$0203")
	}
	want := []byte{0xA9, 0x00, 0x8D, 0x00, 0x02, 0x8D, 0x01, 0x02, 0x8D, 0x02, 0x02, 0x8D, 0x03, 0x02}
	if got := inst.SeqBytes(res.Instructions); len(got) != len(want) {
		t.Errorf("expected the load-once-store-four sequence (%d bytes), got %d bytes: % X", len(want), len(got), got)
	}
}
