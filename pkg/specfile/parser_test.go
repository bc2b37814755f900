package specfile

import (
	"strings"
	"testing"

	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

const zeroAccumulatorSpec = `
; zero the accumulator unconditionally
OPTIMIZE_FOR: size
RUN: 0x0800

CPU_IN
	A: ANY

CPU_OUT
	A: 0x00

OPTIMIZE
	0x0800: END
`

func TestParseZeroAccumulator(t *testing.T) {
	spec, err := Parse(strings.NewReader(zeroAccumulatorSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Goal != ospec.Size {
		t.Errorf("Goal = %v, want Size", spec.Goal)
	}
	if spec.RunAddress != 0x0800 {
		t.Errorf("RunAddress = %#04x, want 0x0800", spec.RunAddress)
	}
	if spec.InputCPU.A.Kind != value.Any {
		t.Errorf("InputCPU.A = %v, want Any", spec.InputCPU.A.Kind)
	}
	if spec.OutputCPU.A.Kind != value.Exact || spec.OutputCPU.A.Byte != 0x00 {
		t.Errorf("OutputCPU.A = %v, want Exact(0x00)", spec.OutputCPU.A)
	}
	if len(spec.CodeBlocks) != 1 {
		t.Fatalf("CodeBlocks = %d, want 1", len(spec.CodeBlocks))
	}
	if spec.CodeBlocks[0].Address != 0x0800 || spec.CodeBlocks[0].Type != ospec.Regular {
		t.Errorf("CodeBlocks[0] = %+v", spec.CodeBlocks[0])
	}
}

const memoryRegionSpec = `
OPTIMIZE_FOR: speed
RUN: $1000

MEMORY_IN
	0x2000: 0x00 0x01 :3 0xFF ??

MEMORY_OUT
	0x2000: SAME SAME :3 0x00 ??

OPTIMIZE_RO
	0x1000: 0xA9 0x00 0x8D 0x00 0x20
	END
`

func TestParseMemoryRegionsWithRepeat(t *testing.T) {
	spec, err := Parse(strings.NewReader(memoryRegionSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(spec.InputMemory) != 1 {
		t.Fatalf("InputMemory = %d regions, want 1", len(spec.InputMemory))
	}
	in := spec.InputMemory[0]
	if in.Address != 0x2000 {
		t.Errorf("address = %#04x, want 0x2000", in.Address)
	}
	wantIn := []value.Value{
		value.ExactValue(0x00), value.ExactValue(0x01),
		value.ExactValue(0xFF), value.ExactValue(0xFF), value.ExactValue(0xFF),
		value.AnyValue(),
	}
	if len(in.Bytes) != len(wantIn) {
		t.Fatalf("bytes = %d, want %d", len(in.Bytes), len(wantIn))
	}
	for i, want := range wantIn {
		if in.Bytes[i] != want {
			t.Errorf("bytes[%d] = %v, want %v", i, in.Bytes[i], want)
		}
	}

	out := spec.OutputMemory[0]
	if out.Bytes[0].Kind != value.Same || out.Bytes[2].Kind != value.Exact {
		t.Errorf("output bytes = %v", out.Bytes)
	}

	if len(spec.CodeBlocks) != 1 || spec.CodeBlocks[0].Type != ospec.ReadOnly {
		t.Fatalf("CodeBlocks = %+v", spec.CodeBlocks)
	}
	wantBytes := []byte{0xA9, 0x00, 0x8D, 0x00, 0x20}
	if string(spec.CodeBlocks[0].Bytes) != string(wantBytes) {
		t.Errorf("code block bytes = %v, want %v", spec.CodeBlocks[0].Bytes, wantBytes)
	}
}

func TestParseRejectsUnknownDirective(t *testing.T) {
	_, err := Parse(strings.NewReader("NOT_A_DIRECTIVE: 1\n"))
	if err == nil {
		t.Fatal("expected an error for an unrecognized directive")
	}
}

func TestParseRejectsSameInInput(t *testing.T) {
	_, err := Parse(strings.NewReader("CPU_IN\n\tA: SAME\nRUN: 0x0800\n"))
	if err == nil {
		t.Fatal("expected Validate to reject SAME in an input context")
	}
}
