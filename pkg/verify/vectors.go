// Package verify turns a declarative optimization spec into a finite test
// suite and checks candidate instruction sequences against it.
package verify

import (
	"math/rand"
	"sort"

	"github.com/ilmenit/Phaistos/pkg/cpu"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

// BoundaryValues is the representative set swept over every ANY-typed input
// that influences an observable output: zero, one, the signed-boundary
// pair, and the all-ones byte.
var BoundaryValues = []byte{0x00, 0x01, 0x7F, 0x80, 0xFF}

// DefaultVectorCap bounds the cross-product of test vectors a spec can
// generate before critical/other partitioning kicks in.
const DefaultVectorCap = 100

// vectorSeed is fixed so a given spec always generates the same "other"
// sample: reproducible test suites matter more than fresh randomness here.
const vectorSeed = 0x50484954 // "PHIT"

// TestVector is one fully-resolved concrete assignment to every cell a
// spec declares on input: CPU registers, status flags, and any byte an
// input memory region names.
type TestVector struct {
	CPU      cpu.State
	Memory   map[uint16]byte
	Critical bool // contains a non-zero boundary value in some swept dimension
}

func cloneVector(v TestVector) TestVector {
	mem := make(map[uint16]byte, len(v.Memory))
	for a, b := range v.Memory {
		mem[a] = b
	}
	return TestVector{CPU: v.CPU, Memory: mem, Critical: v.Critical}
}

// dimension is one ANY-typed input cell that influences an observable
// output, and therefore needs sweeping across BoundaryValues rather than
// being pinned to its base value of zero.
type dimension struct {
	set func(v *TestVector, b byte)
}

// GenerateTestVectors builds the test suite for spec: a base vector with
// every EXACT input fixed and every ANY input set to zero, expanded by the
// cross-product of BoundaryValues over every ANY input that influences an
// observable output. An input influences an output if the same register,
// flag, or memory address is named EXACT or SAME in the spec's output
// declarations. If the cross-product exceeds DefaultVectorCap, the result
// is partitioned into vectors touching a boundary value in some dimension
// (always kept) and the rest (sampled deterministically).
func GenerateTestVectors(spec ospec.OptimizationSpec) []TestVector {
	dims := influencingDimensions(spec)

	vectors := []TestVector{baseVector(spec)}
	for _, dim := range dims {
		next := make([]TestVector, 0, len(vectors)*len(BoundaryValues))
		for _, v := range vectors {
			for _, b := range BoundaryValues {
				nv := cloneVector(v)
				dim.set(&nv, b)
				if b != 0 {
					nv.Critical = true
				}
				next = append(next, nv)
			}
		}
		vectors = next
	}

	if len(vectors) <= DefaultVectorCap {
		return vectors
	}
	return sampleVectors(vectors, DefaultVectorCap)
}

// sampleVectors keeps every critical vector and deterministically samples
// the rest down to cap total.
func sampleVectors(vectors []TestVector, cap int) []TestVector {
	var critical, other []TestVector
	for _, v := range vectors {
		if v.Critical {
			critical = append(critical, v)
		} else {
			other = append(other, v)
		}
	}
	if len(critical) >= cap {
		return critical
	}
	budget := cap - len(critical)
	rng := rand.New(rand.NewSource(vectorSeed))
	idx := rng.Perm(len(other))
	sort.Ints(idx[:min(budget, len(idx))])
	out := append([]TestVector{}, critical...)
	for _, i := range idx[:min(budget, len(idx))] {
		out = append(out, other[i])
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// baseVector resolves every EXACT input to its pinned value and every ANY
// input to zero.
func baseVector(spec ospec.OptimizationSpec) TestVector {
	v := TestVector{CPU: cpu.New(), Memory: map[uint16]byte{}}
	v.CPU.A = resolveByte(spec.InputCPU.A)
	v.CPU.X = resolveByte(spec.InputCPU.X)
	v.CPU.Y = resolveByte(spec.InputCPU.Y)
	v.CPU.SP = resolveByte(spec.InputCPU.SP)
	v.CPU.C = resolveFlag(spec.InputFlags.C)
	v.CPU.Z = resolveFlag(spec.InputFlags.Z)
	v.CPU.I = resolveFlag(spec.InputFlags.I)
	v.CPU.D = resolveFlag(spec.InputFlags.D)
	v.CPU.B = resolveFlag(spec.InputFlags.B)
	v.CPU.V = resolveFlag(spec.InputFlags.V)
	v.CPU.N = resolveFlag(spec.InputFlags.N)
	for _, r := range spec.InputMemory {
		for i, b := range r.Bytes {
			v.Memory[r.Address+uint16(i)] = resolveByte(b)
		}
	}
	return v
}

func resolveByte(v value.Value) byte {
	if v.Kind == value.Exact {
		return v.Byte
	}
	return 0
}

func resolveFlag(v value.Value) bool {
	if v.Kind == value.Exact {
		return v.Byte != 0
	}
	return false
}

// influencesOutput reports whether v appearing at the same cell in the
// output declaration would pin or constrain an observable result.
func influencesOutput(v value.Value) bool {
	return v.Kind == value.Exact || v.Kind == value.Same
}

// influencingDimensions collects one dimension per ANY-typed input cell
// that influences an observable output.
func influencingDimensions(spec ospec.OptimizationSpec) []dimension {
	var dims []dimension

	type reg struct {
		in  value.Value
		out value.Value
		set func(v *TestVector, b byte)
	}
	regs := []reg{
		{spec.InputCPU.A, spec.OutputCPU.A, func(v *TestVector, b byte) { v.CPU.A = b }},
		{spec.InputCPU.X, spec.OutputCPU.X, func(v *TestVector, b byte) { v.CPU.X = b }},
		{spec.InputCPU.Y, spec.OutputCPU.Y, func(v *TestVector, b byte) { v.CPU.Y = b }},
		{spec.InputCPU.SP, spec.OutputCPU.SP, func(v *TestVector, b byte) { v.CPU.SP = b }},
	}
	registerNames := map[string]value.Value{"A": spec.InputCPU.A, "X": spec.InputCPU.X, "Y": spec.InputCPU.Y, "SP": spec.InputCPU.SP}
	registerSetters := map[string]func(v *TestVector, b byte){
		"A":  func(v *TestVector, b byte) { v.CPU.A = b },
		"X":  func(v *TestVector, b byte) { v.CPU.X = b },
		"Y":  func(v *TestVector, b byte) { v.CPU.Y = b },
		"SP": func(v *TestVector, b byte) { v.CPU.SP = b },
	}
	copiedFrom := map[string]bool{}
	for _, rc := range spec.RegisterCopies {
		copiedFrom[rc.From] = true
	}
	alreadySwept := map[string]bool{}
	for i, r := range regs {
		if r.in.Kind == value.Any && influencesOutput(r.out) {
			dims = append(dims, dimension{set: r.set})
			alreadySwept[[]string{"A", "X", "Y", "SP"}[i]] = true
		}
	}
	for _, name := range []string{"A", "X", "Y", "SP"} {
		if !copiedFrom[name] || alreadySwept[name] {
			continue
		}
		if in := registerNames[name]; in.Kind == value.Any {
			dims = append(dims, dimension{set: registerSetters[name]})
		}
	}

	type flag struct {
		in  value.Value
		out value.Value
		set func(v *TestVector, b byte)
	}
	flags := []flag{
		{spec.InputFlags.C, spec.OutputFlags.C, func(v *TestVector, b byte) { v.CPU.C = b != 0 }},
		{spec.InputFlags.Z, spec.OutputFlags.Z, func(v *TestVector, b byte) { v.CPU.Z = b != 0 }},
		{spec.InputFlags.I, spec.OutputFlags.I, func(v *TestVector, b byte) { v.CPU.I = b != 0 }},
		{spec.InputFlags.D, spec.OutputFlags.D, func(v *TestVector, b byte) { v.CPU.D = b != 0 }},
		{spec.InputFlags.B, spec.OutputFlags.B, func(v *TestVector, b byte) { v.CPU.B = b != 0 }},
		{spec.InputFlags.V, spec.OutputFlags.V, func(v *TestVector, b byte) { v.CPU.V = b != 0 }},
		{spec.InputFlags.N, spec.OutputFlags.N, func(v *TestVector, b byte) { v.CPU.N = b != 0 }},
	}
	for _, f := range flags {
		if f.in.Kind == value.Any && influencesOutput(f.out) {
			dims = append(dims, dimension{set: f.set})
		}
	}

	copiedFromAddr := map[uint16]bool{}
	for _, mc := range spec.MemoryCopies {
		copiedFromAddr[mc.From] = true
	}

	for _, r := range spec.InputMemory {
		for i, b := range r.Bytes {
			if b.Kind != value.Any {
				continue
			}
			addr := r.Address + uint16(i)
			if !memoryInfluencesOutput(spec, addr) && !copiedFromAddr[addr] {
				continue
			}
			dims = append(dims, dimension{set: func(v *TestVector, b byte) { v.Memory[addr] = b }})
		}
	}

	return dims
}

func memoryInfluencesOutput(spec ospec.OptimizationSpec, addr uint16) bool {
	for _, r := range spec.OutputMemory {
		if v, ok := r.ValueAt(addr); ok {
			return influencesOutput(v)
		}
	}
	return false
}
