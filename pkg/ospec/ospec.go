// Package ospec defines OptimizationSpec, the declarative input/output
// behavior a candidate instruction sequence must realize. It mirrors the
// parser's output data structure; the lexer/parser itself lives in
// pkg/specfile.
package ospec

import (
	"fmt"

	"github.com/ilmenit/Phaistos/pkg/value"
)

// Goal selects which cost metric the optimizer minimizes.
type Goal uint8

const (
	Size Goal = iota
	Speed
)

func (g Goal) String() string {
	if g == Speed {
		return "speed"
	}
	return "size"
}

// CPUState holds symbolic values for the four general-purpose-visible
// registers (A, X, Y, SP). PC is never part of a spec: it is always the
// run address on input and unconstrained on output.
type CPUState struct {
	A, X, Y, SP value.Value
}

// FlagState holds symbolic values for the seven 6502 status flags.
type FlagState struct {
	C, Z, I, D, B, V, N value.Value
}

// MemoryRegion is a contiguous run of symbolic bytes anchored at Address.
type MemoryRegion struct {
	Address uint16
	Bytes   []value.Value
}

// ContainsAddress reports whether addr falls within this region.
func (r MemoryRegion) ContainsAddress(addr uint16) bool {
	if addr < r.Address {
		return false
	}
	end := uint32(r.Address) + uint32(len(r.Bytes))
	return uint32(addr) < end
}

// RequiresExactValue reports whether addr is in this region and pinned to
// an exact byte.
func (r MemoryRegion) RequiresExactValue(addr uint16) bool {
	if !r.ContainsAddress(addr) {
		return false
	}
	return r.Bytes[addr-r.Address].Kind == value.Exact
}

// ValueAt returns the symbolic value at addr, and whether addr is covered
// by this region at all.
func (r MemoryRegion) ValueAt(addr uint16) (value.Value, bool) {
	if !r.ContainsAddress(addr) {
		return value.Value{}, false
	}
	return r.Bytes[addr-r.Address], true
}

// CodeBlockType distinguishes mutable candidate regions from fixed,
// read-only context code.
type CodeBlockType uint8

const (
	Regular CodeBlockType = iota
	ReadOnly
)

// CodeBlock is a block of bytes participating in the optimization: either
// the region being optimized (Regular) or fixed context the candidate may
// call into but not rewrite (ReadOnly).
type CodeBlock struct {
	Address uint16
	Bytes   []byte
	Type    CodeBlockType
}

// RegisterCopy constrains an output register to equal a different input
// register's value — "swap A and X" needs output A tied to input X and
// output X tied to input A, a relation the SAME value kind can't express
// since SAME always means "this cell, unchanged" (spec.md §6's grammar has
// no cross-register literal). RegisterCopy exists for specs assembled
// directly as Go values rather than parsed from a .pha file.
type RegisterCopy struct {
	From, To string // register names among "A", "X", "Y", "SP"
}

// MemoryCopy is RegisterCopy's memory counterpart: an output address tied
// to a different input address, e.g. "copy $80 to $81".
type MemoryCopy struct {
	From, To uint16
}

// OptimizationSpec is the complete declarative behavior a solution must
// satisfy, exactly mirroring the parser's output.
type OptimizationSpec struct {
	Goal       Goal
	RunAddress uint16

	InputCPU    CPUState
	InputFlags  FlagState
	InputMemory []MemoryRegion

	OutputCPU    CPUState
	OutputFlags  FlagState
	OutputMemory []MemoryRegion

	RegisterCopies []RegisterCopy
	MemoryCopies   []MemoryCopy

	CodeBlocks []CodeBlock
}

// Validate checks the invariants spec.md §3 requires of a complete spec:
// SAME/EQU never appear in input values, regions in the same direction
// never overlap, and output regions may use any value kind.
func (s OptimizationSpec) Validate() error {
	if err := validateInputCPU(s.InputCPU); err != nil {
		return err
	}
	if err := validateInputFlags(s.InputFlags); err != nil {
		return err
	}
	for _, r := range s.InputMemory {
		for i, v := range r.Bytes {
			if v.Kind == value.Same || v.Kind == value.Equ {
				return fmt.Errorf("ospec: input memory at $%04X: %v forbidden in input context", r.Address+uint16(i), v.Kind)
			}
		}
	}
	if err := checkNoOverlap(s.InputMemory); err != nil {
		return fmt.Errorf("ospec: input memory: %w", err)
	}
	if err := checkNoOverlap(s.OutputMemory); err != nil {
		return fmt.Errorf("ospec: output memory: %w", err)
	}
	for _, rc := range s.RegisterCopies {
		if !validRegisterName(rc.From) || !validRegisterName(rc.To) {
			return fmt.Errorf("ospec: register copy %s->%s: names must be one of A, X, Y, SP", rc.From, rc.To)
		}
	}
	return nil
}

func validRegisterName(name string) bool {
	switch name {
	case "A", "X", "Y", "SP":
		return true
	}
	return false
}

func validateInputCPU(c CPUState) error {
	for name, v := range map[string]value.Value{"A": c.A, "X": c.X, "Y": c.Y, "SP": c.SP} {
		if v.Kind == value.Same || v.Kind == value.Equ {
			return fmt.Errorf("ospec: input CPU register %s: %v forbidden in input context", name, v.Kind)
		}
	}
	return nil
}

func validateInputFlags(f FlagState) error {
	for name, v := range map[string]value.Value{"C": f.C, "Z": f.Z, "I": f.I, "D": f.D, "B": f.B, "V": f.V, "N": f.N} {
		if v.Kind == value.Same || v.Kind == value.Equ {
			return fmt.Errorf("ospec: input flag %s: %v forbidden in input context", name, v.Kind)
		}
	}
	return nil
}

// ExactConstants returns every concrete byte this spec pins somewhere in
// its input or output declarations, deduplicated in first-seen order. A
// candidate search uses these, alongside a handful of boundary values, as
// the immediate-operand set to draw from: a correct candidate often needs
// to encode exactly one of these bytes as a literal.
func (s OptimizationSpec) ExactConstants() []byte {
	seen := map[byte]bool{}
	var out []byte
	add := func(v value.Value) {
		if v.Kind == value.Exact && !seen[v.Byte] {
			seen[v.Byte] = true
			out = append(out, v.Byte)
		}
	}
	add(s.InputCPU.A)
	add(s.InputCPU.X)
	add(s.InputCPU.Y)
	add(s.InputCPU.SP)
	add(s.OutputCPU.A)
	add(s.OutputCPU.X)
	add(s.OutputCPU.Y)
	add(s.OutputCPU.SP)
	for _, r := range s.InputMemory {
		for _, b := range r.Bytes {
			add(b)
		}
	}
	for _, r := range s.OutputMemory {
		for _, b := range r.Bytes {
			add(b)
		}
	}
	return out
}

func checkNoOverlap(regions []MemoryRegion) error {
	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			a, b := regions[i], regions[j]
			aEnd := uint32(a.Address) + uint32(len(a.Bytes))
			bEnd := uint32(b.Address) + uint32(len(b.Bytes))
			if uint32(a.Address) < bEnd && uint32(b.Address) < aEnd {
				return fmt.Errorf("regions at $%04X and $%04X overlap", a.Address, b.Address)
			}
		}
	}
	return nil
}
