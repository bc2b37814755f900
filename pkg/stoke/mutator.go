package stoke

import (
	"math/rand/v2"

	"github.com/ilmenit/Phaistos/pkg/inst"
)

// Mutator applies random mutations to instruction sequences, drawing
// replacement opcodes from the legal 6502 catalog.
type Mutator struct {
	rng    *rand.Rand
	allOps []byte
	maxLen int
}

// NewMutator creates a Mutator with a cached legal-opcode list.
func NewMutator(rng *rand.Rand, maxLen int) *Mutator {
	return &Mutator{
		rng:    rng,
		allOps: inst.UsableOpcodes(false),
		maxLen: maxLen,
	}
}

// Mutate applies a random mutation to seq and returns the new sequence.
// The input slice is not modified; a new slice is always returned.
func (m *Mutator) Mutate(seq []inst.Instruction) []inst.Instruction {
	// Weighted selection: 40% replace, 20% swap, 20% delete, 10% insert, 10% change-operand
	r := m.rng.IntN(100)
	switch {
	case r < 40:
		return m.ReplaceInstruction(seq)
	case r < 60:
		return m.SwapInstructions(seq)
	case r < 80:
		return m.DeleteInstruction(seq)
	case r < 90:
		return m.InsertInstruction(seq)
	default:
		return m.ChangeOperand(seq)
	}
}

// ReplaceInstruction swaps one instruction with a random one from the catalog.
func (m *Mutator) ReplaceInstruction(seq []inst.Instruction) []inst.Instruction {
	out := copySeq(seq)
	pos := m.rng.IntN(len(out))
	out[pos] = m.randomInstruction()
	return out
}

// SwapInstructions swaps two adjacent instructions.
func (m *Mutator) SwapInstructions(seq []inst.Instruction) []inst.Instruction {
	out := copySeq(seq)
	if len(out) < 2 {
		return out
	}
	pos := m.rng.IntN(len(out) - 1)
	out[pos], out[pos+1] = out[pos+1], out[pos]
	return out
}

// DeleteInstruction removes one instruction (if len > 1).
func (m *Mutator) DeleteInstruction(seq []inst.Instruction) []inst.Instruction {
	if len(seq) <= 1 {
		return copySeq(seq)
	}
	pos := m.rng.IntN(len(seq))
	out := make([]inst.Instruction, 0, len(seq)-1)
	out = append(out, seq[:pos]...)
	out = append(out, seq[pos+1:]...)
	return out
}

// InsertInstruction adds a random instruction at a random position.
func (m *Mutator) InsertInstruction(seq []inst.Instruction) []inst.Instruction {
	if len(seq) >= m.maxLen {
		// At max length, fall back to replace.
		return m.ReplaceInstruction(seq)
	}
	pos := m.rng.IntN(len(seq) + 1)
	newInstr := m.randomInstruction()
	out := make([]inst.Instruction, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, newInstr)
	out = append(out, seq[pos:]...)
	return out
}

// ChangeOperand randomizes one instruction's operand within its addressing
// mode's width. Falls back to ReplaceInstruction if no instruction in seq
// takes an operand at all.
func (m *Mutator) ChangeOperand(seq []inst.Instruction) []inst.Instruction {
	var withOperand []int
	for i, ins := range seq {
		if inst.Catalog[ins.Op].Mode.OperandSize() > 0 {
			withOperand = append(withOperand, i)
		}
	}
	if len(withOperand) == 0 {
		return m.ReplaceInstruction(seq)
	}
	out := copySeq(seq)
	pos := withOperand[m.rng.IntN(len(withOperand))]
	out[pos].Operand = m.randomOperand(out[pos].Op)
	return out
}

// randomInstruction returns a random instruction with a random operand
// sized to its addressing mode, if it takes one at all.
func (m *Mutator) randomInstruction() inst.Instruction {
	op := m.allOps[m.rng.IntN(len(m.allOps))]
	return inst.Instruction{Op: op, Operand: m.randomOperand(op)}
}

func (m *Mutator) randomOperand(op byte) uint16 {
	switch inst.Catalog[op].Mode.OperandSize() {
	case 2:
		return uint16(m.rng.IntN(65536))
	case 1:
		return uint16(m.rng.IntN(256))
	default:
		return 0
	}
}

func copySeq(seq []inst.Instruction) []inst.Instruction {
	out := make([]inst.Instruction, len(seq))
	copy(out, seq)
	return out
}
