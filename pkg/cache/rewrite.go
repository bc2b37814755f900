package cache

import (
	"github.com/ilmenit/Phaistos/pkg/cpu"
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
)

// decodeAll decodes a flat byte encoding back into instructions.
func decodeAll(code []byte) []inst.Instruction {
	var out []inst.Instruction
	for i := 0; i < len(code); {
		ins, next := inst.Decode(code, i)
		out = append(out, ins)
		i = next
	}
	return out
}

// Rewrite attempts compositional cache substitution (spec.md §4.5):
// candidate is partitioned at every instruction boundary, and for every
// contiguous subspan the cache is consulted for a strictly shorter (or
// faster) replacement realizing the same observed transformation.
// Substitutions repeat to a fixpoint. The result is never assumed
// correct on its own — a subspan's live-set projection can be sound in
// isolation yet incomplete once substituted into the surrounding
// candidate, so the caller must re-verify the rewritten sequence through
// the full verification engine before accepting it.
func Rewrite(candidate []inst.Instruction, spec ospec.OptimizationSpec, c *Cache, forSize bool) (rewritten []inst.Instruction, changed bool) {
	liveRegs := LiveRegisters(spec)
	liveAddrs := LiveAddresses(spec)
	baseState := cpu.New()
	baseMemory := map[uint16]byte{}

	out := append([]inst.Instruction{}, candidate...)

	for {
		next, ok := substituteOnce(out, baseState, baseMemory, liveRegs, liveAddrs, c, forSize)
		if !ok {
			return out, changed
		}
		out = next
		changed = true
	}
}

// substituteOnce scans every contiguous subspan, longest first within
// each start position, and applies the first strictly-improving
// replacement it finds.
func substituteOnce(seq []inst.Instruction, baseState cpu.State, baseMemory map[uint16]byte, liveRegs []string, liveAddrs []uint16, c *Cache, forSize bool) ([]inst.Instruction, bool) {
	for start := 0; start < len(seq); start++ {
		for end := len(seq); end > start; end-- {
			span := seq[start:end]
			input, output, spanCycles, err := ObserveTransformation(span, baseState, baseMemory, liveRegs, liveAddrs)
			if err != nil {
				continue
			}
			entry, ok := c.FindOptimal(BuildKey(input, output), forSize)
			if !ok {
				continue
			}
			if forSize && entry.Size >= inst.SeqByteSize(span) {
				continue
			}
			if !forSize && entry.Cycles >= spanCycles {
				continue
			}
			replacement := decodeAll(entry.Bytes)
			next := make([]inst.Instruction, 0, len(seq)-len(span)+len(replacement))
			next = append(next, seq[:start]...)
			next = append(next, replacement...)
			next = append(next, seq[end:]...)
			return next, true
		}
	}
	return seq, false
}
