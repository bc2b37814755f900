package stoke

import (
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/verify"
)

// mismatchPenalty weights a single failing test vector far above any
// realistic byte-size or cycle difference, so a chain always prefers
// reducing mismatches over shrinking a still-incorrect candidate.
const mismatchPenalty = 1000

// Cost scores how far candidate is from a verified solution: a heavy
// penalty per failing test vector, plus its encoded size and a static
// cycle estimate. A cost below mismatchPenalty means every test vector
// passed, but engine.Verify still gates anything this package reports —
// Cost exists to give the chain a gradient to descend, not to replace
// verification.
//
// The teacher's equivalent (pkg/stoke/cost.go in the Z80 project) masks
// dead flag bits with a caller-supplied mask before comparing states; no
// such masking layer is needed here, since engine's checkCPU/checkMemory
// already skip every ANY-declared cell and only compare what the spec
// actually constrains.
func Cost(engine *verify.Engine, candidate []inst.Instruction) int {
	mismatches := engine.MismatchCount(candidate)
	return mismatchPenalty*mismatches + inst.SeqByteSize(candidate) + inst.SeqBaseCycles(candidate)/100
}

// Mismatches returns only the failing-test-vector count.
func Mismatches(engine *verify.Engine, candidate []inst.Instruction) int {
	return engine.MismatchCount(candidate)
}
