package verify

import (
	"fmt"

	"github.com/ilmenit/Phaistos/pkg/cpu"
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/mem"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

// DefaultSafetyFactor bounds how many instructions a candidate may execute
// before it is treated as faulted: a candidate that branches into a loop
// would otherwise hang the worker that's checking it.
const DefaultSafetyFactor = 4

// Engine checks candidate instruction sequences against one optimization
// spec's test suite.
type Engine struct {
	spec    ospec.OptimizationSpec
	vectors []TestVector
}

// New builds an Engine and generates its test vectors immediately: vector
// generation depends only on spec, never on a candidate, so it is done
// once up front and reused for every candidate the search proposes.
func New(spec ospec.OptimizationSpec) *Engine {
	return &Engine{spec: spec, vectors: GenerateTestVectors(spec)}
}

// Vectors exposes the generated test suite, mainly for diagnostics.
func (e *Engine) Vectors() []TestVector { return e.vectors }

// Goal exposes the spec's chosen cost metric, for callers that pick
// between Size and Cycles without holding their own copy of the spec.
func (e *Engine) Goal() ospec.Goal { return e.spec.Goal }

// Verify reports whether candidate satisfies every test vector.
func (e *Engine) Verify(candidate []inst.Instruction) bool {
	ok, _ := e.VerifyWithExplanation(candidate)
	return ok
}

// VerifyWithExplanation is Verify plus a human-readable reason for the
// first vector that fails, if any.
func (e *Engine) VerifyWithExplanation(candidate []inst.Instruction) (bool, string) {
	for i, v := range e.vectors {
		if ok, reason := e.runTest(candidate, v); !ok {
			return false, fmt.Sprintf("test vector %d: %s", i, reason)
		}
	}
	return true, ""
}

// MismatchCount returns how many test vectors candidate fails, for callers
// that need a continuous distance rather than Verify's boolean pass/fail —
// a stochastic search can descend a mismatch count toward zero where a
// strict boolean gives it nothing to climb.
func (e *Engine) MismatchCount(candidate []inst.Instruction) int {
	n := 0
	for _, v := range e.vectors {
		if ok, _ := e.runTest(candidate, v); !ok {
			n++
		}
	}
	return n
}

// Size is the cost metric for OPTIMIZE_FOR: SIZE, the candidate's encoded
// byte length.
func (e *Engine) Size(candidate []inst.Instruction) int {
	return inst.SeqByteSize(candidate)
}

// Cycles is the cost metric for OPTIMIZE_FOR: SPEED, the cycle count the
// interpreter reports running candidate against the suite's first vector.
// That is the base vector (every EXACT input fixed, every ANY input zero)
// unless the suite was sampled down to DefaultVectorCap; sampling puts the
// critical vectors first, so the first vector is then a critical one.
func (e *Engine) Cycles(candidate []inst.Instruction) int {
	if len(e.vectors) == 0 {
		return 0
	}
	cycles, _, _, _ := e.execute(candidate, e.vectors[0])
	return cycles
}

func (e *Engine) maxInstructions(candidate []inst.Instruction) int {
	n := len(candidate) * DefaultSafetyFactor
	if n < DefaultSafetyFactor {
		n = DefaultSafetyFactor
	}
	return n
}

// execute runs candidate against one test vector's starting state and
// returns the raw interpreter outcome, for callers that need the memory
// and CPU state to check postconditions or just the cycle count.
func (e *Engine) execute(candidate []inst.Instruction, v TestVector) (cycles int, final cpu.State, m *mem.TrackedMemory, fault error) {
	m = mem.New()
	// The candidate's own bytes are readable so the interpreter can fetch
	// them, as is the byte right after them: left unwritten, it reads as
	// BRK and halts a candidate that runs off its end.
	readable := append([]ospec.MemoryRegion{}, e.spec.InputMemory...)
	code := make([]value.Value, inst.SeqByteSize(candidate)+1)
	readable = append(readable, ospec.MemoryRegion{Address: e.spec.RunAddress, Bytes: code})
	m.SetInputRegions(readable)
	m.SetOutputRegions(e.spec.OutputMemory)

	for addr, b := range v.Memory {
		m.Initialize(addr, b)
	}
	for _, blk := range e.spec.CodeBlocks {
		for i, b := range blk.Bytes {
			m.Initialize(blk.Address+uint16(i), b)
		}
	}
	addr := e.spec.RunAddress
	for _, ins := range candidate {
		for _, b := range ins.Bytes() {
			m.Initialize(addr, b)
			addr++
		}
	}

	s := v.CPU
	s.PC = e.spec.RunAddress

	cyclesTotal, _, status, err := cpu.Execute(m, &s, e.spec.RunAddress, e.maxInstructions(candidate))
	if err != nil {
		return cyclesTotal, s, m, err
	}
	if status == cpu.Faulted {
		return cyclesTotal, s, m, fmt.Errorf("candidate faulted")
	}
	return cyclesTotal, s, m, nil
}

// runTest evaluates one test vector against candidate, checking in the
// order: no fault; each register (A, X, Y, SP) and then each flag against
// its EXACT or SAME postcondition, then register copies; each output
// memory byte against its EXACT or SAME postcondition, then memory copies;
// no unauthorized writes. The first failing check names the reason.
func (e *Engine) runTest(candidate []inst.Instruction, v TestVector) (bool, string) {
	_, final, m, err := e.execute(candidate, v)
	if err != nil {
		return false, err.Error()
	}

	if reason, ok := checkCPU(e.spec, v.CPU, final); !ok {
		return false, reason
	}
	if reason, ok := checkMemory(e.spec, v.Memory, m); !ok {
		return false, reason
	}
	if m.HasUnauthorizedModifications() {
		return false, "candidate wrote outside the declared output memory regions"
	}
	return true, ""
}
