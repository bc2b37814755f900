package cache

import (
	"fmt"

	"github.com/ilmenit/Phaistos/pkg/cpu"
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

// LiveRegisters returns the register and flag names the enclosing spec
// actually constrains on at least one side (input or output): the cells a
// transformation key must include for key construction to stay sound per
// spec.md §4.5. A register left ANY on both sides is invisible to the
// spec and would only dilute the key.
func LiveRegisters(spec ospec.OptimizationSpec) []string {
	var out []string

	type pair struct {
		name    string
		in, out value.Value
	}
	regs := []pair{
		{"A", spec.InputCPU.A, spec.OutputCPU.A},
		{"X", spec.InputCPU.X, spec.OutputCPU.X},
		{"Y", spec.InputCPU.Y, spec.OutputCPU.Y},
		{"SP", spec.InputCPU.SP, spec.OutputCPU.SP},
	}
	flags := []pair{
		{"C", spec.InputFlags.C, spec.OutputFlags.C},
		{"Z", spec.InputFlags.Z, spec.OutputFlags.Z},
		{"I", spec.InputFlags.I, spec.OutputFlags.I},
		{"D", spec.InputFlags.D, spec.OutputFlags.D},
		{"B", spec.InputFlags.B, spec.OutputFlags.B},
		{"V", spec.InputFlags.V, spec.OutputFlags.V},
		{"N", spec.InputFlags.N, spec.OutputFlags.N},
	}
	seen := map[string]bool{}
	for _, p := range append(regs, flags...) {
		if p.in.Kind != value.Any || p.out.Kind != value.Any {
			seen[p.name] = true
			out = append(out, p.name)
		}
	}
	for _, rc := range spec.RegisterCopies {
		for _, name := range []string{rc.From, rc.To} {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// LiveAddresses returns every address named in the spec's input or output
// memory regions, deduplicated.
func LiveAddresses(spec ospec.OptimizationSpec) []uint16 {
	seen := map[uint16]bool{}
	var out []uint16
	for _, regions := range [][]ospec.MemoryRegion{spec.InputMemory, spec.OutputMemory} {
		for _, r := range regions {
			for i := range r.Bytes {
				addr := r.Address + uint16(i)
				if !seen[addr] {
					seen[addr] = true
					out = append(out, addr)
				}
			}
		}
	}
	for _, mc := range spec.MemoryCopies {
		for _, addr := range []uint16{mc.From, mc.To} {
			if !seen[addr] {
				seen[addr] = true
				out = append(out, addr)
			}
		}
	}
	return out
}

// flatMemory is a fully-open, ungated 64KB address space: compositional
// observation runs arbitrary subspans outside the enclosing spec's own
// input/output whitelist, so mem.TrackedMemory's region gating would
// reject accesses that are perfectly legal for the subspan in isolation.
type flatMemory struct {
	cells [65536]byte
}

func (m *flatMemory) Read(addr uint16) (byte, error)  { return m.cells[addr], nil }
func (m *flatMemory) Write(addr uint16, v byte) error { m.cells[addr] = v; return nil }

// observationScratchAddress is where a subspan under observation is
// loaded; it never collides with a spec's RunAddress since observation
// always happens against a private flatMemory, not the candidate's own
// memory image.
const observationScratchAddress = 0x4000

// ObserveTransformation runs seq from a scratch address against baseState
// and baseMemory, and projects the pre- and post-execution state onto the
// live registers and addresses the enclosing spec actually observes.
func ObserveTransformation(seq []inst.Instruction, baseState cpu.State, baseMemory map[uint16]byte, liveRegs []string, liveAddrs []uint16) (input, output StateDescription, cycles int, err error) {
	m := &flatMemory{}
	for addr, v := range baseMemory {
		m.cells[addr] = v
	}
	addr := uint16(observationScratchAddress)
	for _, ins := range seq {
		for _, b := range ins.Bytes() {
			m.cells[addr] = b
			addr++
		}
	}

	input = projectState(baseState, baseMemory, liveRegs, liveAddrs)

	s := baseState
	maxInstructions := len(seq)*4 + 4
	cyclesTotal, _, status, ferr := cpu.Execute(m, &s, observationScratchAddress, maxInstructions)
	if ferr != nil {
		return StateDescription{}, StateDescription{}, 0, ferr
	}
	if status == cpu.Faulted {
		return StateDescription{}, StateDescription{}, 0, fmt.Errorf("cache: observation faulted")
	}

	finalMemory := make(map[uint16]byte, len(liveAddrs))
	for _, a := range liveAddrs {
		finalMemory[a] = m.cells[a]
	}
	output = StateDescription{Registers: registerSnapshot(s, liveRegs), Memory: finalMemory}
	return input, output, cyclesTotal, nil
}

func projectState(s cpu.State, mem map[uint16]byte, liveRegs []string, liveAddrs []uint16) StateDescription {
	cells := make(map[uint16]byte, len(liveAddrs))
	for _, a := range liveAddrs {
		cells[a] = mem[a]
	}
	return StateDescription{Registers: registerSnapshot(s, liveRegs), Memory: cells}
}

func registerSnapshot(s cpu.State, names []string) map[string]byte {
	out := make(map[string]byte, len(names))
	for _, n := range names {
		switch n {
		case "A":
			out["A"] = s.A
		case "X":
			out["X"] = s.X
		case "Y":
			out["Y"] = s.Y
		case "SP":
			out["SP"] = s.SP
		case "C":
			out["C"] = boolByte(s.C)
		case "Z":
			out["Z"] = boolByte(s.Z)
		case "I":
			out["I"] = boolByte(s.I)
		case "D":
			out["D"] = boolByte(s.D)
		case "B":
			out["B"] = boolByte(s.B)
		case "V":
			out["V"] = boolByte(s.V)
		case "N":
			out["N"] = boolByte(s.N)
		}
	}
	return out
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
