package verify

import (
	"fmt"

	"github.com/ilmenit/Phaistos/pkg/cpu"
	"github.com/ilmenit/Phaistos/pkg/mem"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

// checkCPU checks every EXACT and SAME register/flag postcondition: EXACT
// pins the final value, SAME requires it to match what the register held
// on input to this test.
func checkCPU(spec ospec.OptimizationSpec, initial, final cpu.State) (string, bool) {
	regs := []struct {
		name    string
		out     value.Value
		initial byte
		final   byte
	}{
		{"A", spec.OutputCPU.A, initial.A, final.A},
		{"X", spec.OutputCPU.X, initial.X, final.X},
		{"Y", spec.OutputCPU.Y, initial.Y, final.Y},
		{"SP", spec.OutputCPU.SP, initial.SP, final.SP},
	}
	for _, r := range regs {
		switch r.out.Kind {
		case value.Exact:
			if r.final != r.out.Byte {
				return fmt.Sprintf("register %s: got %#02x, want %#02x", r.name, r.final, r.out.Byte), false
			}
		case value.Same:
			if r.final != r.initial {
				return fmt.Sprintf("register %s: got %#02x, want unchanged %#02x", r.name, r.final, r.initial), false
			}
		}
	}

	flags := []struct {
		name    string
		out     value.Value
		initial bool
		final   bool
	}{
		{"C", spec.OutputFlags.C, initial.C, final.C},
		{"Z", spec.OutputFlags.Z, initial.Z, final.Z},
		{"I", spec.OutputFlags.I, initial.I, final.I},
		{"D", spec.OutputFlags.D, initial.D, final.D},
		{"B", spec.OutputFlags.B, initial.B, final.B},
		{"V", spec.OutputFlags.V, initial.V, final.V},
		{"N", spec.OutputFlags.N, initial.N, final.N},
	}
	for _, f := range flags {
		switch f.out.Kind {
		case value.Exact:
			want := f.out.Byte != 0
			if f.final != want {
				return fmt.Sprintf("flag %s: got %v, want %v", f.name, f.final, want), false
			}
		case value.Same:
			if f.final != f.initial {
				return fmt.Sprintf("flag %s: got %v, want unchanged %v", f.name, f.final, f.initial), false
			}
		}
	}

	for _, rc := range spec.RegisterCopies {
		want := registerByName(initial, rc.From)
		got := registerByName(final, rc.To)
		if got != want {
			return fmt.Sprintf("register %s: got %#02x, want %#02x (copied from input %s)", rc.To, got, want, rc.From), false
		}
	}
	return "", true
}

// registerByName reads one of the four general-purpose-visible registers
// by name, for RegisterCopy's cross-register comparison.
func registerByName(s cpu.State, name string) byte {
	switch name {
	case "A":
		return s.A
	case "X":
		return s.X
	case "Y":
		return s.Y
	case "SP":
		return s.SP
	}
	return 0
}

// checkMemory checks every EXACT and SAME output memory-region byte.
// initialMemory holds the test vector's starting values, for resolving
// SAME; m holds the post-execution state.
func checkMemory(spec ospec.OptimizationSpec, initialMemory map[uint16]byte, m *mem.TrackedMemory) (string, bool) {
	for _, r := range spec.OutputMemory {
		for i, want := range r.Bytes {
			addr := r.Address + uint16(i)
			got := m.Get(addr)
			switch want.Kind {
			case value.Exact:
				if got != want.Byte {
					return fmt.Sprintf("memory $%04X: got %#02x, want %#02x", addr, got, want.Byte), false
				}
			case value.Same:
				if got != initialMemory[addr] {
					return fmt.Sprintf("memory $%04X: got %#02x, want unchanged %#02x", addr, got, initialMemory[addr]), false
				}
			}
		}
	}
	for _, mc := range spec.MemoryCopies {
		want := initialMemory[mc.From]
		got := m.Get(mc.To)
		if got != want {
			return fmt.Sprintf("memory $%04X: got %#02x, want %#02x (copied from input $%04X)", mc.To, got, want, mc.From), false
		}
	}
	return "", true
}
