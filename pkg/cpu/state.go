// Package cpu is the cycle-accurate NMOS 6502 interpreter: the semantic
// oracle every candidate sequence is checked against.
package cpu

// State is the visible 6502 register file. Flags are tracked individually
// rather than packed into a status byte, matching the data model the rest
// of the module reasons about; PackP/UnpackP convert to and from the real
// status byte for stack operations.
type State struct {
	A, X, Y, SP byte
	C, Z, I, D, B, V, N bool
	PC uint16
}

// New returns a State with the documented struct defaults: SP=0xFF, every
// flag false, PC=0. The package has no hardware-reset routine; this is the
// only initial state it provides.
func New() State {
	return State{SP: 0xFF}
}

// Equal compares two states field by field.
func (s State) Equal(o State) bool { return s == o }

// PackP encodes the status flags into the conventional 6502 status byte:
// bit7=N, bit6=V, bit5=1 (always set), bit4=B, bit3=D, bit2=I, bit1=Z,
// bit0=C.
func (s State) PackP() byte {
	var p byte = 0x20 // bit 5 always reads back as 1
	if s.N {
		p |= 0x80
	}
	if s.V {
		p |= 0x40
	}
	if s.B {
		p |= 0x10
	}
	if s.D {
		p |= 0x08
	}
	if s.I {
		p |= 0x04
	}
	if s.Z {
		p |= 0x02
	}
	if s.C {
		p |= 0x01
	}
	return p
}

// UnpackP loads the status flags from a status byte, as PLP and RTI do.
func (s *State) UnpackP(p byte) {
	s.N = p&0x80 != 0
	s.V = p&0x40 != 0
	s.B = p&0x10 != 0
	s.D = p&0x08 != 0
	s.I = p&0x04 != 0
	s.Z = p&0x02 != 0
	s.C = p&0x01 != 0
}

// setZN sets Z and N from the low 8 bits of a result, the convention every
// load/transfer/ALU/shift operation follows.
func setZN(s *State, result byte) {
	s.Z = result == 0
	s.N = result&0x80 != 0
}
