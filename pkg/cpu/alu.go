package cpu

import (
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/mem"
)

// execADC implements binary-mode and NMOS BCD-mode addition. In BCD mode N
// is taken from the low-nibble-corrected intermediate before the high
// nibble is adjusted, while V and C are taken after; Z comes from the
// plain binary sum, never from either BCD intermediate — the documented
// NMOS ordering (spec.md §4.1, §9), grounded on the reference
// interpreter's opADC.
func execADC(s *State, v byte) {
	if s.D {
		a := uint16(s.A)
		value := uint16(v)
		carry := uint16(b2u8(s.C))
		binSum := a + value + carry

		al := (a & 0x0F) + (value & 0x0F) + carry
		if al >= 0x0A {
			al = ((al + 0x06) & 0x0F) + 0x10
		}
		result := (a & 0xF0) + (value & 0xF0) + al
		s.N = result&0x80 != 0

		if result >= 0xA0 {
			result += 0x60
		}
		s.V = result&0xFF80 != 0
		s.C = result >= 0x100
		s.Z = (binSum & 0xFF) == 0
		s.A = byte(result)
		return
	}

	a := uint16(s.A)
	value := uint16(v)
	result := a + value + uint16(b2u8(s.C))
	s.C = result > 0xFF
	s.V = (a^result)&(value^result)&0x80 != 0
	s.A = byte(result)
	setZN(s, s.A)
}

// execSBC implements binary-mode and NMOS BCD-mode subtraction. Flags are
// computed from the one's-complement binary intermediate before the BCD
// adjustment is applied to A, exactly matching silicon (spec.md §9).
func execSBC(s *State, v byte) {
	if s.D {
		a := uint16(s.A)
		b := uint16(v)
		carry := uint16(b2u8(s.C))
		value := b ^ 0xFF

		resultBin := a + value + carry
		s.C = resultBin > 0xFF
		s.V = (a^resultBin)&(value^resultBin)&0x80 != 0
		s.N = resultBin&0x80 != 0
		s.Z = (resultBin & 0xFF) == 0

		al := int32(a&0x0F) - int32(b&0x0F) + int32(carry) - 1
		if al < 0 {
			al = ((al - 0x06) & 0x0F) - 0x10
		}
		result := int32(a&0xF0) - int32(b&0xF0) + al
		if result < 0 {
			result -= 0x60
		}
		s.A = byte(result)
		return
	}

	a := uint16(s.A)
	value := uint16(v) ^ 0xFF
	result := a + value + uint16(b2u8(s.C))
	s.C = result > 0xFF
	s.V = (a^result)&(value^result)&0x80 != 0
	s.A = byte(result)
	setZN(s, s.A)
}

// execCompare implements CMP/CPX/CPY: an unsigned subtraction that updates
// flags without altering the register.
func execCompare(s *State, reg, v byte) {
	result := uint16(reg) - uint16(v)
	s.C = reg >= v
	s.Z = reg == v
	s.N = byte(result)&0x80 != 0
}

type shiftOp func(s *State, v byte) byte

func shiftASL(s *State, v byte) byte {
	s.C = v&0x80 != 0
	r := v << 1
	setZN(s, r)
	return r
}

func shiftLSR(s *State, v byte) byte {
	s.C = v&0x01 != 0
	r := v >> 1
	setZN(s, r)
	return r
}

func shiftROL(s *State, v byte) byte {
	oldCarry := b2u8(s.C)
	s.C = v&0x80 != 0
	r := v<<1 | oldCarry
	setZN(s, r)
	return r
}

func shiftROR(s *State, v byte) byte {
	oldCarry := b2u8(s.C)
	s.C = v&0x01 != 0
	r := v>>1 | oldCarry<<7
	setZN(s, r)
	return r
}

// execShiftRotate applies op to the accumulator (Accumulator mode) or to
// memory at ea (every other shift/rotate addressing mode), a
// read-modify-write for the memory case.
func execShiftRotate(m mem.Memory, s *State, mode inst.AddressingMode, ea uint16, op shiftOp) error {
	if mode == inst.Accumulator {
		s.A = op(s, s.A)
		return nil
	}
	v, err := m.Read(ea)
	if err != nil {
		return err
	}
	v = op(s, v)
	return m.Write(ea, v)
}

// execIncDecMem implements INC/DEC: a read-modify-write of memory by
// delta (+1 or -1).
func execIncDecMem(m mem.Memory, s *State, ea uint16, delta int8) error {
	v, err := m.Read(ea)
	if err != nil {
		return err
	}
	v = byte(int16(v) + int16(delta))
	setZN(s, v)
	return m.Write(ea, v)
}

// push and pull implement the 6502 stack, which lives in $0100..$01FF and
// grows downward: push writes then decrements, pull increments then reads.
func push(m mem.Memory, s *State, v byte) error {
	addr := 0x0100 | uint16(s.SP)
	s.SP--
	return m.Write(addr, v)
}

func pull(m mem.Memory, s *State) (byte, error) {
	s.SP++
	addr := 0x0100 | uint16(s.SP)
	return m.Read(addr)
}
