package cpu

import (
	"fmt"

	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/mem"
)

// Status is the outcome of executing one instruction.
type Status uint8

const (
	Continue Status = iota
	Halted
	Faulted
)

// UnusableOpcodeFault signals that the fetched opcode is classed Unusable
// and must never be executed (spec.md §4.1).
type UnusableOpcodeFault struct{ Opcode byte }

func (f *UnusableOpcodeFault) Error() string {
	return fmt.Sprintf("unusable opcode %#02x (%s) fetched", f.Opcode, inst.Catalog[f.Opcode].Mnemonic)
}

// Step fetches and executes one instruction, advancing PC, and reports the
// number of cycles consumed. status is Faulted whenever err is non-nil.
func Step(m mem.Memory, s *State) (cycles int, status Status, err error) {
	op, ferr := m.Read(s.PC)
	if ferr != nil {
		return 0, Faulted, ferr
	}
	info := inst.Catalog[op]
	if info.Legality == inst.Unusable {
		return 0, Faulted, &UnusableOpcodeFault{Opcode: op}
	}

	var operand uint16
	switch info.Size {
	case 2:
		b, ferr := m.Read(s.PC + 1)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		operand = uint16(b)
	case 3:
		lo, ferr := m.Read(s.PC + 1)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		hi, ferr := m.Read(s.PC + 2)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		operand = uint16(lo) | uint16(hi)<<8
	}

	pcAfterFetch := s.PC + uint16(info.Size)
	s.PC = pcAfterFetch

	ea, pageCrossed, ferr := resolveEA(m, s, info.Mode, operand)
	if ferr != nil {
		return 0, Faulted, ferr
	}

	cycles = int(info.BaseCycles)
	branchTaken := false

	switch info.Mnemonic {
	// Loads.
	case "LDA":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.A = v
		setZN(s, v)
	case "LDX":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.X = v
		setZN(s, v)
	case "LDY":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.Y = v
		setZN(s, v)

	// Stores.
	case "STA":
		if ferr := m.Write(ea, s.A); ferr != nil {
			return 0, Faulted, ferr
		}
	case "STX":
		if ferr := m.Write(ea, s.X); ferr != nil {
			return 0, Faulted, ferr
		}
	case "STY":
		if ferr := m.Write(ea, s.Y); ferr != nil {
			return 0, Faulted, ferr
		}

	// Arithmetic.
	case "ADC":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		execADC(s, v)
	case "SBC":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		execSBC(s, v)
	case "CMP":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		execCompare(s, s.A, v)
	case "CPX":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		execCompare(s, s.X, v)
	case "CPY":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		execCompare(s, s.Y, v)

	// Logical.
	case "AND":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.A &= v
		setZN(s, s.A)
	case "ORA":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.A |= v
		setZN(s, s.A)
	case "EOR":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.A ^= v
		setZN(s, s.A)
	case "BIT":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.Z = (s.A & v) == 0
		s.N = v&0x80 != 0
		s.V = v&0x40 != 0

	// Shifts and rotates (accumulator or memory).
	case "ASL":
		if ferr := execShiftRotate(m, s, info.Mode, ea, shiftASL); ferr != nil {
			return 0, Faulted, ferr
		}
	case "LSR":
		if ferr := execShiftRotate(m, s, info.Mode, ea, shiftLSR); ferr != nil {
			return 0, Faulted, ferr
		}
	case "ROL":
		if ferr := execShiftRotate(m, s, info.Mode, ea, shiftROL); ferr != nil {
			return 0, Faulted, ferr
		}
	case "ROR":
		if ferr := execShiftRotate(m, s, info.Mode, ea, shiftROR); ferr != nil {
			return 0, Faulted, ferr
		}

	// Increment/decrement memory.
	case "INC":
		if ferr := execIncDecMem(m, s, ea, +1); ferr != nil {
			return 0, Faulted, ferr
		}
	case "DEC":
		if ferr := execIncDecMem(m, s, ea, -1); ferr != nil {
			return 0, Faulted, ferr
		}

	// Register increment/decrement.
	case "INX":
		s.X++
		setZN(s, s.X)
	case "INY":
		s.Y++
		setZN(s, s.Y)
	case "DEX":
		s.X--
		setZN(s, s.X)
	case "DEY":
		s.Y--
		setZN(s, s.Y)

	// Transfers.
	case "TAX":
		s.X = s.A
		setZN(s, s.X)
	case "TAY":
		s.Y = s.A
		setZN(s, s.Y)
	case "TXA":
		s.A = s.X
		setZN(s, s.A)
	case "TYA":
		s.A = s.Y
		setZN(s, s.A)
	case "TSX":
		s.X = s.SP
		setZN(s, s.X)
	case "TXS":
		s.SP = s.X

	// Stack.
	case "PHA":
		if ferr := push(m, s, s.A); ferr != nil {
			return 0, Faulted, ferr
		}
	case "PHP":
		if ferr := push(m, s, s.PackP()|0x10); ferr != nil {
			return 0, Faulted, ferr
		}
	case "PLA":
		v, ferr := pull(m, s)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.A = v
		setZN(s, v)
	case "PLP":
		v, ferr := pull(m, s)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.UnpackP(v)

	// Flags.
	case "CLC":
		s.C = false
	case "SEC":
		s.C = true
	case "CLD":
		s.D = false
	case "SED":
		s.D = true
	case "CLI":
		s.I = false
	case "SEI":
		s.I = true
	case "CLV":
		s.V = false

	// Control flow.
	case "JMP":
		s.PC = ea
	case "JSR":
		ret := pcAfterFetch - 1
		if ferr := push(m, s, byte(ret>>8)); ferr != nil {
			return 0, Faulted, ferr
		}
		if ferr := push(m, s, byte(ret)); ferr != nil {
			return 0, Faulted, ferr
		}
		s.PC = ea
	case "RTS":
		lo, ferr := pull(m, s)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		hi, ferr := pull(m, s)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.PC = (uint16(hi)<<8 | uint16(lo)) + 1
	case "RTI":
		p, ferr := pull(m, s)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.UnpackP(p)
		lo, ferr := pull(m, s)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		hi, ferr := pull(m, s)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.PC = uint16(hi)<<8 | uint16(lo)
	case "BRK":
		return cycles, Halted, nil
	case "NOP":
		// consumes cycles and, for the undocumented multi-byte forms,
		// operand bytes already fetched above; no further effect.

	// Conditional branches: per spec.md §9 all eight are treated
	// uniformly (+1 taken, +1 further when the target lies on a different
	// page than the branch opcode itself), resolving the simple reference
	// path's asymmetry.
	case "BCC":
		branchTaken = !s.C
	case "BCS":
		branchTaken = s.C
	case "BEQ":
		branchTaken = s.Z
	case "BNE":
		branchTaken = !s.Z
	case "BMI":
		branchTaken = s.N
	case "BPL":
		branchTaken = !s.N
	case "BVC":
		branchTaken = !s.V
	case "BVS":
		branchTaken = s.V

	// Documented illegal compositions (spec.md §4.1).
	case "LAX":
		v, ferr := loadOperand(m, info.Mode, ea, operand)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.A = v
		s.X = v
		setZN(s, v)
	case "SAX":
		if ferr := m.Write(ea, s.A&s.X); ferr != nil {
			return 0, Faulted, ferr
		}
	case "DCP":
		v, ferr := m.Read(ea)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		v--
		if ferr := m.Write(ea, v); ferr != nil {
			return 0, Faulted, ferr
		}
		execCompare(s, s.A, v)
	case "ISB":
		v, ferr := m.Read(ea)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		v++
		if ferr := m.Write(ea, v); ferr != nil {
			return 0, Faulted, ferr
		}
		execSBC(s, v)
	case "SLO":
		v, ferr := m.Read(ea)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.C = v&0x80 != 0
		v <<= 1
		if ferr := m.Write(ea, v); ferr != nil {
			return 0, Faulted, ferr
		}
		s.A |= v
		setZN(s, s.A)
	case "RLA":
		v, ferr := m.Read(ea)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		oldCarry := s.C
		s.C = v&0x80 != 0
		v = v<<1 | b2u8(oldCarry)
		if ferr := m.Write(ea, v); ferr != nil {
			return 0, Faulted, ferr
		}
		s.A &= v
		setZN(s, s.A)
	case "SRE":
		v, ferr := m.Read(ea)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		s.C = v&0x01 != 0
		v >>= 1
		if ferr := m.Write(ea, v); ferr != nil {
			return 0, Faulted, ferr
		}
		s.A ^= v
		setZN(s, s.A)
	case "RRA":
		v, ferr := m.Read(ea)
		if ferr != nil {
			return 0, Faulted, ferr
		}
		oldCarry := s.C
		s.C = v&0x01 != 0
		v = v>>1 | b2u8(oldCarry)<<7
		if ferr := m.Write(ea, v); ferr != nil {
			return 0, Faulted, ferr
		}
		execADC(s, v)

	default:
		return 0, Faulted, fmt.Errorf("cpu: unhandled opcode %#02x (%s)", op, info.Mnemonic)
	}

	if info.Branch {
		if branchTaken {
			target := pcAfterFetch + uint16(int8(byte(operand)))
			opAddr := pcAfterFetch - uint16(info.Size)
			cycles++
			if (opAddr & 0xFF00) != (target & 0xFF00) {
				cycles++
			}
			s.PC = target
		}
	} else if info.PageCross && pageCrossed {
		cycles++
	}

	return cycles, Continue, nil
}

// Execute runs instructions starting at startPC until maxInstructions is
// reached, a Halted status is produced, or a fault occurs.
func Execute(m mem.Memory, s *State, startPC uint16, maxInstructions int) (cyclesTotal, instructions int, status Status, err error) {
	s.PC = startPC
	for instructions < maxInstructions {
		c, st, ferr := Step(m, s)
		cyclesTotal += c
		if ferr != nil {
			return cyclesTotal, instructions, Faulted, ferr
		}
		instructions++
		if st == Halted {
			return cyclesTotal, instructions, Halted, nil
		}
	}
	return cyclesTotal, instructions, Continue, nil
}

func b2u8(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// resolveEA computes the effective address and page-cross flag for every
// addressing mode that touches memory, per spec.md §4.1's per-mode
// semantics including the JMP-indirect page-wrap bug. Relative addressing
// is resolved inline by the branch opcodes since it always depends on
// whether the branch is taken.
func resolveEA(m mem.Memory, s *State, mode inst.AddressingMode, operand uint16) (ea uint16, pageCrossed bool, err error) {
	switch mode {
	case inst.Implied, inst.Accumulator, inst.Immediate, inst.Relative:
		return 0, false, nil
	case inst.ZeroPage:
		return operand & 0xFF, false, nil
	case inst.ZeroPageX:
		return uint16(byte(operand) + s.X), false, nil
	case inst.ZeroPageY:
		return uint16(byte(operand) + s.Y), false, nil
	case inst.Absolute:
		return operand, false, nil
	case inst.AbsoluteX:
		base := operand
		ea = base + uint16(s.X)
		return ea, (base & 0xFF00) != (ea & 0xFF00), nil
	case inst.AbsoluteY:
		base := operand
		ea = base + uint16(s.Y)
		return ea, (base & 0xFF00) != (ea & 0xFF00), nil
	case inst.Indirect:
		ptr := operand
		lo, ferr := m.Read(ptr)
		if ferr != nil {
			return 0, false, ferr
		}
		hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
		hi, ferr := m.Read(hiAddr)
		if ferr != nil {
			return 0, false, ferr
		}
		return uint16(lo) | uint16(hi)<<8, false, nil
	case inst.IndexedIndirectX:
		zp := byte(operand) + s.X
		lo, ferr := m.Read(uint16(zp))
		if ferr != nil {
			return 0, false, ferr
		}
		hi, ferr := m.Read(uint16(zp + 1))
		if ferr != nil {
			return 0, false, ferr
		}
		return uint16(lo) | uint16(hi)<<8, false, nil
	case inst.IndirectIndexedY:
		zp := byte(operand)
		lo, ferr := m.Read(uint16(zp))
		if ferr != nil {
			return 0, false, ferr
		}
		hi, ferr := m.Read(uint16(zp + 1))
		if ferr != nil {
			return 0, false, ferr
		}
		base := uint16(lo) | uint16(hi)<<8
		ea = base + uint16(s.Y)
		return ea, (base & 0xFF00) != (ea & 0xFF00), nil
	default:
		return 0, false, nil
	}
}

func loadOperand(m mem.Memory, mode inst.AddressingMode, ea uint16, operand uint16) (byte, error) {
	if mode == inst.Immediate {
		return byte(operand), nil
	}
	return m.Read(ea)
}
