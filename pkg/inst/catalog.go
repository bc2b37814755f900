package inst

// Catalog is the immutable, process-wide opcode descriptor table: 256
// entries, one per possible opcode byte, populated once at init time and
// never mutated afterward.
var Catalog [256]Info

// rawOp is the per-opcode layout (mnemonic/size/cycles/mode) before the
// per-mnemonic semantic fields (reads/writes/memory/legality) are filled
// in. Values are the documented NMOS 6502 opcode matrix, including the
// undocumented column.
type rawOp struct {
	mnemonic  string
	size      uint8
	cycles    uint8
	pageCross bool
	mode      AddressingMode
}

var rawTable = [256]rawOp{
	/*00*/ {"BRK", 1, 7, false, Implied}, {"ORA", 2, 6, false, IndexedIndirectX}, {"JAM", 1, 0, false, Implied}, {"SLO", 2, 8, false, IndexedIndirectX},
	/*04*/ {"NOP", 2, 3, false, ZeroPage}, {"ORA", 2, 3, false, ZeroPage}, {"ASL", 2, 5, false, ZeroPage}, {"SLO", 2, 5, false, ZeroPage},
	/*08*/ {"PHP", 1, 3, false, Implied}, {"ORA", 2, 2, false, Immediate}, {"ASL", 1, 2, false, Accumulator}, {"ANC", 2, 2, false, Immediate},
	/*0C*/ {"NOP", 3, 4, false, Absolute}, {"ORA", 3, 4, false, Absolute}, {"ASL", 3, 6, false, Absolute}, {"SLO", 3, 6, false, Absolute},
	/*10*/ {"BPL", 2, 2, false, Relative}, {"ORA", 2, 5, true, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"SLO", 2, 8, false, IndirectIndexedY},
	/*14*/ {"NOP", 2, 4, false, ZeroPageX}, {"ORA", 2, 4, false, ZeroPageX}, {"ASL", 2, 6, false, ZeroPageX}, {"SLO", 2, 6, false, ZeroPageX},
	/*18*/ {"CLC", 1, 2, false, Implied}, {"ORA", 3, 4, true, AbsoluteY}, {"NOP", 1, 2, false, Implied}, {"SLO", 3, 7, false, AbsoluteY},
	/*1C*/ {"NOP", 3, 4, true, AbsoluteX}, {"ORA", 3, 4, true, AbsoluteX}, {"ASL", 3, 7, false, AbsoluteX}, {"SLO", 3, 7, false, AbsoluteX},
	/*20*/ {"JSR", 3, 6, false, Absolute}, {"AND", 2, 6, false, IndexedIndirectX}, {"JAM", 1, 0, false, Implied}, {"RLA", 2, 8, false, IndexedIndirectX},
	/*24*/ {"BIT", 2, 3, false, ZeroPage}, {"AND", 2, 3, false, ZeroPage}, {"ROL", 2, 5, false, ZeroPage}, {"RLA", 2, 5, false, ZeroPage},
	/*28*/ {"PLP", 1, 4, false, Implied}, {"AND", 2, 2, false, Immediate}, {"ROL", 1, 2, false, Accumulator}, {"ANC", 2, 2, false, Immediate},
	/*2C*/ {"BIT", 3, 4, false, Absolute}, {"AND", 3, 4, false, Absolute}, {"ROL", 3, 6, false, Absolute}, {"RLA", 3, 6, false, Absolute},
	/*30*/ {"BMI", 2, 2, false, Relative}, {"AND", 2, 5, true, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"RLA", 2, 8, false, IndirectIndexedY},
	/*34*/ {"NOP", 2, 4, false, ZeroPageX}, {"AND", 2, 4, false, ZeroPageX}, {"ROL", 2, 6, false, ZeroPageX}, {"RLA", 2, 6, false, ZeroPageX},
	/*38*/ {"SEC", 1, 2, false, Implied}, {"AND", 3, 4, true, AbsoluteY}, {"NOP", 1, 2, false, Implied}, {"RLA", 3, 7, false, AbsoluteY},
	/*3C*/ {"NOP", 3, 4, true, AbsoluteX}, {"AND", 3, 4, true, AbsoluteX}, {"ROL", 3, 7, false, AbsoluteX}, {"RLA", 3, 7, false, AbsoluteX},
	/*40*/ {"RTI", 1, 6, false, Implied}, {"EOR", 2, 6, false, IndexedIndirectX}, {"JAM", 1, 0, false, Implied}, {"SRE", 2, 8, false, IndexedIndirectX},
	/*44*/ {"NOP", 2, 3, false, ZeroPage}, {"EOR", 2, 3, false, ZeroPage}, {"LSR", 2, 5, false, ZeroPage}, {"SRE", 2, 5, false, ZeroPage},
	/*48*/ {"PHA", 1, 3, false, Implied}, {"EOR", 2, 2, false, Immediate}, {"LSR", 1, 2, false, Accumulator}, {"ALR", 2, 2, false, Immediate},
	/*4C*/ {"JMP", 3, 3, false, Absolute}, {"EOR", 3, 4, false, Absolute}, {"LSR", 3, 6, false, Absolute}, {"SRE", 3, 6, false, Absolute},
	/*50*/ {"BVC", 2, 2, false, Relative}, {"EOR", 2, 5, true, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"SRE", 2, 8, false, IndirectIndexedY},
	/*54*/ {"NOP", 2, 4, false, ZeroPageX}, {"EOR", 2, 4, false, ZeroPageX}, {"LSR", 2, 6, false, ZeroPageX}, {"SRE", 2, 6, false, ZeroPageX},
	/*58*/ {"CLI", 1, 2, false, Implied}, {"EOR", 3, 4, true, AbsoluteY}, {"NOP", 1, 2, false, Implied}, {"SRE", 3, 7, false, AbsoluteY},
	/*5C*/ {"NOP", 3, 4, true, AbsoluteX}, {"EOR", 3, 4, true, AbsoluteX}, {"LSR", 3, 7, false, AbsoluteX}, {"SRE", 3, 7, false, AbsoluteX},
	/*60*/ {"RTS", 1, 6, false, Implied}, {"ADC", 2, 6, false, IndexedIndirectX}, {"JAM", 1, 0, false, Implied}, {"RRA", 2, 8, false, IndexedIndirectX},
	/*64*/ {"NOP", 2, 3, false, ZeroPage}, {"ADC", 2, 3, false, ZeroPage}, {"ROR", 2, 5, false, ZeroPage}, {"RRA", 2, 5, false, ZeroPage},
	/*68*/ {"PLA", 1, 4, false, Implied}, {"ADC", 2, 2, false, Immediate}, {"ROR", 1, 2, false, Accumulator}, {"ARR", 2, 2, false, Immediate},
	/*6C*/ {"JMP", 3, 5, false, Indirect}, {"ADC", 3, 4, false, Absolute}, {"ROR", 3, 6, false, Absolute}, {"RRA", 3, 6, false, Absolute},
	/*70*/ {"BVS", 2, 2, false, Relative}, {"ADC", 2, 5, true, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"RRA", 2, 8, false, IndirectIndexedY},
	/*74*/ {"NOP", 2, 4, false, ZeroPageX}, {"ADC", 2, 4, false, ZeroPageX}, {"ROR", 2, 6, false, ZeroPageX}, {"RRA", 2, 6, false, ZeroPageX},
	/*78*/ {"SEI", 1, 2, false, Implied}, {"ADC", 3, 4, true, AbsoluteY}, {"NOP", 1, 2, false, Implied}, {"RRA", 3, 7, false, AbsoluteY},
	/*7C*/ {"NOP", 3, 4, true, AbsoluteX}, {"ADC", 3, 4, true, AbsoluteX}, {"ROR", 3, 7, false, AbsoluteX}, {"RRA", 3, 7, false, AbsoluteX},
	/*80*/ {"NOP", 2, 2, false, Immediate}, {"STA", 2, 6, false, IndexedIndirectX}, {"NOP", 2, 2, false, Immediate}, {"SAX", 2, 6, false, IndexedIndirectX},
	/*84*/ {"STY", 2, 3, false, ZeroPage}, {"STA", 2, 3, false, ZeroPage}, {"STX", 2, 3, false, ZeroPage}, {"SAX", 2, 3, false, ZeroPage},
	/*88*/ {"DEY", 1, 2, false, Implied}, {"NOP", 2, 2, false, Immediate}, {"TXA", 1, 2, false, Implied}, {"XAA", 2, 2, false, Immediate},
	/*8C*/ {"STY", 3, 4, false, Absolute}, {"STA", 3, 4, false, Absolute}, {"STX", 3, 4, false, Absolute}, {"SAX", 3, 4, false, Absolute},
	/*90*/ {"BCC", 2, 2, false, Relative}, {"STA", 2, 6, false, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"AHX", 2, 6, false, IndirectIndexedY},
	/*94*/ {"STY", 2, 4, false, ZeroPageX}, {"STA", 2, 4, false, ZeroPageX}, {"STX", 2, 4, false, ZeroPageY}, {"SAX", 2, 4, false, ZeroPageY},
	/*98*/ {"TYA", 1, 2, false, Implied}, {"STA", 3, 5, false, AbsoluteY}, {"TXS", 1, 2, false, Implied}, {"TAS", 3, 5, false, AbsoluteY},
	/*9C*/ {"SHY", 3, 5, false, AbsoluteX}, {"STA", 3, 5, false, AbsoluteX}, {"SHX", 3, 5, false, AbsoluteY}, {"AHX", 3, 5, false, AbsoluteY},
	/*A0*/ {"LDY", 2, 2, false, Immediate}, {"LDA", 2, 6, false, IndexedIndirectX}, {"LDX", 2, 2, false, Immediate}, {"LAX", 2, 6, false, IndexedIndirectX},
	/*A4*/ {"LDY", 2, 3, false, ZeroPage}, {"LDA", 2, 3, false, ZeroPage}, {"LDX", 2, 3, false, ZeroPage}, {"LAX", 2, 3, false, ZeroPage},
	/*A8*/ {"TAY", 1, 2, false, Implied}, {"LDA", 2, 2, false, Immediate}, {"TAX", 1, 2, false, Implied}, {"LAX", 2, 2, false, Immediate},
	/*AC*/ {"LDY", 3, 4, false, Absolute}, {"LDA", 3, 4, false, Absolute}, {"LDX", 3, 4, false, Absolute}, {"LAX", 3, 4, false, Absolute},
	/*B0*/ {"BCS", 2, 2, false, Relative}, {"LDA", 2, 5, true, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"LAX", 2, 5, true, IndirectIndexedY},
	/*B4*/ {"LDY", 2, 4, false, ZeroPageX}, {"LDA", 2, 4, false, ZeroPageX}, {"LDX", 2, 4, false, ZeroPageY}, {"LAX", 2, 4, false, ZeroPageY},
	/*B8*/ {"CLV", 1, 2, false, Implied}, {"LDA", 3, 4, true, AbsoluteY}, {"TSX", 1, 2, false, Implied}, {"LAS", 3, 4, true, AbsoluteY},
	/*BC*/ {"LDY", 3, 4, true, AbsoluteX}, {"LDA", 3, 4, true, AbsoluteX}, {"LDX", 3, 4, true, AbsoluteY}, {"LAX", 3, 4, true, AbsoluteY},
	/*C0*/ {"CPY", 2, 2, false, Immediate}, {"CMP", 2, 6, false, IndexedIndirectX}, {"NOP", 2, 2, false, Immediate}, {"DCP", 2, 8, false, IndexedIndirectX},
	/*C4*/ {"CPY", 2, 3, false, ZeroPage}, {"CMP", 2, 3, false, ZeroPage}, {"DEC", 2, 5, false, ZeroPage}, {"DCP", 2, 5, false, ZeroPage},
	/*C8*/ {"INY", 1, 2, false, Implied}, {"CMP", 2, 2, false, Immediate}, {"DEX", 1, 2, false, Implied}, {"AXS", 2, 2, false, Immediate},
	/*CC*/ {"CPY", 3, 4, false, Absolute}, {"CMP", 3, 4, false, Absolute}, {"DEC", 3, 6, false, Absolute}, {"DCP", 3, 6, false, Absolute},
	/*D0*/ {"BNE", 2, 2, false, Relative}, {"CMP", 2, 5, true, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"DCP", 2, 8, false, IndirectIndexedY},
	/*D4*/ {"NOP", 2, 4, false, ZeroPageX}, {"CMP", 2, 4, false, ZeroPageX}, {"DEC", 2, 6, false, ZeroPageX}, {"DCP", 2, 6, false, ZeroPageX},
	/*D8*/ {"CLD", 1, 2, false, Implied}, {"CMP", 3, 4, true, AbsoluteY}, {"NOP", 1, 2, false, Implied}, {"DCP", 3, 7, false, AbsoluteY},
	/*DC*/ {"NOP", 3, 4, true, AbsoluteX}, {"CMP", 3, 4, true, AbsoluteX}, {"DEC", 3, 7, false, AbsoluteX}, {"DCP", 3, 7, false, AbsoluteX},
	/*E0*/ {"CPX", 2, 2, false, Immediate}, {"SBC", 2, 6, false, IndexedIndirectX}, {"NOP", 2, 2, false, Immediate}, {"ISB", 2, 8, false, IndexedIndirectX},
	/*E4*/ {"CPX", 2, 3, false, ZeroPage}, {"SBC", 2, 3, false, ZeroPage}, {"INC", 2, 5, false, ZeroPage}, {"ISB", 2, 5, false, ZeroPage},
	/*E8*/ {"INX", 1, 2, false, Implied}, {"SBC", 2, 2, false, Immediate}, {"NOP", 1, 2, false, Implied}, {"SBC", 2, 2, false, Immediate},
	/*EC*/ {"CPX", 3, 4, false, Absolute}, {"SBC", 3, 4, false, Absolute}, {"INC", 3, 6, false, Absolute}, {"ISB", 3, 6, false, Absolute},
	/*F0*/ {"BEQ", 2, 2, false, Relative}, {"SBC", 2, 5, true, IndirectIndexedY}, {"JAM", 1, 0, false, Implied}, {"ISB", 2, 8, false, IndirectIndexedY},
	/*F4*/ {"NOP", 2, 4, false, ZeroPageX}, {"SBC", 2, 4, false, ZeroPageX}, {"INC", 2, 6, false, ZeroPageX}, {"ISB", 2, 6, false, ZeroPageX},
	/*F8*/ {"SED", 1, 2, false, Implied}, {"SBC", 3, 4, true, AbsoluteY}, {"NOP", 1, 2, false, Implied}, {"ISB", 3, 7, false, AbsoluteY},
	/*FC*/ {"NOP", 3, 4, true, AbsoluteX}, {"SBC", 3, 4, true, AbsoluteX}, {"INC", 3, 7, false, AbsoluteX}, {"ISB", 3, 7, false, AbsoluteX},
}

// semantics holds the per-mnemonic reads/writes/memory/legality fields
// that do not vary across an instruction's addressing-mode variants.
type semantics struct {
	reads    RegSet
	writes   RegSet
	memory   MemoryAccess
	legality Legality
	branch   bool
}

// illegalMnemonics is the set spec.md names explicitly: documented illegal
// opcode compositions, enumerable only when a spec requests illegal ops.
var illegalMnemonics = map[string]bool{
	"LAX": true, "SAX": true, "DCP": true, "ISB": true,
	"SLO": true, "RLA": true, "SRE": true, "RRA": true,
}

// unstableMnemonics exist on real silicon but have revision-dependent or
// bus-conflict-dependent behavior; per spec.md §4.1 they are folded into
// Unusable and never enumerated.
var unstableMnemonics = map[string]bool{
	"ANC": true, "ALR": true, "ARR": true, "AXS": true,
	"LAS": true, "XAA": true, "AHX": true, "TAS": true,
	"SHX": true, "SHY": true,
}

var mnemonicSemantics = map[string]semantics{
	"ADC": {reads: RegA | RegP, writes: RegA | RegP, memory: ReadMemory},
	"AND": {reads: RegA, writes: RegA | RegP, memory: ReadMemory},
	"ASL": {writes: RegP, memory: ReadWriteMemory},
	"BCC": {reads: RegP, branch: true},
	"BCS": {reads: RegP, branch: true},
	"BEQ": {reads: RegP, branch: true},
	"BIT": {reads: RegA, writes: RegP, memory: ReadMemory},
	"BMI": {reads: RegP, branch: true},
	"BNE": {reads: RegP, branch: true},
	"BPL": {reads: RegP, branch: true},
	"BRK": {writes: RegSP | RegP},
	"BVC": {reads: RegP, branch: true},
	"BVS": {reads: RegP, branch: true},
	"CLC": {writes: RegP},
	"CLD": {writes: RegP},
	"CLI": {writes: RegP},
	"CLV": {writes: RegP},
	"CMP": {reads: RegA, writes: RegP, memory: ReadMemory},
	"CPX": {reads: RegX, writes: RegP, memory: ReadMemory},
	"CPY": {reads: RegY, writes: RegP, memory: ReadMemory},
	"DEC": {writes: RegP, memory: ReadWriteMemory},
	"DEX": {reads: RegX, writes: RegX | RegP},
	"DEY": {reads: RegY, writes: RegY | RegP},
	"EOR": {reads: RegA, writes: RegA | RegP, memory: ReadMemory},
	"INC": {writes: RegP, memory: ReadWriteMemory},
	"INX": {reads: RegX, writes: RegX | RegP},
	"INY": {reads: RegY, writes: RegY | RegP},
	"JMP": {memory: ReadMemory},
	"JSR": {writes: RegSP},
	"LDA": {writes: RegA | RegP, memory: ReadMemory},
	"LDX": {writes: RegX | RegP, memory: ReadMemory},
	"LDY": {writes: RegY | RegP, memory: ReadMemory},
	"LSR": {writes: RegP, memory: ReadWriteMemory},
	"NOP": {},
	"ORA": {reads: RegA, writes: RegA | RegP, memory: ReadMemory},
	"PHA": {reads: RegA, writes: RegSP, memory: WriteMemory},
	"PHP": {reads: RegP, writes: RegSP, memory: WriteMemory},
	"PLA": {writes: RegA | RegP | RegSP, memory: ReadMemory},
	"PLP": {writes: RegP | RegSP, memory: ReadMemory},
	"ROL": {reads: RegP, writes: RegP, memory: ReadWriteMemory},
	"ROR": {reads: RegP, writes: RegP, memory: ReadWriteMemory},
	"RTI": {writes: RegSP | RegP, memory: ReadMemory},
	"RTS": {writes: RegSP, memory: ReadMemory},
	"SBC": {reads: RegA | RegP, writes: RegA | RegP, memory: ReadMemory},
	"SEC": {writes: RegP},
	"SED": {writes: RegP},
	"SEI": {writes: RegP},
	"STA": {reads: RegA, memory: WriteMemory},
	"STX": {reads: RegX, memory: WriteMemory},
	"STY": {reads: RegY, memory: WriteMemory},
	"TAX": {reads: RegA, writes: RegX | RegP},
	"TAY": {reads: RegA, writes: RegY | RegP},
	"TSX": {reads: RegSP, writes: RegX | RegP},
	"TXA": {reads: RegX, writes: RegA | RegP},
	"TXS": {reads: RegX, writes: RegSP},
	"TYA": {reads: RegY, writes: RegA | RegP},

	// Documented illegal compositions (spec.md §4.1).
	"LAX": {writes: RegA | RegX | RegP, memory: ReadMemory, legality: Illegal},
	"SAX": {reads: RegA | RegX, memory: WriteMemory, legality: Illegal},
	"DCP": {reads: RegA, writes: RegP, memory: ReadWriteMemory, legality: Illegal},
	"ISB": {reads: RegA | RegP, writes: RegA | RegP, memory: ReadWriteMemory, legality: Illegal},
	"SLO": {reads: RegA, writes: RegA | RegP, memory: ReadWriteMemory, legality: Illegal},
	"RLA": {reads: RegA | RegP, writes: RegA | RegP, memory: ReadWriteMemory, legality: Illegal},
	"SRE": {reads: RegA, writes: RegA | RegP, memory: ReadWriteMemory, legality: Illegal},
	"RRA": {reads: RegA | RegP, writes: RegA | RegP, memory: ReadWriteMemory, legality: Illegal},

	// Unstable/bus-conflict opcodes: behavior included for completeness of
	// the descriptor table but legality is forced to Unusable below.
	"ANC": {reads: RegA, writes: RegA | RegP},
	"ALR": {reads: RegA, writes: RegA | RegP},
	"ARR": {reads: RegA | RegP, writes: RegA | RegP},
	"AXS": {reads: RegA | RegX, writes: RegX | RegP},
	"LAS": {reads: RegSP, writes: RegA | RegX | RegSP | RegP, memory: ReadMemory},
	"XAA": {reads: RegA | RegX, writes: RegA | RegP},
	"AHX": {reads: RegA | RegX, memory: WriteMemory},
	"TAS": {reads: RegA | RegX, writes: RegSP, memory: WriteMemory},
	"SHX": {reads: RegX, memory: WriteMemory},
	"SHY": {reads: RegY, memory: WriteMemory},

	"JAM": {legality: Unusable},
}

func init() {
	for opcodeValue, raw := range rawTable {
		sem, ok := mnemonicSemantics[raw.mnemonic]
		if !ok {
			panic("inst: no semantics registered for mnemonic " + raw.mnemonic)
		}
		legality := sem.legality
		if unstableMnemonics[raw.mnemonic] {
			legality = Unusable
		}
		if raw.mnemonic == "JAM" {
			legality = Unusable
		}
		Catalog[opcodeValue] = Info{
			Opcode:      byte(opcodeValue),
			Mnemonic:    raw.mnemonic,
			Size:        raw.size,
			BaseCycles:  raw.cycles,
			Mode:        raw.mode,
			Reads:       sem.reads,
			Writes:      sem.writes,
			Memory:      sem.memory,
			Legality:    legality,
			PageCross:   raw.pageCross,
			Branch:      sem.branch,
			illegalName: illegalMnemonics[raw.mnemonic],
		}
	}
}

// UsableOpcodes returns every opcode byte whose legality is Legal, or
// Illegal when includeIllegal is true. Unstable and Unusable opcodes are
// never returned: they are folded into Unusable per spec.md §4.1 and are
// excluded from enumeration unconditionally.
func UsableOpcodes(includeIllegal bool) []byte {
	var out []byte
	for op := 0; op < 256; op++ {
		switch Catalog[op].Legality {
		case Legal:
			out = append(out, byte(op))
		case Illegal:
			if includeIllegal {
				out = append(out, byte(op))
			}
		}
	}
	return out
}

// Disassemble renders an instruction as assembly text using the addressing
// mode's conventional operand syntax.
func Disassemble(ins Instruction) string {
	info := Catalog[ins.Op]
	switch info.Mode {
	case Implied:
		return info.Mnemonic
	case Accumulator:
		return info.Mnemonic + " A"
	case Immediate:
		return info.Mnemonic + " #$" + hex8(byte(ins.Operand))
	case ZeroPage:
		return info.Mnemonic + " $" + hex8(byte(ins.Operand))
	case ZeroPageX:
		return info.Mnemonic + " $" + hex8(byte(ins.Operand)) + ",X"
	case ZeroPageY:
		return info.Mnemonic + " $" + hex8(byte(ins.Operand)) + ",Y"
	case Relative:
		return info.Mnemonic + " $" + hex8(byte(ins.Operand))
	case Absolute:
		return info.Mnemonic + " $" + hex16(ins.Operand)
	case AbsoluteX:
		return info.Mnemonic + " $" + hex16(ins.Operand) + ",X"
	case AbsoluteY:
		return info.Mnemonic + " $" + hex16(ins.Operand) + ",Y"
	case Indirect:
		return info.Mnemonic + " ($" + hex16(ins.Operand) + ")"
	case IndexedIndirectX:
		return info.Mnemonic + " ($" + hex8(byte(ins.Operand)) + ",X)"
	case IndirectIndexedY:
		return info.Mnemonic + " ($" + hex8(byte(ins.Operand)) + "),Y"
	default:
		return info.Mnemonic
	}
}

const hexDigits = "0123456789ABCDEF"

func hex8(b byte) string {
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}

func hex16(w uint16) string {
	return hex8(byte(w>>8)) + hex8(byte(w))
}
