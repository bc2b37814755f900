package enumerate

import "github.com/ilmenit/Phaistos/pkg/inst"

// ShouldPrune reports whether seq is provably redundant: some other
// sequence the search already visits realizes the same behavior, so
// skipping seq narrows the space without losing a reachable optimum.
func ShouldPrune(seq []inst.Instruction) bool {
	for i := range seq {
		if inst.Catalog[seq[i].Op].Mnemonic == "NOP" {
			return true
		}
		if i+1 < len(seq) && isDeadWrite(seq[i], seq[i+1]) {
			return true
		}
		if isDeadStore(seq, i) {
			return true
		}
	}

	// Canonical ordering: for independent adjacent instructions, force
	// opcode order to eliminate permutation duplicates.
	for i := 0; i+1 < len(seq); i++ {
		if areIndependent(seq[i], seq[i+1]) && instKey(seq[i]) > instKey(seq[i+1]) {
			return true
		}
	}

	return false
}

// isDeadWrite reports whether first writes a register that second
// overwrites without reading it first. RegP is excluded: nearly every
// instruction touches some subset of the status flags, so treating any
// flag write as dead would prune sequences whose purpose is to leave a
// specific flag in a specific state for a later verification check.
func isDeadWrite(first, second inst.Instruction) bool {
	written := inst.Catalog[first.Op].Writes
	if written == 0 {
		return false
	}
	written2 := inst.Catalog[second.Op].Writes
	read2 := inst.Catalog[second.Op].Reads
	dead := written & written2 &^ inst.RegP &^ read2
	return dead != 0
}

// isDeadStore reports whether seq[i] is a pure memory store (STA/STX/STY
// and friends) whose next access to the same address, scanning forward
// through seq, is another pure store with no intervening read — spec.md
// §4.3's "dead stores" rule. seq[i]'s own register write is irrelevant
// here; isDeadWrite already covers register-to-register redundancy, this
// covers the memory side that a RegSet-only check can't see, since
// STA/STX/STY carry no Writes bit (pkg/inst/catalog.go). An address that
// can't be resolved statically (indexed addressing) stops the scan rather
// than risking a false prune: the runtime address might or might not
// alias seq[i]'s target.
func isDeadStore(seq []inst.Instruction, i int) bool {
	if inst.Catalog[seq[i].Op].Memory != inst.WriteMemory {
		return false
	}
	addr, ok := staticAddress(seq[i])
	if !ok {
		return false
	}
	for j := i + 1; j < len(seq); j++ {
		next := inst.Catalog[seq[j].Op]
		if next.Memory == inst.NoMemory {
			continue
		}
		nextAddr, nextOK := staticAddress(seq[j])
		if !nextOK {
			return false
		}
		if nextAddr != addr {
			continue
		}
		return next.Memory == inst.WriteMemory
	}
	return false
}

// staticAddress returns the effective address an instruction touches when
// that address is known without runtime register context (ZeroPage and
// Absolute), and false otherwise.
func staticAddress(ins inst.Instruction) (uint16, bool) {
	switch inst.Catalog[ins.Op].Mode {
	case inst.ZeroPage:
		return ins.Operand & 0xFF, true
	case inst.Absolute:
		return ins.Operand, true
	default:
		return 0, false
	}
}

// areIndependent reports whether swapping adjacent instructions a and b
// would leave every register, flag and memory location they touch
// unaffected. Register/flag dependency is read straight from the opcode
// catalog; memory dependency is resolved statically when both instructions
// use an addressing mode whose effective address does not depend on a
// runtime register, and assumed conflicting otherwise.
func areIndependent(a, b inst.Instruction) bool {
	infoA, infoB := inst.Catalog[a.Op], inst.Catalog[b.Op]
	if infoA.Writes&infoB.Reads != 0 || infoA.Reads&infoB.Writes != 0 || infoA.Writes&infoB.Writes != 0 {
		return false
	}
	if infoA.Memory == inst.NoMemory && infoB.Memory == inst.NoMemory {
		return true
	}
	addrA, okA := staticAddress(a)
	addrB, okB := staticAddress(b)
	if !okA || !okB {
		return false
	}
	if addrA != addrB {
		return true
	}
	return infoA.Memory == inst.ReadMemory && infoB.Memory == inst.ReadMemory
}

// instKey returns a sortable key for canonical ordering of independent
// adjacent instructions.
func instKey(i inst.Instruction) uint32 {
	return uint32(i.Op)<<16 | uint32(i.Operand)
}
