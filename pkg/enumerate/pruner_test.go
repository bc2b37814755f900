package enumerate

import (
	"testing"

	"github.com/ilmenit/Phaistos/pkg/inst"
)

func TestShouldPruneNOP(t *testing.T) {
	seq := []inst.Instruction{{Op: 0x1A}} // single-byte implied NOP
	if !ShouldPrune(seq) {
		t.Error("a NOP-containing sequence should be pruned")
	}
}

func TestShouldPruneDeadWrite(t *testing.T) {
	seq := []inst.Instruction{
		{Op: 0xA9, Operand: 5},  // LDA #5
		{Op: 0xA9, Operand: 10}, // LDA #10, clobbers before the first value is ever read
	}
	if !ShouldPrune(seq) {
		t.Error("consecutive LDA #imm should be pruned (dead write)")
	}
}

func TestShouldNotPruneSingleInstruction(t *testing.T) {
	seq := []inst.Instruction{{Op: 0xE8}} // INX
	if ShouldPrune(seq) {
		t.Error("INX alone should not be pruned")
	}
}

func TestShouldNotPruneFlagDependentPair(t *testing.T) {
	// INY then INX both write the flag byte; swapping them changes which
	// increment result Z/N end up reflecting, so the pair is not
	// independent and must not be forced into canonical order.
	seq := []inst.Instruction{{Op: 0xC8}, {Op: 0xE8}} // INY, INX
	if ShouldPrune(seq) {
		t.Error("flag-dependent adjacent instructions must not be pruned by canonical ordering")
	}
}

func TestCanonicalOrderingPrunesOutOfOrderIndependentPair(t *testing.T) {
	// STA and STX touch different zero-page addresses and write no shared
	// register, so they're independent; the search only needs to see them
	// in ascending-opcode order.
	wrongOrder := []inst.Instruction{
		{Op: 0x86, Operand: 0x20}, // STX $20
		{Op: 0x85, Operand: 0x10}, // STA $10
	}
	if !ShouldPrune(wrongOrder) {
		t.Error("independent pair in non-canonical order should be pruned")
	}

	rightOrder := []inst.Instruction{
		{Op: 0x85, Operand: 0x10}, // STA $10
		{Op: 0x86, Operand: 0x20}, // STX $20
	}
	if ShouldPrune(rightOrder) {
		t.Error("independent pair already in canonical order should not be pruned")
	}
}

func TestAreIndependentSameAddressIsConflicting(t *testing.T) {
	a := inst.Instruction{Op: 0x85, Operand: 0x10} // STA $10
	b := inst.Instruction{Op: 0x86, Operand: 0x10} // STX $10
	if areIndependent(a, b) {
		t.Error("two writes to the same statically-known address must conflict")
	}
}

func TestShouldPruneDeadStoreSameAddress(t *testing.T) {
	seq := []inst.Instruction{
		{Op: 0x85, Operand: 0x80}, // STA $80
		{Op: 0x85, Operand: 0x80}, // STA $80, overwrites before anything reads it
	}
	if !ShouldPrune(seq) {
		t.Error("consecutive stores to the same address with no intervening read should be pruned (dead store)")
	}
}

func TestShouldNotPruneDeadStoreWithInterveningRead(t *testing.T) {
	seq := []inst.Instruction{
		{Op: 0x85, Operand: 0x80}, // STA $80
		{Op: 0xA5, Operand: 0x80}, // LDA $80, reads the stored value back
		{Op: 0x85, Operand: 0x80}, // STA $80
	}
	if ShouldPrune(seq) {
		t.Error("a store followed by a read of the same address must not be pruned as a dead store")
	}
}

func TestShouldNotPruneStoresToDifferentAddresses(t *testing.T) {
	seq := []inst.Instruction{
		{Op: 0x85, Operand: 0x80}, // STA $80
		{Op: 0x85, Operand: 0x90}, // STA $90
	}
	if ShouldPrune(seq) {
		t.Error("stores to distinct statically-known addresses must not be pruned as dead stores")
	}
}

func TestIsDeadStoreStopsScanningAtIndexedAccess(t *testing.T) {
	// The middle store's effective address depends on X at runtime, so it
	// might or might not alias $80; the scan must give up rather than prune
	// the first store based on the third instruction's matching address.
	seq := []inst.Instruction{
		{Op: 0x85, Operand: 0x80},   // STA $80
		{Op: 0x9D, Operand: 0x1000}, // STA $1000,X
		{Op: 0x85, Operand: 0x80},   // STA $80
	}
	if isDeadStore(seq, 0) {
		t.Error("an intervening indexed-mode access should stop the dead-store scan, not be skipped over")
	}
}

func TestAreIndependentIndexedModeIsConservative(t *testing.T) {
	// AbsoluteX's effective address depends on a runtime register value,
	// so two such accesses can't be proven non-conflicting statically.
	a := inst.Instruction{Op: 0x9D, Operand: 0x1000} // STA $1000,X
	b := inst.Instruction{Op: 0x85, Operand: 0x10}    // STA $10
	if areIndependent(a, b) {
		t.Error("an indexed-mode memory access should never be treated as independent")
	}
}
