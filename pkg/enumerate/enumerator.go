// Package enumerate generates candidate instruction sequences for the
// superoptimizer search. Operands are drawn from a small representative
// value set rather than enumerated exhaustively: a full cross-product over
// 256 byte values (or 65536 addresses) per operand slot is tractable for an
// 8-bit CPU with register operands, but the 6502's single general-purpose
// accumulator means almost every opcode of interest takes a memory operand,
// so exhaustive enumeration would blow up the search space long before
// sequence length does.
package enumerate

import "github.com/ilmenit/Phaistos/pkg/inst"

// Config controls which opcodes and operand values enumeration draws from.
// Sequence length is a separate argument to Sequences, not a Config field:
// a single Config is reused across every length the driver searches.
type Config struct {
	IncludeIllegal bool
	ByteValues     []byte   // representative values for 1-byte operands
	Addresses      []uint16 // representative values for 2-byte (absolute) operands
}

// DefaultByteValues is the representative 8-bit operand set: zero, one, the
// signed-boundary pair, and the all-ones byte.
var DefaultByteValues = []byte{0x00, 0x01, 0x7F, 0x80, 0xFF}

// DefaultAddresses is the fallback representative absolute-address set used
// when a spec declares no memory regions of its own to seed candidates
// with.
var DefaultAddresses = []uint16{0x0000, 0x0080, 0x0100, 0x2000, 0x3000, 0xFFFF}

// DefaultConfig returns a Config using the representative operand sets and
// excluding illegal opcodes, for callers with no spec-derived addresses to
// seed Addresses with.
func DefaultConfig() Config {
	return Config{
		ByteValues: DefaultByteValues,
		Addresses:  DefaultAddresses,
	}
}

// withDefaults fills in the representative-value sets Config leaves empty.
func (c Config) withDefaults() Config {
	if len(c.ByteValues) == 0 {
		c.ByteValues = DefaultByteValues
	}
	if len(c.Addresses) == 0 {
		c.Addresses = DefaultAddresses
	}
	return c
}

// ByteValuesFromConstants builds a representative byte-operand set that
// leads with every constant a spec actually requires somewhere in its
// declarations, so a candidate can encode a spec-pinned byte as a literal
// immediate operand, then rounds out with the fixed boundary set.
func ByteValuesFromConstants(constants []byte) []byte {
	seen := make(map[byte]bool, len(constants)+len(DefaultByteValues))
	out := make([]byte, 0, len(constants)+len(DefaultByteValues))
	for _, b := range constants {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	for _, b := range DefaultByteValues {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

// AddressesFromRegions builds a representative absolute-address set from a
// spec's declared memory-region addresses, so candidate sequences are
// tried against the slots the spec actually cares about first, falling
// back to the fixed scratch addresses in DefaultAddresses to round the set
// out.
func AddressesFromRegions(regionAddrs []uint16) []uint16 {
	seen := make(map[uint16]bool, len(regionAddrs)+len(DefaultAddresses))
	out := make([]uint16, 0, len(regionAddrs)+len(DefaultAddresses))
	for _, a := range regionAddrs {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, a := range DefaultAddresses {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// Sequences enumerates every candidate sequence of exactly n instructions,
// calling fn for each. fn returning false stops enumeration early. The
// slice passed to fn is reused across calls; copy it if it must outlive the
// call.
func Sequences(n int, cfg Config, fn func(seq []inst.Instruction) bool) {
	cfg = cfg.withDefaults()
	ops := inst.UsableOpcodes(cfg.IncludeIllegal)
	seq := make([]inst.Instruction, n)
	enumerateRec(seq, 0, ops, cfg, fn)
}

func enumerateRec(seq []inst.Instruction, pos int, ops []byte, cfg Config, fn func([]inst.Instruction) bool) bool {
	if pos == len(seq) {
		return fn(seq)
	}
	for _, op := range ops {
		switch inst.Catalog[op].Mode.OperandSize() {
		case 0:
			seq[pos] = inst.Instruction{Op: op}
			if !enumerateRec(seq, pos+1, ops, cfg, fn) {
				return false
			}
		case 1:
			for _, v := range cfg.ByteValues {
				seq[pos] = inst.Instruction{Op: op, Operand: uint16(v)}
				if !enumerateRec(seq, pos+1, ops, cfg, fn) {
					return false
				}
			}
		case 2:
			for _, addr := range cfg.Addresses {
				seq[pos] = inst.Instruction{Op: op, Operand: addr}
				if !enumerateRec(seq, pos+1, ops, cfg, fn) {
					return false
				}
			}
		}
	}
	return true
}

// Count returns the number of distinct instructions enumeration draws from
// at a single sequence position under cfg.
func Count(cfg Config) int {
	cfg = cfg.withDefaults()
	n := 0
	for _, op := range inst.UsableOpcodes(cfg.IncludeIllegal) {
		switch inst.Catalog[op].Mode.OperandSize() {
		case 0:
			n++
		case 1:
			n += len(cfg.ByteValues)
		case 2:
			n += len(cfg.Addresses)
		}
	}
	return n
}

// FirstInstructions returns every distinct instruction enumeration could
// place first, one per worker-pool partition: a task shards the search
// space by fixing the first instruction and enumerating the remaining
// positions within that partition.
func FirstInstructions(cfg Config) []inst.Instruction {
	cfg = cfg.withDefaults()
	out := make([]inst.Instruction, 0, Count(cfg))
	for _, op := range inst.UsableOpcodes(cfg.IncludeIllegal) {
		switch inst.Catalog[op].Mode.OperandSize() {
		case 0:
			out = append(out, inst.Instruction{Op: op})
		case 1:
			for _, v := range cfg.ByteValues {
				out = append(out, inst.Instruction{Op: op, Operand: uint16(v)})
			}
		case 2:
			for _, addr := range cfg.Addresses {
				out = append(out, inst.Instruction{Op: op, Operand: addr})
			}
		}
	}
	return out
}
