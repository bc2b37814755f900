// Package mem implements the tracked 16-bit address space the interpreter
// executes against: a sparse byte store with per-address read/write
// provenance, gated by input/output region whitelists.
package mem

import (
	"fmt"

	"github.com/ilmenit/Phaistos/pkg/ospec"
)

// Memory is the interface the interpreter executes against.
type Memory interface {
	Read(addr uint16) (byte, error)
	Write(addr uint16, v byte) error
}

// ReadWord and WriteWord compose the two 8-bit accesses every addressing
// mode needs for a 16-bit little-endian value. Memory itself only defines
// the byte-granular primitives; Go has no default interface methods, so
// these live as free functions instead of the original's virtual defaults.
func ReadWord(m Memory, addr uint16) (uint16, error) {
	lo, err := m.Read(addr)
	if err != nil {
		return 0, err
	}
	hi, err := m.Read(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func WriteWord(m Memory, addr uint16, v uint16) error {
	if err := m.Write(addr, byte(v)); err != nil {
		return err
	}
	return m.Write(addr+1, byte(v>>8))
}

// AccessFault reports an access outside the whitelisted input/output
// regions, or a self-modifying write to an address not declared in both
// directions. It is the "CandidateFault" of the execution contract: the
// optimizer treats it as candidate rejection, never a program abort.
type AccessFault struct {
	Address uint16
	Write   bool
	Reason  string
}

func (f *AccessFault) Error() string {
	dir := "read"
	if f.Write {
		dir = "write"
	}
	return fmt.Sprintf("memory %s violation at $%04X: %s", dir, f.Address, f.Reason)
}

// TrackedMemory is a single-owner sparse byte store plus access
// bookkeeping, grounded on the reference TrackedMemory: reads are recorded
// before they are permission-checked, writes check the self-modifying-code
// rule before the plain output-region check.
type TrackedMemory struct {
	cells map[uint16]byte

	readsSeen  map[uint16]bool
	writesSeen map[uint16]bool

	inputRegions  []ospec.MemoryRegion
	outputRegions []ospec.MemoryRegion
}

// New creates an empty tracked memory with no regions set.
func New() *TrackedMemory {
	return &TrackedMemory{
		cells:      make(map[uint16]byte),
		readsSeen:  make(map[uint16]bool),
		writesSeen: make(map[uint16]bool),
	}
}

// SetInputRegions installs the whitelist gating reads.
func (m *TrackedMemory) SetInputRegions(regions []ospec.MemoryRegion) { m.inputRegions = regions }

// SetOutputRegions installs the whitelist gating writes.
func (m *TrackedMemory) SetOutputRegions(regions []ospec.MemoryRegion) { m.outputRegions = regions }

// Initialize unconditionally seeds a cell, bypassing provenance tracking.
// Used during test-vector setup, never during candidate execution.
func (m *TrackedMemory) Initialize(addr uint16, v byte) { m.cells[addr] = v }

// Read records addr as read, then checks whether the read is permitted.
// Uninitialized cells read as zero.
func (m *TrackedMemory) Read(addr uint16) (byte, error) {
	m.readsSeen[addr] = true
	if !m.isReadAllowed(addr) {
		return 0, &AccessFault{Address: addr, Write: false, Reason: "address not defined in input memory regions"}
	}
	return m.cells[addr], nil
}

// Write records addr as written, enforces the self-modifying-code rule
// when addr was previously read, then checks the output whitelist.
func (m *TrackedMemory) Write(addr uint16, v byte) error {
	m.writesSeen[addr] = true

	if m.readsSeen[addr] {
		if !(m.isReadAllowed(addr) && m.isWriteAllowed(addr)) {
			return &AccessFault{Address: addr, Write: true, Reason: "self-modifying code but address not defined in both input and output memory regions"}
		}
	}
	if !m.isWriteAllowed(addr) {
		return &AccessFault{Address: addr, Write: true, Reason: "address not defined in output memory regions"}
	}

	m.cells[addr] = v
	return nil
}

// ModifiedAddresses returns every address Write touched during this
// memory's lifetime, regardless of whether the write was permitted.
func (m *TrackedMemory) ModifiedAddresses() map[uint16]bool { return m.writesSeen }

// ReadAddresses returns every address Read touched.
func (m *TrackedMemory) ReadAddresses() map[uint16]bool { return m.readsSeen }

// HasUnauthorizedModifications reports whether any recorded write lies
// outside the output-region whitelist: spec.md §4.2's core invariant,
// writes_seen ⊆ union(output_regions).
func (m *TrackedMemory) HasUnauthorizedModifications() bool {
	for addr := range m.writesSeen {
		if !m.isWriteAllowed(addr) {
			return true
		}
	}
	return false
}

// Get reads a cell without provenance tracking or permission checks, for
// callers that already know the address is safe (e.g. the verifier reading
// back final state for comparison against expected output values).
func (m *TrackedMemory) Get(addr uint16) byte { return m.cells[addr] }

func (m *TrackedMemory) isReadAllowed(addr uint16) bool {
	for _, r := range m.inputRegions {
		if r.ContainsAddress(addr) {
			return true
		}
	}
	return false
}

func (m *TrackedMemory) isWriteAllowed(addr uint16) bool {
	for _, r := range m.outputRegions {
		if r.ContainsAddress(addr) {
			return true
		}
	}
	return false
}
