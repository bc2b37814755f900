// Package result defines Solution, the serializable outcome of one
// optimizer run, and its JSON and assembly-text renderings (SPEC_FULL.md
// §7.3). A solution is a flat byte sequence plus the spec's run address;
// the format is intentionally narrow — assembly text and JSON are
// implemented, hex/C-array/BASIC-DATA dumps are not (spec.md's Non-goals
// leave solution formatting to a collaborator, and nothing in the pack
// names a dependency worth pulling in for them).
package result

import (
	"encoding/json"
	"io"

	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/optimizer"
	"github.com/ilmenit/Phaistos/pkg/ospec"
)

// Solution is one verified optimization result: the candidate's encoded
// bytes, where it runs from, and the cost metrics the search tracked.
type Solution struct {
	RunAddress      uint16 `json:"run_address"`
	Bytes           []byte `json:"bytes"`
	Size            int    `json:"size"`
	Cycles          int    `json:"cycles"`
	Goal            string `json:"goal"`
	SequencesTested int64  `json:"sequences_tested"`
}

// NewSolution builds a Solution from one optimizer run, against the spec
// that was searched.
func NewSolution(spec ospec.OptimizationSpec, res optimizer.Result) Solution {
	return Solution{
		RunAddress:      spec.RunAddress,
		Bytes:           inst.SeqBytes(res.Instructions),
		Size:            inst.SeqByteSize(res.Instructions),
		Cycles:          res.Cycles,
		Goal:            spec.Goal.String(),
		SequencesTested: res.SequencesTested,
	}
}

// Instructions decodes the solution's bytes back into an instruction
// sequence, e.g. for disassembly or for re-running through the
// verification engine.
func (s Solution) Instructions() []inst.Instruction {
	var out []inst.Instruction
	for offset := 0; offset < len(s.Bytes); {
		ins, next := inst.Decode(s.Bytes, offset)
		out = append(out, ins)
		offset = next
	}
	return out
}

// Disassembly renders the solution as one line of assembly per
// instruction, via pkg/inst.Disassemble.
func (s Solution) Disassembly() string {
	var out string
	for i, ins := range s.Instructions() {
		if i > 0 {
			out += "\n"
		}
		out += inst.Disassemble(ins)
	}
	return out
}

// WriteJSON serializes s to w.
func WriteJSON(w io.Writer, s Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ReadJSON deserializes a Solution previously written by WriteJSON.
func ReadJSON(r io.Reader) (Solution, error) {
	var s Solution
	err := json.NewDecoder(r).Decode(&s)
	return s, err
}
