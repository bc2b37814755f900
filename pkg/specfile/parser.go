// Package specfile parses .pha optimization-spec text files into
// ospec.OptimizationSpec values. The grammar is line-oriented: a directive
// keyword starts a section, and subsequent lines (or the remainder of the
// directive's own line) hold that section's entries until the next
// directive keyword or end of file, grounded on the reference parser's
// lexer/directive dispatch.
package specfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

var directiveWords = map[string]bool{
	"OPTIMIZE_FOR": true, "CPU_IN": true, "FLAGS_IN": true, "MEMORY_IN": true,
	"CPU_OUT": true, "FLAGS_OUT": true, "MEMORY_OUT": true, "RUN": true,
	"OPTIMIZE": true, "OPTIMIZE_RO": true,
}

// ParseError reports a .pha syntax error with its source line number.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("specfile:%d: %s", e.Line, e.Msg) }

// line is one non-blank, comment-stripped source line and its fields.
type line struct {
	num    int
	fields []string
}

// Parse reads a complete .pha specification from r.
func Parse(r io.Reader) (*ospec.OptimizationSpec, error) {
	lines, err := tokenizeLines(r)
	if err != nil {
		return nil, err
	}

	spec := &ospec.OptimizationSpec{}
	i := 0
	for i < len(lines) {
		l := lines[i]
		directive, rest := splitDirective(l.fields[0])
		if !directiveWords[directive] {
			return nil, &ParseError{l.num, fmt.Sprintf("expected a directive, got %q", l.fields[0])}
		}

		inlineFields := l.fields[1:]
		if rest != "" {
			inlineFields = append([]string{rest}, inlineFields...)
		}

		sectionEnd := i + 1
		for sectionEnd < len(lines) {
			d, _ := splitDirective(lines[sectionEnd].fields[0])
			if directiveWords[d] {
				break
			}
			sectionEnd++
		}
		body := append([]line{{l.num, inlineFields}}, lines[i+1:sectionEnd]...)
		// Drop the synthetic first line if the directive carried no inline
		// content, so empty-body sections don't see a bogus blank entry.
		if len(inlineFields) == 0 {
			body = body[1:]
		}

		var perr error
		switch directive {
		case "OPTIMIZE_FOR":
			perr = parseGoal(body, &spec.Goal)
		case "RUN":
			perr = parseRunAddress(body, spec)
		case "CPU_IN":
			perr = parseCPUState(body, &spec.InputCPU)
		case "CPU_OUT":
			perr = parseCPUState(body, &spec.OutputCPU)
		case "FLAGS_IN":
			perr = parseFlagState(body, &spec.InputFlags)
		case "FLAGS_OUT":
			perr = parseFlagState(body, &spec.OutputFlags)
		case "MEMORY_IN":
			perr = parseMemoryRegions(body, &spec.InputMemory)
		case "MEMORY_OUT":
			perr = parseMemoryRegions(body, &spec.OutputMemory)
		case "OPTIMIZE":
			perr = parseCodeBlocks(body, spec, ospec.Regular)
		case "OPTIMIZE_RO":
			perr = parseCodeBlocks(body, spec, ospec.ReadOnly)
		}
		if perr != nil {
			return nil, perr
		}
		i = sectionEnd
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// tokenizeLines strips comments (';' to end of line) and blank lines,
// splitting what remains into whitespace-separated fields.
func tokenizeLines(r io.Reader) ([]line, error) {
	var out []line
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			text = text[:idx]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		out = append(out, line{num: n, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("specfile: %w", err)
	}
	return out, nil
}

// splitDirective separates a directive keyword from any value attached
// directly after a trailing colon, e.g. "RUN:0x0800" -> ("RUN", "0x0800").
func splitDirective(tok string) (directive, rest string) {
	if idx := strings.IndexByte(tok, ':'); idx >= 0 {
		return tok[:idx], strings.TrimSpace(tok[idx+1:])
	}
	return tok, ""
}

func parseGoal(body []line, goal *ospec.Goal) error {
	for _, l := range body {
		for _, f := range l.fields {
			switch strings.ToUpper(strings.TrimSuffix(f, ":")) {
			case "SIZE":
				*goal = ospec.Size
				return nil
			case "SPEED":
				*goal = ospec.Speed
				return nil
			}
		}
	}
	return nil // absent OPTIMIZE_FOR defaults to ospec.Size, the zero value.
}

func parseRunAddress(body []line, spec *ospec.OptimizationSpec) error {
	if len(body) == 0 {
		return fmt.Errorf("specfile: RUN directive has no address")
	}
	for _, l := range body {
		for _, f := range l.fields {
			addr, err := parseAddress16(f)
			if err != nil {
				continue
			}
			spec.RunAddress = addr
			return nil
		}
	}
	return &ParseError{body[0].num, "RUN directive has no address"}
}

// assignment is one "key: value" pair pulled off a content line.
type assignment struct {
	key, val string
	lineNum  int
}

// parseAssignments splits a line's fields into key/value pairs, accepting
// "KEY:VALUE", "KEY: VALUE" and "KEY : VALUE" spacing.
func parseAssignments(l line) ([]assignment, error) {
	var out []assignment
	fields := l.fields
	i := 0
	for i < len(fields) {
		f := fields[i]
		if idx := strings.IndexByte(f, ':'); idx >= 0 {
			key := f[:idx]
			val := f[idx+1:]
			if val == "" {
				i++
				if i >= len(fields) {
					return nil, &ParseError{l.num, fmt.Sprintf("missing value after %q", f)}
				}
				val = fields[i]
			}
			out = append(out, assignment{key, val, l.num})
			i++
			continue
		}
		i++
		if i >= len(fields) {
			return nil, &ParseError{l.num, fmt.Sprintf("expected ':' after %q", f)}
		}
		next := fields[i]
		if next == ":" {
			i++
			if i >= len(fields) {
				return nil, &ParseError{l.num, "missing value after ':'"}
			}
			out = append(out, assignment{f, fields[i], l.num})
			i++
			continue
		}
		if strings.HasPrefix(next, ":") {
			out = append(out, assignment{f, next[1:], l.num})
			i++
			continue
		}
		return nil, &ParseError{l.num, fmt.Sprintf("expected ':' after %q, got %q", f, next)}
	}
	return out, nil
}

func parseCPUState(body []line, state *ospec.CPUState) error {
	for _, l := range body {
		assigns, err := parseAssignments(l)
		if err != nil {
			return err
		}
		for _, a := range assigns {
			v, verr := value.Parse(a.val)
			if verr != nil {
				return &ParseError{a.lineNum, verr.Error()}
			}
			switch strings.ToUpper(a.key) {
			case "A":
				state.A = v
			case "X":
				state.X = v
			case "Y":
				state.Y = v
			case "SP":
				state.SP = v
			default:
				return &ParseError{a.lineNum, fmt.Sprintf("unknown register %q", a.key)}
			}
		}
	}
	return nil
}

func parseFlagState(body []line, flags *ospec.FlagState) error {
	for _, l := range body {
		assigns, err := parseAssignments(l)
		if err != nil {
			return err
		}
		for _, a := range assigns {
			v, verr := value.Parse(a.val)
			if verr != nil {
				return &ParseError{a.lineNum, verr.Error()}
			}
			switch strings.ToUpper(a.key) {
			case "C":
				flags.C = v
			case "Z":
				flags.Z = v
			case "I":
				flags.I = v
			case "D":
				flags.D = v
			case "B":
				flags.B = v
			case "V":
				flags.V = v
			case "N":
				flags.N = v
			default:
				return &ParseError{a.lineNum, fmt.Sprintf("unknown flag %q", a.key)}
			}
		}
	}
	return nil
}

func parseMemoryRegions(body []line, regions *[]ospec.MemoryRegion) error {
	for _, l := range body {
		if len(l.fields) == 0 {
			continue
		}
		region, err := parseMemoryRegionLine(l)
		if err != nil {
			return err
		}
		if len(region.Bytes) > 0 {
			*regions = append(*regions, region)
		}
	}
	return nil
}

func parseMemoryRegionLine(l line) (ospec.MemoryRegion, error) {
	addrTok := l.fields[0]
	rest := l.fields[1:]

	var addrStr string
	if idx := strings.IndexByte(addrTok, ':'); idx >= 0 {
		addrStr = addrTok[:idx]
		if trailing := addrTok[idx+1:]; trailing != "" {
			rest = append([]string{trailing}, rest...)
		}
	} else {
		addrStr = addrTok
		if len(rest) > 0 && rest[0] == ":" {
			rest = rest[1:]
		} else {
			return ospec.MemoryRegion{}, &ParseError{l.num, fmt.Sprintf("expected ':' after address %q", addrTok)}
		}
	}

	addr, err := parseAddress16(addrStr)
	if err != nil {
		return ospec.MemoryRegion{}, &ParseError{l.num, err.Error()}
	}

	var bytes []value.Value
	i := 0
	for i < len(rest) {
		tok := rest[i]
		if n, ok := repeatCount(tok); ok {
			i++
			if i >= len(rest) {
				return ospec.MemoryRegion{}, &ParseError{l.num, fmt.Sprintf("missing value after repeat count %q", tok)}
			}
			v, verr := value.Parse(rest[i])
			if verr != nil {
				return ospec.MemoryRegion{}, &ParseError{l.num, verr.Error()}
			}
			for k := 0; k < n; k++ {
				bytes = append(bytes, v)
			}
			i++
			continue
		}
		v, verr := value.Parse(tok)
		if verr != nil {
			return ospec.MemoryRegion{}, &ParseError{l.num, verr.Error()}
		}
		bytes = append(bytes, v)
		i++
	}
	return ospec.MemoryRegion{Address: addr, Bytes: bytes}, nil
}

// repeatCount reports whether tok is a ":N" repeat-count marker.
func repeatCount(tok string) (int, bool) {
	if !strings.HasPrefix(tok, ":") || len(tok) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseCodeBlocks(body []line, spec *ospec.OptimizationSpec, kind ospec.CodeBlockType) error {
	var current *ospec.CodeBlock
	flush := func() {
		if current != nil {
			spec.CodeBlocks = append(spec.CodeBlocks, *current)
			current = nil
		}
	}

	for _, l := range body {
		fields := l.fields
		if addr, trailing, ok := newBlockAddress(fields[0]); ok {
			flush()
			current = &ospec.CodeBlock{Address: addr, Type: kind}
			fields = fields[1:]
			if trailing != "" {
				fields = append([]string{trailing}, fields...)
			}
		}
		if current == nil {
			return &ParseError{l.num, fmt.Sprintf("code block entry %q before any address", l.fields[0])}
		}
		for _, f := range fields {
			switch strings.ToUpper(f) {
			case "END":
				flush()
				continue
			case "ANY", "EQU":
				continue
			}
			b, err := value.ParseNumeric(f)
			if err != nil {
				return &ParseError{l.num, err.Error()}
			}
			current.Bytes = append(current.Bytes, b)
		}
	}
	flush()
	return nil
}

// newBlockAddress reports whether tok is an "address:" or "address:value"
// marker starting a new code block within an OPTIMIZE/OPTIMIZE_RO section,
// returning any value text fused onto the same token after the colon.
func newBlockAddress(tok string) (addr uint16, trailing string, ok bool) {
	idx := strings.IndexByte(tok, ':')
	if idx < 0 {
		return 0, "", false
	}
	a, err := parseAddress16(tok[:idx])
	if err != nil {
		return 0, "", false
	}
	return a, tok[idx+1:], true
}

// parseAddress16 parses one of the numeric literal forms into a 16-bit
// address, the same surface syntax as value.ParseNumeric but unbounded to
// a byte.
func parseAddress16(text string) (uint16, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, fmt.Errorf("empty address")
	}
	var n int64
	var err error
	switch {
	case strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X"):
		n, err = strconv.ParseInt(t[2:], 16, 32)
	case strings.HasPrefix(t, "$"):
		n, err = strconv.ParseInt(t[1:], 16, 32)
	case strings.HasPrefix(t, "0b") || strings.HasPrefix(t, "0B"):
		n, err = strconv.ParseInt(t[2:], 2, 32)
	case strings.HasPrefix(t, "%"):
		n, err = strconv.ParseInt(t[1:], 2, 32)
	case strings.HasSuffix(strings.ToLower(t), "h"):
		n, err = strconv.ParseInt(t[:len(t)-1], 16, 32)
	default:
		n, err = strconv.ParseInt(t, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("malformed address %q: %w", text, err)
	}
	if n < 0 || n > 0xFFFF {
		return 0, fmt.Errorf("address %q out of 16-bit range", text)
	}
	return uint16(n), nil
}
