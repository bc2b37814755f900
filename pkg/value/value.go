// Package value implements the symbolic byte ("Value") used throughout an
// optimization spec: a byte that is either pinned to an exact value,
// unconstrained, required to equal its corresponding input, or (for
// code-block equivalence only) opaque to the core.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a symbolic byte.
type Kind uint8

const (
	// Exact requires the byte to hold Byte.
	Exact Kind = iota
	// Any leaves the byte unconstrained: universally quantified on input,
	// don't-care on output.
	Any
	// Same requires an output byte to equal the corresponding input byte.
	// Only valid in output contexts.
	Same
	// Equ is reserved for code-block equivalence; the core parses it but
	// never interprets it.
	Equ
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "EXACT"
	case Any:
		return "ANY"
	case Same:
		return "SAME"
	case Equ:
		return "EQU"
	default:
		return "?"
	}
}

// Value is a single symbolic byte.
type Value struct {
	Kind Kind
	Byte byte // meaningful only when Kind == Exact
}

func ExactValue(b byte) Value { return Value{Kind: Exact, Byte: b} }
func AnyValue() Value         { return Value{Kind: Any} }
func SameValue() Value        { return Value{Kind: Same} }
func EquValue() Value         { return Value{Kind: Equ} }

// IsConcrete reports whether the value pins a single byte.
func (v Value) IsConcrete() bool { return v.Kind == Exact }

// Parse reads one value literal per spec.md §6's grammar: `0xNN`, `$NN`,
// `NNh`, `0bNNN`, `%NNN`, decimal, `?`/`??`/`ANY` (don't-care), `SAME`
// (output only), `EQU` (output only, code blocks).
func Parse(text string) (Value, error) {
	t := strings.TrimSpace(text)
	switch strings.ToUpper(t) {
	case "?", "??", "ANY":
		return AnyValue(), nil
	case "SAME":
		return SameValue(), nil
	case "EQU":
		return EquValue(), nil
	}
	b, err := ParseNumeric(t)
	if err != nil {
		return Value{}, fmt.Errorf("value: %w", err)
	}
	return ExactValue(b), nil
}

// ParseNumeric parses one of the numeric literal forms into a byte,
// rejecting values that do not fit in 8 bits.
func ParseNumeric(text string) (byte, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, fmt.Errorf("empty numeric literal")
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
		return 0, fmt.Errorf("malformed numeric literal %q: %w", text, err)
	}
	if n < 0 || n > 0xFF {
		return 0, fmt.Errorf("numeric literal %q out of byte range", text)
	}
	return byte(n), nil
}
