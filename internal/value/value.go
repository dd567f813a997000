// Package value defines the tagged numeric/string value stored in every
// calculator field, along with the loose coercions formulas rely on.
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which half of a Value is populated.
type Kind uint8

const (
	// KindInvalid is the zero Kind. A Value of this kind was never assigned.
	KindInvalid Kind = iota
	// KindNumber marks a float64 value.
	KindNumber
	// KindString marks a string value.
	KindString
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is either a number or a string. The zero Value is invalid.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Parse turns raw user input into a Value. Input that reads as a number
// becomes a number, anything else is kept verbatim as a string.
func Parse(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return Number(f)
		}
	}
	return String(raw)
}

// FromAny converts a decoded JSON scalar into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case Value:
		if !t.IsValid() {
			return Value{}, fmt.Errorf("invalid value")
		}
		return t, nil
	case nil:
		return Value{}, fmt.Errorf("value must not be null")
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// Kind reports which representation the Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the Value was constructed through Number or String.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsNumber reports whether the Value holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsString reports whether the Value holds a string.
func (v Value) IsString() bool { return v.kind == KindString }

// Float returns the numeric reading of the Value. Strings are parsed the
// way a browser's parseFloat would read a plain decimal; anything
// unparseable yields NaN.
func (v Value) Float() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return parseLeadingFloat(v.str)
	default:
		return math.NaN()
	}
}

// ToNumber returns the Value read as a whole number literal, the way a
// browser's Number() conversion reads it. Surrounding whitespace is ignored,
// empty text is 0, and text that is not entirely a number yields NaN, so
// "12abc" is NaN where Float would read 12.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return parseNumberLiteral(v.str)
	default:
		return math.NaN()
	}
}

// Int returns Float truncated toward zero, matching parseInt on the
// decimal rendering of the value.
func (v Value) Int() float64 {
	return math.Trunc(v.Float())
}

// Text returns the string form of the Value.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.Text()
}

// Equal reports whether both values have the same kind and content. NaN
// numbers compare equal to each other so that unchanged snapshots stay equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	case KindString:
		return v.str == o.str
	default:
		return true
	}
}

// FormatNumber renders a float the shortest way that round-trips, spelling
// non-finite values the way a browser does.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON encodes numbers as JSON numbers and strings as JSON strings.
// Non-finite numbers have no JSON form and are emitted as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return json.Marshal(FormatNumber(v.num))
		}
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// parseLeadingFloat reads the longest decimal prefix of s, ignoring leading
// whitespace, and returns NaN when there is none.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r")
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return math.Inf(1)
	case strings.HasPrefix(s, "-Infinity"):
		return math.Inf(-1)
	}

	end := 0
	seenDigit, seenDot, seenExp := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			end = i + 1
		case (c == '+' || c == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			i = len(s)
		}
	}
	if !seenDigit {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// parseNumberLiteral reads s as a decimal, Infinity or unsigned 0x/0o/0b
// literal.
func parseNumberLiteral(s string) float64 {
	s = strings.Trim(s, " \t\n\r\v\f")
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseRadix(s[2:], base)
		}
	}

	// strconv also accepts inf, nan, hex floats and underscores.
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9', c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// parseRadix reads unsigned digits in base, NaN on any other character.
func parseRadix(digits string, base int) float64 {
	var f float64
	for i := 0; i < len(digits); i++ {
		d, err := strconv.ParseUint(digits[i:i+1], base, 8)
		if err != nil {
			return math.NaN()
		}
		f = f*float64(base) + float64(d)
	}
	return f
}
