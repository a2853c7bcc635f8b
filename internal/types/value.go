package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the concrete type held by a Value
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Value is a single hyperparameter value decoded from a candidate token
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// IntValue returns an integer Value
func IntValue(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// FloatValue returns a floating point Value
func FloatValue(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// TextValue returns a text Value
func TextValue(v string) Value {
	return Value{kind: KindText, s: v}
}

// ParseValue decodes a raw candidate token. Integers are tried first, then
// floats; anything else stays text.
func ParseValue(token string) Value {
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return FloatValue(f)
	}
	return TextValue(token)
}

// Kind returns the tag of the value
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer payload and whether the value is an integer
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Float returns the value as float64. Integers are widened; text is not numeric.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Text returns the text payload and whether the value is text
func (v Value) Text() (string, bool) {
	return v.s, v.kind == KindText
}

// Interface returns the natural Go value: int64, float64 or string
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.s
	}
}

// String renders the canonical form used on command lines. Floats always
// keep a decimal point, an exponent or an inf/nan spelling so they decode
// back as floats.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	default:
		return v.s
	}
}

// Equal reports whether both values carry the same tag and payload
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	default:
		return v.s == other.s
	}
}

// MarshalJSON encodes numbers as JSON numbers and text as strings.
// Non-finite floats have no JSON number form and are written as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return json.Marshal(formatFloat(v.f))
		}
		return []byte(formatFloat(v.f)), nil
	default:
		return json.Marshal(v.s)
	}
}

// UnmarshalJSON is the inverse of MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}

	switch x := raw.(type) {
	case json.Number:
		*v = ParseValue(x.String())
	case string:
		// non-finite floats are written as strings
		*v = ParseValue(x)
	default:
		return fmt.Errorf("unsupported JSON value %s", string(data))
	}
	return nil
}

// formatFloat renders the shortest round-tripping digits in positional form
// for decimal exponents -4 through 15 and in exponent form outside that
// range, with non-finite values written as inf, -inf and nan.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
