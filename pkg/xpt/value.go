package xpt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the storage type of a variable, using the namestr type codes.
type Kind uint16

const (
	KindNumeric Kind = 1
	KindString  Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind accepts "numeric"/"num"/"d" and "string"/"str"/"char"/"s".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "num", "double", "d", "n":
		return KindNumeric, nil
	case "string", "str", "char", "s", "c":
		return KindString, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}

// ParseKinds parses a comma-separated kind list such as "d,s,d".
func ParseKinds(s string) ([]Kind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	kinds := make([]Kind, 0, len(parts))
	for _, p := range parts {
		k, err := ParseKind(p)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Value is a decoded field: either a float64 or a string.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value {
	return Value{kind: KindNumeric, num: f}
}

// StringValue returns a character Value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind returns the value's type.
func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether v holds a number.
func (v Value) IsNumeric() bool { return v.kind == KindNumeric }

// Float returns the numeric payload, or 0 for character values.
func (v Value) Float() float64 { return v.num }

// String returns the character payload, or the shortest text that round
// trips the number for numeric values.
func (v Value) String() string {
	if v.kind == KindNumeric {
		return formatNumber(v.num)
	}
	return v.str
}

// Interface returns the payload as float64 or string.
func (v Value) Interface() any {
	if v.kind == KindNumeric {
		return v.num
	}
	return v.str
}

// MarshalJSON encodes numbers as JSON numbers (null for NaN and infinities)
// and strings as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumeric {
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
