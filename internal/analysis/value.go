package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred primitive type of a column.
type Kind int

const (
	Numeric Kind = iota + 1
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind render as its name in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = Numeric
	case "categorical":
		*k = Categorical
	default:
		return fmt.Errorf("unknown column kind %q", b)
	}
	return nil
}

// Dtype labels reported by Overview, named after the matching pandas dtypes.
const (
	DtypeInt64   = "int64"
	DtypeFloat64 = "float64"
	DtypeBool    = "bool"
	DtypeObject  = "object"
)

// CellType tags the payload carried by a Value.
type CellType uint8

const (
	CellMissing CellType = iota
	CellString
	CellInt
	CellFloat
	CellBool
)

// Value is a single table cell. The zero Value is the missing marker, so a
// string cell can never be mistaken for an absent one.
type Value struct {
	typ CellType
	s   string
	i   int64
	f   float64
	b   bool
}

func Missing() Value { return Value{} }
func StringValue(s string) Value { return Value{typ: CellString, s: s} }
func IntValue(i int64) Value { return Value{typ: CellInt, i: i} }
func FloatValue(f float64) Value { return Value{typ: CellFloat, f: f} }
func BoolValue(b bool) Value { return Value{typ: CellBool, b: b} }

func (v Value) Type() CellType { return v.typ }
func (v Value) IsMissing() bool { return v.typ == CellMissing }

// Float returns the numeric payload of an int or float cell.
func (v Value) Float() (float64, bool) {
	switch v.typ {
	case CellInt:
		return float64(v.i), true
	case CellFloat:
		return v.f, true
	}
	return 0, false
}

// Interface returns the cell as a plain Go value: nil, string, int64,
// Number or bool.
func (v Value) Interface() any {
	switch v.typ {
	case CellString:
		return v.s
	case CellInt:
		return v.i
	case CellFloat:
		return Number(v.f)
	case CellBool:
		return v.b
	}
	return nil
}

// String renders the cell as it would appear in a CSV file. Missing cells
// render empty.
func (v Value) String() string {
	switch v.typ {
	case CellString:
		return v.s
	case CellInt:
		return strconv.FormatInt(v.i, 10)
	case CellFloat:
		return formatFloat(v.f)
	case CellBool:
		if v.b {
			return "True"
		}
		return "False"
	}
	return ""
}

// appendKey writes an unambiguous encoding of v used for value equality.
func (v Value) appendKey(b *strings.Builder) {
	b.WriteByte(byte('0' + v.typ))
	switch v.typ {
	case CellString:
		b.WriteString(strconv.Itoa(len(v.s)))
		b.WriteByte(':')
		b.WriteString(v.s)
	case CellInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case CellFloat:
		f := v.f
		if f == 0 {
			f = 0 // fold -0
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case CellBool:
		if v.b {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte(0)
}

func (v Value) key() string {
	var b strings.Builder
	v.appendKey(&b)
	return b.String()
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Number is a float64 that serializes NaN and infinities as JSON null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("decode number: %w", err)
	}
	*n = Number(f)
	return nil
}

// IsNaN reports whether n holds no defined value.
func (n Number) IsNaN() bool { return math.IsNaN(float64(n)) }
