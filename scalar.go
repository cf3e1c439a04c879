package xlbind

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ScalarKind represents the type of a resolved cell value.
type ScalarKind int

const (
	KindText ScalarKind = iota
	KindNumber
	KindBool
	KindError
)

// String returns a human-readable name for the ScalarKind.
func (k ScalarKind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindBool:
		return "Boolean"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Scalar is the single resolved value stored in a cell.
// For KindError, Text holds the error code (e.g. "#DIV/0!").
type Scalar struct {
	Kind   ScalarKind
	Text   string
	Number float64
	Bool   bool
}

// TextValue returns a text scalar.
func TextValue(s string) *Scalar { return &Scalar{Kind: KindText, Text: s} }

// NumberValue returns a numeric scalar.
func NumberValue(n float64) *Scalar { return &Scalar{Kind: KindNumber, Number: n} }

// BoolValue returns a boolean scalar.
func BoolValue(b bool) *Scalar { return &Scalar{Kind: KindBool, Bool: b} }

// ErrorValue returns an error-code scalar.
func ErrorValue(code string) *Scalar { return &Scalar{Kind: KindError, Text: code} }

// Any returns the scalar as a plain Go value (string, float64 or bool).
func (s *Scalar) Any() any {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindNumber:
		return s.Number
	case KindBool:
		return s.Bool
	default:
		return s.Text
	}
}

// String renders the scalar the way it reads in a cell.
func (s *Scalar) String() string {
	if s == nil {
		return ""
	}
	switch s.Kind {
	case KindNumber:
		return strconv.FormatFloat(s.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(s.Bool)
	default:
		return s.Text
	}
}

// Equal reports whether two scalars hold the same value. Two nils are equal.
func (s *Scalar) Equal(o *Scalar) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	return *s == *o
}

// Clone returns a copy of the scalar.
func (s *Scalar) Clone() *Scalar {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// MarshalJSON encodes the scalar as a bare JSON primitive.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Any())
}

// UnmarshalJSON decodes a bare JSON primitive. Strings always decode as text;
// error codes are carried by the enclosing cell's type marker.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	sc, err := ScalarOf(v)
	if err != nil {
		return err
	}
	if sc == nil {
		*s = Scalar{}
		return nil
	}
	*s = *sc
	return nil
}

// ScalarOf converts a Go value into a Scalar. nil yields nil. Values with no
// scalar form are serialized structurally and reported as ErrUnsupportedCellShape
// alongside the degraded scalar.
func ScalarOf(v any) (*Scalar, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Scalar:
		return x.Clone(), nil
	case Scalar:
		return x.Clone(), nil
	case string:
		return TextValue(x), nil
	case bool:
		return BoolValue(x), nil
	case float64:
		return finiteNumber(x), nil
	case float32:
		return finiteNumber(float64(x)), nil
	case int:
		return NumberValue(float64(x)), nil
	case int8:
		return NumberValue(float64(x)), nil
	case int16:
		return NumberValue(float64(x)), nil
	case int32:
		return NumberValue(float64(x)), nil
	case int64:
		return NumberValue(float64(x)), nil
	case uint:
		return NumberValue(float64(x)), nil
	case uint8:
		return NumberValue(float64(x)), nil
	case uint16:
		return NumberValue(float64(x)), nil
	case uint32:
		return NumberValue(float64(x)), nil
	case uint64:
		return NumberValue(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return TextValue(x.String()), nil
		}
		return finiteNumber(f), nil
	case HyperlinkValue:
		return TextValue(x.String()), nil
	case fmt.Stringer:
		return TextValue(x.String()), nil
	default:
		return TextValue(stringifyStructured(v)), fmt.Errorf("%w: %T", ErrUnsupportedCellShape, v)
	}
}

// finiteNumber keeps NaN and infinities out of number cells: they never compare
// equal and have no JSON form, so they are carried as text.
func finiteNumber(n float64) *Scalar {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return TextValue(strconv.FormatFloat(n, 'g', -1, 64))
	}
	return NumberValue(n)
}

// stringifyStructured serializes an opaque value so it never reaches a cell as
// an unprintable object.
func stringifyStructured(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var s string
	if json.Unmarshal(b, &s) == nil {
		return s
	}
	return string(b)
}
