package xlbind

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrorCode is an embedded spreadsheet error marker such as "#DIV/0!".
type ErrorCode string

// FormulaValue is a formula together with its cached computed result.
type FormulaValue struct {
	Expr   string
	Result any
}

// RichTextRun is one formatted run of a rich-text cell. Only the text survives import.
type RichTextRun struct {
	Text string
}

// RawCell is a cell as the workbook file presents it, before value resolution.
// Any combination of facets may be set; ResolveValue decides which one wins.
type RawCell struct {
	Row       int
	Col       int
	Formula   *FormulaValue
	RichText  []RichTextRun
	Hyperlink *HyperlinkValue
	Error     ErrorCode
	Value     any
	Style     *excelize.Style
}

// ResolveValue reduces a raw cell to the single scalar stored in the snapshot.
// Precedence, first match wins: formula result, rich text, hyperlink, error
// marker, structured value, primitive. A non-nil error reports a degraded
// value; the returned scalar is still usable.
func ResolveValue(raw RawCell) (*Scalar, error) {
	switch {
	case raw.Formula != nil:
		if code, ok := asErrorCode(raw.Formula.Result); ok {
			return ErrorValue(string(code)), nil
		}
		return resolvePlain(raw.Formula.Result)
	case len(raw.RichText) > 0:
		var b strings.Builder
		for _, run := range raw.RichText {
			b.WriteString(run.Text)
		}
		return TextValue(b.String()), nil
	case raw.Hyperlink != nil:
		return TextValue(raw.Hyperlink.String()), nil
	case raw.Error != "":
		return ErrorValue(string(raw.Error)), nil
	default:
		return resolvePlain(raw.Value)
	}
}

func asErrorCode(v any) (ErrorCode, bool) {
	switch x := v.(type) {
	case ErrorCode:
		return x, true
	case *ErrorCode:
		if x != nil {
			return *x, true
		}
	}
	return "", false
}

// resolvePlain handles the last two rules: structured values are serialized,
// primitives pass through.
func resolvePlain(v any) (*Scalar, error) {
	switch x := v.(type) {
	case time.Time:
		return TextValue(stringifyStructured(x)), nil
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return ScalarOf(x)
	default:
		return TextValue(stringifyStructured(v)), fmt.Errorf("%w: %T", ErrUnsupportedCellShape, v)
	}
}
