package xlbind

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellAddress is a zero-based (row, column) coordinate on a sheet.
type CellAddress struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NewCellAddress creates a CellAddress.
func NewCellAddress(row, col int) CellAddress {
	return CellAddress{Row: row, Col: col}
}

// String formats the address in A1 notation.
func (a CellAddress) String() string {
	return EncodeAddress(a)
}

// DecodeAddress parses an A1-style address ("B12", case-insensitive) into
// zero-based coordinates. Sheet prefixes and "$" markers are not accepted.
func DecodeAddress(s string) (CellAddress, error) {
	if s == "" {
		return CellAddress{}, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i == 0 || i == len(s) {
		return CellAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	col, err := NameToCol(s[:i])
	if err != nil {
		return CellAddress{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}

	digits := s[i:]
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return CellAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}
	rowNum, err := strconv.Atoi(digits)
	if err != nil {
		return CellAddress{}, fmt.Errorf("%w: row out of range in %q", ErrInvalidAddress, s)
	}
	if rowNum < 1 {
		return CellAddress{}, fmt.Errorf("%w: row must be positive in %q", ErrInvalidAddress, s)
	}

	return CellAddress{Row: rowNum - 1, Col: col}, nil
}

// EncodeAddress renders a zero-based coordinate as an A1 address.
// Negative coordinates are clamped to zero.
func EncodeAddress(a CellAddress) string {
	row, col := a.Row, a.Col
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	return ColToName(col) + strconv.Itoa(row+1)
}

// NormalizeAddress trims surrounding whitespace and returns the canonical
// uppercase form of an A1 address. Used wherever addresses enter from free text.
func NormalizeAddress(s string) (string, error) {
	a, err := DecodeAddress(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return EncodeAddress(a), nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	var buf [16]byte
	i := len(buf)
	col++ // bijective base-26 has no zero digit
	for col > 0 {
		col--
		i--
		buf[i] = byte('A' + col%26)
		col /= 26
	}
	return string(buf[i:])
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		if col > (math.MaxInt32-26)/26 {
			return 0, fmt.Errorf("column name too long: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// MergeRange is an inclusive rectangular range of merged cells.
type MergeRange struct {
	StartRow int `json:"startRow"`
	StartCol int `json:"startCol"`
	EndRow   int `json:"endRow"`
	EndCol   int `json:"endCol"`
}

// DecodeRange parses a range like "A1:B2". Corners given in reverse order are
// normalized so that Start <= End on both axes.
func DecodeRange(s string) (MergeRange, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return MergeRange{}, fmt.Errorf("%w: %q", ErrMalformedMergeRange, s)
	}
	first, err := DecodeAddress(strings.ReplaceAll(parts[0], "$", ""))
	if err != nil {
		return MergeRange{}, fmt.Errorf("%w: %q: %v", ErrMalformedMergeRange, s, err)
	}
	last, err := DecodeAddress(strings.ReplaceAll(parts[1], "$", ""))
	if err != nil {
		return MergeRange{}, fmt.Errorf("%w: %q: %v", ErrMalformedMergeRange, s, err)
	}
	return MergeRange{
		StartRow: min(first.Row, last.Row),
		StartCol: min(first.Col, last.Col),
		EndRow:   max(first.Row, last.Row),
		EndCol:   max(first.Col, last.Col),
	}, nil
}

// Start returns the top-left corner.
func (m MergeRange) Start() CellAddress {
	return CellAddress{Row: m.StartRow, Col: m.StartCol}
}

// End returns the bottom-right corner.
func (m MergeRange) End() CellAddress {
	return CellAddress{Row: m.EndRow, Col: m.EndCol}
}

// String formats the range as "A1:B2".
func (m MergeRange) String() string {
	return EncodeAddress(m.Start()) + ":" + EncodeAddress(m.End())
}

// Contains reports whether the address lies inside the range.
func (m MergeRange) Contains(a CellAddress) bool {
	return a.Row >= m.StartRow && a.Row <= m.EndRow &&
		a.Col >= m.StartCol && a.Col <= m.EndCol
}

// SafeSheetName sanitizes a string for use as an Excel sheet name.
// It replaces forbidden characters ([]*?/\:) with underscore and truncates to 31 chars.
func SafeSheetName(name string) string {
	forbidden := []rune{'/', '\\', ':', '*', '?', '[', ']'}
	runes := []rune(name)
	for i, r := range runes {
		for _, f := range forbidden {
			if r == f {
				runes[i] = '_'
				break
			}
		}
	}
	if len(runes) > 31 {
		runes = runes[:31]
	}
	if len(runes) == 0 {
		return "Sheet"
	}
	return string(runes)
}
