package xlbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- CellAddress Tests ---

func TestEncodeAddress_Origin(t *testing.T) {
	assert.Equal(t, "A1", EncodeAddress(CellAddress{Row: 0, Col: 0}))
}

func TestEncodeAddress_TwoLetterCol(t *testing.T) {
	assert.Equal(t, "AA1", EncodeAddress(CellAddress{Row: 0, Col: 26}))
	assert.Equal(t, "AZ10", EncodeAddress(CellAddress{Row: 9, Col: 51}))
	assert.Equal(t, "BA1", EncodeAddress(CellAddress{Row: 0, Col: 52}))
}

func TestEncodeAddress_ClampsNegative(t *testing.T) {
	assert.Equal(t, "A1", EncodeAddress(CellAddress{Row: -3, Col: -1}))
}

func TestDecodeAddress_SimpleCell(t *testing.T) {
	a, err := DecodeAddress("B12")
	require.NoError(t, err)
	assert.Equal(t, CellAddress{Row: 11, Col: 1}, a)
}

func TestDecodeAddress_MultiLetterCol(t *testing.T) {
	a, err := DecodeAddress("AA1")
	require.NoError(t, err)
	assert.Equal(t, CellAddress{Row: 0, Col: 26}, a)
}

func TestDecodeAddress_CaseInsensitive(t *testing.T) {
	a, err := DecodeAddress("aa1")
	require.NoError(t, err)
	assert.Equal(t, CellAddress{Row: 0, Col: 26}, a)
}

func TestDecodeAddress_Invalid(t *testing.T) {
	for _, s := range []string{"", "A", "123", "A0", "1A", "A-1", "B12 ", "Sheet1!A1", "$A$1", "Ä1"} {
		_, err := DecodeAddress(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, "input %q", s)
	}
}

func TestAddress_RoundTrip(t *testing.T) {
	for row := 0; row < 60; row += 7 {
		for col := 0; col < 20000; col += 137 {
			a := CellAddress{Row: row, Col: col}
			got, err := DecodeAddress(EncodeAddress(a))
			require.NoError(t, err)
			assert.Equal(t, a, got)
		}
	}
	// Column boundaries where the letter count changes.
	for _, col := range []int{0, 25, 26, 701, 702, 16383} {
		a := CellAddress{Row: 1048575, Col: col}
		got, err := DecodeAddress(EncodeAddress(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("  b12 ")
	require.NoError(t, err)
	assert.Equal(t, "B12", got)

	_, err = NormalizeAddress("B 12")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestColToName_NameToCol(t *testing.T) {
	assert.Equal(t, "A", ColToName(0))
	assert.Equal(t, "Z", ColToName(25))
	assert.Equal(t, "AA", ColToName(26))
	assert.Equal(t, "AAA", ColToName(702))
	assert.Equal(t, "XFD", ColToName(16383))

	col, err := NameToCol("xfd")
	require.NoError(t, err)
	assert.Equal(t, 16383, col)

	_, err = NameToCol("")
	assert.Error(t, err)
}

// --- MergeRange Tests ---

func TestDecodeRange_Simple(t *testing.T) {
	m, err := DecodeRange("A1:B2")
	require.NoError(t, err)
	assert.Equal(t, MergeRange{StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1}, m)
	assert.Equal(t, "A1:B2", m.String())
}

func TestDecodeRange_ReversedCorners(t *testing.T) {
	m, err := DecodeRange("C5:A1")
	require.NoError(t, err)
	assert.Equal(t, CellAddress{Row: 0, Col: 0}, m.Start())
	assert.Equal(t, CellAddress{Row: 4, Col: 2}, m.End())
}

func TestDecodeRange_AbsoluteMarkers(t *testing.T) {
	m, err := DecodeRange("$A$1:$C$3")
	require.NoError(t, err)
	assert.Equal(t, "A1:C3", m.String())
}

func TestDecodeRange_Malformed(t *testing.T) {
	for _, s := range []string{"", "A1", "A1:", "A1:B2:C3", "A1:ZZ", "foo:bar"} {
		_, err := DecodeRange(s)
		assert.ErrorIs(t, err, ErrMalformedMergeRange, "input %q", s)
	}
}

func TestMergeRange_Contains(t *testing.T) {
	m := MergeRange{StartRow: 1, StartCol: 1, EndRow: 2, EndCol: 3}
	assert.True(t, m.Contains(CellAddress{Row: 1, Col: 1}))
	assert.True(t, m.Contains(CellAddress{Row: 2, Col: 3}))
	assert.False(t, m.Contains(CellAddress{Row: 0, Col: 1}))
	assert.False(t, m.Contains(CellAddress{Row: 2, Col: 4}))
}

func TestSafeSheetName(t *testing.T) {
	assert.Equal(t, "Sheet", SafeSheetName(""))
	assert.Equal(t, "a_b_c", SafeSheetName("a/b:c"))
	assert.Len(t, []rune(SafeSheetName("0123456789012345678901234567890123")), 31)
}
