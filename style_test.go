package xlbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestARGBToHex(t *testing.T) {
	assert.Equal(t, "#FF0000", ARGBToHex("FFFF0000"))
	assert.Equal(t, "#00FF00", ARGBToHex("00ff00"))
	assert.Equal(t, "#0000FF", ARGBToHex("#0000FF"))
	assert.Equal(t, "", ARGBToHex("F00"))
	assert.Equal(t, "", ARGBToHex(""))
}

func TestBorderWeightFor(t *testing.T) {
	assert.Equal(t, BorderThin, BorderWeightFor("thin"))
	assert.Equal(t, BorderThin, BorderWeightFor("hair"))
	assert.Equal(t, BorderMedium, BorderWeightFor("medium"))
	assert.Equal(t, BorderThick, BorderWeightFor("thick"))
	assert.Equal(t, BorderDotted, BorderWeightFor("dotted"))
	assert.Equal(t, BorderDashed, BorderWeightFor("mediumDashDot"))
	assert.Equal(t, BorderNone, BorderWeightFor("none"))
}

func TestResolveStyle_Full(t *testing.T) {
	xs := &excelize.Style{
		Font: &excelize.Font{Bold: true, Italic: true, Size: 14, Color: "FF112233"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFFFF00"}},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: []excelize.Border{
			{Type: "top", Style: 1, Color: "FF000000"},
			{Type: "bottom", Style: 5},
			{Type: "left", Style: 0},
		},
	}
	s := resolveStyle(xs, DefaultFontFamily)
	require.NotNil(t, s)

	assert.Equal(t, &Font{Bold: true, Italic: true, Size: 14, Family: "Arial", Color: "#112233"}, s.Font)
	assert.Equal(t, "#FFFF00", s.Fill)
	assert.Equal(t, HAlignRight, s.HAlign)
	assert.Equal(t, VAlignMiddle, s.VAlign)
	assert.True(t, s.Wrap)
	require.NotNil(t, s.Borders)
	assert.Equal(t, &Border{Weight: BorderThin, Color: "#000000"}, s.Borders.Top)
	assert.Equal(t, &Border{Weight: BorderThick}, s.Borders.Bottom)
	assert.Nil(t, s.Borders.Left, "undeclared edge is omitted")
	assert.Nil(t, s.Borders.Right)
}

func TestResolveStyle_FontFamilyKept(t *testing.T) {
	s := resolveStyle(&excelize.Style{Font: &excelize.Font{Family: "Meiryo"}}, DefaultFontFamily)
	require.NotNil(t, s)
	assert.Equal(t, "Meiryo", s.Font.Family)
}

func TestResolveStyle_NothingVisible(t *testing.T) {
	assert.Nil(t, resolveStyle(&excelize.Style{}, DefaultFontFamily))
	assert.Nil(t, resolveStyle(nil, DefaultFontFamily))
	// A fill without a pattern paints nothing.
	assert.Nil(t, resolveStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{"FF000000"}}}, DefaultFontFamily))
}

func TestExcelizeStyle_SkipsBorders(t *testing.T) {
	xs := excelizeStyle(&Style{
		Font:    &Font{Bold: true, Family: "Arial", Color: "#112233"},
		Fill:    "#FFFF00",
		HAlign:  HAlignCenter,
		VAlign:  VAlignBottom,
		Borders: &Borders{Top: &Border{Weight: BorderThin}},
	})
	require.NotNil(t, xs)
	assert.Equal(t, "112233", xs.Font.Color)
	assert.Equal(t, []string{"FFFF00"}, xs.Fill.Color)
	assert.Equal(t, "center", xs.Alignment.Horizontal)
	assert.Equal(t, "bottom", xs.Alignment.Vertical)
	assert.Empty(t, xs.Border)

	assert.Nil(t, excelizeStyle(nil))
}

func TestStyle_Clone(t *testing.T) {
	s := &Style{Font: &Font{Size: 10}, Borders: &Borders{Left: &Border{Weight: BorderMedium}}}
	c := s.Clone()
	c.Font.Size = 20
	c.Borders.Left.Weight = BorderThin
	assert.Equal(t, 10.0, s.Font.Size)
	assert.Equal(t, BorderMedium, s.Borders.Left.Weight)
}
