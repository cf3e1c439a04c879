package xlbind

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultFontFamily is used whenever a source font declares no family, so
// rendering never depends on an unset family.
const DefaultFontFamily = "Arial"

// HAlign is a horizontal alignment code.
type HAlign int

const (
	HAlignUnset HAlign = iota
	HAlignLeft
	HAlignCenter
	HAlignRight
)

// VAlign is a vertical alignment code.
type VAlign int

const (
	VAlignUnset VAlign = iota
	VAlignTop
	VAlignMiddle
	VAlignBottom
)

// BorderWeight is the weight class of a border edge.
type BorderWeight int

const (
	BorderNone   BorderWeight = 0
	BorderThin   BorderWeight = 1
	BorderDotted BorderWeight = 3
	BorderDashed BorderWeight = 4
	BorderMedium BorderWeight = 8
	BorderThick  BorderWeight = 13
)

// Font holds the font attributes carried by a cell style.
type Font struct {
	Bold   bool    `json:"bl,omitempty"`
	Italic bool    `json:"it,omitempty"`
	Size   float64 `json:"fs,omitempty"`
	Family string  `json:"ff,omitempty"`
	Color  string  `json:"cl,omitempty"`
}

// Border is one edge of a cell border.
type Border struct {
	Weight BorderWeight `json:"s"`
	Color  string       `json:"cl,omitempty"`
}

// Borders holds the declared edges. A nil edge inherits the visual default.
type Borders struct {
	Top    *Border `json:"t,omitempty"`
	Bottom *Border `json:"b,omitempty"`
	Left   *Border `json:"l,omitempty"`
	Right  *Border `json:"r,omitempty"`
}

// Style is the visual style of a cell.
type Style struct {
	Font    *Font    `json:"font,omitempty"`
	Fill    string   `json:"bg,omitempty"`
	HAlign  HAlign   `json:"ht,omitempty"`
	VAlign  VAlign   `json:"vt,omitempty"`
	Wrap    bool     `json:"tb,omitempty"`
	Borders *Borders `json:"bd,omitempty"`
}

// IsZero reports whether the style carries no attributes.
func (s *Style) IsZero() bool {
	return s == nil || (s.Font == nil && s.Fill == "" && s.HAlign == HAlignUnset &&
		s.VAlign == VAlignUnset && !s.Wrap && s.Borders == nil)
}

// Clone returns a deep copy of the style.
func (s *Style) Clone() *Style {
	if s == nil {
		return nil
	}
	c := *s
	if s.Font != nil {
		f := *s.Font
		c.Font = &f
	}
	if s.Borders != nil {
		b := Borders{
			Top:    s.Borders.Top.clone(),
			Bottom: s.Borders.Bottom.clone(),
			Left:   s.Borders.Left.clone(),
			Right:  s.Borders.Right.clone(),
		}
		c.Borders = &b
	}
	return &c
}

func (b *Border) clone() *Border {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// ARGBToHex converts "FFRRGGBB" to "#RRGGBB". Six-digit input gets a "#"
// prefix; anything else yields "".
func ARGBToHex(argb string) string {
	c := strings.TrimPrefix(strings.TrimSpace(argb), "#")
	switch len(c) {
	case 8:
		return "#" + strings.ToUpper(c[2:])
	case 6:
		return "#" + strings.ToUpper(c)
	default:
		return ""
	}
}

// borderKeywords lists OOXML line-style keywords in excelize's border style index order.
var borderKeywords = []string{
	"none", "thin", "medium", "dashed", "dotted", "thick", "double", "hair",
	"mediumDashed", "dashDot", "mediumDashDot", "dashDotDot", "mediumDashDotDot", "slantDashDot",
}

// BorderWeightFor maps an OOXML line-style keyword to its weight class.
func BorderWeightFor(keyword string) BorderWeight {
	switch keyword {
	case "thin", "hair":
		return BorderThin
	case "medium":
		return BorderMedium
	case "thick", "double":
		return BorderThick
	case "dotted":
		return BorderDotted
	case "dashed", "mediumDashed", "dashDot", "mediumDashDot",
		"dashDotDot", "mediumDashDotDot", "slantDashDot":
		return BorderDashed
	default:
		return BorderNone
	}
}

func hAlignFor(h string) HAlign {
	switch h {
	case "left":
		return HAlignLeft
	case "center", "centerContinuous":
		return HAlignCenter
	case "right":
		return HAlignRight
	}
	return HAlignUnset
}

func vAlignFor(v string) VAlign {
	switch v {
	case "top":
		return VAlignTop
	case "center", "middle":
		return VAlignMiddle
	case "bottom":
		return VAlignBottom
	}
	return VAlignUnset
}

// resolveStyle converts an excelize style into a snapshot Style.
// Returns nil when nothing visible is declared.
func resolveStyle(xs *excelize.Style, fallbackFamily string) *Style {
	if xs == nil {
		return nil
	}
	s := &Style{}

	if xs.Font != nil {
		family := xs.Font.Family
		if family == "" {
			family = fallbackFamily
		}
		s.Font = &Font{
			Bold:   xs.Font.Bold,
			Italic: xs.Font.Italic,
			Size:   xs.Font.Size,
			Family: family,
			Color:  ARGBToHex(xs.Font.Color),
		}
	}

	if xs.Fill.Type == "pattern" && xs.Fill.Pattern != 0 && len(xs.Fill.Color) > 0 {
		s.Fill = ARGBToHex(xs.Fill.Color[0])
	}

	if xs.Alignment != nil {
		s.HAlign = hAlignFor(xs.Alignment.Horizontal)
		s.VAlign = vAlignFor(xs.Alignment.Vertical)
		s.Wrap = xs.Alignment.WrapText
	}

	for _, b := range xs.Border {
		if b.Style <= 0 || b.Style >= len(borderKeywords) {
			continue
		}
		weight := BorderWeightFor(borderKeywords[b.Style])
		if weight == BorderNone {
			continue
		}
		edge := &Border{Weight: weight, Color: ARGBToHex(b.Color)}
		if s.Borders == nil {
			s.Borders = &Borders{}
		}
		switch b.Type {
		case "top":
			s.Borders.Top = edge
		case "bottom":
			s.Borders.Bottom = edge
		case "left":
			s.Borders.Left = edge
		case "right":
			s.Borders.Right = edge
		}
	}

	if s.IsZero() {
		return nil
	}
	return s
}

// excelizeStyle regenerates the subset of a Style that export carries:
// font, fill and alignment. Borders are not written.
func excelizeStyle(s *Style) *excelize.Style {
	if s.IsZero() {
		return nil
	}
	xs := &excelize.Style{}
	if s.Font != nil {
		xs.Font = &excelize.Font{
			Bold:   s.Font.Bold,
			Italic: s.Font.Italic,
			Size:   s.Font.Size,
			Family: s.Font.Family,
			Color:  strings.TrimPrefix(s.Font.Color, "#"),
		}
	}
	if s.Fill != "" {
		xs.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(s.Fill, "#")}}
	}
	if s.HAlign != HAlignUnset || s.VAlign != VAlignUnset || s.Wrap {
		xs.Alignment = &excelize.Alignment{
			Horizontal: [...]string{"", "left", "center", "right"}[s.HAlign&3],
			Vertical:   [...]string{"", "top", "center", "bottom"}[s.VAlign&3],
			WrapText:   s.Wrap,
		}
	}
	return xs
}
