package xlbind

import (
	"fmt"
	"strings"
)

// DescribeWorkbook returns a human-readable outline of a workbook: sheets,
// extents, merges and populated cells. Cells targeted by an active binding
// are annotated with the bound path. Useful for checking templates by eye.
func DescribeWorkbook(book *Workbook, bindings ...FieldBinding) string {
	var b strings.Builder
	if book == nil {
		return "Workbook: <nil>\n"
	}

	bound := make(map[CellAddress][]string)
	for _, fb := range bindings {
		if !fb.Active {
			continue
		}
		if addr, err := DecodeAddress(fb.TargetCell); err == nil {
			bound[addr] = append(bound[addr], fb.Path)
		}
	}

	sheets := book.OrderedSheets()
	fmt.Fprintf(&b, "Workbook: %s (%d sheets)\n", book.Name, len(sheets))
	for _, s := range sheets {
		cells := s.Addresses()
		fmt.Fprintf(&b, "  %s [%s] %dx%d, %d cells\n", s.Name, s.ID, s.RowCount, s.ColumnCount, len(cells))

		if len(s.Merges) > 0 {
			refs := make([]string, len(s.Merges))
			for i, m := range s.Merges {
				refs[i] = m.String()
			}
			fmt.Fprintf(&b, "    Merges: %s\n", strings.Join(refs, ", "))
		}

		for _, addr := range cells {
			fmt.Fprintf(&b, "    %s: %s", addr, describeCell(s.Cell(addr)))
			if paths := bound[addr]; len(paths) > 0 {
				fmt.Fprintf(&b, "  <- %s", strings.Join(paths, ", "))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func describeCell(c *Cell) string {
	switch {
	case c.Formula != "":
		return "=" + c.Formula
	case c.Value == nil:
		return "(styled)"
	case c.Value.Kind == KindText:
		return fmt.Sprintf("%q", c.Value.Text)
	default:
		return c.Value.String()
	}
}
