package xlbind

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeWorkbook_Outline(t *testing.T) {
	w := newPlanBook(t, map[string]any{"A1": "Plan", "B12": "N/A", "C3": 4})
	s := w.FirstSheet()
	s.SetCell(CellAddress{Row: 1, Col: 0}, &Cell{Value: NumberValue(8), Formula: "C3*2"})
	s.Merges = append(s.Merges, MergeRange{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 3})

	out := DescribeWorkbook(w, FieldBinding{Path: "goals.short", TargetCell: "B12", Active: true})

	assert.Contains(t, out, "Workbook: Plan (1 sheets)")
	assert.Contains(t, out, "Sheet1 [sheet-01] 50x20, 4 cells")
	assert.Contains(t, out, "Merges: A1:D1")
	assert.Contains(t, out, `A1: "Plan"`)
	assert.Contains(t, out, "A2: =C3*2")
	assert.Contains(t, out, "C3: 4")
	assert.Contains(t, out, `B12: "N/A"  <- goals.short`)

	// Cells are listed in row-major order.
	assert.Less(t, strings.Index(out, "A2:"), strings.Index(out, "C3:"))
	assert.Less(t, strings.Index(out, "C3:"), strings.Index(out, "B12:"))
}

func TestDescribeWorkbook_Nil(t *testing.T) {
	assert.Equal(t, "Workbook: <nil>\n", DescribeWorkbook(nil))
}
