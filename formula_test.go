package xlbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulaRefs(t *testing.T) {
	refs := FormulaRefs(`SUM(A1:$B$2)+Plan!C3*'Goals ''25'!D4+LOG10(E5)&"F6"`)
	assert.Equal(t, []FormulaRef{
		{Cell: CellAddress{Row: 0, Col: 0}},
		{Cell: CellAddress{Row: 1, Col: 1}},
		{Sheet: "Plan", Cell: CellAddress{Row: 2, Col: 2}},
		{Sheet: "Goals '25", Cell: CellAddress{Row: 3, Col: 3}},
		{Cell: CellAddress{Row: 4, Col: 4}},
	}, refs)
}

func TestFormulaRefs_NoReferences(t *testing.T) {
	assert.Empty(t, FormulaRefs(`LOG10(2)+"A1"`))
	assert.Empty(t, FormulaRefs(`A0+1`))
}

func TestRenameFormulaSheets(t *testing.T) {
	renames := map[string]string{"Plan": "Plan (2)", "A/B": "A_B"}
	got := RenameFormulaSheets(`Plan!B12+'A/B'!C1+Other!A1+A1`, renames)
	assert.Equal(t, `'Plan (2)'!B12+A_B!C1+Other!A1+A1`, got)
	assert.Equal(t, "Plan!A1", RenameFormulaSheets("Plan!A1", nil))
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "Plan", quoteSheetName("Plan"))
	assert.Equal(t, "'AB1'", quoteSheetName("AB1"))
	assert.Equal(t, "'it''s'", quoteSheetName("it's"))
}

func TestExport_RenamedSheetKeepsFormulaTargets(t *testing.T) {
	book := NewWorkbook("Book")
	first := NewSheet("sheet-01", "Plan", 10, 5)
	first.SetValue(CellAddress{Row: 0, Col: 0}, NumberValue(1))
	dup := NewSheet("sheet-02", "Plan", 10, 5)
	dup.SetValue(CellAddress{Row: 0, Col: 0}, NumberValue(2))
	odd := NewSheet("sheet-03", "Q1/Q2", 10, 5)
	odd.SetCell(CellAddress{Row: 0, Col: 0}, &Cell{Value: NumberValue(3), Formula: "Plan!A1+'Q1/Q2'!B1"})
	book.AddSheet(first)
	book.AddSheet(dup)
	book.AddSheet(odd)

	f := exportAndOpen(t, book)
	assert.Equal(t, []string{"Plan", "Plan (2)", "Q1_Q2"}, f.GetSheetList())
	formula, err := f.GetCellFormula("Q1_Q2", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Plan!A1+Q1_Q2!B1", formula)
}
