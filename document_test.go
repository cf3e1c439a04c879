package xlbind

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewBlankDocument(t *testing.T) {
	d := NewBlankDocument()
	snap := d.Snapshot()
	s := snap.FirstSheet()
	require.NotNil(t, s)
	assert.Equal(t, "Sheet1", s.Name)
	assert.Equal(t, DefaultMinRows, s.RowCount)
	assert.Equal(t, DefaultMinColumns, s.ColumnCount)
	assert.Equal(t, s.ID, d.ActiveSheet())
	assert.NotEmpty(t, d.ID())
}

func TestDocument_HumanEditRejectedOnClaimedCell(t *testing.T) {
	d := NewBlankDocument()
	sheet := d.ActiveSheet()

	require.NoError(t, d.SetCell(sheet, "B12", "N/A"))
	_, err := d.Reconcile(goalsRecord(), []FieldBinding{{Path: "goals.short", TargetCell: "B12", Active: true}})
	require.NoError(t, err)

	err = d.SetCell(sheet, "b12", "typed over")
	assert.ErrorIs(t, err, ErrCellClaimed)
	require.NoError(t, d.SetCell(sheet, "C12", "free cell"))

	snap := d.Snapshot()
	assert.Equal(t, TextValue("Discharge home"), valueAt(t, snap, "B12"))
	assert.Equal(t, TextValue("free cell"), valueAt(t, snap, "C12"))
}

func TestDocument_SetCellErrors(t *testing.T) {
	d := NewBlankDocument()
	assert.ErrorIs(t, d.SetCell(d.ActiveSheet(), "12B", "x"), ErrInvalidAddress)
	assert.ErrorIs(t, d.SetCell("missing", "A1", "x"), ErrSheetNotFound)
	assert.ErrorIs(t, d.SetActiveSheet("missing"), ErrSheetNotFound)
}

func TestDocument_LoadDropsPendingRestores(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewBlankDocument(WithLogger(zap.New(core)))
	sheet := d.ActiveSheet()
	require.NoError(t, d.SetCell(sheet, "B12", "N/A"))
	_, err := d.Reconcile(goalsRecord(), []FieldBinding{{Path: "goals.short", TargetCell: "B12", Active: true}})
	require.NoError(t, err)

	template := newPlanBook(t, map[string]any{"B12": "template"})
	dropped := d.Load(template)
	assert.Equal(t, 1, dropped)
	assert.Empty(t, d.Records())
	assert.Equal(t, 1, logs.FilterMessage("pending restores dropped on workbook swap").Len())

	// The loaded copy has its own identity, and the caller's workbook is untouched.
	assert.NotEqual(t, template.Identity(), d.Snapshot().Identity())
	require.NoError(t, d.SetCell(sheet, "B12", "edited"))
	assert.Equal(t, TextValue("template"), valueAt(t, template, "B12"))
}

func TestDocument_LoadSameTemplateTwiceStillSwaps(t *testing.T) {
	d := NewBlankDocument()
	template := newPlanBook(t, map[string]any{"B12": "N/A"})
	bindings := []FieldBinding{{Path: "goals.short", TargetCell: "B12", Active: true}}

	d.Load(template)
	_, err := d.Reconcile(goalsRecord(), bindings)
	require.NoError(t, err)
	first := d.Snapshot().Identity()

	assert.Equal(t, 1, d.Load(template))
	assert.NotEqual(t, first, d.Snapshot().Identity())
}

func TestDocument_SnapshotIsIsolated(t *testing.T) {
	d := NewBlankDocument()
	sheet := d.ActiveSheet()
	require.NoError(t, d.SetCell(sheet, "A1", "x"))

	snap := d.Snapshot()
	snap.FirstSheet().SetValue(CellAddress{}, TextValue("changed"))
	assert.Equal(t, TextValue("x"), valueAt(t, d.Snapshot(), "A1"))
}

func TestDocument_Export(t *testing.T) {
	d := NewBlankDocument()
	require.NoError(t, d.SetCell(d.ActiveSheet(), "A1", 12))

	var buf bytes.Buffer
	require.NoError(t, d.Export(&buf))
	res, err := Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, NumberValue(12), res.Workbook.FirstSheet().Cell(CellAddress{}).Value)
}

func TestDocument_NilLoadGivesBlank(t *testing.T) {
	d := NewDocument(nil)
	require.NotNil(t, d.Snapshot().FirstSheet())
}

func TestDocument_NaNFieldSettles(t *testing.T) {
	d := NewBlankDocument()
	record := map[string]any{"score": math.NaN()}
	bindings := []FieldBinding{{Path: "score", TargetCell: "C3", Active: true}}

	res, err := d.Reconcile(record, bindings)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)

	res, err = d.Reconcile(record, bindings)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Written)

	snap := d.Snapshot()
	assert.Equal(t, TextValue("NaN"), valueAt(t, snap, "C3"))
	_, err = json.Marshal(snap)
	assert.NoError(t, err)
}
