package xlbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBindings_Valid(t *testing.T) {
	issues := ValidateBindings([]FieldBinding{
		{Path: "goals.short", TargetCell: "B12", Active: true},
		{Path: "adl.eating + adl.grooming", TargetCell: "C3", Active: true},
		{Path: "flags.fall", TargetCell: "D4", Active: true, TransformRules: PresetCheckbox},
	})
	assert.Empty(t, issues)
	assert.False(t, HasErrors(issues))
}

func TestValidateBindings_InvalidAddress(t *testing.T) {
	issues := ValidateBindings([]FieldBinding{{Path: "a", TargetCell: "B0", Active: true}})
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "invalid cell address")
	assert.True(t, HasErrors(issues))
}

func TestValidateBindings_DuplicatePathAndTarget(t *testing.T) {
	issues := ValidateBindings([]FieldBinding{
		{Path: "a", TargetCell: "B2", Active: true},
		{Path: "a", TargetCell: "B3", Active: true},
		{Path: "b", TargetCell: "b2", Active: true},
		{Path: "c", TargetCell: "B2", Active: false},
	})
	require.Len(t, issues, 2)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, 1, issues[0].Index)
	assert.Contains(t, issues[0].Message, "duplicate path")
	assert.Equal(t, SeverityWarning, issues[1].Severity)
	assert.Equal(t, "b", issues[1].Path)
	assert.Contains(t, issues[1].Message, "B2")
}

func TestValidateBindings_EmptyPathAndBadExpression(t *testing.T) {
	issues := ValidateBindings([]FieldBinding{
		{Path: " ", TargetCell: "A1", Active: true},
		{Path: "a +", TargetCell: "A2", Active: true},
		{Path: "c", Active: true},
	})
	require.Len(t, issues, 3)
	assert.Contains(t, issues[0].Message, "empty path")
	assert.Contains(t, issues[1].Message, "invalid path expression")
	assert.Equal(t, SeverityWarning, issues[2].Severity)
}

func TestValidateBindings_UnreachableRule(t *testing.T) {
	issues := ValidateBindings([]FieldBinding{{
		Path: "a", TargetCell: "A1", Active: true,
		TransformRules: []TransformRule{{From: "x", To: "1"}, {From: "x", To: "2"}},
	}})
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestValidationIssue_String(t *testing.T) {
	is := ValidationIssue{Severity: SeverityWarning, Index: 1, Path: "goals.short", Message: "msg"}
	assert.Equal(t, "[WARN] #2 goals.short: msg", is.String())
}

func TestNormalizeBindings(t *testing.T) {
	in := []FieldBinding{{Path: "a", TargetCell: " b12 ", Active: true}, {Path: "b"}}
	out, err := NormalizeBindings(in)
	require.NoError(t, err)
	assert.Equal(t, "B12", out[0].TargetCell)
	assert.Equal(t, "", out[1].TargetCell)
	assert.Equal(t, " b12 ", in[0].TargetCell, "input is not modified")

	_, err = NormalizeBindings([]FieldBinding{{Path: "a", TargetCell: "12B"}})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestSeverity_TextRoundTrip(t *testing.T) {
	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("WARN")))
	assert.Equal(t, SeverityWarning, s)
	require.NoError(t, s.UnmarshalText([]byte("error")))
	assert.Equal(t, SeverityError, s)
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}
