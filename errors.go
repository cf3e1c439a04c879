package xlbind

import (
	"errors"
	"fmt"
)

var (
	// Address errors
	ErrInvalidAddress      = errors.New("invalid cell address")
	ErrMalformedMergeRange = errors.New("malformed merge range")

	// Conversion errors
	ErrImportUnreadable     = errors.New("workbook file is unreadable")
	ErrUnsupportedCellShape = errors.New("unsupported cell value shape")

	// Projection errors
	ErrRestoreTargetOutOfBounds = errors.New("restore target is outside the sheet")
	ErrBindingPathUnresolved    = errors.New("binding path does not resolve")
	ErrCellClaimed              = errors.New("cell is claimed by an active binding")

	// Document errors
	ErrSheetNotFound = errors.New("sheet not found")
	ErrSuperseded    = errors.New("superseded by a newer request")
)

// ConversionIssue records a degradation local to one cell or merge. The
// surrounding conversion carries on; issues are reported alongside the result.
type ConversionIssue struct {
	Sheet string
	Ref   string
	Err   error
}

// Error implements error.
func (i ConversionIssue) Error() string {
	return fmt.Sprintf("%s!%s: %v", i.Sheet, i.Ref, i.Err)
}

// Unwrap returns the underlying error.
func (i ConversionIssue) Unwrap() error { return i.Err }

// MarshalText renders the issue for JSON responses.
func (i ConversionIssue) MarshalText() ([]byte, error) {
	return []byte(i.Error()), nil
}
