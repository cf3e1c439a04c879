package xlbind

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Document is one live editing session: a workbook, the active sheet, and
// the engine projecting records onto it. All mutations go through one
// mutex, which makes the document the single writer of its workbook.
type Document struct {
	mu     sync.Mutex
	id     string
	book   *Workbook
	active string
	engine *Engine
	opts   []Option
	o      *Options
}

// NewDocument starts a session on a copy of book.
func NewDocument(book *Workbook, opts ...Option) *Document {
	d := &Document{
		id:     uuid.NewString(),
		engine: NewEngine(opts...),
		opts:   opts,
		o:      buildOptions(opts),
	}
	d.Load(book)
	return d
}

// NewBlankDocument starts a session on a one-sheet workbook of the minimum size.
func NewBlankDocument(opts ...Option) *Document {
	o := buildOptions(opts)
	return NewDocument(NewBlankWorkbook(o.workbookName, o.minRows, o.minColumns), opts...)
}

// ID returns the session id.
func (d *Document) ID() string { return d.id }

// Load replaces the whole workbook. The new workbook gets a fresh identity,
// so restore records taken on the previous one are dropped without being
// written back. It returns how many were dropped.
func (d *Document) Load(book *Workbook) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if book == nil || len(book.OrderedSheets()) == 0 {
		book = NewBlankWorkbook(d.o.workbookName, d.o.minRows, d.o.minColumns)
	}
	d.book = book.Reidentify()
	d.active = d.book.FirstSheet().ID

	dropped := d.engine.Discard(d.book.Identity())
	if dropped > 0 {
		d.o.logger.Info("pending restores dropped on workbook swap",
			zap.String("document", d.id),
			zap.Int("count", dropped))
	}
	return dropped
}

// SetActiveSheet selects the sheet that reconciliation writes to.
func (d *Document) SetActiveSheet(sheetID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.book.Sheet(sheetID); err != nil {
		return err
	}
	d.active = sheetID
	return nil
}

// ActiveSheet returns the id of the active sheet.
func (d *Document) ActiveSheet() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// SetCell applies a human edit. Cells held by a live restore record are
// reserved for the engine and rejected with ErrCellClaimed.
func (d *Document) SetCell(sheetID, ref string, value any) error {
	addr, err := DecodeAddress(ref)
	if err != nil {
		return err
	}
	v, err := ScalarOf(value)
	if err != nil {
		d.o.logger.Warn("edited value stringified", zap.String("cell", addr.String()), zap.Error(err))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	sheet, err := d.book.Sheet(sheetID)
	if err != nil {
		return err
	}
	if d.engine.Claimed(sheetID, addr) {
		return fmt.Errorf("%w: %s!%s", ErrCellClaimed, sheet.Name, addr)
	}
	sheet.SetValue(addr, v)
	return nil
}

// Reconcile projects record through bindings onto the active sheet.
func (d *Document) Reconcile(record any, bindings []FieldBinding) (ReconcileResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, err := d.engine.Reconcile(record, bindings, d.book, d.active)
	if err != nil {
		return res, err
	}
	d.o.logger.Debug("reconciled",
		zap.String("document", d.id),
		zap.Int("written", res.Written),
		zap.Int("restored", res.Restored),
		zap.Int("discarded", res.Discarded),
		zap.Int("unresolved", res.Unresolved))
	return res, nil
}

// Records returns the current restore ledger.
func (d *Document) Records() []RestoreRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Records()
}

// Snapshot returns a deep copy of the workbook.
func (d *Document) Snapshot() *Workbook {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book.Clone()
}

// Export writes the current workbook as xlsx.
func (d *Document) Export(w io.Writer) error {
	return Export(d.Snapshot(), w, d.opts...)
}
