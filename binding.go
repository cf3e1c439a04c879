package xlbind

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// FieldBinding maps one domain-record field path onto one target cell.
type FieldBinding struct {
	Path           string          `json:"path" yaml:"path"`
	TargetCell     string          `json:"targetCell" yaml:"targetCell"`
	TransformRules []TransformRule `json:"transformRules,omitempty" yaml:"transformRules,omitempty"`
	Active         bool            `json:"active" yaml:"active"`
}

// fieldBindingFields mirrors FieldBinding without its methods.
type fieldBindingFields FieldBinding

// UnmarshalJSON decodes a binding; a missing "active" defaults to true.
func (b *FieldBinding) UnmarshalJSON(data []byte) error {
	in := fieldBindingFields{Active: true}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = FieldBinding(in)
	return nil
}

// UnmarshalYAML decodes a binding; a missing "active" defaults to true.
func (b *FieldBinding) UnmarshalYAML(unmarshal func(any) error) error {
	in := fieldBindingFields{Active: true}
	if err := unmarshal(&in); err != nil {
		return err
	}
	*b = FieldBinding(in)
	return nil
}

// DefaultBindings returns the stock clinical-plan binding table.
func DefaultBindings() []FieldBinding {
	return []FieldBinding{
		{Path: "main_risks_txt", TargetCell: "B18", Active: true},
		{Path: "goals_1_month_txt", TargetCell: "B12", Active: true},
		{Path: "goals_at_discharge_txt", TargetCell: "B14", Active: true},
		{Path: "policy_content_txt", TargetCell: "B16", Active: true},
	}
}

// RestoreRecord remembers what a bound cell held before the engine first
// wrote to it under a given workbook identity. A nil Original means the
// cell was empty.
type RestoreRecord struct {
	Path     string      `json:"path"`
	SheetID  string      `json:"sheetId"`
	Cell     CellAddress `json:"cell"`
	Original *Cell       `json:"original,omitempty"`
	Identity string      `json:"identity"`
}

func (r *RestoreRecord) clone() RestoreRecord {
	c := *r
	c.Original = r.Original.Clone()
	return c
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Written    int `json:"written"`
	Restored   int `json:"restored"`
	Discarded  int `json:"discarded"`
	Unresolved int `json:"unresolved"`
}

// Engine projects domain-record fields onto bound cells and keeps the
// restore ledger needed to undo those writes. An Engine is not safe for
// concurrent use; Document serializes access to it.
type Engine struct {
	records map[string]*RestoreRecord // keyed by binding path
	eval    PathEvaluator
	logger  *zap.Logger
}

// NewEngine creates an engine with an empty ledger.
func NewEngine(opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		records: make(map[string]*RestoreRecord),
		eval:    NewPathEvaluator(),
		logger:  o.logger,
	}
}

// boundTarget is a binding that survived normalization.
type boundTarget struct {
	binding FieldBinding
	addr    CellAddress
}

// Reconcile runs one projection pass of record through bindings onto the
// sheet sheetID of book. Restores and purges run first so that cells freed
// by a rebind are back to their original content before any new capture.
func (e *Engine) Reconcile(record any, bindings []FieldBinding, book *Workbook, sheetID string) (ReconcileResult, error) {
	var res ReconcileResult
	if book == nil {
		return res, fmt.Errorf("reconcile: nil workbook")
	}
	sheet, err := book.Sheet(sheetID)
	if err != nil {
		return res, fmt.Errorf("reconcile: %w", err)
	}
	identity := book.Identity()
	table, order := e.boundTable(bindings)

	for _, path := range e.recordPaths() {
		rec := e.records[path]
		if rec.Identity != identity {
			delete(e.records, path)
			res.Discarded++
			e.logger.Debug("discarded restore record from a replaced workbook", zap.String("path", path))
			continue
		}
		if bt, ok := table[path]; ok && rec.SheetID == sheetID && bt.addr == rec.Cell {
			continue
		}
		delete(e.records, path)
		if e.restore(rec, book) {
			res.Restored++
		}
	}

	for _, path := range order {
		bt := table[path]
		raw, ok := e.resolve(record, path)
		if !ok {
			res.Unresolved++
			continue
		}

		if _, live := e.records[path]; !live {
			e.records[path] = &RestoreRecord{
				Path:     path,
				SheetID:  sheetID,
				Cell:     bt.addr,
				Original: e.originalAt(sheet, sheetID, bt.addr),
				Identity: identity,
			}
		}

		value, err := ScalarOf(ApplyTransformRules(raw, bt.binding.TransformRules))
		if err != nil {
			e.logger.Warn("bound value stringified",
				zap.String("path", path),
				zap.String("cell", bt.addr.String()),
				zap.Error(err))
		}
		cur := sheet.Cell(bt.addr)
		if cur != nil && cur.Formula == "" && cur.Value.Equal(value) {
			continue
		}
		if cur == nil && value == nil {
			continue
		}
		sheet.SetValue(bt.addr, value)
		res.Written++
	}
	return res, nil
}

// boundTable returns the usable bindings keyed by path, plus the paths in
// table order. Inactive bindings, empty paths, bad targets and repeated
// paths are left out, which makes them unbound for this pass.
func (e *Engine) boundTable(bindings []FieldBinding) (map[string]boundTarget, []string) {
	table := make(map[string]boundTarget, len(bindings))
	var order []string
	for _, b := range bindings {
		if !b.Active || b.Path == "" || b.TargetCell == "" {
			continue
		}
		addr, err := DecodeAddress(b.TargetCell)
		if err != nil {
			e.logger.Warn("binding target ignored", zap.String("path", b.Path), zap.Error(err))
			continue
		}
		if _, dup := table[b.Path]; dup {
			e.logger.Warn("duplicate binding path ignored", zap.String("path", b.Path))
			continue
		}
		table[b.Path] = boundTarget{binding: b, addr: addr}
		order = append(order, b.Path)
	}
	return table, order
}

// resolve looks up a path on the record. Computed paths are evaluated as
// expressions; any failure or nil result counts as unresolved.
func (e *Engine) resolve(record any, path string) (any, bool) {
	if IsPlainPath(path) {
		v, ok := Lookup(record, path)
		if !ok {
			e.logger.Debug("binding skipped", zap.String("path", path), zap.Error(ErrBindingPathUnresolved))
		}
		return v, ok
	}
	v, err := e.eval.Evaluate(path, record)
	if err != nil || v == nil {
		e.logger.Debug("binding skipped", zap.String("path", path), zap.Error(ErrBindingPathUnresolved), zap.NamedError("cause", err))
		return nil, false
	}
	return v, true
}

// originalAt captures the pre-automation content of a cell. When another
// live record already claims the cell, its original is shared so that the
// engine never records its own write as original content.
func (e *Engine) originalAt(sheet *Sheet, sheetID string, addr CellAddress) *Cell {
	if rec := e.claim(sheetID, addr, ""); rec != nil {
		return rec.Original.Clone()
	}
	return sheet.Cell(addr).Clone()
}

// restore writes a record's original content back to its cell. It reports
// whether a write happened.
func (e *Engine) restore(rec *RestoreRecord, book *Workbook) bool {
	log := e.logger.With(zap.String("path", rec.Path), zap.String("cell", rec.Cell.String()))
	sheet, ok := book.Sheets[rec.SheetID]
	if !ok || !sheet.InBounds(rec.Cell) {
		log.Warn("restore skipped", zap.String("sheet", rec.SheetID), zap.Error(ErrRestoreTargetOutOfBounds))
		return false
	}
	if other := e.claim(rec.SheetID, rec.Cell, rec.Path); other != nil {
		log.Debug("restore deferred to live record", zap.String("claimedBy", other.Path))
		return false
	}
	sheet.SetCell(rec.Cell, rec.Original.Clone())
	log.Debug("restored original content")
	return true
}

// claim returns a live record (other than exclude) holding the cell.
func (e *Engine) claim(sheetID string, addr CellAddress, exclude string) *RestoreRecord {
	for path, rec := range e.records {
		if path != exclude && rec.SheetID == sheetID && rec.Cell == addr {
			return rec
		}
	}
	return nil
}

func (e *Engine) recordPaths() []string {
	paths := make([]string, 0, len(e.records))
	for p := range e.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Claimed reports whether a live restore record holds the cell.
func (e *Engine) Claimed(sheetID string, addr CellAddress) bool {
	return e.claim(sheetID, addr, "") != nil
}

// Records returns a copy of the ledger ordered by path.
func (e *Engine) Records() []RestoreRecord {
	out := make([]RestoreRecord, 0, len(e.records))
	for _, p := range e.recordPaths() {
		out = append(out, e.records[p].clone())
	}
	return out
}

// Discard drops every record not captured under identity and returns how
// many were dropped. Nothing is written back.
func (e *Engine) Discard(identity string) int {
	n := 0
	for path, rec := range e.records {
		if rec.Identity != identity {
			delete(e.records, path)
			n++
		}
	}
	return n
}

// Reset empties the ledger without writing anything back.
func (e *Engine) Reset() int {
	n := len(e.records)
	e.records = make(map[string]*RestoreRecord)
	return n
}
