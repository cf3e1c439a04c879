// Package xlbind converts xlsx workbooks to and from Grid Snapshots and
// projects domain records onto bound cells with an exact undo ledger.
package xlbind

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Cell is one populated cell of a sheet.
type Cell struct {
	Value   *Scalar
	Formula string
	Style   *Style
}

// cellJSON is the wire form {v, f?, s?, t?}. t is "e" for error codes.
type cellJSON struct {
	V any    `json:"v"`
	F string `json:"f,omitempty"`
	S *Style `json:"s,omitempty"`
	T string `json:"t,omitempty"`
}

// MarshalJSON encodes the cell in the Grid Snapshot wire form.
func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{V: c.Value.Any(), F: c.Formula, S: c.Style}
	if c.Value != nil && c.Value.Kind == KindError {
		out.T = "e"
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the Grid Snapshot wire form.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var in cellJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	v, err := ScalarOf(in.V)
	if err != nil {
		return fmt.Errorf("decode cell value: %w", err)
	}
	if v != nil && in.T == "e" {
		v = ErrorValue(v.String())
	}
	*c = Cell{Value: v, Formula: in.F, Style: in.S}
	return nil
}

// Clone returns a deep copy of the cell.
func (c *Cell) Clone() *Cell {
	if c == nil {
		return nil
	}
	return &Cell{Value: c.Value.Clone(), Formula: c.Formula, Style: c.Style.Clone()}
}

// IsEmpty reports whether the cell carries neither a value nor a formula.
func (c *Cell) IsEmpty() bool {
	return c == nil || (c.Value == nil && c.Formula == "")
}

// RowMeta holds row metadata.
type RowMeta struct {
	Height float64 `json:"h"`
}

// ColumnMeta holds column metadata.
type ColumnMeta struct {
	Width float64 `json:"w"`
}

// Sheet is one tab of a workbook: sparse cells keyed by row then column.
type Sheet struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Cells       map[int]map[int]*Cell `json:"cellData"`
	Rows        map[int]RowMeta       `json:"rowData,omitempty"`
	Columns     map[int]ColumnMeta    `json:"columnData,omitempty"`
	Merges      []MergeRange          `json:"mergeData"`
	RowCount    int                   `json:"rowCount"`
	ColumnCount int                   `json:"columnCount"`
}

// UnmarshalJSON decodes a sheet and drops null cells, so every entry left in
// Cells is a real cell.
func (s *Sheet) UnmarshalJSON(data []byte) error {
	type plain Sheet
	var in plain
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for r, row := range in.Cells {
		for c, cell := range row {
			if cell == nil {
				delete(row, c)
			}
		}
		if len(row) == 0 {
			delete(in.Cells, r)
		}
	}
	*s = Sheet(in)
	return nil
}

// NewSheet creates an empty sheet with the given logical extent.
func NewSheet(id, name string, rows, cols int) *Sheet {
	return &Sheet{
		ID:          id,
		Name:        name,
		Cells:       make(map[int]map[int]*Cell),
		Rows:        make(map[int]RowMeta),
		Columns:     make(map[int]ColumnMeta),
		Merges:      []MergeRange{},
		RowCount:    rows,
		ColumnCount: cols,
	}
}

// Cell returns the cell at addr, or nil when unpopulated.
func (s *Sheet) Cell(addr CellAddress) *Cell {
	row, ok := s.Cells[addr.Row]
	if !ok {
		return nil
	}
	return row[addr.Col]
}

// SetCell stores a cell at addr. A nil or empty cell without style removes it.
func (s *Sheet) SetCell(addr CellAddress, c *Cell) {
	if c.IsEmpty() && (c == nil || c.Style == nil) {
		s.DeleteCell(addr)
		return
	}
	if s.Cells == nil {
		s.Cells = make(map[int]map[int]*Cell)
	}
	row, ok := s.Cells[addr.Row]
	if !ok {
		row = make(map[int]*Cell)
		s.Cells[addr.Row] = row
	}
	row[addr.Col] = c
	s.grow(addr)
}

// SetValue writes a value into addr, keeping the cell's existing style.
// Any formula is dropped since the value no longer derives from it.
func (s *Sheet) SetValue(addr CellAddress, v *Scalar) {
	var style *Style
	if cur := s.Cell(addr); cur != nil {
		style = cur.Style
	}
	s.SetCell(addr, &Cell{Value: v, Style: style})
}

// DeleteCell removes the cell at addr.
func (s *Sheet) DeleteCell(addr CellAddress) {
	row, ok := s.Cells[addr.Row]
	if !ok {
		return
	}
	delete(row, addr.Col)
	if len(row) == 0 {
		delete(s.Cells, addr.Row)
	}
}

// InBounds reports whether addr lies within the sheet's logical extent.
func (s *Sheet) InBounds(addr CellAddress) bool {
	return addr.Row >= 0 && addr.Col >= 0 && addr.Row < s.RowCount && addr.Col < s.ColumnCount
}

// grow extends the logical extent so that addr is inside it.
func (s *Sheet) grow(addr CellAddress) {
	if addr.Row >= s.RowCount {
		s.RowCount = addr.Row + 1
	}
	if addr.Col >= s.ColumnCount {
		s.ColumnCount = addr.Col + 1
	}
}

// Extent returns the number of populated rows and columns (max index + 1).
func (s *Sheet) Extent() (rows, cols int) {
	for r, row := range s.Cells {
		for c := range row {
			rows = max(rows, r+1)
			cols = max(cols, c+1)
		}
	}
	for _, m := range s.Merges {
		rows = max(rows, m.EndRow+1)
		cols = max(cols, m.EndCol+1)
	}
	return rows, cols
}

// Addresses returns populated cell addresses in row-major order.
func (s *Sheet) Addresses() []CellAddress {
	var out []CellAddress
	for r, row := range s.Cells {
		for c, cell := range row {
			if cell == nil {
				continue
			}
			out = append(out, CellAddress{Row: r, Col: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Clone returns a deep copy of the sheet.
func (s *Sheet) Clone() *Sheet {
	if s == nil {
		return nil
	}
	c := NewSheet(s.ID, s.Name, s.RowCount, s.ColumnCount)
	for r, row := range s.Cells {
		cr := make(map[int]*Cell, len(row))
		for col, cell := range row {
			cr[col] = cell.Clone()
		}
		c.Cells[r] = cr
	}
	for r, m := range s.Rows {
		c.Rows[r] = m
	}
	for col, m := range s.Columns {
		c.Columns[col] = m
	}
	c.Merges = append(c.Merges, s.Merges...)
	return c
}

// Workbook is the Grid Snapshot: ordered sheets plus an identity token that
// changes whenever the whole document is replaced. The identity is not part
// of the wire form; a decoded snapshot has none until it is loaded.
type Workbook struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	SheetOrder []string          `json:"sheetOrder"`
	Sheets     map[string]*Sheet `json:"sheets"`

	identity string
}

// NewWorkbook creates an empty workbook with a fresh identity.
func NewWorkbook(name string) *Workbook {
	return &Workbook{
		ID:       "workbook-" + uuid.NewString()[:8],
		Name:     name,
		Sheets:   make(map[string]*Sheet),
		identity: NewIdentity(),
	}
}

// NewIdentity returns a fresh Workbook Identity token.
func NewIdentity() string {
	return uuid.NewString()
}

// Identity returns the Workbook Identity token.
func (w *Workbook) Identity() string { return w.identity }

// AddSheet appends a sheet, keeping sheet order.
func (w *Workbook) AddSheet(s *Sheet) {
	if w.Sheets == nil {
		w.Sheets = make(map[string]*Sheet)
	}
	if _, exists := w.Sheets[s.ID]; !exists {
		w.SheetOrder = append(w.SheetOrder, s.ID)
	}
	w.Sheets[s.ID] = s
}

// Sheet returns a sheet by id.
func (w *Workbook) Sheet(id string) (*Sheet, error) {
	s, ok := w.Sheets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, id)
	}
	return s, nil
}

// SheetByName returns the first sheet with the given name.
func (w *Workbook) SheetByName(name string) (*Sheet, error) {
	for _, id := range w.SheetOrder {
		if s := w.Sheets[id]; s != nil && s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// FirstSheet returns the first sheet in order, or nil.
func (w *Workbook) FirstSheet() *Sheet {
	for _, id := range w.SheetOrder {
		if s := w.Sheets[id]; s != nil {
			return s
		}
	}
	return nil
}

// OrderedSheets returns the sheets in display order.
func (w *Workbook) OrderedSheets() []*Sheet {
	out := make([]*Sheet, 0, len(w.SheetOrder))
	for _, id := range w.SheetOrder {
		if s := w.Sheets[id]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy that keeps the same identity.
func (w *Workbook) Clone() *Workbook {
	if w == nil {
		return nil
	}
	c := &Workbook{
		ID:         w.ID,
		Name:       w.Name,
		SheetOrder: append([]string(nil), w.SheetOrder...),
		Sheets:     make(map[string]*Sheet, len(w.Sheets)),
		identity:   w.identity,
	}
	for id, s := range w.Sheets {
		c.Sheets[id] = s.Clone()
	}
	return c
}

// Reidentify copies the workbook under a fresh identity, as when a template
// is loaded into a new document.
func (w *Workbook) Reidentify() *Workbook {
	c := w.Clone()
	c.identity = NewIdentity()
	return c
}

// NewBlankWorkbook creates a one-sheet workbook sized to the given minimums.
func NewBlankWorkbook(name string, rows, cols int) *Workbook {
	w := NewWorkbook(name)
	w.AddSheet(NewSheet("sheet-01", "Sheet1", rows, cols))
	return w
}
