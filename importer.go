package xlbind

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"
	"go.uber.org/zap"
)

// SourceSheet is one sheet of the workbook-file model, before conversion.
type SourceSheet struct {
	Name         string
	Cells        []RawCell
	Merges       []string        // "A1:B2" references
	ColumnWidths map[int]float64 // character units
	RowHeights   map[int]float64 // points
}

// SourceWorkbook is the workbook-file model handed to the converter.
type SourceWorkbook struct {
	Name   string
	Sheets []SourceSheet
}

// ImportResult is a converted workbook plus the degradations met on the way.
type ImportResult struct {
	Workbook *Workbook
	Issues   []ConversionIssue
}

// Import reads an xlsx workbook and converts it into a Grid Snapshot.
// Only an unreadable file fails; per-cell problems are returned as issues.
func Import(r io.Reader, opts ...Option) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()
	return ImportFile(f, opts...)
}

// ImportPath opens an xlsx file from disk and converts it.
func ImportPath(path string, opts ...Option) (*ImportResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrImportUnreadable, path, err)
	}
	defer f.Close()
	return ImportFile(f, opts...)
}

// ImportFile converts an already opened excelize file.
func ImportFile(f *excelize.File, opts ...Option) (*ImportResult, error) {
	o := buildOptions(opts)
	src, issues := readSource(f, o)
	src.Name = o.workbookName
	res := convertSource(src, o)
	res.Issues = append(issues, res.Issues...)
	return res, nil
}

// ConvertSource converts a workbook-file model into a Grid Snapshot.
func ConvertSource(src *SourceWorkbook, opts ...Option) *ImportResult {
	return convertSource(src, buildOptions(opts))
}

func convertSource(src *SourceWorkbook, o *Options) *ImportResult {
	name := src.Name
	if name == "" {
		name = o.workbookName
	}
	res := &ImportResult{Workbook: NewWorkbook(name)}
	for i, ss := range src.Sheets {
		sheet := NewSheet(fmt.Sprintf("sheet-%02d", i+1), SafeSheetName(ss.Name), 0, 0)
		res.Issues = append(res.Issues, convertSheet(ss, sheet, o)...)

		rows, cols := sheet.Extent()
		sheet.RowCount = max(rows+o.padding, o.minRows)
		sheet.ColumnCount = max(cols+o.padding, o.minColumns)
		res.Workbook.AddSheet(sheet)
	}
	if len(res.Workbook.SheetOrder) == 0 {
		res.Workbook.AddSheet(NewSheet("sheet-01", "Sheet1", o.minRows, o.minColumns))
	}
	return res
}

func convertSheet(ss SourceSheet, sheet *Sheet, o *Options) []ConversionIssue {
	var issues []ConversionIssue
	styles := make(map[*excelize.Style]*Style)

	for _, raw := range ss.Cells {
		addr := CellAddress{Row: raw.Row, Col: raw.Col}
		value, err := ResolveValue(raw)
		if err != nil {
			issue := ConversionIssue{Sheet: sheet.Name, Ref: addr.String(), Err: err}
			o.logger.Warn("degraded cell value",
				zap.String("sheet", sheet.Name),
				zap.String("cell", issue.Ref),
				zap.Error(err))
			issues = append(issues, issue)
		}

		cell := &Cell{Value: value}
		if raw.Formula != nil {
			cell.Formula = strings.TrimPrefix(raw.Formula.Expr, "=")
		}
		if raw.Style != nil {
			st, ok := styles[raw.Style]
			if !ok {
				st = resolveStyle(raw.Style, o.fontFamily)
				styles[raw.Style] = st
			}
			cell.Style = st.Clone()
		}
		if cell.IsEmpty() && cell.Style == nil {
			continue
		}
		sheet.SetCell(addr, cell)
	}

	for _, ref := range ss.Merges {
		m, err := DecodeRange(ref)
		if err != nil {
			o.logger.Warn("skipping merge", zap.String("sheet", sheet.Name), zap.String("range", ref), zap.Error(err))
			issues = append(issues, ConversionIssue{Sheet: sheet.Name, Ref: ref, Err: err})
			continue
		}
		sheet.Merges = append(sheet.Merges, m)
	}

	for col, w := range ss.ColumnWidths {
		sheet.Columns[col] = ColumnMeta{Width: w * o.widthFactor}
	}
	for row, h := range ss.RowHeights {
		sheet.Rows[row] = RowMeta{Height: h}
	}
	return issues
}

// readSource builds the workbook-file model from an excelize file. A sheet
// that cannot be read is reported and skipped.
func readSource(f *excelize.File, o *Options) (*SourceWorkbook, []ConversionIssue) {
	src := &SourceWorkbook{}
	var issues []ConversionIssue
	for _, name := range f.GetSheetList() {
		ss, err := readSheet(f, name)
		if err != nil {
			o.logger.Warn("skipping unreadable sheet", zap.String("sheet", name), zap.Error(err))
			issues = append(issues, ConversionIssue{Sheet: name, Err: err})
			continue
		}
		src.Sheets = append(src.Sheets, *ss)
	}
	return src, issues
}

func readSheet(f *excelize.File, sheet string) (*SourceSheet, error) {
	ss := &SourceSheet{
		Name:         sheet,
		ColumnWidths: make(map[int]float64),
		RowHeights:   make(map[int]float64),
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
	}

	styles := make(map[int]*excelize.Style)
	maxCols := 0
	for rowIdx, row := range rows {
		maxCols = max(maxCols, len(row))
		for colIdx, val := range row {
			name := EncodeAddress(CellAddress{Row: rowIdx, Col: colIdx})
			raw := RawCell{Row: rowIdx, Col: colIdx}

			if id, err := f.GetCellStyle(sheet, name); err == nil && id != 0 {
				xs, ok := styles[id]
				if !ok {
					xs, _ = f.GetStyle(id)
					styles[id] = xs
				}
				raw.Style = xs
			}

			if ok, target, err := f.GetCellHyperLink(sheet, name); err == nil && ok {
				raw.Hyperlink = &HyperlinkValue{URL: target, Display: val}
			}
			cellType, _ := f.GetCellType(sheet, name)
			formula, _ := f.GetCellFormula(sheet, name)
			if formula == "" && val == "" && raw.Style == nil && raw.Hyperlink == nil {
				continue
			}
			if formula != "" {
				raw.Formula = &FormulaValue{Expr: formula, Result: typedValue(cellType, val, raw.Style)}
			}
			if cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
				if runs, err := f.GetCellRichText(sheet, name); err == nil {
					for _, run := range runs {
						raw.RichText = append(raw.RichText, RichTextRun{Text: run.Text})
					}
				}
			}
			if cellType == excelize.CellTypeError {
				raw.Error = ErrorCode(val)
			}
			raw.Value = typedValue(cellType, val, raw.Style)
			ss.Cells = append(ss.Cells, raw)
		}
	}

	merges, err := f.GetMergeCells(sheet)
	if err == nil {
		for _, mc := range merges {
			if len(mc) > 0 {
				ss.Merges = append(ss.Merges, mc[0])
			}
		}
	}

	// Only sizes that differ from the sheet default are recorded.
	defWidth, _ := f.GetColWidth(sheet, "XFD")
	for c := 0; c < maxCols; c++ {
		if w, err := f.GetColWidth(sheet, ColToName(c)); err == nil && w != defWidth {
			ss.ColumnWidths[c] = w
		}
	}
	defHeight, _ := f.GetRowHeight(sheet, excelize.TotalRows)
	for r := range rows {
		if h, err := f.GetRowHeight(sheet, r+1); err == nil && h != defHeight {
			ss.RowHeights[r] = h
		}
	}
	return ss, nil
}

// typedValue turns a raw cell string into a typed Go value according to the
// cell's stored type. Date-formatted numbers become time.Time.
func typedValue(t excelize.CellType, val string, xs *excelize.Style) any {
	if val == "" {
		return nil
	}
	switch t {
	case excelize.CellTypeBool:
		return val == "1" || strings.EqualFold(val, "true")
	case excelize.CellTypeError:
		return ErrorCode(val)
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return val
		}
		if isDateFormat(xs) {
			if tm, err := excelize.ExcelDateToTime(n, false); err == nil {
				return tm
			}
		}
		return n
	default:
		return val
	}
}

// isDateFormat reports whether a style's number format renders a date.
func isDateFormat(xs *excelize.Style) bool {
	if xs == nil {
		return false
	}
	if xs.CustomNumFmt != nil {
		return isDateFormatCode(*xs.CustomNumFmt)
	}
	n := xs.NumFmt
	return (n >= 14 && n <= 22) || (n >= 27 && n <= 36) || (n >= 45 && n <= 47) || (n >= 50 && n <= 58)
}

// isDateFormatCode reports whether a number format code renders a date or a
// time. Colours, quoted literals and escapes are tokenized by nfp and never
// count.
func isDateFormatCode(code string) bool {
	p := nfp.NumberFormatParser()
	for _, section := range p.Parse(code) {
		for _, tok := range section.Items {
			if tok.TType == nfp.TokenTypeDateTimes || tok.TType == nfp.TokenTypeElapsedDateTimes {
				return true
			}
		}
	}
	return false
}
