package xlbind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Export writes the workbook as xlsx to w.
func Export(book *Workbook, w io.Writer, opts ...Option) error {
	f, err := ExportFile(book, opts...)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportBytes returns the workbook as xlsx bytes.
func ExportBytes(book *Workbook, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(book, &buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFile builds an excelize file from the workbook. The caller closes it.
// Cells, formulas, merges and sizes are written exactly; styles are best
// effort (font, fill and alignment only).
func ExportFile(book *Workbook, opts ...Option) (*excelize.File, error) {
	if book == nil {
		return nil, fmt.Errorf("export: nil workbook")
	}
	o := buildOptions(opts)
	f := excelize.NewFile()
	ex := &exporter{file: f, opts: o, styleIDs: make(map[string]int)}

	sheets := book.OrderedSheets()
	names, renames := exportSheetNames(sheets)
	ex.renames = renames
	for i, sheet := range sheets {
		name := names[i]
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename first sheet to %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		ex.writeSheet(name, sheet)
	}
	return f, nil
}

type exporter struct {
	file     *excelize.File
	opts     *Options
	styleIDs map[string]int
	renames  map[string]string
}

// exportSheetNames picks a valid, unique xlsx name per sheet. Renames lists
// the sheets whose formulas references must follow; a name kept by one sheet
// is never renamed for another.
func exportSheetNames(sheets []*Sheet) ([]string, map[string]string) {
	used := make(map[string]bool)
	names := make([]string, len(sheets))
	renames := make(map[string]string)
	kept := make(map[string]bool)
	for i, sheet := range sheets {
		names[i] = uniqueSheetName(SafeSheetName(sheet.Name), used)
		if names[i] == sheet.Name {
			kept[sheet.Name] = true
			delete(renames, sheet.Name)
		} else if _, seen := renames[sheet.Name]; !seen && !kept[sheet.Name] {
			renames[sheet.Name] = names[i]
		}
	}
	return names, renames
}

func (ex *exporter) writeSheet(name string, sheet *Sheet) {
	f := ex.file
	log := ex.opts.logger.With(zap.String("sheet", name))

	for _, addr := range sheet.Addresses() {
		cell := sheet.Cell(addr)
		if cell == nil {
			continue
		}
		ref := addr.String()
		if cell.Value != nil {
			if err := f.SetCellValue(name, ref, exportValue(cell.Value)); err != nil {
				log.Warn("skipping cell value", zap.String("cell", ref), zap.Error(err))
			}
		}
		if cell.Formula != "" {
			if err := f.SetCellFormula(name, ref, RenameFormulaSheets(cell.Formula, ex.renames)); err != nil {
				log.Warn("skipping cell formula", zap.String("cell", ref), zap.Error(err))
			}
		}
		if ex.opts.exportStyles && cell.Style != nil {
			if id, ok := ex.styleID(cell.Style); ok {
				if err := f.SetCellStyle(name, ref, ref, id); err != nil {
					log.Warn("skipping cell style", zap.String("cell", ref), zap.Error(err))
				}
			}
		}
	}

	for _, m := range sheet.Merges {
		if err := f.MergeCell(name, EncodeAddress(m.Start()), EncodeAddress(m.End())); err != nil {
			log.Warn("skipping merge", zap.String("range", m.String()), zap.Error(err))
		}
	}

	for col, meta := range sheet.Columns {
		if meta.Width <= 0 {
			continue
		}
		c := ColToName(col)
		if err := f.SetColWidth(name, c, c, meta.Width/ex.opts.widthFactor); err != nil {
			log.Warn("skipping column width", zap.String("column", c), zap.Error(err))
		}
	}
	for row, meta := range sheet.Rows {
		if meta.Height <= 0 {
			continue
		}
		if err := f.SetRowHeight(name, row+1, meta.Height); err != nil {
			log.Warn("skipping row height", zap.Int("row", row+1), zap.Error(err))
		}
	}
}

// styleID registers a style once per distinct appearance.
func (ex *exporter) styleID(s *Style) (int, bool) {
	xs := excelizeStyle(s)
	if xs == nil {
		return 0, false
	}
	key, err := json.Marshal(s)
	if err != nil {
		return 0, false
	}
	if id, ok := ex.styleIDs[string(key)]; ok {
		return id, true
	}
	id, err := ex.file.NewStyle(xs)
	if err != nil {
		ex.opts.logger.Debug("style not exported", zap.Error(err))
		return 0, false
	}
	ex.styleIDs[string(key)] = id
	return id, true
}

// exportValue maps a scalar to the value excelize writes. excelize has no
// setter for error-typed cells, so error codes are written as their text and
// import back as KindText.
func exportValue(v *Scalar) any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	default:
		// KindText and KindError
		return v.Text
	}
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(name)
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[candidate] = true
	return candidate
}
