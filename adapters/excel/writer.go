package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sheetdiff/domain/run"
	"sheetdiff/domain/sheet"
	"sheetdiff/internal"
	"sheetdiff/internal/errors"
	"sheetdiff/ports"
)

var _ ports.WorkbookWriter = (*DataWriter)(nil)

// DataWriter persists annotated documents and the diff document as xlsx
type DataWriter struct {
	config Config
	logger *internal.Logger
}

// NewDataWriter creates a writer
func NewDataWriter(config Config, logger *internal.Logger) *DataWriter {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	config.Palette = config.Palette.Normalize()
	return &DataWriter{config: config, logger: logger}
}

// WriteAnnotated writes a copy of doc's source with annotation fills applied
func (w *DataWriter) WriteAnnotated(ctx context.Context, doc *sheet.Document, dst run.Destination) error {
	if err := errors.CheckContext(ctx, "saving"); err != nil {
		return err
	}
	f, err := w.annotatedWorkbook(doc)
	if err != nil {
		return errors.SaveError(dst.String(), err)
	}
	defer f.Close()
	return w.save(f, dst)
}

// WriteDiff builds the diff document from the annotated baseline: the sheet is
// renamed, planned rows are inserted with the template row's formatting and
// the added fill, and baseline column widths and row heights are carried over.
func (w *DataWriter) WriteDiff(ctx context.Context, baseline *sheet.Document, plan *sheet.DiffPlan, dst run.Destination) error {
	if err := errors.CheckContext(ctx, "diff synthesis"); err != nil {
		return err
	}
	f, err := w.annotatedWorkbook(baseline)
	if err != nil {
		return errors.SaveError(dst.String(), err)
	}
	defer f.Close()

	if err := w.applyPlan(ctx, f, baseline, plan); err != nil {
		if errors.HasCode(err, errors.CodeCancelled) {
			return err
		}
		return errors.SaveError(dst.String(), err)
	}
	return w.save(f, dst)
}

func (w *DataWriter) applyPlan(ctx context.Context, f *excelize.File, baseline *sheet.Document, plan *sheet.DiffPlan) error {
	sheetName := baseline.SheetName

	// Template styles are read before any insertion moves the template row.
	templateStyles := make([]int, plan.Columns+1)
	templateHeight, hasTemplateHeight := 0.0, false
	if plan.TemplateRow > 0 {
		for col := 1; col <= plan.Columns; col++ {
			cell, err := excelize.CoordinatesToCellName(col, plan.TemplateRow)
			if err != nil {
				return err
			}
			if templateStyles[col], err = f.GetCellStyle(sheetName, cell); err != nil {
				return err
			}
		}
		templateHeight, hasTemplateHeight = baseline.RowHeights[plan.TemplateRow]
	}

	if plan.Title != "" && plan.Title != sheetName {
		if err := f.SetSheetName(sheetName, plan.Title); err != nil {
			return err
		}
		sheetName = plan.Title
	}
	paint := newPainter(f, sheetName, w.config.Palette)

	for _, ins := range plan.Insertions {
		if err := errors.CheckContext(ctx, "diff synthesis"); err != nil {
			return err
		}
		if err := f.InsertRows(sheetName, ins.At, 1); err != nil {
			return err
		}
		for col := 1; col <= plan.Columns; col++ {
			cell, err := excelize.CoordinatesToCellName(col, ins.At)
			if err != nil {
				return err
			}
			if err := paint.paintWith(cell, templateStyles[col], sheet.Added); err != nil {
				return err
			}
			if v, ok := ins.Values[col]; ok {
				if err := f.SetCellValue(sheetName, cell, cellInput(v)); err != nil {
					return err
				}
			}
		}
	}

	for col, width := range baseline.ColumnWidths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return err
		}
	}
	for i, origin := range plan.Rows {
		height, ok := baseline.RowHeights[origin.Baseline]
		if origin.Inserted() {
			height, ok = templateHeight, hasTemplateHeight
		}
		if !ok {
			continue
		}
		if err := f.SetRowHeight(sheetName, i+1, height); err != nil {
			return err
		}
	}
	return nil
}

// annotatedWorkbook opens a fresh copy of doc's source and paints its annotations
func (w *DataWriter) annotatedWorkbook(doc *sheet.Document) (*excelize.File, error) {
	var f *excelize.File
	if doc.Format == sheet.FormatCSV || len(doc.Raw) == 0 {
		var err error
		if f, err = w.workbookFromGrid(doc); err != nil {
			return nil, err
		}
	} else {
		var err error
		if f, err = excelize.OpenReader(bytes.NewReader(doc.Raw)); err != nil {
			return nil, err
		}
	}
	if err := newPainter(f, doc.SheetName, w.config.Palette).paintDocument(doc); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// workbookFromGrid synthesizes a workbook for sources that carry no
// spreadsheet formatting
func (w *DataWriter) workbookFromGrid(doc *sheet.Document) (*excelize.File, error) {
	f := excelize.NewFile()
	if doc.SheetName == "" {
		doc.SheetName = w.config.CSVSheetName
	}
	if doc.SheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", doc.SheetName); err != nil {
			f.Close()
			return nil, err
		}
	}
	for row := 1; row <= doc.MaxRow; row++ {
		for col := 1; col <= doc.MaxCol; col++ {
			v := doc.Cell(row, col)
			if v.IsEmpty() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(doc.SheetName, cell, cellInput(v)); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func (w *DataWriter) save(f *excelize.File, dst run.Destination) error {
	if dst.Path != "" {
		if err := os.MkdirAll(filepath.Dir(dst.Path), 0o755); err != nil {
			return errors.SaveError(dst.Path, err)
		}
		// SaveAs rejects paths without a workbook extension
		file, err := os.Create(dst.Path)
		if err != nil {
			return errors.SaveError(dst.Path, err)
		}
		_, err = f.WriteTo(file)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst.Path)
			return errors.SaveError(dst.Path, err)
		}
		w.logger.Debug("[DataWriter] saved %s", dst.Path)
		return nil
	}
	if dst.Writer == nil {
		return errors.SaveError(dst.String(), errors.InvalidInput("no destination"))
	}
	if _, err := f.WriteTo(dst.Writer); err != nil {
		return errors.SaveError(dst.String(), err)
	}
	return nil
}
