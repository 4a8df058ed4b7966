package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetdiff/domain/run"
	"sheetdiff/domain/sheet"
	"sheetdiff/internal"
	"sheetdiff/internal/errors"
	"sheetdiff/ports"
)

var utf8BOM = []byte("\ufeff")

var _ ports.WorkbookLoader = (*DataReader)(nil)

// DataReader loads xlsx and csv sources into documents
type DataReader struct {
	config  Config
	coercer *CellCoercer
	logger  *internal.Logger
}

// NewDataReader creates a reader
func NewDataReader(config Config, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &DataReader{config: config, coercer: NewCellCoercer(), logger: logger}
}

// FormatOf guesses a source's encoding from its name
func FormatOf(name string) sheet.Format {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return sheet.FormatCSV
	}
	return sheet.FormatXLSX
}

// readSource returns all bytes of src
func readSource(src run.Source) ([]byte, error) {
	if src.Reader != nil {
		raw, err := io.ReadAll(src.Reader)
		if err != nil {
			return nil, errors.LoadError(src.DisplayName(), err)
		}
		return raw, nil
	}
	if src.Path == "" {
		return nil, errors.NotFound("document source")
	}
	raw, err := os.ReadFile(src.Path)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil, errors.NotFound(src.Path)
		}
		return nil, errors.LoadError(src.Path, err)
	}
	return raw, nil
}

func sourceFormat(src run.Source) sheet.Format {
	if src.Path != "" {
		return FormatOf(src.Path)
	}
	return FormatOf(src.Name)
}

// SheetNames lists the worksheets of src in workbook order
func (r *DataReader) SheetNames(ctx context.Context, src run.Source) ([]string, error) {
	if err := errors.CheckContext(ctx, "loading"); err != nil {
		return nil, err
	}
	raw, err := readSource(src)
	if err != nil {
		return nil, err
	}
	if sourceFormat(src) == sheet.FormatCSV {
		return []string{r.config.CSVSheetName}, nil
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.LoadError(src.DisplayName(), err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Load reads the computed values of one worksheet. An explicit sheet name
// must exist; otherwise the first sheet is used.
func (r *DataReader) Load(ctx context.Context, src run.Source, opts ports.LoadOptions) (*sheet.Document, error) {
	if err := errors.CheckContext(ctx, "loading"); err != nil {
		return nil, err
	}
	start := time.Now()
	raw, err := readSource(src)
	if err != nil {
		return nil, err
	}

	var doc *sheet.Document
	switch sourceFormat(src) {
	case sheet.FormatCSV:
		doc, err = r.loadCSV(ctx, src, raw, opts)
	default:
		doc, err = r.loadWorkbook(ctx, src, raw, opts)
	}
	if err != nil {
		return nil, err
	}
	if opts.HeaderRow > 0 {
		doc.HeaderRow = opts.HeaderRow
	}
	r.logger.Debug("[DataReader] %s sheet %q loaded in %.2fms (%d rows x %d columns)",
		doc.Name, doc.SheetName, float64(time.Since(start).Nanoseconds())/1e6, doc.MaxRow, doc.MaxCol)
	return doc, nil
}

func (r *DataReader) loadWorkbook(ctx context.Context, src run.Source, raw []byte, opts ports.LoadOptions) (*sheet.Document, error) {
	name := src.DisplayName()
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.LoadError(name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.LoadError(name, fmt.Errorf("workbook has no worksheets"))
	}
	target := sheets[0]
	if opts.SheetName != "" {
		if idx, _ := f.GetSheetIndex(opts.SheetName); idx < 0 {
			return nil, errors.SheetNotFound(opts.SheetName, name)
		}
		target = opts.SheetName
	}

	rows, err := f.GetRows(target, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.LoadError(name, err)
	}

	grid := sheet.NewGrid()
	for ri, row := range rows {
		if err := errors.CheckContext(ctx, "loading"); err != nil {
			return nil, err
		}
		for ci, text := range row {
			if text == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, errors.LoadError(name, err)
			}
			typ, err := f.GetCellType(target, cell)
			if err != nil {
				return nil, errors.LoadError(name, err)
			}
			grid.Set(ri+1, ci+1, r.coercer.FromWorkbook(text, typ))
		}
	}

	doc := sheet.NewDocument(name, grid)
	doc.SheetName = target
	doc.SheetNames = sheets
	doc.Format = sheet.FormatXLSX
	doc.Raw = raw
	if err := r.readDimensions(f, doc); err != nil {
		return nil, errors.LoadError(name, err)
	}
	return doc, nil
}

// readDimensions records column widths and row heights that differ from the
// sheet defaults
func (r *DataReader) readDimensions(f *excelize.File, doc *sheet.Document) error {
	lastCol, err := excelize.ColumnNumberToName(excelize.MaxColumns)
	if err != nil {
		return err
	}
	defaultWidth, err := f.GetColWidth(doc.SheetName, lastCol)
	if err != nil {
		return err
	}
	for c := 1; c <= doc.MaxCol; c++ {
		col, _ := excelize.ColumnNumberToName(c)
		w, err := f.GetColWidth(doc.SheetName, col)
		if err != nil {
			return err
		}
		if w != defaultWidth {
			doc.ColumnWidths[c] = w
		}
	}

	defaultHeight, err := f.GetRowHeight(doc.SheetName, excelize.TotalRows)
	if err != nil {
		return err
	}
	for row := 1; row <= doc.MaxRow; row++ {
		h, err := f.GetRowHeight(doc.SheetName, row)
		if err != nil {
			return err
		}
		if h != defaultHeight {
			doc.RowHeights[row] = h
		}
	}
	return nil
}

func (r *DataReader) loadCSV(ctx context.Context, src run.Source, raw []byte, opts ports.LoadOptions) (*sheet.Document, error) {
	name := src.DisplayName()
	if opts.SheetName != "" && opts.SheetName != r.config.CSVSheetName {
		return nil, errors.SheetNotFound(opts.SheetName, name)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	reader.Comma = r.config.CSVComma
	reader.FieldsPerRecord = -1

	grid := sheet.NewGrid()
	for row := 1; ; row++ {
		if err := errors.CheckContext(ctx, "loading"); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.LoadError(name, err)
		}
		for ci, field := range record {
			grid.Set(row, ci+1, r.coercer.FromText(field))
		}
	}

	doc := sheet.NewDocument(name, grid)
	doc.SheetName = r.config.CSVSheetName
	doc.SheetNames = []string{r.config.CSVSheetName}
	doc.Format = sheet.FormatCSV
	doc.Raw = raw
	return doc, nil
}
