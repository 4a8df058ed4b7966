package testkit

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WorkbookSheet is one worksheet of a fixture workbook
type WorkbookSheet struct {
	Name string
	Rows [][]any
	// ColumnWidths and RowHeights are keyed by 1-based index
	ColumnWidths map[int]float64
	RowHeights   map[int]float64
	// Bold makes the given row bold, for checking that formatting survives
	Bold int
}

// WriteWorkbook creates an xlsx fixture in a temp dir and returns its path
func WriteWorkbook(t testing.TB, name string, sheets ...WorkbookSheet) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	f := excelize.NewFile()
	defer f.Close()
	for i, ws := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", ws.Name))
		} else {
			_, err := f.NewSheet(ws.Name)
			require.NoError(t, err)
		}
		for r, row := range ws.Rows {
			for c, x := range row {
				if x == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(ws.Name, cell, x))
			}
		}
		for c, w := range ws.ColumnWidths {
			col, err := excelize.ColumnNumberToName(c)
			require.NoError(t, err)
			require.NoError(t, f.SetColWidth(ws.Name, col, col, w))
		}
		for r, h := range ws.RowHeights {
			require.NoError(t, f.SetRowHeight(ws.Name, r, h))
		}
		if ws.Bold > 0 && len(ws.Rows) > 0 {
			style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
			require.NoError(t, err)
			last, err := excelize.CoordinatesToCellName(len(ws.Rows[ws.Bold-1]), ws.Bold)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStyle(ws.Name, "A"+strconv.Itoa(ws.Bold), last, style))
		}
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteLedger writes rows as a single-sheet workbook named Data
func WriteLedger(t testing.TB, name string, rows [][]any) string {
	t.Helper()
	return WriteWorkbook(t, name, WorkbookSheet{Name: "Data", Rows: rows})
}

// CellFill returns the first fill color of a cell in an xlsx file, "" if none
func CellFill(t testing.TB, path, sheetName, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellStyle(sheetName, cell)
	require.NoError(t, err)
	if id == 0 {
		return ""
	}
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	if len(style.Fill.Color) == 0 {
		return ""
	}
	color := strings.ToUpper(strings.TrimPrefix(style.Fill.Color[0], "#"))
	if len(color) == 8 {
		color = color[2:]
	}
	return color
}

// CellFont returns the font of a cell, nil if the cell has the default style
func CellFont(t testing.TB, path, sheetName, cell string) *excelize.Font {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellStyle(sheetName, cell)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	return style.Font
}

// SheetRows returns the formatted rows of a sheet
func SheetRows(t testing.TB, path, sheetName string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	return rows
}
