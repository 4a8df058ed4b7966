// Package testkit builds documents and workbook fixtures for tests.
package testkit

import (
	"fmt"
	"time"

	"sheetdiff/domain/sheet"
)

// V converts a Go literal into a cell value. nil and "" are empty.
func V(x any) sheet.Value {
	switch v := x.(type) {
	case nil:
		return sheet.Empty()
	case sheet.Value:
		return v
	case string:
		return sheet.Text(v)
	case int:
		return sheet.Number(float64(v))
	case int64:
		return sheet.Number(float64(v))
	case float64:
		return sheet.Number(v)
	case bool:
		return sheet.Bool(v)
	case time.Time:
		return sheet.Date(v.Format("2006-01-02T15:04:05"))
	default:
		return sheet.Text(fmt.Sprint(v))
	}
}

// NewDocument builds a document whose row i+1 holds rows[i]
func NewDocument(name string, headerRow int, rows [][]any) *sheet.Document {
	g := sheet.NewGrid()
	for r, row := range rows {
		for c, x := range row {
			g.Set(r+1, c+1, V(x))
		}
	}
	doc := sheet.NewDocument(name, g)
	doc.SheetName = "Sheet1"
	doc.SheetNames = []string{"Sheet1"}
	doc.HeaderRow = headerRow
	return doc
}

// Titled prefixes data with the two title rows that put the header on row 3
func Titled(header []any, data ...[]any) [][]any {
	rows := [][]any{{"Sales margin report"}, {"generated for tests"}, header}
	return append(rows, data...)
}
