package excel

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetdiff/domain/sheet"
)

// CellCoercer turns raw cell text into typed values deterministically
type CellCoercer struct{}

// NewCellCoercer creates a coercer
func NewCellCoercer() *CellCoercer {
	return &CellCoercer{}
}

// FromWorkbook interprets a raw (unformatted) workbook value using the cell's
// stored type. Formulas are read through their cached result.
func (c *CellCoercer) FromWorkbook(raw string, typ excelize.CellType) sheet.Value {
	if raw == "" {
		return sheet.Empty()
	}
	switch typ {
	case excelize.CellTypeBool:
		return sheet.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		return sheet.Date(raw)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return sheet.Text(raw)
	default:
		if v, ok := c.parseNumber(raw); ok {
			return v
		}
		return sheet.Text(raw)
	}
}

// FromText interprets an untyped text field (CSV): number, then boolean,
// otherwise text kept verbatim
func (c *CellCoercer) FromText(raw string) sheet.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return sheet.Empty()
	}
	if v, ok := c.parseNumber(trimmed); ok {
		return v
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return sheet.Bool(true)
	case "false":
		return sheet.Bool(false)
	}
	return sheet.Text(raw)
}

func (c *CellCoercer) parseNumber(s string) (sheet.Value, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return sheet.Value{}, false
	}
	return sheet.Number(f), true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// cellInput converts a value into what excelize's SetCellValue expects
func cellInput(v sheet.Value) any {
	if v.Kind == sheet.KindDate {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v.Text); err == nil {
				return t
			}
		}
	}
	return v.Interface()
}
