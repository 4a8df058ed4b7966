package excel

import (
	"github.com/xuri/excelize/v2"

	"sheetdiff/domain/sheet"
)

type styleKey struct {
	base       int
	annotation sheet.Annotation
}

// painter applies annotation fills on top of existing cell styles. Each
// (style, annotation) pair becomes one new style, created on first use.
type painter struct {
	f       *excelize.File
	sheet   string
	palette Palette
	cache   map[styleKey]int
}

func newPainter(f *excelize.File, sheetName string, palette Palette) *painter {
	return &painter{f: f, sheet: sheetName, palette: palette, cache: make(map[styleKey]int)}
}

// styleFor returns base with its fill replaced by the color of a
func (p *painter) styleFor(base int, a sheet.Annotation) (int, error) {
	key := styleKey{base: base, annotation: a}
	if id, ok := p.cache[key]; ok {
		return id, nil
	}
	style := &excelize.Style{}
	if base != 0 {
		existing, err := p.f.GetStyle(base)
		if err != nil {
			return 0, err
		}
		style = existing
	}
	style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{p.palette.Color(a)}}
	id, err := p.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	p.cache[key] = id
	return id, nil
}

// paintCell fills one cell, keeping its font, border, alignment and number format
func (p *painter) paintCell(row, col int, a sheet.Annotation) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	base, err := p.f.GetCellStyle(p.sheet, cell)
	if err != nil {
		return err
	}
	return p.paintWith(cell, base, a)
}

func (p *painter) paintWith(cell string, base int, a sheet.Annotation) error {
	id, err := p.styleFor(base, a)
	if err != nil {
		return err
	}
	return p.f.SetCellStyle(p.sheet, cell, cell, id)
}

// paintDocument applies every annotation of doc. Cell tags go first; row tags
// cover columns 1..MaxCol and take precedence.
func (p *painter) paintDocument(doc *sheet.Document) error {
	for _, ca := range doc.Annotations.CellTags() {
		if err := p.paintCell(ca.Row, ca.Col, ca.Annotation); err != nil {
			return err
		}
	}
	for _, a := range []sheet.Annotation{sheet.Removed, sheet.Added} {
		for _, row := range doc.Annotations.TaggedRows(a) {
			for col := 1; col <= doc.MaxCol; col++ {
				if err := p.paintCell(row, col, a); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
