package excel

import (
	"fmt"
	"regexp"
	"strings"

	"sheetdiff/domain/sheet"
)

var hexColor = regexp.MustCompile(`^[0-9A-F]{6}$`)

// Palette holds the solid fill colors (RRGGBB) used for each annotation
type Palette struct {
	Changed string `json:"changed"`
	Removed string `json:"removed"`
	Added   string `json:"added"`
}

// DefaultPalette is yellow for changed cells, green for rows missing from the
// candidate and red for rows missing from the baseline
func DefaultPalette() Palette {
	return Palette{Changed: "FFFF00", Removed: "00FF00", Added: "FF0000"}
}

// Color returns the fill color for a, or "" for unchanged
func (p Palette) Color(a sheet.Annotation) string {
	switch a {
	case sheet.Changed:
		return p.Changed
	case sheet.Removed:
		return p.Removed
	case sheet.Added:
		return p.Added
	}
	return ""
}

// Normalize upper-cases colors and strips a leading '#'
func (p Palette) Normalize() Palette {
	clean := func(s string) string { return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#")) }
	return Palette{Changed: clean(p.Changed), Removed: clean(p.Removed), Added: clean(p.Added)}
}

// Validate checks that every color is six hex digits
func (p Palette) Validate() error {
	for name, c := range map[string]string{"changed": p.Changed, "removed": p.Removed, "added": p.Added} {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("%s color %q is not RRGGBB hex", name, c)
		}
	}
	return nil
}

// Config holds configuration for the workbook adapters
type Config struct {
	Palette Palette `json:"palette"`
	// CSVComma is the field delimiter for CSV sources
	CSVComma rune `json:"csv_comma"`
	// CSVSheetName names the worksheet synthesized for CSV sources
	CSVSheetName string `json:"csv_sheet_name"`
}

// DefaultConfig returns sensible defaults for workbook processing
func DefaultConfig() Config {
	return Config{
		Palette:      DefaultPalette(),
		CSVComma:     ',',
		CSVSheetName: "Sheet1",
	}
}
