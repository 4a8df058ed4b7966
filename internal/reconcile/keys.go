// Package reconcile matches rows and columns of a baseline and a candidate
// document and annotates the differences it finds.
package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
)

// MaxDefaultKeys is how many leading header columns form the default key
const MaxDefaultKeys = 3

// ColumnName returns the positional identifier of column n
func ColumnName(n int) string {
	return "col-" + strconv.Itoa(n)
}

// ParseColumnName interprets a field identifier as a literal column number.
// Accepted forms are "col-N", "列N" and "N".
func ParseColumnName(field string) (int, bool) {
	s := strings.TrimSpace(field)
	switch {
	case strings.HasPrefix(strings.ToLower(s), "col-"):
		s = s[len("col-"):]
	case strings.HasPrefix(s, "列"):
		s = strings.TrimPrefix(s, "列")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// DefaultKeyFields derives the key fields used when none are configured: the
// trimmed header names of the first columns, or their positional identifiers
// when any of those headers is blank.
func DefaultKeyFields(doc *sheet.Document) sheet.KeyFieldSpec {
	n := min(MaxDefaultKeys, doc.MaxCol)
	names := make(sheet.KeyFieldSpec, 0, n)
	for c := 1; c <= n; c++ {
		if name := doc.HeaderName(c); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == n {
		return names
	}
	positional := make(sheet.KeyFieldSpec, n)
	for c := 1; c <= n; c++ {
		positional[c-1] = ColumnName(c)
	}
	return positional
}

// ResolveKeys maps each field to a column of doc's header row. Header names
// win over column numbers; when a name repeats, the later column is used.
// Unresolvable fields are left out of the result.
func ResolveKeys(doc *sheet.Document, fields sheet.KeyFieldSpec) sheet.KeyColumnMap {
	byName := make(map[string]int, doc.MaxCol)
	for c := 1; c <= doc.MaxCol; c++ {
		if name := doc.HeaderName(c); name != "" {
			byName[name] = c
		}
	}

	out := sheet.KeyColumnMap{
		Fields:  append(sheet.KeyFieldSpec(nil), fields...),
		Columns: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if c, ok := byName[f]; ok {
			out.Columns[f] = c
			continue
		}
		if c, ok := ParseColumnName(f); ok && c <= doc.MaxCol {
			out.Columns[f] = c
		}
	}
	return out
}

// ParseKeyFields reads a user-supplied key list such as "1-3", "1 2 5" or
// "Dept, Contract No". Numeric parts become positional identifiers, sorted
// and deduplicated ahead of any header names.
func ParseKeyFields(s string) (sheet.KeyFieldSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return nil, nil
	}

	cols := make(map[int]bool)
	var names sheet.KeyFieldSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !isNumericPart(part) {
			names = append(names, part)
			continue
		}
		for _, tok := range strings.Fields(part) {
			lo, hi, err := parseRange(tok)
			if err != nil {
				return nil, err
			}
			for c := lo; c <= hi; c++ {
				cols[c] = true
			}
		}
	}

	ordered := make([]int, 0, len(cols))
	for c := range cols {
		ordered = append(ordered, c)
	}
	sort.Ints(ordered)

	out := make(sheet.KeyFieldSpec, 0, len(ordered)+len(names))
	for _, c := range ordered {
		out = append(out, ColumnName(c))
	}
	return append(out, names...), nil
}

// isNumericPart reports whether every token of part starts with a digit
func isNumericPart(part string) bool {
	for _, tok := range strings.Fields(part) {
		if !unicode.IsDigit(rune(tok[0])) {
			return false
		}
	}
	return true
}

func parseRange(tok string) (int, int, error) {
	lo, hi, isRange := strings.Cut(tok, "-")
	if !isRange {
		hi = lo
	}
	a, errA := strconv.Atoi(lo)
	b, errB := strconv.Atoi(hi)
	if errA != nil || errB != nil {
		return 0, 0, errors.InvalidInput(fmt.Sprintf("invalid key column %q", tok))
	}
	if a < 1 || b < a {
		return 0, 0, errors.InvalidInput(fmt.Sprintf("invalid key column range %q", tok))
	}
	return a, b, nil
}
