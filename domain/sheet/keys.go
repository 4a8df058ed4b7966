package sheet

import "strings"

// KeyFieldSpec is the ordered list of field identifiers forming a row's
// business key. Identifiers are header names or positional names (col-N).
type KeyFieldSpec []string

// KeyColumnMap is a KeyFieldSpec resolved against one document's header row.
// Resolution may be partial; unresolved fields are absent from Columns.
type KeyColumnMap struct {
	Fields  KeyFieldSpec
	Columns map[string]int
}

// Column returns the resolved column of field
func (m KeyColumnMap) Column(field string) (int, bool) {
	c, ok := m.Columns[field]
	return c, ok
}

// HasAllKeys reports whether every requested field resolved
func (m KeyColumnMap) HasAllKeys() bool {
	if len(m.Fields) == 0 {
		return false
	}
	for _, f := range m.Fields {
		if _, ok := m.Columns[f]; !ok {
			return false
		}
	}
	return true
}

// ColumnSet returns the resolved key columns
func (m KeyColumnMap) ColumnSet() map[int]bool {
	set := make(map[int]bool, len(m.Columns))
	for _, c := range m.Columns {
		set[c] = true
	}
	return set
}

// Missing lists the fields that did not resolve, in field order
func (m KeyColumnMap) Missing() []string {
	var out []string
	for _, f := range m.Fields {
		if _, ok := m.Columns[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// RowKey returns the key tuple of row. ok is false when the map is not fully
// resolved or any key cell is empty.
func (m KeyColumnMap) RowKey(d *Document, row int) (RowKey, bool) {
	if !m.HasAllKeys() {
		return nil, false
	}
	key := make(RowKey, len(m.Fields))
	for i, f := range m.Fields {
		key[i] = d.Cell(row, m.Columns[f])
	}
	return key, key.Complete()
}

// RowKey is the ordered tuple of key-field values of one row
type RowKey []Value

// Complete reports whether every component is non-empty
func (k RowKey) Complete() bool {
	if len(k) == 0 {
		return false
	}
	for _, v := range k {
		if v.IsEmpty() {
			return false
		}
	}
	return true
}

// Encode returns a map-key form of k; equal encodings mean equal tuples
func (k RowKey) Encode() string {
	var b strings.Builder
	for i, v := range k {
		if i > 0 {
			b.WriteByte(0x1e)
		}
		v.appendKey(&b)
	}
	return b.String()
}

// String renders the tuple for humans, e.g. (1, 100, P1)
func (k RowKey) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
