// Package sheet holds the in-memory model of one compared worksheet: typed
// cell values on a sparse 1-based grid, the document metadata needed to write
// it back, and the annotation layer the comparison engine fills in.
package sheet

import (
	"strconv"
	"strings"
)

// Kind classifies a cell value. Equality between values is kind-sensitive:
// the number 5 and the text "5" are different values.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "empty"
	}
}

// Value is a computed scalar cell value. It is comparable with ==.
type Value struct {
	Kind Kind
	Text string // text payload, or ISO-8601 form for dates
	Num  float64
	Bool bool
}

// Empty is the absent value
func Empty() Value { return Value{} }

// Text returns a text value; the empty string is treated as absent
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindText, Text: s}
}

// Number returns a numeric value
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Date returns a date value carried in its ISO-8601 text form
func Date(iso string) Value {
	if iso == "" {
		return Value{}
	}
	return Value{Kind: KindDate, Text: iso}
}

// IsEmpty reports whether the cell holds no value
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// Equal is exact, type-sensitive equality
func (v Value) Equal(o Value) bool { return v == o }

// String renders the value the way a spreadsheet would display it unformatted
func (v Value) String() string {
	switch v.Kind {
	case KindText, KindDate:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Interface returns the value as a Go scalar suitable for a spreadsheet writer
func (v Value) Interface() any {
	switch v.Kind {
	case KindText, KindDate:
		return v.Text
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}

// HeaderName is the trimmed display form used when a value names a column
func (v Value) HeaderName() string {
	return strings.TrimSpace(v.String())
}

// appendKey writes a kind-tagged encoding: equal encodings iff Equal values.
// Text is length-prefixed so no payload can imitate a field separator.
func (v Value) appendKey(b *strings.Builder) {
	b.WriteByte('0' + byte(v.Kind))
	b.WriteByte(':')
	switch v.Kind {
	case KindNumber:
		n := v.Num
		if n == 0 {
			n = 0 // -0 equals 0
		}
		b.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	default:
		b.WriteString(strconv.Itoa(len(v.Text)))
		b.WriteByte(':')
		b.WriteString(v.Text)
	}
}
