package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
	"sheetdiff/internal/testkit"
)

func TestParseColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"col-3", 3, true},
		{"COL-12", 12, true},
		{"列2", 2, true},
		{"7", 7, true},
		{"0", 0, false},
		{"Qty", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseColumnName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseKeyFields(t *testing.T) {
	spec, err := ParseKeyFields("3, 1-2 2, Product Name")
	require.NoError(t, err)
	assert.Equal(t, sheet.KeyFieldSpec{"col-1", "col-2", "col-3", "Product Name"}, spec)

	spec, err = ParseKeyFields("  ")
	require.NoError(t, err)
	assert.Nil(t, spec)

	spec, err = ParseKeyFields("auto")
	require.NoError(t, err)
	assert.Nil(t, spec)

	for _, bad := range []string{"5-2", "3-x", "0"} {
		_, err := ParseKeyFields(bad)
		assert.True(t, errors.HasCode(err, errors.CodeInvalidInput), bad)
	}
}

func TestDefaultKeyFields(t *testing.T) {
	named := testkit.NewDocument("a", 3, testkit.Titled([]any{" Dept ", "Contract", "Product", "Qty"}))
	assert.Equal(t, sheet.KeyFieldSpec{"Dept", "Contract", "Product"}, DefaultKeyFields(named))

	blank := testkit.NewDocument("b", 3, testkit.Titled([]any{"Dept", nil, "Product", "Qty"}))
	assert.Equal(t, sheet.KeyFieldSpec{"col-1", "col-2", "col-3"}, DefaultKeyFields(blank))

	narrow := testkit.NewDocument("c", 1, [][]any{{"ID", "Name"}})
	assert.Equal(t, sheet.KeyFieldSpec{"ID", "Name"}, DefaultKeyFields(narrow))
}

func TestResolveKeys(t *testing.T) {
	doc := testkit.NewDocument("a", 1, [][]any{{"ID", "Name", "ID", "Qty"}, {1, "x", 2, 5}})

	m := ResolveKeys(doc, sheet.KeyFieldSpec{"ID", "col-2"})
	require.True(t, m.HasAllKeys())
	assert.Equal(t, 3, m.Columns["ID"], "later duplicate header wins")
	assert.Equal(t, 2, m.Columns["col-2"])

	m = ResolveKeys(doc, sheet.KeyFieldSpec{"ID", "Missing", "col-9"})
	assert.False(t, m.HasAllKeys())
	assert.Equal(t, []string{"Missing", "col-9"}, m.Missing())

	m = ResolveKeys(doc, sheet.KeyFieldSpec{"4"})
	assert.Equal(t, 4, m.Columns["4"])
}
