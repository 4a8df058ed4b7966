package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetdiff/internal/errors"
	"sheetdiff/internal/testkit"
)

var (
	header = []any{"Department", "Contract", "Product", "Qty"}
	rowA   = []any{"North", "C001", "P1", 10}
	rowB   = []any{"South", "C002", "P2", 20}
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HISTORY_DRIVER", "")
	t.Setenv("LOG_FORMAT", "text")
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCompareWritesOutputsAndSummary(t *testing.T) {
	base := testkit.WriteLedger(t, "may.xlsx", testkit.Titled(header, rowA, rowB))
	cand := testkit.WriteLedger(t, "june.xlsx", testkit.Titled(header, rowA, []any{"South", "C002", "P2", 22}))
	outDir := t.TempDir()

	stdout, stderr, err := execute(t, "compare", base, cand, "--out", outDir, "--read-only=false")
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "**may.xlsx** vs **june.xlsx**")
	assert.Contains(t, stdout, "| success | 1 | 0 | 0 |")
	assert.Contains(t, stdout, "- Key fields: Department, Contract, Product")
	assert.Contains(t, stderr, "load: baseline may.xlsx")

	matches, err := filepath.Glob(filepath.Join(outDir, "may_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	for _, m := range matches {
		info, err := os.Stat(m)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode().Perm()&0o200, "outputs stay writable")
	}
}

func TestCompareReportsFailure(t *testing.T) {
	base := testkit.WriteLedger(t, "may.xlsx", testkit.Titled(header, rowA))
	missing := filepath.Join(t.TempDir(), "absent.xlsx")

	stdout, _, err := execute(t, "compare", base, missing, "--out", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, stdout, "| failed |")
}

func TestCompareRejectsBadKeys(t *testing.T) {
	base := testkit.WriteLedger(t, "may.xlsx", testkit.Titled(header, rowA))
	_, _, err := execute(t, "compare", base, base, "--keys", "3-1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestKeysCommand(t *testing.T) {
	file := testkit.WriteLedger(t, "may.xlsx", testkit.Titled(header, rowA, rowB, rowA))

	stdout, _, err := execute(t, "keys", file, "--keys", "Department,Contract")
	require.NoError(t, err)
	assert.Contains(t, stdout, "column 1 (Department)")
	assert.Contains(t, stdout, "2 distinct keys, 1 duplicates")

	stdout, _, err = execute(t, "keys", file, "--keys", "Region")
	require.NoError(t, err)
	assert.Contains(t, stdout, "missing: Region")
}

func TestSheetsCommand(t *testing.T) {
	file := testkit.WriteWorkbook(t, "book.xlsx",
		testkit.WorkbookSheet{Name: "Data", Rows: testkit.Titled(header, rowA)},
		testkit.WorkbookSheet{Name: "Notes", Rows: [][]any{{"n/a"}}},
	)

	stdout, _, err := execute(t, "sheets", file)
	require.NoError(t, err)
	assert.Equal(t, "1\tData\n2\tNotes\n", stdout)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 130, exitCode(errors.Cancelled("load", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.InternalError("boom")))
}
