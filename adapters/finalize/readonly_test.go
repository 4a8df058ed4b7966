package finalize

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOnlyClearsWriteBits(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not reported on windows")
	}
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o664))

	require.NoError(t, New(true, nil).Finalize(context.Background(), []string{a, b}))

	for _, p := range []string{a, b} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Zero(t, info.Mode().Perm()&0o222, p)
		assert.NotZero(t, info.Mode().Perm()&0o444, p)
	}
}

func TestReadOnlyReportsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.xlsx")
	require.NoError(t, os.WriteFile(ok, []byte("x"), 0o644))

	err := New(true, nil).Finalize(context.Background(), []string{filepath.Join(dir, "missing.xlsx"), ok})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.xlsx")
}

func TestNopFinalizer(t *testing.T) {
	assert.IsType(t, Nop{}, New(false, nil))
	assert.NoError(t, Nop{}.Finalize(context.Background(), []string{"/does/not/exist"}))
}
