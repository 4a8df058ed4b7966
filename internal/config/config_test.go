package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetdiff/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "./results", cfg.Server.ResultsDir)
	assert.Equal(t, int64(100<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 2, cfg.Server.MaxConcurrent)
	assert.Equal(t, 5*time.Minute, cfg.Server.CompareTimeout)
	assert.Equal(t, 3, cfg.Compare.HeaderRow)
	assert.True(t, cfg.Compare.ReadOnly)
	assert.False(t, cfg.Compare.StrictKeys)
	assert.Equal(t, PaletteConfig{Changed: "FFFF00", Removed: "00FF00", Added: "FF0000"}, cfg.Palette)
	assert.Empty(t, cfg.History.Driver)
	assert.False(t, cfg.Profiling.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("HEADER_ROW", "1")
	t.Setenv("KEY_FIELDS", "1-3")
	t.Setenv("COMPARE_TIMEOUT", "90s")
	t.Setenv("HISTORY_DRIVER", "sqlite3")
	t.Setenv("HISTORY_DSN", "file:history.db")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 1, cfg.Compare.HeaderRow)
	assert.Equal(t, "1-3", cfg.Compare.KeyFields)
	assert.Equal(t, 90*time.Second, cfg.Server.CompareTimeout)
	assert.Equal(t, "sqlite3", cfg.History.Driver)
}

func TestLoadCollectsProblems(t *testing.T) {
	t.Setenv("HEADER_ROW", "zero")
	t.Setenv("MAX_CONCURRENT_COMPARISONS", "0")
	t.Setenv("HISTORY_DRIVER", "mysql")
	t.Setenv("READ_ONLY_OUTPUTS", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	for _, key := range []string{"HEADER_ROW", "MAX_CONCURRENT_COMPARISONS", "HISTORY_DRIVER", "READ_ONLY_OUTPUTS"} {
		assert.Contains(t, err.Error(), key)
	}
}
