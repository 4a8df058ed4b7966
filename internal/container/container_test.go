package container

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetdiff/adapters/memory"
	"sheetdiff/internal/config"
	"sheetdiff/internal/errors"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ResultsDir:      t.TempDir(),
			MaxUploadBytes:  1 << 20,
			MaxConcurrent:   1,
			CompareTimeout:  time.Minute,
			CORSAllowOrigin: "*",
		},
		Compare: config.CompareConfig{HeaderRow: 3, ReadOnly: true},
		Palette: config.PaletteConfig{Changed: "#ffff00", Removed: "00ff00", Added: "FF0000"},
		Logging: config.LoggingConfig{Level: "INFO", Format: "text"},
	}
}

func TestNewWithMemoryHistory(t *testing.T) {
	c, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	assert.Nil(t, c.DB)
	assert.IsType(t, &memory.RunRepository{}, c.History)
	assert.NotNil(t, c.CompareService)
	assert.NotNil(t, c.Server.Handler())
}

func TestNewWithSQLiteHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.History = config.HistoryConfig{Driver: "sqlite3", DSN: ":memory:"}

	c, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, c.DB)
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestNewRejectsBadPalette(t *testing.T) {
	cfg := testConfig(t)
	cfg.Palette.Added = "red"

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestExcelConfigNormalizesPalette(t *testing.T) {
	ec, err := ExcelConfig(testConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "FFFF00", ec.Palette.Changed)
	assert.Equal(t, "00FF00", ec.Palette.Removed)
}

func TestNewLoggerHonorsFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("hello %d", 1)
	assert.Contains(t, buf.String(), `"message":"hello 1"`)
}
