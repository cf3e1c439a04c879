package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlbind"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  read_timeout: 5s
logger:
  level: debug
  format: console
import:
  min_rows: 80
  default_font_family: Calibri
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, "data/xlbind.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 80, cfg.Import.MinRows)
	assert.Equal(t, xlbind.DefaultMinColumns, cfg.Import.MinColumns)
	assert.Equal(t, xlbind.DefaultWidthFactor, cfg.Import.WidthFactor)
	assert.Equal(t, "Calibri", cfg.Import.DefaultFontFamily)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("XLBIND_SERVER_PORT", "9191")
	t.Setenv("XLBIND_DATABASE_PATH", "/tmp/override.db")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "logger:\n  format: xml\n"))
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = Load(writeConfig(t, "import:\n  width_factor: 0\n"))
	assert.ErrorContains(t, err, "width_factor")
}

func TestConfig_Options(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, cfg.Options(nil), 3)

	cfg.Import.DefaultFontFamily = "Calibri"
	assert.Len(t, cfg.Options(nil), 4)

	book := xlbind.NewBlankDocument(cfg.Options(nil)...).Snapshot()
	s := book.FirstSheet()
	assert.Equal(t, xlbind.DefaultMinRows, s.RowCount)
}
