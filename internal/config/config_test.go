package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MinimalConfigGetsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`database: "/tmp/test.db"`), "test.cue")
	require.NoError(t, err)

	assert.Equal(t, "mssql", cfg.Flavor)
	assert.Equal(t, "", cfg.Server)
	assert.Equal(t, "/tmp/test.db", cfg.Database)
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, "DEBUG", cfg.Level)
}

func TestParse_FullConfig(t *testing.T) {
	src := `
flavor:   "sqlite"
database: "/var/log/app.db"
format:   "{{.Levelname}} {{.Message}}"
level:    "WARNING"
`
	cfg, err := Parse([]byte(src), "test.cue")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Flavor)
	assert.Equal(t, "/var/log/app.db", cfg.Database)
	assert.Equal(t, "{{.Levelname}} {{.Message}}", cfg.Format)

	level, err := cfg.MinLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestParse_RejectsUnknownFlavor(t *testing.T) {
	_, err := Parse([]byte(`
flavor:   "oracle"
database: "d"
`), "test.cue")
	assert.Error(t, err)
}

func TestParse_RejectsEmptyDatabase(t *testing.T) {
	_, err := Parse([]byte(`database: ""`), "test.cue")
	assert.Error(t, err)
}

func TestParse_RejectsMissingDatabase(t *testing.T) {
	_, err := Parse([]byte(`flavor: "sqlite"`), "test.cue")
	assert.Error(t, err)
}

func TestParse_RejectsBadPort(t *testing.T) {
	_, err := Parse([]byte(`
database: "d"
port:     70000
`), "test.cue")
	assert.Error(t, err)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`
database: "d"
verbose:  true
`), "test.cue")
	assert.Error(t, err)
}

func TestParse_RejectsBadLevel(t *testing.T) {
	_, err := Parse([]byte(`
database: "d"
level:    "LOUD"
`), "test.cue")
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stlog.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
flavor:   "sqlite"
database: "/tmp/test.db"
level:    "CRITICAL"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Flavor)
	assert.Equal(t, "CRITICAL", cfg.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}
