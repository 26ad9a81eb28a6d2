// Package config loads stlog configuration files.
//
// Config files are CUE values validated against an embedded schema, so a
// typo'd flavor or an out-of-range port is rejected with a positioned
// error before any database is touched.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/stlog/internal/record"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded form of a validated config file.
type Config struct {
	Flavor   string `json:"flavor"`
	Server   string `json:"server"`
	Database string `json:"database"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Format   string `json:"format"`
	Level    string `json:"level"`
}

// MinLevel converts the configured level name to its slog level.
func (c *Config) MinLevel() (slog.Level, error) {
	return record.ParseLevel(c.Level)
}

// Load reads, validates and decodes a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates raw CUE config bytes against the embedded schema and
// decodes them. filename is used for error positions only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Config: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %s", filename, cueDetails(err))
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, fmt.Errorf("validate %s: %s", filename, cueDetails(err))
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %s", filename, cueDetails(err))
	}
	return &cfg, nil
}

// cueDetails renders a CUE error with file positions, one line per cause.
func cueDetails(err error) string {
	return cueerrors.Details(err, &cueerrors.Config{Cwd: "."})
}
