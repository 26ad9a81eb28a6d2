// Package stlog is a logging façade layered on log/slog that persists
// every emitted record to a relational database and falls back to a
// stream (stderr by default) whenever persistence is unavailable.
//
// Example usage:
//
//	if err := stlog.Init("", "/tmp/test.db", stlog.WithFlavor("sqlite")); err != nil {
//		// configuration errors are the only failures that surface
//	}
//	defer stlog.Close()
//
//	logger := stlog.GetLogger(stlog.LevelDebug)
//	logger.Debug("some debug message")
//	logger.Warn("some warning")
//	logger.Error("some error message", "err", err)
//	stlog.Critical(logger, "some critical error message")
//
// After a successful Init a logging call has exactly two possible
// outcomes: the record is durably stored, or a correspondingly formatted
// line appears on the fallback stream. Instrumentation never raises into
// caller code.
package stlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/roach88/stlog/internal/dburl"
	"github.com/roach88/stlog/internal/handler"
	"github.com/roach88/stlog/internal/record"
	"github.com/roach88/stlog/internal/store"
)

// Severity levels, ordered DEBUG < INFO < WARNING < ERROR < CRITICAL.
// These are plain slog levels; CRITICAL sits four steps above ERROR.
const (
	LevelDebug    = slog.LevelDebug
	LevelInfo     = slog.LevelInfo
	LevelWarning  = slog.LevelWarn
	LevelError    = slog.LevelError
	LevelCritical = record.LevelCritical
)

// DefaultLoggerName is the logger name used by the package-level façade.
const DefaultLoggerName = "stlog"

// Critical emits msg at CRITICAL severity. slog has no Critical method of
// its own, so the façade provides the call.
func Critical(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelCritical, msg, args...)
}

// Config describes one storage binding.
type Config struct {
	// Server is the database host. Ignored by file-based flavors.
	Server string

	// Database is the database name, or the file path for file-based
	// flavors.
	Database string

	// Username and Password may be left empty for client-server flavors;
	// they are then resolved from the environment and the per-user
	// credentials file (see the dburl package).
	Username string
	Password string

	// Flavor selects the backend. Defaults to "mssql"; "sqlite" is the
	// bundled file-based backend.
	Flavor string

	// Port of the database server. Zero means the backend default.
	Port int

	// Format overrides the render format string. Defaults to $STLOG_FMT,
	// then the built-in format.
	Format string

	// Fallback receives rendered lines when persistence fails.
	// Defaults to os.Stderr.
	Fallback io.Writer

	// Hostname overrides the machine name recorded on entries.
	// If empty, each record derives it from os.Hostname.
	Hostname string

	// Clock allows overriding the record timestamp source (for testing).
	// If nil, defaults to time.Now.
	Clock func() time.Time
}

// Option mutates a Config built by Init.
type Option func(*Config)

// WithUsername sets an explicit database username.
func WithUsername(username string) Option {
	return func(c *Config) { c.Username = username }
}

// WithPassword sets an explicit database password, bypassing the
// credentials file.
func WithPassword(password string) Option {
	return func(c *Config) { c.Password = password }
}

// WithFlavor selects the backend flavor.
func WithFlavor(flavor string) Option {
	return func(c *Config) { c.Flavor = flavor }
}

// WithPort sets the database server port.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithFormat overrides the render format string.
func WithFormat(format string) Option {
	return func(c *Config) { c.Format = format }
}

// WithFallback directs fallback output somewhere other than stderr.
func WithFallback(w io.Writer) Option {
	return func(c *Config) { c.Fallback = w }
}

// Binding ties loggers to one storage backend. It owns the connection
// handle and every handler created through it, and releases both on
// Close. A Binding is safe for concurrent use.
type Binding struct {
	st       *store.Store
	fallback io.Writer
	hostname string
	clock    func() time.Time

	mu      sync.Mutex
	tmpl    *record.Template
	loggers map[string]*loggerEntry

	closeOnce sync.Once
	closeErr  error
}

type loggerEntry struct {
	logger  *slog.Logger
	level   *slog.LevelVar
	handler *handler.DBHandler
}

// Open resolves credentials, builds the connection string for the
// configured flavor, connects, and (for file-based backends) creates the
// schema if the database file does not already exist.
//
// All failures are configuration errors: they surface synchronously here
// and nowhere else. See dburl.IsConfigError.
func Open(cfg Config) (*Binding, error) {
	flavor := cfg.Flavor
	if flavor == "" {
		flavor = dburl.DefaultFlavor
	}

	username, password := cfg.Username, cfg.Password
	if flavor != dburl.FlavorSQLite {
		var err error
		if username == "" {
			if username, err = dburl.ResolveUsername(); err != nil {
				return nil, err
			}
		}
		if password == "" {
			if password, err = dburl.LookupPassword(cfg.Server, username); err != nil {
				return nil, err
			}
		}
	}

	connStr, err := dburl.Build(flavor, username, password, cfg.Server, cfg.Port, cfg.Database)
	if err != nil {
		return nil, err
	}
	target, err := dburl.Parse(connStr)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(target)
	if err != nil {
		return nil, &dburl.ConfigError{Msg: "open storage backend", Err: err}
	}

	b, err := newBinding(st, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	return b, nil
}

func newBinding(st *store.Store, cfg Config) (*Binding, error) {
	format := cfg.Format
	if format == "" {
		format = record.EnvFormat()
	}
	tmpl, err := record.NewTemplate(format)
	if err != nil {
		return nil, &dburl.ConfigError{Msg: "parse render format", Err: err}
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = os.Stderr
	}
	return &Binding{
		st:       st,
		fallback: fallback,
		hostname: cfg.Hostname,
		clock:    cfg.Clock,
		tmpl:     tmpl,
		loggers:  make(map[string]*loggerEntry),
	}, nil
}

// Logger returns the named logger backed by this binding, creating it on
// first use. Acquisition is idempotent: a repeat call for the same name
// returns the existing logger, updates its minimum level in place, and
// never attaches a second handler, so a record is emitted exactly once.
func (b *Binding) Logger(name string, level slog.Level) *slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if le, ok := b.loggers[name]; ok {
		le.level.Set(level)
		return le.logger
	}

	lv := new(slog.LevelVar)
	lv.Set(level)
	h := handler.New(b.st, handler.Options{
		Name:     name,
		Level:    lv,
		Template: b.tmpl,
		Fallback: b.fallback,
		Hostname: b.hostname,
		Now:      b.clock,
	})
	le := &loggerEntry{logger: slog.New(h), level: lv, handler: h}
	b.loggers[name] = le
	return le.logger
}

// SetFormat re-parses the render format and applies it to every logger of
// the binding. Primary and fallback rendering change together.
func (b *Binding) SetFormat(format string) error {
	tmpl, err := record.NewTemplate(format)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tmpl = tmpl
	for _, le := range b.loggers {
		le.handler.SetTemplate(tmpl)
	}
	return nil
}

// Store exposes the binding's connection handle for inspection tooling.
func (b *Binding) Store() *store.Store {
	return b.st
}

// Close releases every handler and the storage session. Idempotent;
// records emitted after Close take the fallback path.
func (b *Binding) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, le := range b.loggers {
			_ = le.handler.Close()
		}
		b.closeErr = b.st.Close()
	})
	return b.closeErr
}

// The process-wide default binding behind Init/GetLogger/Close. Kept as a
// thin convenience over explicit Binding objects; code that needs more
// than one backend, or dependency injection, should use Open directly.
var (
	defaultMu      sync.Mutex
	defaultBinding *Binding
	detached       *Binding
)

// Init establishes the process-wide storage binding used by GetLogger.
// It fails with a configuration error when credentials cannot be
// resolved; for file-based backends it creates the schema if the target
// file does not already exist. A repeat Init closes the previous binding
// before installing the new one.
func Init(server, database string, opts ...Option) error {
	cfg := Config{Server: server, Database: database}
	for _, opt := range opts {
		opt(&cfg)
	}
	b, err := Open(cfg)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBinding != nil {
		_ = defaultBinding.Close()
	}
	defaultBinding = b
	return nil
}

// GetLogger returns the default binding's logger with the given minimum
// severity. Before a successful Init it returns a logger whose records
// all take the fallback stream path; it never fails and never panics.
func GetLogger(level slog.Level) *slog.Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBinding != nil {
		return defaultBinding.Logger(DefaultLoggerName, level)
	}
	if detached == nil {
		d, err := newBinding(nil, Config{})
		if err != nil {
			// A malformed $STLOG_FMT must not break logging; fall back
			// to the built-in format, which always parses.
			d, _ = newBinding(nil, Config{Format: record.DefaultFormat})
		}
		detached = d
	}
	return detached.Logger(DefaultLoggerName, level)
}

// Close releases the default binding established by Init. Idempotent.
func Close() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBinding == nil {
		return nil
	}
	err := defaultBinding.Close()
	defaultBinding = nil
	return err
}
