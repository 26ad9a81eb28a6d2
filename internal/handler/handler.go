package handler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/stlog/internal/record"
	"github.com/roach88/stlog/internal/store"
)

// Process-wide constants for record identity. Go does not expose OS
// thread identity to handlers, so every record reports the goroutine
// pseudo-thread.
var (
	processStart = time.Now()
	processName  = filepath.Base(os.Args[0])
)

// Options configure a DBHandler. The zero value is usable: stderr
// fallback, DEBUG threshold, the environment-derived render format and
// wall-clock time.
type Options struct {
	// Name is the logger name recorded on every entry.
	Name string

	// Level is the minimum severity the handler emits.
	// Defaults to DEBUG.
	Level slog.Leveler

	// Template renders the fallback line. Defaults to a template parsed
	// from record.EnvFormat().
	Template *record.Template

	// Fallback receives rendered lines when persistence fails.
	// Defaults to os.Stderr.
	Fallback io.Writer

	// Hostname overrides the machine name derived at enrichment time.
	Hostname string

	// Now overrides the record timestamp source (for testing). When nil,
	// the slog record's own time is used.
	Now func() time.Time
}

// DBHandler is a slog.Handler that persists every record to a Store and
// degrades to a stream fallback when it cannot.
//
// Handle never returns an error for storage reasons: persistence failures
// are absorbed by the fallback path. The only error Handle can surface is
// a failed fallback-stream write, which follows ordinary stream-failure
// semantics.
type DBHandler struct {
	core   *core
	attrs  []slog.Attr
	groups []string
}

// core is shared by a handler and all of its WithAttrs/WithGroup clones,
// so SetTemplate and Close affect every clone at once.
type core struct {
	mu       sync.Mutex
	st       *store.Store
	tmpl     *record.Template
	fallback io.Writer

	name     string
	level    slog.Leveler
	hostname string
	now      func() time.Time
}

// New builds a handler bound to st. A nil st is legal: every record then
// takes the fallback path, which keeps logging safe before initialization
// and after Close.
func New(st *store.Store, opts Options) *DBHandler {
	c := &core{
		st:       st,
		tmpl:     opts.Template,
		fallback: opts.Fallback,
		name:     opts.Name,
		level:    opts.Level,
		hostname: opts.Hostname,
		now:      opts.Now,
	}
	if c.tmpl == nil {
		// The default format parses; EnvFormat only substitutes a
		// caller-supplied string, which is validated at Open time.
		if tmpl, err := record.NewTemplate(record.EnvFormat()); err == nil {
			c.tmpl = tmpl
		} else {
			c.tmpl, _ = record.NewTemplate(record.DefaultFormat)
		}
	}
	if c.fallback == nil {
		c.fallback = os.Stderr
	}
	if c.level == nil {
		c.level = slog.LevelDebug
	}
	return &DBHandler{core: c}
}

// Enabled implements slog.Handler.
func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.core.level.Level()
}

// Handle implements slog.Handler. It enriches the record, validates the
// required fields, and attempts a single transactional insert. Any
// failure before or during commit routes the rendered line to the
// fallback stream; the caller never sees a storage error.
func (h *DBHandler) Handle(ctx context.Context, r slog.Record) error {
	rec := h.newRecord(r)
	rec.Enrich()

	entry := rec.Entry()
	if err := entry.Validate(); err != nil {
		return h.handleError(rec)
	}

	st := h.currentStore()
	if st == nil {
		return h.handleError(rec)
	}
	if _, err := st.InsertEntry(ctx, entry); err != nil {
		// InsertEntry has already rolled back; surface the record on
		// the fallback stream so the operator still sees it.
		return h.handleError(rec)
	}
	return nil
}

// WithAttrs implements slog.Handler. Clones share the handler core, so a
// template change or Close applies to all of them.
func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &h2
}

// WithGroup implements slog.Handler. Groups only qualify attribute keys
// for the override scan; the persisted schema is flat.
func (h *DBHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &h2
}

// SetTemplate swaps the render format. The primary and fallback paths
// share one template, so both stay consistent by construction.
func (h *DBHandler) SetTemplate(tmpl *record.Template) {
	if tmpl == nil {
		return
	}
	h.core.mu.Lock()
	defer h.core.mu.Unlock()
	h.core.tmpl = tmpl
}

// Template returns the active render template.
func (h *DBHandler) Template() *record.Template {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()
	return h.core.tmpl
}

// Close detaches the handler from its store. Idempotent. The store itself
// is owned and closed by the binding; after Close every record emitted
// through this handler takes the fallback path.
func (h *DBHandler) Close() error {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()
	h.core.st = nil
	return nil
}

func (h *DBHandler) currentStore() *store.Store {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()
	return h.core.st
}

// handleError is the degradation path: render the original record with
// the shared template and write it to the fallback stream. The write
// error, if any, is returned unmodified; fallback-stream failures follow
// ordinary stream semantics and are not absorbed here.
func (h *DBHandler) handleError(rec *record.Record) error {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()
	line := h.core.tmpl.Render(rec)
	_, err := io.WriteString(h.core.fallback, line+"\n")
	return err
}
