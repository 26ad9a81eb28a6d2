package handler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/roach88/stlog/internal/record"
)

// Attribute keys with handler-level meaning. A record carrying one of
// these presets the corresponding derived field, and enrichment leaves
// fields that are already set alone.
const (
	// KeyError marks the attribute holding the record's error payload.
	// Any error-valued attribute is accepted as well; this key also
	// admits a plain string.
	KeyError = "err"

	// KeyHostname presets the record hostname.
	KeyHostname = "hostname"

	// KeyDatetime presets the record datetime from a time.Time value.
	KeyDatetime = "datetime"
)

// newRecord projects a slog.Record onto the full record model. Source
// location is resolved from the record's PC; exception text comes from
// the first error-valued attribute, rendered with %+v so wrapped errors
// carry their stack traces into storage.
func (h *DBHandler) newRecord(r slog.Record) *record.Record {
	ts := r.Time
	if h.core.now != nil {
		ts = h.core.now()
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	created, msecs := record.CreatedOf(ts)

	rec := &record.Record{
		Name:            h.core.name,
		Levelname:       record.LevelName(r.Level),
		Levelno:         int(r.Level),
		Message:         r.Message,
		Created:         created,
		Msecs:           msecs,
		RelativeCreated: ts.Sub(processStart).Milliseconds(),
		Process:         os.Getpid(),
		ProcessName:     processName,
		ThreadName:      "goroutine",
		Hostname:        h.core.hostname,
		Datetime:        ts,
	}

	if r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		rec.Pathname = frame.File
		rec.Filename = filepath.Base(frame.File)
		rec.Lineno = frame.Line
		rec.Module, rec.FuncName = splitFunction(frame.Function)
	}

	for _, a := range h.attrs {
		h.applyAttr(rec, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.applyAttr(rec, a)
		return true
	})
	return rec
}

// applyAttr folds one attribute into the record. Only the preset keys and
// error payloads are meaningful; the persisted schema has no column for
// arbitrary attributes, so everything else is ignored. Keys inside groups
// are matched against their dotted path.
func (h *DBHandler) applyAttr(rec *record.Record, a slog.Attr) {
	key := a.Key
	if len(h.groups) > 0 {
		key = strings.Join(h.groups, ".") + "." + key
	}

	if err, ok := a.Value.Resolve().Any().(error); ok {
		rec.Exception = fmt.Sprintf("%+v", err)
		return
	}

	switch key {
	case KeyError:
		if s := a.Value.Resolve().String(); s != "" {
			rec.Exception = s
		}
	case KeyHostname:
		if s := a.Value.Resolve().String(); s != "" {
			rec.Hostname = s
		}
	case KeyDatetime:
		if t, ok := a.Value.Resolve().Any().(time.Time); ok && !t.IsZero() {
			rec.Datetime = t
			rec.Created, rec.Msecs = record.CreatedOf(t)
		}
	}
}

// splitFunction derives the module and function names from a runtime
// frame's fully qualified function, e.g.
// "github.com/roach88/stlog/internal/cli.runEmit" -> ("cli", "runEmit").
func splitFunction(fn string) (module, funcName string) {
	if fn == "" {
		return "", ""
	}
	base := fn
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		base = fn[i+1:]
	}
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i], base[i+1:]
	}
	return "", base
}
