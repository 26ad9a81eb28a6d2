package record

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// FormatEnv names the environment variable that overrides DefaultFormat.
const FormatEnv = "STLOG_FMT"

// DefaultFormat is the render template applied to an enriched record. The
// same format drives the database handler's fallback line and the textual
// representation of a persisted entry, so both paths stay structurally
// identical.
const DefaultFormat = "{{.Levelname}} - {{.Hostname}} - {{.Asctime}} {{.Module}}.{{.FuncName}} ({{.Filename}}) - {{.Message}}"

// EnvFormat returns $STLOG_FMT when set and non-empty, DefaultFormat
// otherwise.
func EnvFormat() string {
	if f := os.Getenv(FormatEnv); f != "" {
		return f
	}
	return DefaultFormat
}

// Template renders enriched records to their one-line textual form.
type Template struct {
	format string
	tmpl   *template.Template
}

// NewTemplate parses a render format string. The template operates on a
// *Record, so any exported Record field is addressable from the format.
func NewTemplate(format string) (*Template, error) {
	tmpl, err := template.New("record").Parse(format)
	if err != nil {
		return nil, fmt.Errorf("parse format %q: %w", format, err)
	}
	return &Template{format: format, tmpl: tmpl}, nil
}

// Format returns the format string the template was parsed from.
func (t *Template) Format() string {
	return t.format
}

// Render produces the one-line rendering of an enriched record. A render
// that fails at execution time degrades to a minimal level-and-message
// line rather than losing the record.
func (t *Template) Render(r *Record) string {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, r); err != nil {
		return fmt.Sprintf("%s - %s", r.Levelname, r.Message)
	}
	return buf.String()
}

// RenderEntry renders a persisted entry with the same format that drove
// its creation, so inspection output matches what the fallback stream
// would have shown.
func (t *Template) RenderEntry(e *Entry) string {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, e); err != nil {
		return fmt.Sprintf("%s - %s", e.Levelname, e.Message)
	}
	return buf.String()
}

// FixMillis rewrites a trailing comma millisecond separator to a period,
// turning "...05,123" into "...05.123" for a locale-neutral decimal
// timestamp. Strings shorter than four bytes, or without a comma in the
// fourth position from the end, pass through unchanged.
func FixMillis(s string) string {
	if len(s) >= 4 && s[len(s)-4] == ',' {
		return s[:len(s)-4] + "." + s[len(s)-3:]
	}
	return s
}

// textFields enumerates every text-bearing field that can reach storage
// or the fallback stream.
func (r *Record) textFields() []*string {
	return []*string{
		&r.Asctime,
		&r.Hostname,
		&r.Filename,
		&r.FuncName,
		&r.Levelname,
		&r.Module,
		&r.Message,
		&r.Name,
		&r.Pathname,
		&r.ProcessName,
		&r.ThreadName,
		&r.Exception,
	}
}

// normalize coerces every text field to valid NFC UTF-8 in one pass, so
// downstream storage receives a uniform encoding regardless of input.
func (r *Record) normalize() {
	for _, f := range r.textFields() {
		*f = normalizeText(*f)
	}
}

func normalizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	return s
}
