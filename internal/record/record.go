package record

import (
	"fmt"
	"os"
	"time"
)

// Record is one emitted log event with its metadata, prior to persistence.
// It is created by the handler for each logging call, enriched, rendered,
// projected into an Entry, and then discarded. Records are never retained
// across emissions.
type Record struct {
	// Name is the logger name the record was emitted through.
	Name string

	// Levelname and Levelno carry the severity as name and number.
	Levelname string
	Levelno   int

	// Message is the final, argument-expanded message text.
	Message string

	// Source location of the logging call.
	Module   string
	FuncName string
	Filename string
	Pathname string
	Lineno   int

	// Created is seconds since the epoch, with the fractional part
	// preserved. Msecs is the millisecond remainder, RelativeCreated the
	// milliseconds since process start.
	Created         float64
	Msecs           int
	RelativeCreated int64

	// Process and thread identity.
	Process     int
	ProcessName string
	Thread      int64
	ThreadName  string

	// Derived fields, filled by Enrich when absent.
	Hostname string
	Datetime time.Time
	Asctime  string

	// Exception holds the formatted error text when the record carries
	// one; empty otherwise.
	Exception string
}

// Enrich fills the derived fields and normalizes the record's text. The
// order matters: hostname and datetime must exist before the asctime
// render, and normalization runs last so every field that can reach
// storage or the fallback stream has been through it exactly once.
func (r *Record) Enrich() {
	if r.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			r.Hostname = h
		}
	}
	if r.Datetime.IsZero() {
		r.Datetime = TimeOfCreated(r.Created)
	}
	if r.Asctime == "" {
		r.Asctime = r.Datetime.Format("2006-01-02 15:04:05") + fmt.Sprintf(",%03d", r.Msecs)
	}
	r.Asctime = FixMillis(r.Asctime)
	r.normalize()
}

// Entry projects the enriched record into its durable form.
func (r *Record) Entry() Entry {
	return Entry{
		Datetime:        r.Datetime,
		Asctime:         r.Asctime,
		Created:         r.Created,
		Hostname:        r.Hostname,
		Filename:        r.Filename,
		FuncName:        r.FuncName,
		Levelname:       r.Levelname,
		Levelno:         r.Levelno,
		Lineno:          r.Lineno,
		Module:          r.Module,
		Msecs:           r.Msecs,
		Message:         r.Message,
		Name:            r.Name,
		Pathname:        r.Pathname,
		Process:         r.Process,
		ProcessName:     r.ProcessName,
		RelativeCreated: r.RelativeCreated,
		Thread:          r.Thread,
		ThreadName:      r.ThreadName,
		Exception:       r.Exception,
	}
}

// Entry is the database-row projection of a Record plus the surrogate ID
// assigned by storage. Every field is a plain text or numeric scalar.
// An Entry is immutable once constructed.
type Entry struct {
	ID int64

	Datetime        time.Time
	Asctime         string
	Created         float64
	Hostname        string
	Filename        string
	FuncName        string
	Levelname       string
	Levelno         int
	Lineno          int
	Module          string
	Msecs           int
	Message         string
	Name            string
	Pathname        string
	Process         int
	ProcessName     string
	RelativeCreated int64
	Thread          int64
	ThreadName      string
	Exception       string
}

// Validate enforces the storage-level required-field constraints before a
// write is attempted. An entry that fails validation must never produce a
// partial row; the caller falls back instead.
func (e *Entry) Validate() error {
	if e.Hostname == "" {
		return fmt.Errorf("entry: required field hostname is empty")
	}
	if e.Message == "" {
		return fmt.Errorf("entry: required field message is empty")
	}
	if e.Datetime.IsZero() {
		return fmt.Errorf("entry: required field datetime is unset")
	}
	return nil
}

// CreatedOf splits a wall-clock time into the epoch-seconds timestamp and
// its millisecond remainder.
func CreatedOf(t time.Time) (created float64, msecs int) {
	ns := t.UnixNano()
	return float64(ns) / 1e9, int(ns / 1e6 % 1e3)
}

// TimeOfCreated is the inverse of CreatedOf for the seconds component.
func TimeOfCreated(created float64) time.Time {
	sec := int64(created)
	nsec := int64((created - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
