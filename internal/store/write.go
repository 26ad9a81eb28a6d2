package store

import (
	"context"
	"fmt"

	"github.com/roach88/stlog/internal/record"
)

// InsertEntry writes one entry in its own transaction and returns the
// surrogate ID storage assigned to it.
//
// The insert and commit are a single unit: any failure (connectivity
// loss, constraint violation, timeout) rolls the transaction back and
// returns the error, leaving no partial row. The caller decides what to
// do with a failed entry; the store never retries.
func (s *Store) InsertEntry(ctx context.Context, e record.Entry) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("insert entry: store is not open")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert entry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO logentry
		(datetime, asctime, created, hostname, filename, func_name,
		 levelname, levelno, lineno, module, msecs, message, name,
		 pathname, process, process_name, relative_created, thread,
		 thread_name, exception)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Datetime,
		e.Asctime,
		e.Created,
		e.Hostname,
		e.Filename,
		e.FuncName,
		e.Levelname,
		e.Levelno,
		e.Lineno,
		e.Module,
		e.Msecs,
		e.Message,
		e.Name,
		e.Pathname,
		e.Process,
		e.ProcessName,
		e.RelativeCreated,
		e.Thread,
		e.ThreadName,
		nullableText(e.Exception),
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert entry: last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert entry: commit: %w", err)
	}
	return id, nil
}

// nullableText maps the empty string to SQL NULL, so absent exception
// text is stored as NULL rather than "".
func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
