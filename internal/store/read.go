package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/stlog/internal/record"
)

// ReadRecent returns up to limit of the most recent entries in ascending
// id order. Returns an empty slice, not nil, when the table is empty.
func (s *Store) ReadRecent(ctx context.Context, limit int) ([]record.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, datetime, asctime, created, hostname, filename,
		       func_name, levelname, levelno, lineno, module, msecs,
		       message, name, pathname, process, process_name,
		       relative_created, thread, thread_name, exception
		FROM logentry
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []record.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	// The query walks newest-first for the LIMIT; callers want
	// chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	if entries == nil {
		entries = []record.Entry{}
	}
	return entries, nil
}

// CountEntries returns the total number of persisted entries.
func (s *Store) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM logentry`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func scanEntry(rows *sql.Rows) (record.Entry, error) {
	var (
		e   record.Entry
		exc sql.NullString
	)
	err := rows.Scan(
		&e.ID,
		&e.Datetime,
		&e.Asctime,
		&e.Created,
		&e.Hostname,
		&e.Filename,
		&e.FuncName,
		&e.Levelname,
		&e.Levelno,
		&e.Lineno,
		&e.Module,
		&e.Msecs,
		&e.Message,
		&e.Name,
		&e.Pathname,
		&e.Process,
		&e.ProcessName,
		&e.RelativeCreated,
		&e.Thread,
		&e.ThreadName,
		&exc,
	)
	if err != nil {
		return record.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	if exc.Valid {
		e.Exception = exc.String
	}
	return e, nil
}
