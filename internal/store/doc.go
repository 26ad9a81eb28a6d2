// Package store provides the durable side of the logging façade: a
// single-table relational sink for persisted log entries.
//
// SQLite is first-class (bundled driver, schema created on open); other
// backends are reached through whatever database/sql driver the host
// binary registers. Every entry is written in its own transaction so that
// a failed write leaves no partial row behind.
//
// # Database configuration (SQLite)
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single writer connection to avoid SQLITE_BUSY
package store
