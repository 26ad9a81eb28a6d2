// Package handler implements the database-backed slog handler at the core
// of the façade.
//
// For every record the handler builds the full record model, enriches it
// (hostname, datetime, canonical timestamp, text normalization), and
// attempts exactly one transactional insert. On any persistence failure it
// rolls back and writes the rendered line for the original record to the
// fallback stream instead. There is no third outcome: a record is either
// durably stored or visibly surfaced, and storage trouble never reaches
// the logging caller as an error or panic.
package handler
