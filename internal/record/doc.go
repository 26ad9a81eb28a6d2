// Package record defines the log record model: the ephemeral Record built
// for each emitted event, the durable Entry projection written to storage,
// and the render template shared by the database path and the stream
// fallback.
//
// A Record moves through a fixed enrichment pipeline before it is rendered
// or persisted:
//
//  1. Hostname defaults to the local machine name when absent.
//  2. Datetime is derived from the epoch-seconds creation timestamp.
//  3. The canonical asctime string is rendered with comma-separated
//     milliseconds, then rewritten to a period separator.
//  4. Every text field is normalized to NFC UTF-8 in a single pass.
//
// Only after enrichment may the record be rendered or projected into an
// Entry. Entries are scalar-only: no nested values ever reach the database.
package record
