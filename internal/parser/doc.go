// Package parser recovers structured page records from the line-oriented
// crawl log format.
//
// # Architecture
//
// Two cooperating pieces mirror the two phases of extraction:
//
//   - Scanner: groups raw log lines into per-record chunks delimited by
//     brace lines, skipping anything outside a group
//   - Extractor: a three-state line machine that turns one group into a
//     model.PageRecord
//
// Design decision: We match fixed line prefixes and suffixes instead of
// using a JSON or grammar parser because the log is machine-generated with a
// rigid layout; a real parser would add failure modes (nesting, escaping)
// the format never exercises. The trade-off is deliberate and matches the
// producer.
//
// # Error policy
//
// Parsing is lenient. A malformed line never aborts the log: unmatched lines
// are ignored with a diagnostic, malformed field values leave the field
// absent, and structurally broken records (unterminated lists, missing link)
// are discarded individually. All anomalies are reported through
// model.Diagnostics rather than printed.
package parser
