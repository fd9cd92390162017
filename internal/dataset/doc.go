// Package dataset assembles parsed crawl records into a bounded,
// column-oriented model.Dataset.
//
// The Builder owns the scan loop: it drives a parser.Scanner over the raw
// log, extracts each group, and appends the surviving records. An optional
// record cap bounds ingestion for sampling large logs; records skipped by
// the cap are accounted separately from records discarded by the parser so
// the two can never be confused in reports.
package dataset
