// Package database provides SQLite-based storage for analysis runs.
//
// This package implements the MetricsDB, which stores:
//   - Run metadata for historical comparison
//   - Per-page metric rows
//   - Resolved image size samples
//   - Computed histograms per column
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The tooling this replaces merged every run into one growing JSON file,
// which made historical queries a full rewrite of the store. A relational
// schema keeps runs independent and queryable.
package database
