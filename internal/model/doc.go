// Package model defines the core data structures shared across the
// application: parsed page records, the column-oriented dataset, image size
// samples, diagnostics, and the per-run analysis accumulator.
//
// Design decision: Keeping these types in a dedicated leaf package avoids
// import cycles between the parser, dataset builder, fetcher, reporting,
// and persistence layers, all of which exchange the same structures.
//
// All accumulation is explicit and caller-owned: a Dataset or Analysis is
// created per run and passed by reference into each ingestion call. There is
// no hidden process-wide state between runs.
package model
