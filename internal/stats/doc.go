// Package stats provides histogram bucketization over numeric columns.
//
// The single entry point is Compute, which maps a sequence of raw numeric
// observations and a Spec to fixed-width bucket boundaries and weights.
// Compute is a pure function: it performs no I/O, never mutates its inputs,
// and can be called repeatedly with different specs over the same values.
//
// Values outside [Low, High] are counted as excluded rather than dropped
// silently, so callers can always verify
//
//	sum(Weights) + ExcludedCount == len(values)
package stats
