package stats

import "errors"

// Spec validation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Compute. This allows callers to use errors.Is()
// for programmatic handling while still providing readable messages.
var (
	// ErrInvalidBucketCount is returned when a Spec's BucketCount is zero
	// or negative. A histogram needs at least one bucket.
	ErrInvalidBucketCount = errors.New("invalid bucket count: must be positive")

	// ErrInvalidRange is returned when a Spec's Low is not strictly less
	// than its High. An empty or inverted range has no bucket width.
	ErrInvalidRange = errors.New("invalid histogram range: low must be less than high")
)
