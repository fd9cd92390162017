package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoInput is returned when no crawl log path is specified.
	ErrNoInput = errors.New("no crawl log specified: provide at least one log file path")

	// ErrInvalidMaxRecords is returned when the record cap is negative.
	// A negative cap is invalid; use 0 for unlimited ingestion.
	ErrInvalidMaxRecords = errors.New("invalid max records: must be non-negative")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not
	// positive. Zero workers would mean enrichment never completes.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	// A negative rate is invalid; use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidBatchConcurrency is returned when the batch concurrency is
	// not positive. Zero workers would mean batch runs never complete.
	ErrInvalidBatchConcurrency = errors.New("invalid batch concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
