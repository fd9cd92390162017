package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/stats"
)

// Default configuration values.
// The histogram ranges come from observed crawl corpora: the bulk of pages
// sit well inside these bounds, and values beyond them are outliers worth
// excluding rather than stretching every bucket.
const (
	// DefaultMaxRecords caps ingestion for quick interactive runs. Large
	// logs carry hundreds of thousands of records; a bounded sample keeps
	// turnaround short. Use --max-records=0 for a full pass.
	DefaultMaxRecords = 40

	// DefaultBucketCount of 50 gives enough resolution to see distribution
	// shape without producing unreadably tall CSV files.
	DefaultBucketCount = 50

	// DefaultSizeHigh bounds the page size histogram at 2.5MB. Pages above
	// this are almost always binary downloads mislabeled as pages.
	DefaultSizeHigh = 2_500_000

	// DefaultLinkCountHigh bounds the outbound link histogram.
	DefaultLinkCountHigh = 1_500

	// DefaultImageCountHigh bounds the per-page image count histogram.
	DefaultImageCountHigh = 400

	// DefaultImageSizeHigh bounds the image size histogram at 350KB.
	DefaultImageSizeHigh = 350_000

	// DefaultConcurrency bounds concurrent image size fetches.
	DefaultConcurrency = 10

	// DefaultFetchTimeout bounds one image size request.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultBatchConcurrency bounds concurrently analyzed logs.
	DefaultBatchConcurrency = 4

	// DefaultUserAgent identifies the analyzer in HTTP requests.
	// A descriptive User-Agent lets image host operators identify the
	// traffic in their logs.
	DefaultUserAgent = "crawlytics/1.0 (+https://github.com/crawlytics/crawlytics)"

	// AppName is the application name used for XDG directory paths.
	AppName = "crawlytics"
)

// DefaultSpecs returns the default histogram specification per column.
func DefaultSpecs() map[string]stats.Spec {
	return map[string]stats.Spec{
		model.ColumnSize:       {BucketCount: DefaultBucketCount, Low: 0, High: DefaultSizeHigh},
		model.ColumnLinkCount:  {BucketCount: DefaultBucketCount, Low: 0, High: DefaultLinkCountHigh},
		model.ColumnImageCount: {BucketCount: DefaultBucketCount, Low: 0, High: DefaultImageCountHigh},
		model.ColumnImageSize:  {BucketCount: DefaultBucketCount, Low: 0, High: DefaultImageSizeHigh},
	}
}

// Config holds all configuration options for an analysis run.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// Logs is the list of crawl log file paths to analyze.
	// Must contain at least one path.
	Logs []string

	// MaxRecords caps the number of records ingested per log.
	// A value of 0 means unlimited.
	MaxRecords int

	// FetchImages enables image size enrichment over HTTP.
	// When false, image references are collected but never fetched.
	FetchImages bool

	// Concurrency is the number of concurrent image size fetches.
	Concurrency int

	// FetchTimeout is the timeout for each image size request.
	FetchTimeout time.Duration

	// RateLimit caps aggregate image size requests per second.
	// A value of 0 disables rate limiting.
	RateLimit float64

	// BatchConcurrency is the number of logs analyzed concurrently when
	// more than one log path is given.
	BatchConcurrency int

	// UserAgent is the User-Agent header sent with image size requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// CSVDir is the directory for per-column histogram weight files.
	// When empty, no CSV files are written.
	CSVDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .crawlytics in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// FileConfig holds settings loaded from the config file.
	// This is populated by LoadConfigFile and merged over the defaults.
	FileConfig *File

	// DBDir is the directory path for storing the SQLite database.
	// When set, runs are saved to the database for historical comparison.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to persist the run.
	SaveToDB bool

	// Specs holds the histogram specification per column.
	Specs map[string]stats.Spec
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, bucket
// counts). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxRecords:       DefaultMaxRecords,
		Concurrency:      DefaultConcurrency,
		FetchTimeout:     DefaultFetchTimeout,
		UserAgent:        DefaultUserAgent,
		BatchConcurrency: DefaultBatchConcurrency,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
		Specs:            DefaultSpecs(),
	}
}

// XDGDataDir returns the XDG data directory for crawlytics.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/crawlytics
// On macOS: ~/Library/Application Support/crawlytics
// On Windows: %LOCALAPPDATA%\crawlytics
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for crawlytics.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any analysis begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Logs) == 0 {
		return ErrNoInput
	}

	if c.MaxRecords < 0 {
		return ErrInvalidMaxRecords
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.BatchConcurrency <= 0 {
		return ErrInvalidBatchConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	for name, spec := range c.Specs {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("histogram spec %q: %w", name, err)
		}
	}

	return nil
}
