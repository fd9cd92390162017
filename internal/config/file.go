package config

// HistogramFile is one histogram shape as written in the configuration
// file. Fields left at zero fall back to the built-in defaults.
type HistogramFile struct {
	// Buckets is the number of equal-width buckets.
	Buckets int `yaml:"buckets,omitempty"`

	// Low is the inclusive lower edge of the observed range.
	Low float64 `yaml:"low,omitempty"`

	// High is the inclusive upper edge of the observed range.
	High float64 `yaml:"high,omitempty"`
}

// File represents the structure of the .crawlytics configuration file.
type File struct {
	// MaxRecords caps records ingested per log. Zero keeps the default.
	MaxRecords *int `yaml:"max_records,omitempty"`

	// FetchImages enables image size enrichment.
	FetchImages *bool `yaml:"fetch_images,omitempty"`

	// Concurrency bounds concurrent image size fetches.
	Concurrency int `yaml:"concurrency,omitempty"`

	// RateLimit caps image size requests per second.
	RateLimit float64 `yaml:"rate_limit,omitempty"`

	// UserAgent overrides the User-Agent for image size requests.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Histograms maps column names to histogram shapes.
	// Unknown column names are rejected during merge.
	Histograms map[string]HistogramFile `yaml:"histograms,omitempty"`
}

// Apply merges the file settings over cfg. Only fields the file actually
// sets are copied, so CLI defaults survive an empty file.
//
// Design decision: Pointer fields distinguish "absent" from "explicit
// zero" for settings where zero is meaningful (max_records: 0 means
// unlimited, fetch_images: false means disabled).
func (cf *File) Apply(cfg *Config) error {
	if cf.MaxRecords != nil {
		cfg.MaxRecords = *cf.MaxRecords
	}
	if cf.FetchImages != nil {
		cfg.FetchImages = *cf.FetchImages
	}
	if cf.Concurrency > 0 {
		cfg.Concurrency = cf.Concurrency
	}
	if cf.RateLimit > 0 {
		cfg.RateLimit = cf.RateLimit
	}
	if cf.UserAgent != "" {
		cfg.UserAgent = cf.UserAgent
	}

	for name, h := range cf.Histograms {
		spec, ok := cfg.Specs[name]
		if !ok {
			return &UnknownColumnError{Column: name}
		}
		if h.Buckets > 0 {
			spec.BucketCount = h.Buckets
		}
		if h.Low != 0 {
			spec.Low = h.Low
		}
		if h.High != 0 {
			spec.High = h.High
		}
		cfg.Specs[name] = spec
	}
	return nil
}

// UnknownColumnError reports a histogram entry naming a column the dataset
// does not have.
type UnknownColumnError struct {
	// Column is the unrecognized column name from the config file.
	Column string
}

// Error implements the error interface.
func (e *UnknownColumnError) Error() string {
	return "unknown histogram column in config file: " + e.Column
}
