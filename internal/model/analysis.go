package model

import (
	"time"

	"github.com/crawlytics/crawlytics/internal/stats"
)

// Analysis accumulates everything produced by one run over one crawl log:
// the dataset, diagnostics, and computed histograms. It is created by the
// caller and passed by reference through the pipeline steps.
//
// Design decision: The original tooling this replaces accumulated results in
// process-wide state re-merged into a JSON store after every run. An explicit
// per-run value makes runs independent and testable, and gives persistence a
// single object to serialize.
type Analysis struct {
	// Source identifies the crawl log (usually its file path).
	Source string `json:"source"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total run duration, set when the run completes.
	Elapsed time.Duration `json:"elapsed"`

	// Dataset holds the extracted per-page metrics.
	Dataset *Dataset `json:"dataset"`

	// Diagnostics is the merged anomaly record for the whole run.
	Diagnostics Diagnostics `json:"diagnostics"`

	// FetchEnabled reports whether image size enrichment ran.
	FetchEnabled bool `json:"fetch_enabled"`

	// Specs holds the histogram specification used per column.
	Specs map[string]stats.Spec `json:"specs,omitempty"`

	// Histograms holds the computed result per column, keyed like Specs.
	Histograms map[string]*stats.Result `json:"histograms,omitempty"`

	// StepsRun lists the pipeline steps executed for this run, in order.
	StepsRun []string `json:"steps_run,omitempty"`

	// ErrorMessage holds the failure of the last step that errored, when
	// the pipeline was configured to continue past failures.
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewAnalysis returns an Analysis ready to accumulate a run for source.
func NewAnalysis(source string) *Analysis {
	return &Analysis{
		Source:     source,
		StartedAt:  time.Now(),
		Dataset:    NewDataset(),
		Specs:      make(map[string]stats.Spec),
		Histograms: make(map[string]*stats.Result),
	}
}
