package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/crawlytics/crawlytics/internal/database"
	"github.com/crawlytics/crawlytics/internal/dataset"
	"github.com/crawlytics/crawlytics/internal/fetch"
	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/stats"
)

// ParseStep reads the crawl log named by the analysis source and builds
// the dataset.
//
// Design decision: Parsing is a separate step rather than part of run
// setup because every later stage consumes its output; keeping it in the
// pipeline gives it the same logging, cancellation, and error handling as
// the rest.
type ParseStep struct {
	// maxRecords caps ingestion. Zero means unlimited.
	maxRecords int

	// logger for structured logging.
	logger *slog.Logger
}

// ParseStepOption configures a ParseStep.
type ParseStepOption func(*ParseStep)

// WithParseMaxRecords caps the number of records ingested.
func WithParseMaxRecords(n int) ParseStepOption {
	return func(s *ParseStep) {
		s.maxRecords = n
	}
}

// WithParseLogger sets a custom logger for the parse step.
func WithParseLogger(logger *slog.Logger) ParseStepOption {
	return func(s *ParseStep) {
		s.logger = logger
	}
}

// NewParseStep creates a new parsing step.
func NewParseStep(opts ...ParseStepOption) *ParseStep {
	s := &ParseStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do executes the parse step.
func (s *ParseStep) Do(_ context.Context, analysis *model.Analysis) error {
	f, err := os.Open(analysis.Source)
	if err != nil {
		return fmt.Errorf("open crawl log: %w", err)
	}
	defer f.Close()

	builder := dataset.NewBuilder(
		dataset.WithMaxRecords(s.maxRecords),
		dataset.WithBuilderLogger(s.logger),
	)
	if err := builder.Ingest(f); err != nil {
		return err
	}

	ds, diags := builder.Build()
	analysis.Dataset = ds
	analysis.Diagnostics.Merge(diags)
	return nil
}

// EnrichStep resolves image byte sizes for every reference in the dataset.
type EnrichStep struct {
	// resolver performs the HTTP size lookups.
	resolver *fetch.Resolver

	// logger for structured logging.
	logger *slog.Logger
}

// EnrichStepOption configures an EnrichStep.
type EnrichStepOption func(*EnrichStep)

// WithEnrichLogger sets a custom logger for the enrich step.
func WithEnrichLogger(logger *slog.Logger) EnrichStepOption {
	return func(s *EnrichStep) {
		s.logger = logger
	}
}

// NewEnrichStep creates a new enrichment step using the given resolver.
func NewEnrichStep(resolver *fetch.Resolver, opts ...EnrichStepOption) *EnrichStep {
	s := &EnrichStep{
		resolver: resolver,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *EnrichStep) Name() string {
	return "enrich"
}

// Do executes the enrichment step.
func (s *EnrichStep) Do(ctx context.Context, analysis *model.Analysis) error {
	analysis.FetchEnabled = true

	refs := analysis.Dataset.ImageRefs()
	if len(refs) == 0 {
		s.logger.Debug("no image references to resolve", "source", analysis.Source)
		return nil
	}

	samples, err := s.resolver.Resolve(ctx, refs, &analysis.Diagnostics)
	if err != nil {
		return err
	}
	analysis.Dataset.AppendImageSamples(samples...)
	return nil
}

// HistogramStep computes one histogram per configured column.
type HistogramStep struct {
	// specs maps column names to histogram shapes.
	specs map[string]stats.Spec

	// logger for structured logging.
	logger *slog.Logger
}

// HistogramStepOption configures a HistogramStep.
type HistogramStepOption func(*HistogramStep)

// WithHistogramLogger sets a custom logger for the histogram step.
func WithHistogramLogger(logger *slog.Logger) HistogramStepOption {
	return func(s *HistogramStep) {
		s.logger = logger
	}
}

// NewHistogramStep creates a new histogram step for the given specs.
func NewHistogramStep(specs map[string]stats.Spec, opts ...HistogramStepOption) *HistogramStep {
	s := &HistogramStep{
		specs:  specs,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HistogramStep) Name() string {
	return "histogram"
}

// Do executes the histogram step.
//
// The image_size column is skipped when enrichment did not run: without
// samples it would be a histogram of an empty column, indistinguishable
// from a crawl with no images.
func (s *HistogramStep) Do(_ context.Context, analysis *model.Analysis) error {
	for name, spec := range s.specs {
		if name == model.ColumnImageSize && !analysis.FetchEnabled {
			continue
		}

		values, err := analysis.Dataset.Column(name)
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}

		result, err := stats.Compute(values, spec)
		if err != nil {
			return fmt.Errorf("histogram %q: %w", name, err)
		}

		analysis.Specs[name] = spec
		analysis.Histograms[name] = result
		s.logger.Debug("histogram computed",
			"column", name,
			"observations", len(values),
			"excluded", result.ExcludedCount,
		)
	}
	return nil
}

// SaveStep persists the completed analysis to the metrics database.
type SaveStep struct {
	// db is the open metrics database.
	db *database.MetricsDB

	// logger for structured logging.
	logger *slog.Logger
}

// SaveStepOption configures a SaveStep.
type SaveStepOption func(*SaveStep)

// WithSaveLogger sets a custom logger for the save step.
func WithSaveLogger(logger *slog.Logger) SaveStepOption {
	return func(s *SaveStep) {
		s.logger = logger
	}
}

// NewSaveStep creates a new persistence step using the given database.
func NewSaveStep(db *database.MetricsDB, opts ...SaveStepOption) *SaveStep {
	s := &SaveStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do executes the save step. The elapsed time is stamped here so the
// stored run covers every preceding step.
func (s *SaveStep) Do(ctx context.Context, analysis *model.Analysis) error {
	analysis.Elapsed = time.Since(analysis.StartedAt)

	runID, err := s.db.SaveAnalysis(ctx, analysis)
	if err != nil {
		return err
	}
	s.logger.Info("run saved",
		"runID", runID,
		"source", analysis.Source,
		"pages", analysis.Dataset.Len(),
	)
	return nil
}
