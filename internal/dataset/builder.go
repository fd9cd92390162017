package dataset

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/parser"
)

// Builder ingests crawl logs and accumulates a Dataset.
//
// A Builder may ingest several logs before Build; rows keep the order in
// which they were ingested. It is not safe for concurrent use.
type Builder struct {
	maxRecords int
	logger     *slog.Logger

	extractor *parser.Extractor
	ds        *model.Dataset
	diags     model.Diagnostics
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxRecords caps the number of records ingested. Zero means unlimited.
//
// Design decision: The cap counts records accepted into the dataset, not
// groups seen. A log full of broken records still yields up to n good rows
// instead of silently under-filling the sample.
func WithMaxRecords(n int) BuilderOption {
	return func(b *Builder) {
		b.maxRecords = n
	}
}

// WithBuilderLogger sets the logger passed down to the scan and extraction
// stages.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{ds: model.NewDataset()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.extractor = parser.NewExtractor(parser.WithExtractorLogger(b.logger))
	return b
}

// Ingest scans one crawl log and appends its records to the dataset. The
// returned error is a read failure only; parse anomalies accumulate as
// diagnostics and never fail the ingest.
func (b *Builder) Ingest(r io.Reader) error {
	sc := parser.NewScanner(r, parser.WithScannerLogger(b.logger))

	for sc.Scan() {
		if b.capped() {
			b.diags.SkippedByCap++
			continue
		}

		rec, ok := b.extractor.Extract(sc.Group(), &b.diags)
		if !ok {
			continue
		}
		b.ds.AppendRecord(rec)
	}
	b.diags.Merge(sc.Diagnostics())

	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan crawl log: %w", err)
	}
	return nil
}

// Build returns the accumulated dataset and the merged diagnostics of every
// ingest so far.
func (b *Builder) Build() (*model.Dataset, model.Diagnostics) {
	b.logger.Info("dataset built",
		"records", b.ds.Len(),
		"imageRefs", len(b.ds.ImageRefs()),
		"anomalies", b.diags.Total(),
	)
	return b.ds, b.diags
}

// capped reports whether the record cap has been reached.
func (b *Builder) capped() bool {
	return b.maxRecords > 0 && b.ds.Len() >= b.maxRecords
}
