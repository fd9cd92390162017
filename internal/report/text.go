package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/crawlytics/crawlytics/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// verbose enables per-event diagnostic detail in the output.
	verbose bool

	// barWidth is the width of the histogram bars in characters.
	barWidth int
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables verbose output with per-event diagnostics.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		barWidth:   40,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the analysis in human-readable format.
func (w *TextWriter) Write(analysis *model.Analysis) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, analysis)
	w.writeColumnSummary(&sb, analysis)
	w.writeHistograms(&sb, analysis)
	w.writeDiagnostics(&sb, analysis)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *TextWriter) writeHeader(sb *strings.Builder, analysis *model.Analysis) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        CRAWL LOG ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Source:         %s\n", analysis.Source))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", analysis.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:        %s\n", analysis.Elapsed))
	sb.WriteString(fmt.Sprintf("Pages:          %d\n", analysis.Dataset.Len()))
	sb.WriteString(fmt.Sprintf("Image refs:     %d\n", len(analysis.Dataset.ImageRefs())))
	if analysis.FetchEnabled {
		sb.WriteString("Enrichment:     image sizes fetched\n")
	} else {
		sb.WriteString("Enrichment:     disabled\n")
	}
	sb.WriteString("\n")
}

// writeColumnSummary writes per-column observation statistics.
func (w *TextWriter) writeColumnSummary(sb *strings.Builder, analysis *model.Analysis) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("COLUMN SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, name := range model.NumericColumns {
		values, err := analysis.Dataset.Column(name)
		if err != nil {
			continue
		}
		if len(values) == 0 {
			sb.WriteString(fmt.Sprintf("  %-12s no observations\n", name))
			continue
		}
		min, max, mean := summarize(values)
		sb.WriteString(fmt.Sprintf("  %-12s n=%-6d min=%-12.0f max=%-12.0f mean=%.1f\n",
			name, len(values), min, max, mean))
	}
	sb.WriteString("\n")
}

// writeHistograms writes one bar chart per computed histogram.
func (w *TextWriter) writeHistograms(sb *strings.Builder, analysis *model.Analysis) {
	order := columnOrder(analysis)
	if len(order) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("HISTOGRAMS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, name := range order {
		result := analysis.Histograms[name]
		spec := analysis.Specs[name]

		sb.WriteString(fmt.Sprintf("%s  [%.0f .. %.0f] in %d buckets",
			name, spec.Low, spec.High, spec.BucketCount))
		if result.ExcludedCount > 0 {
			sb.WriteString(fmt.Sprintf("  (%d out of range)", result.ExcludedCount))
		}
		sb.WriteString("\n")

		maxWeight := 0
		for _, weight := range result.Weights {
			if weight > maxWeight {
				maxWeight = weight
			}
		}

		for i, weight := range result.Weights {
			bar := ""
			if maxWeight > 0 {
				bar = strings.Repeat("#", weight*w.barWidth/maxWeight)
			}
			sb.WriteString(fmt.Sprintf("  %12.0f %-*s %d\n",
				result.Boundaries[i], w.barWidth, bar, weight))
		}
		sb.WriteString("\n")
	}
}

// writeDiagnostics writes the anomaly summary, with events when verbose.
func (w *TextWriter) writeDiagnostics(sb *strings.Builder, analysis *model.Analysis) {
	diags := analysis.Diagnostics

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DIAGNOSTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if diags.Total() == 0 {
		sb.WriteString("  No anomalies.\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf("  Skipped records:      %d\n", diags.SkippedRecords))
	sb.WriteString(fmt.Sprintf("  Skipped by cap:       %d\n", diags.SkippedByCap))
	sb.WriteString(fmt.Sprintf("  Unmatched lines:      %d\n", diags.UnmatchedLines))
	sb.WriteString(fmt.Sprintf("  Unmatched delimiters: %d\n", diags.UnmatchedDelimiters))
	sb.WriteString(fmt.Sprintf("  Malformed fields:     %d\n", diags.MalformedFields))
	sb.WriteString(fmt.Sprintf("  Failed fetches:       %d\n", diags.FailedFetches))
	sb.WriteString(fmt.Sprintf("  Unknown sizes:        %d\n", diags.UnknownSizes))
	sb.WriteString("\n")

	if w.verbose {
		for _, ev := range diags.Events {
			sb.WriteString(fmt.Sprintf("  [%s]", ev.Kind))
			if ev.Line > 0 {
				sb.WriteString(fmt.Sprintf(" line %d", ev.Line))
			}
			if ev.Record != "" {
				sb.WriteString(" " + ev.Record)
			}
			if ev.Detail != "" {
				sb.WriteString(": " + ev.Detail)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

// summarize returns the minimum, maximum, and mean of values.
// values must be non-empty.
func summarize(values []float64) (min, max, mean float64) {
	min, max = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, max, sum / float64(len(values))
}
