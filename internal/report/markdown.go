package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/crawlytics/crawlytics/internal/model"
)

// MarkdownWriter outputs analyses in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. Mermaid chart embedding for fetch outcome distribution
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, analysis)
	w.writeColumnSummary(md, analysis)
	w.writeHistograms(md, analysis)
	w.writeFetchOutcomes(md, analysis)
	w.writeDiagnostics(md, analysis)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, analysis *model.Analysis) {
	md.H1("Crawl Log Analysis")
	md.PlainText("")

	enrichment := "disabled"
	if analysis.FetchEnabled {
		enrichment = "image sizes fetched"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + analysis.Source + "`"},
			{"Started", analysis.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", analysis.Elapsed.String()},
			{"Pages", strconv.Itoa(analysis.Dataset.Len())},
			{"Image refs", strconv.Itoa(len(analysis.Dataset.ImageRefs()))},
			{"Enrichment", enrichment},
		},
	})
	md.PlainText("")
}

// writeColumnSummary writes per-column observation statistics.
func (w *MarkdownWriter) writeColumnSummary(md *markdown.Markdown, analysis *model.Analysis) {
	md.H2("Column Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.NumericColumns))
	for _, name := range model.NumericColumns {
		values, err := analysis.Dataset.Column(name)
		if err != nil {
			continue
		}
		if len(values) == 0 {
			rows = append(rows, []string{name, "0", "-", "-", "-"})
			continue
		}
		min, max, mean := summarize(values)
		rows = append(rows, []string{
			name,
			strconv.Itoa(len(values)),
			strconv.FormatFloat(min, 'f', 0, 64),
			strconv.FormatFloat(max, 'f', 0, 64),
			strconv.FormatFloat(mean, 'f', 1, 64),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Column", "Observations", "Min", "Max", "Mean"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeHistograms writes one table per computed histogram.
func (w *MarkdownWriter) writeHistograms(md *markdown.Markdown, analysis *model.Analysis) {
	order := columnOrder(analysis)
	if len(order) == 0 {
		return
	}

	md.H2("Histograms")
	md.PlainText("")

	for _, name := range order {
		result := analysis.Histograms[name]
		spec := analysis.Specs[name]

		md.H3(name)
		md.PlainText("")
		md.PlainTextf("Range %.0f to %.0f in %d buckets; %d value(s) out of range.",
			spec.Low, spec.High, spec.BucketCount, result.ExcludedCount)
		md.PlainText("")

		rows := make([][]string, len(result.Weights))
		for i, weight := range result.Weights {
			rows[i] = []string{
				strconv.FormatFloat(result.Boundaries[i], 'f', 0, 64),
				strconv.Itoa(weight),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Bucket", "Weight"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFetchOutcomes writes a mermaid pie chart of fetch outcomes when
// enrichment ran.
func (w *MarkdownWriter) writeFetchOutcomes(md *markdown.Markdown, analysis *model.Analysis) {
	samples := analysis.Dataset.ImageSamples()
	if !analysis.FetchEnabled || len(samples) == 0 {
		return
	}

	counts := map[model.FetchOutcome]int{}
	for _, s := range samples {
		counts[s.Outcome]++
	}

	md.H2("Fetch Outcomes")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Image Size Fetch Outcomes"),
		piechart.WithShowData(true),
	)

	if n := counts[model.OutcomeResolved]; n > 0 {
		chart.LabelAndIntValue("Resolved", uint64(n))
	}
	if n := counts[model.OutcomeUnknown]; n > 0 {
		chart.LabelAndIntValue("Unknown", uint64(n))
	}
	if n := counts[model.OutcomeFailed]; n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDiagnostics writes the anomaly summary with an alert.
func (w *MarkdownWriter) writeDiagnostics(md *markdown.Markdown, analysis *model.Analysis) {
	diags := analysis.Diagnostics

	md.H2("Diagnostics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Anomaly", "Count"},
		Rows: [][]string{
			{"Skipped records", strconv.Itoa(diags.SkippedRecords)},
			{"Skipped by cap", strconv.Itoa(diags.SkippedByCap)},
			{"Unmatched lines", strconv.Itoa(diags.UnmatchedLines)},
			{"Unmatched delimiters", strconv.Itoa(diags.UnmatchedDelimiters)},
			{"Malformed fields", strconv.Itoa(diags.MalformedFields)},
			{"Failed fetches", strconv.Itoa(diags.FailedFetches)},
			{"Unknown sizes", strconv.Itoa(diags.UnknownSizes)},
		},
	})
	md.PlainText("")

	switch {
	case diags.SkippedRecords > 0:
		md.Warningf("%d record(s) were discarded as structurally broken.", diags.SkippedRecords)
	case diags.Total() > 0:
		md.Note(fmt.Sprintf("%d recoverable anomaly(ies) were observed; all records survived.", diags.Total()))
	default:
		md.Tip("The log parsed cleanly.")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [crawlytics](https://github.com/crawlytics/crawlytics)*")
}
