// Package report renders a completed analysis into output formats.
//
// This package contains writers for different destinations:
//   - TextWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Documentation-ready Markdown with mermaid charts
//   - CSVWriter: Per-column histogram weight files for spreadsheet import
//
// Design decision: We separate report writing from the analysis data
// structures (which live in the model package) so new output formats can be
// added without touching the data model.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
