package model

// DiagnosticKind classifies one anomaly observed during a scan.
type DiagnosticKind string

// Diagnostic kinds. Parsing anomalies are recoverable by definition: the
// scan always completes and returns whatever was successfully extracted.
const (
	// KindUnmatchedLine is a line in field-scanning position that matched
	// no recognized marker. The line is ignored, the record continues.
	KindUnmatchedLine DiagnosticKind = "unmatched_line"

	// KindUnterminatedList is a record that ended while a link or image
	// list was still open. The record is discarded.
	KindUnterminatedList DiagnosticKind = "unterminated_list"

	// KindUnmatchedDelimiter is a group-end line with no matching group
	// start. The offending group is skipped.
	KindUnmatchedDelimiter DiagnosticKind = "unmatched_delimiter"

	// KindMalformedField is a recognized field line whose value failed to
	// parse (e.g. a non-integer size). The field is left absent.
	KindMalformedField DiagnosticKind = "malformed_field"

	// KindMissingLink is a record that completed without a link line.
	// The record is discarded; the link is the row key.
	KindMissingLink DiagnosticKind = "missing_link"

	// KindFailedFetch is an image reference whose size fetch errored.
	KindFailedFetch DiagnosticKind = "failed_fetch"

	// KindUnknownSize is a fetched image whose server sent no size header.
	KindUnknownSize DiagnosticKind = "unknown_size"
)

// Diagnostic is one anomaly with identifying context.
type Diagnostic struct {
	// Kind classifies the anomaly.
	Kind DiagnosticKind `json:"kind"`

	// Line is the 1-based log line number, when known.
	Line int `json:"line,omitempty"`

	// Record identifies the record being parsed (its link) or the image
	// reference being fetched, when known.
	Record string `json:"record,omitempty"`

	// Detail is a short human-readable description.
	Detail string `json:"detail,omitempty"`
}

// maxDiagnosticEvents bounds the retained event list so a pathological log
// cannot exhaust memory. Counters keep counting past the bound.
const maxDiagnosticEvents = 1000

// Diagnostics is the non-fatal record of anomalies encountered during a
// scan: counts plus a bounded list of identifying events. It is returned
// alongside the primary output so callers can assert on failure counts
// programmatically instead of scraping console output.
type Diagnostics struct {
	// SkippedRecords counts records discarded for structural reasons
	// (unterminated list, missing link).
	SkippedRecords int `json:"skipped_records"`

	// SkippedByCap counts records skipped because the ingestion cap was
	// reached. Never conflated with SkippedRecords.
	SkippedByCap int `json:"skipped_by_cap"`

	// UnmatchedLines counts lines ignored during field scanning.
	UnmatchedLines int `json:"unmatched_lines"`

	// UnmatchedDelimiters counts group-end lines with no open group.
	UnmatchedDelimiters int `json:"unmatched_delimiters"`

	// MalformedFields counts field values that failed to parse.
	MalformedFields int `json:"malformed_fields"`

	// FailedFetches counts image references whose size fetch errored.
	FailedFetches int `json:"failed_fetches"`

	// UnknownSizes counts fetches that succeeded without a size header.
	UnknownSizes int `json:"unknown_sizes"`

	// Events holds up to maxDiagnosticEvents individual anomalies with
	// context, in occurrence order.
	Events []Diagnostic `json:"events,omitempty"`
}

// Add records one diagnostic event and bumps the counter for its kind.
func (d *Diagnostics) Add(ev Diagnostic) {
	switch ev.Kind {
	case KindUnmatchedLine:
		d.UnmatchedLines++
	case KindUnterminatedList, KindMissingLink:
		d.SkippedRecords++
	case KindUnmatchedDelimiter:
		d.UnmatchedDelimiters++
	case KindMalformedField:
		d.MalformedFields++
	case KindFailedFetch:
		d.FailedFetches++
	case KindUnknownSize:
		d.UnknownSizes++
	}

	if len(d.Events) < maxDiagnosticEvents {
		d.Events = append(d.Events, ev)
	}
}

// Merge folds other into d. Event order within each source is preserved.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.SkippedRecords += other.SkippedRecords
	d.SkippedByCap += other.SkippedByCap
	d.UnmatchedLines += other.UnmatchedLines
	d.UnmatchedDelimiters += other.UnmatchedDelimiters
	d.MalformedFields += other.MalformedFields
	d.FailedFetches += other.FailedFetches
	d.UnknownSizes += other.UnknownSizes

	room := maxDiagnosticEvents - len(d.Events)
	if room <= 0 {
		return
	}
	if len(other.Events) > room {
		other.Events = other.Events[:room]
	}
	d.Events = append(d.Events, other.Events...)
}

// Total returns the total number of anomalies counted.
func (d *Diagnostics) Total() int {
	return d.SkippedRecords + d.SkippedByCap + d.UnmatchedLines +
		d.UnmatchedDelimiters + d.MalformedFields + d.FailedFetches + d.UnknownSizes
}
