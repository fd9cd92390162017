package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/crawlytics/crawlytics/internal/model"
)

// State identifies one of the extractor's parsing states.
//
// Design decision: The states are an explicit tagged enum rather than
// booleans so transitions can be traced and their coverage asserted in
// tests.
type State int

// Extractor states.
const (
	// StateScanningFields recognizes field and list-start markers.
	StateScanningFields State = iota

	// StateCountingLinks counts entries of an open outbound-link list.
	StateCountingLinks

	// StateCountingImages counts entries of an open image list and
	// collects the referenced URLs.
	StateCountingImages
)

// String returns the state name for traces and logs.
func (s State) String() string {
	switch s {
	case StateScanningFields:
		return "scanning_fields"
	case StateCountingLinks:
		return "counting_links"
	case StateCountingImages:
		return "counting_images"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Line markers of the crawl log format. The link and size markers are
// matched against the raw line because indentation distinguishes them;
// list markers are matched against the trimmed line.
const (
	linkPrefix = `  "`
	sizePrefix = `    "size":`

	linksOpen      = `"links": [`
	linksEmpty     = `"links": []`
	linksEmptySep  = `"links": [],`
	imagesOpen     = `"images": [`
	imagesEmpty    = `"images": []`
	imagesEmptySep = `"images": [],`

	listClose    = `]`
	listCloseSep = `],`
)

// Extractor turns one record group into a model.PageRecord.
// The zero value is usable; options add instrumentation.
type Extractor struct {
	trace  func(State)
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithStateTrace registers a callback invoked with the initial state and
// every transition. Intended for transition-coverage tests.
func WithStateTrace(trace func(State)) ExtractorOption {
	return func(e *Extractor) {
		e.trace = trace
	}
}

// WithExtractorLogger sets the logger used for per-line diagnostics.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract processes one group and returns the completed record.
//
// Anomalies are appended to diags. The boolean is false when the record had
// to be discarded: the group ended inside a list, or no link line was ever
// seen. Field-level problems (malformed size, unrecognized lines) never
// discard the record on their own.
func (e *Extractor) Extract(group Group, diags *model.Diagnostics) (model.PageRecord, bool) {
	state := StateScanningFields
	e.enter(state)

	var rec model.PageRecord
	var hasLink bool

	for i, raw := range group.Lines {
		lineNo := group.StartLine + 1 + i
		trimmed := strings.TrimSpace(raw)

		switch state {
		case StateCountingLinks:
			if trimmed == listClose || trimmed == listCloseSep {
				state = StateScanningFields
				e.enter(state)
				continue
			}
			rec.OutboundLinkCount++

		case StateCountingImages:
			if trimmed == listClose || trimmed == listCloseSep {
				state = StateScanningFields
				e.enter(state)
				continue
			}
			rec.ImageCount++
			ref, ok := quotedValue(raw)
			if !ok {
				diags.Add(model.Diagnostic{
					Kind:   model.KindMalformedField,
					Line:   lineNo,
					Record: rec.Link,
					Detail: "image entry without a quoted reference",
				})
				e.logger.Warn("image entry without a quoted reference", "line", lineNo)
				continue
			}
			rec.ImageRefs = append(rec.ImageRefs, ref)

		case StateScanningFields:
			switch {
			case trimmed == linksOpen:
				state = StateCountingLinks
				e.enter(state)

			case trimmed == linksEmpty || trimmed == linksEmptySep:
				// Self-terminating empty list: the count is already zero
				// and no counting state is entered.

			case trimmed == imagesOpen:
				state = StateCountingImages
				e.enter(state)

			case trimmed == imagesEmpty || trimmed == imagesEmptySep:
				// Same single-line form for the image list.

			case strings.HasPrefix(raw, sizePrefix):
				size, ok := parseSize(raw)
				if !ok {
					diags.Add(model.Diagnostic{
						Kind:   model.KindMalformedField,
						Line:   lineNo,
						Record: rec.Link,
						Detail: "size value is not an integer; field left absent",
					})
					e.logger.Warn("malformed size value", "line", lineNo, "record", rec.Link)
					continue
				}
				rec.SizeBytes = size
				rec.SizeKnown = true

			case !hasLink && strings.HasPrefix(raw, linkPrefix):
				link, ok := quotedValue(raw)
				if !ok || link == "" {
					diags.Add(model.Diagnostic{
						Kind:   model.KindMalformedField,
						Line:   lineNo,
						Detail: "link line without a closing quote",
					})
					e.logger.Warn("malformed link line", "line", lineNo)
					continue
				}
				rec.Link = link
				hasLink = true

			default:
				diags.Add(model.Diagnostic{
					Kind:   model.KindUnmatchedLine,
					Line:   lineNo,
					Record: rec.Link,
					Detail: fmt.Sprintf("unrecognized line %q", trimmed),
				})
				e.logger.Warn("unrecognized line in record",
					"line", lineNo,
					"record", rec.Link,
				)
			}
		}
	}

	if state != StateScanningFields {
		diags.Add(model.Diagnostic{
			Kind:   model.KindUnterminatedList,
			Line:   group.StartLine,
			Record: rec.Link,
			Detail: "record ended inside " + state.String(),
		})
		e.logger.Warn("record ended inside an open list",
			"record", rec.Link,
			"state", state.String(),
		)
		return model.PageRecord{}, false
	}

	if !hasLink {
		diags.Add(model.Diagnostic{
			Kind:   model.KindMissingLink,
			Line:   group.StartLine,
			Detail: "record completed without a link",
		})
		e.logger.Warn("record completed without a link", "startLine", group.StartLine)
		return model.PageRecord{}, false
	}

	return rec, true
}

// enter reports a state transition to the trace hook.
func (e *Extractor) enter(s State) {
	if e.trace != nil {
		e.trace(s)
	}
}

// parseSize extracts the integer size from a size line. The value runs from
// the end of the marker to the last comma on the line.
func parseSize(raw string) (int64, bool) {
	rest := raw[len(sizePrefix):]
	comma := strings.LastIndex(rest, ",")
	if comma < 0 {
		return 0, false
	}
	size, err := strconv.ParseInt(strings.TrimSpace(rest[:comma]), 10, 64)
	if err != nil {
		return 0, false
	}
	return size, true
}

// quotedValue extracts the text between the first and last double quote.
func quotedValue(raw string) (string, bool) {
	start := strings.Index(raw, `"`)
	end := strings.LastIndex(raw, `"`)
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start+1 : end], true
}
