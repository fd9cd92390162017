package parser

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/crawlytics/crawlytics/internal/model"
)

// Group is one record's worth of contiguous log lines, without the
// delimiter lines themselves.
type Group struct {
	// StartLine is the 1-based line number of the opening delimiter.
	// Content lines therefore start at StartLine+1.
	StartLine int

	// Lines holds the record's content lines verbatim. Indentation is
	// significant to the extractor and must not be trimmed here.
	Lines []string
}

// maxLineSize bounds a single log line. Crawl logs carry URLs, not
// payloads; 1MB is far beyond any legitimate line.
const maxLineSize = 1024 * 1024

// Scanner splits a raw crawl log into per-record line groups.
//
// A line whose trimmed text is "{" opens a group; "}" or "}," closes it.
// Lines outside any group are ignored. A close with no open group is a
// scanner-level diagnostic and the line is skipped, never fatal.
//
// The usage mirrors bufio.Scanner:
//
//	sc := parser.NewScanner(r)
//	for sc.Scan() {
//		group := sc.Group()
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
//
// A Scanner is single-pass; restart by constructing a new one over the
// log's start.
type Scanner struct {
	s      *bufio.Scanner
	line   int
	group  Group
	diags  model.Diagnostics
	logger *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScannerLogger sets the logger used for scan diagnostics.
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// NewScanner creates a Scanner reading the log from r. The caller owns r
// and is responsible for closing it after the scan completes.
func NewScanner(r io.Reader, opts ...ScannerOption) *Scanner {
	bs := bufio.NewScanner(r)
	bs.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	s := &Scanner{s: bs}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Scan advances to the next complete record group. It returns false at end
// of input or on a read error; check Err afterwards.
func (s *Scanner) Scan() bool {
	var (
		open      bool
		startLine int
		lines     []string
	)

	for s.s.Scan() {
		s.line++
		raw := s.s.Text()
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "{" && !open:
			open = true
			startLine = s.line
			lines = lines[:0]

		case trimmed == "}" || trimmed == "},":
			if !open {
				s.diags.Add(model.Diagnostic{
					Kind:   model.KindUnmatchedDelimiter,
					Line:   s.line,
					Detail: "record end with no open record",
				})
				s.logger.Warn("unmatched record delimiter", "line", s.line)
				continue
			}
			s.group = Group{StartLine: startLine, Lines: append([]string(nil), lines...)}
			return true

		case open:
			lines = append(lines, raw)

		default:
			// Outside any group; ignored by contract.
		}
	}

	if open {
		// The log ended inside a record; the partial group is discarded.
		s.diags.Add(model.Diagnostic{
			Kind:   model.KindUnterminatedList,
			Line:   startLine,
			Detail: "log ended inside a record group",
		})
		s.logger.Warn("log ended inside a record group", "startLine", startLine)
	}

	return false
}

// Group returns the group found by the last successful Scan.
func (s *Scanner) Group() Group {
	return s.group
}

// Err returns the first error encountered while reading the log, if any.
func (s *Scanner) Err() error {
	return s.s.Err()
}

// Diagnostics returns the scanner-level anomalies accumulated so far.
func (s *Scanner) Diagnostics() model.Diagnostics {
	return s.diags
}
