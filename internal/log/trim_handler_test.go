package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestTrimHandlerTruncatesLongValues tests that oversized string values are
// bounded.
func TestTrimHandlerTruncatesLongValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(16),
	))

	long := strings.Repeat("x", 100)
	logger.Info("parsed line", "text", long)

	output := buf.String()
	if strings.Contains(output, long) {
		t.Error("oversized value was not truncated")
	}
	if !strings.Contains(output, truncationMarker) {
		t.Error("truncated value missing marker")
	}
	if !strings.Contains(output, strings.Repeat("x", 16)) {
		t.Error("truncated value missing retained prefix")
	}
}

// TestTrimHandlerKeepsShortValues tests that values within the bound pass
// through unchanged.
func TestTrimHandlerKeepsShortValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("parsed line", "url", "http://example.com/page", "count", 42)

	output := buf.String()
	if !strings.Contains(output, "http://example.com/page") {
		t.Error("short value was altered")
	}
	if strings.Contains(output, truncationMarker) {
		t.Error("short value was truncated")
	}
}

// TestTrimHandlerGroups tests recursion into grouped attributes.
func TestTrimHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(8),
	))

	logger.Info("record skipped",
		slog.Group("record",
			slog.String("link", strings.Repeat("y", 50)),
		),
	)

	if !strings.Contains(buf.String(), truncationMarker) {
		t.Error("grouped value was not truncated")
	}
}

// TestTrimHandlerWithAttrs tests that pre-bound attributes are trimmed too.
func TestTrimHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(8),
	))

	logger := base.With("source", strings.Repeat("z", 30))
	logger.Info("run started")

	if !strings.Contains(buf.String(), truncationMarker) {
		t.Error("bound attribute was not truncated")
	}
}

// TestNewLoggerLevels tests the verbose flag mapping.
func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	var quiet bytes.Buffer
	NewLogger(&quiet, false).Info("hidden")
	if quiet.Len() != 0 {
		t.Error("non-verbose logger must suppress info messages")
	}

	var verbose bytes.Buffer
	NewLogger(&verbose, true).Debug("visible")
	if verbose.Len() == 0 {
		t.Error("verbose logger must emit debug messages")
	}
}
