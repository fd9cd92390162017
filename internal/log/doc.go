// Package log provides logging for crawl log analysis, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Automatic truncation of oversized attribute values
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Truncation
//
// Diagnostics quote raw log lines and URLs, and a malformed crawl log can
// put arbitrarily long text into an attribute. The TrimHandler bounds every
// string attribute so one bad line cannot flood the log output.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Warn("unrecognized line in record",
//	    "line", 712,
//	    "text", rawLine, // truncated if oversized
//	)
//
//	slog.SetDefault(logger)
package log
