// Package main provides the entry point for the crawlytics CLI.
//
// Crawlytics analyzes crawler output logs: it extracts per-page metrics
// (payload size, outbound links, images), optionally resolves image byte
// sizes over HTTP, and reports metric distributions as histograms.
//
// Usage:
//
//	crawlytics analyze <crawl-log>
//	crawlytics history
//
// See --help for all available options.
package main

// main is the entry point for crawlytics.
func main() {
	Execute()
}
