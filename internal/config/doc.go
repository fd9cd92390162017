// Package config provides configuration structures and utilities for
// crawl log analysis. It defines the main options for record ingestion,
// image size enrichment, histogram shapes, and report generation.
package config
