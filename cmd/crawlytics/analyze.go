package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crawlytics/crawlytics/internal/config"
	"github.com/crawlytics/crawlytics/internal/database"
	"github.com/crawlytics/crawlytics/internal/fetch"
	"github.com/crawlytics/crawlytics/internal/log"
	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/pipeline"
	"github.com/crawlytics/crawlytics/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [crawl-log]...",
		Short: "Analyze one or more crawl logs",
		Long: `Analyze extracts per-page metrics from crawl logs and reports their
distributions.

For each log it parses the line-oriented record format, builds a dataset of
page size, outbound link count, and image count, optionally resolves image
byte sizes over HTTP, computes histograms per metric, and writes a report.
Runs are saved to a local SQLite database unless --no-db is given.

Examples:
  # Analyze a single log with the default sample cap
  crawlytics analyze crawl.log

  # Full pass over a log, no record cap
  crawlytics analyze --max-records 0 crawl.log

  # Resolve image sizes politely (4 workers, 2 requests/second)
  crawlytics analyze --fetch-images --concurrency 4 --rate 2 crawl.log

  # JSON report to a file
  crawlytics analyze --json -o report.json crawl.log

  # Histogram weight CSVs for plotting
  crawlytics analyze --csv-dir weights/ crawl.log

  # Several logs concurrently
  crawlytics analyze --batch 4 day1.log day2.log day3.log

Configuration file (.crawlytics) example:
  max_records: 0
  fetch_images: true
  histograms:
    size:
      buckets: 50
      high: 2500000
    num_links:
      high: 1500`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Ingestion flags
	cmd.Flags().IntP("max-records", "n", config.DefaultMaxRecords,
		"Maximum records to ingest per log (0 = unlimited)")

	// Enrichment flags
	cmd.Flags().BoolP("fetch-images", "f", false,
		"Resolve image byte sizes over HTTP")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Concurrent image size fetches")
	cmd.Flags().Duration("fetch-timeout", config.DefaultFetchTimeout,
		"Timeout for each image size request")
	cmd.Flags().Float64("rate", 0,
		"Maximum image size requests per second (0 = unlimited)")

	// Batch flags
	cmd.Flags().IntP("batch", "b", 4,
		"Number of logs analyzed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .crawlytics in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("csv-dir", "",
		"Write per-metric histogram weight CSVs into this directory")

	// Persistence flags
	cmd.Flags().Bool("no-db", false,
		"Skip saving the run to the metrics database")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnalyze(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load settings from the config file before flags so explicit flags
	// win over file values below.
	// If the user explicitly specified a config file path, error if not
	// found. If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.FileConfig, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.FileConfig.Apply(cfg); err != nil {
			return nil, err
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("max-records") {
		cfg.MaxRecords, err = cmd.Flags().GetInt("max-records")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("fetch-images") {
		cfg.FetchImages, err = cmd.Flags().GetBool("fetch-images")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("fetch-timeout") {
		cfg.FetchTimeout, err = cmd.Flags().GetDuration("fetch-timeout")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("rate") {
		cfg.RateLimit, err = cmd.Flags().GetFloat64("rate")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("batch") {
		cfg.BatchConcurrency, err = cmd.Flags().GetInt("batch")
		if err != nil {
			return nil, err
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.CSVDir, err = cmd.Flags().GetString("csv-dir")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	// Positional arguments are the crawl log paths
	cfg.Logs = args

	return cfg, nil
}

// runAnalyze executes the analysis for every configured log.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"logs", cfg.Logs,
		"maxRecords", cfg.MaxRecords,
		"fetchImages", cfg.FetchImages,
		"saveToDB", cfg.SaveToDB,
	)

	// Open the database if saving is enabled
	var db *database.MetricsDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	factory := pipelineFactory(cfg, db, logger)

	if len(cfg.Logs) > 1 {
		return runBatchAnalyze(ctx, cfg, factory, logger)
	}
	return runSingleAnalyze(ctx, cfg, factory, logger)
}

// pipelineFactory builds a fresh pipeline per run from the configuration.
func pipelineFactory(cfg *config.Config, db *database.MetricsDB, logger *slog.Logger) func() *pipeline.Pipeline {
	return func() *pipeline.Pipeline {
		p := pipeline.New(
			pipeline.WithLogger(logger),
		)

		p.AddStep(pipeline.NewParseStep(
			pipeline.WithParseMaxRecords(cfg.MaxRecords),
			pipeline.WithParseLogger(logger),
		))

		if cfg.FetchImages {
			resolver := fetch.NewResolver(
				fetch.WithConcurrency(cfg.Concurrency),
				fetch.WithTimeout(cfg.FetchTimeout),
				fetch.WithRateLimit(cfg.RateLimit),
				fetch.WithUserAgent(cfg.UserAgent),
				fetch.WithResolverLogger(logger),
			)
			p.AddStep(pipeline.NewEnrichStep(resolver,
				pipeline.WithEnrichLogger(logger),
			))
		}

		p.AddStep(pipeline.NewHistogramStep(cfg.Specs,
			pipeline.WithHistogramLogger(logger),
		))

		if db != nil {
			p.AddStep(pipeline.NewSaveStep(db,
				pipeline.WithSaveLogger(logger),
			))
		}

		return p
	}
}

// runSingleAnalyze analyzes one log and writes its report.
func runSingleAnalyze(ctx context.Context, cfg *config.Config, factory func() *pipeline.Pipeline, logger *slog.Logger) error {
	source := cfg.Logs[0]
	analysis := model.NewAnalysis(source)

	startTime := time.Now()
	if err := factory().Execute(ctx, analysis); err != nil {
		return fmt.Errorf("analysis of %s failed: %w", source, err)
	}
	analysis.Elapsed = time.Since(analysis.StartedAt)

	logger.Info("analysis complete",
		"source", source,
		"pages", analysis.Dataset.Len(),
		"elapsed", time.Since(startTime),
	)

	return outputReport(cfg, analysis)
}

// runBatchAnalyze analyzes multiple logs concurrently.
func runBatchAnalyze(ctx context.Context, cfg *config.Config, factory func() *pipeline.Pipeline, logger *slog.Logger) error {
	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithBatchConcurrency(cfg.BatchConcurrency),
		pipeline.WithBatchLogger(logger),
	)

	results, err := bp.ProcessBatch(ctx, cfg.Logs)
	if err != nil {
		return err
	}

	for _, analysis := range results {
		if analysis == nil {
			continue
		}
		if analysis.ErrorMessage != "" {
			fmt.Fprintf(os.Stderr, "Analysis error for %s: %s\n", analysis.Source, analysis.ErrorMessage)
			continue
		}
		if err := outputReport(cfg, analysis); err != nil {
			logger.Error("report failed", "source", analysis.Source, "error", err)
		}
	}
	return nil
}

// outputReport renders the analysis to the configured destinations.
func outputReport(cfg *config.Config, analysis *model.Analysis) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var primary report.Writer
	switch {
	case cfg.JSONReport:
		primary = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		primary = report.NewMarkdownWriter(output)
	default:
		primary = report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	}

	writers := []report.Writer{primary}
	if cfg.CSVDir != "" {
		writers = append(writers, report.NewCSVWriter(cfg.CSVDir))
	}

	_, err := report.NewMultiWriter(writers...).Write(analysis)
	return err
}
