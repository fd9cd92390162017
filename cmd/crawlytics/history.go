package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/crawlytics/crawlytics/internal/config"
	"github.com/crawlytics/crawlytics/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past analysis runs",
		Long: `History lists analysis runs saved in the local metrics database,
newest first. Given a run ID it shows that run's details instead.

Examples:
  # List all saved runs
  crawlytics history

  # Show details for run 12
  crawlytics history 12

  # List runs as JSON
  crawlytics history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory containing the metrics database")
	cmd.Flags().BoolP("json", "j", false,
		"Output runs as JSON")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of runs to list (0 = all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Never create a database here: an empty history is not a reason to
	// leave an empty database behind.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no metrics database in %s (run an analysis first): %w", dbDir, err)
	}
	defer db.Close()

	if len(args) == 1 {
		runID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
		return showRun(cmd, db, runID, asJSON)
	}

	return listRuns(cmd, db, limit, asJSON)
}

// listRuns prints the saved runs, newest first.
func listRuns(cmd *cobra.Command, db *database.MetricsDB, limit int, asJSON bool) error {
	runs, err := db.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tSTARTED\tELAPSED\tPAGES\tIMAGE REFS\tFETCH")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%v\n",
			run.ID,
			run.Source,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Elapsed.Round(time.Millisecond),
			run.Pages,
			run.ImageRefs,
			run.FetchEnabled,
		)
	}
	return w.Flush()
}

// showRun prints one run's metadata and histograms.
func showRun(cmd *cobra.Command, db *database.MetricsDB, runID int64, asJSON bool) error {
	run, err := db.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	histograms, err := db.GetRunHistograms(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to load histograms: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Run        *database.RunMetadata `json:"run"`
			Histograms any                   `json:"histograms"`
		}{Run: run, Histograms: histograms})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d\n", run.ID)
	fmt.Fprintf(out, "  Source:      %s\n", run.Source)
	fmt.Fprintf(out, "  Started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Elapsed:     %s\n", run.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Pages:       %d\n", run.Pages)
	fmt.Fprintf(out, "  Image refs:  %d\n", run.ImageRefs)
	fmt.Fprintf(out, "  Fetch:       %v\n", run.FetchEnabled)
	fmt.Fprintf(out, "  Skipped:     %d records, %d by cap\n",
		run.Diagnostics.SkippedRecords, run.Diagnostics.SkippedByCap)

	for name, result := range histograms {
		fmt.Fprintf(out, "\n  %s: %d buckets, total weight %d\n",
			name, len(result.Weights), result.TotalWeight())
	}
	return nil
}
