package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/crawlytics/crawlytics/internal/database"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [run-id]" {
			t.Errorf("expected use 'history [run-id]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has db-dir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag == nil {
			t.Fatal("expected db-dir flag")
		}
		if flag.DefValue == "" {
			t.Error("expected db-dir to default to the XDG data directory")
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
	})
}

// seedHistoryDB creates a database in dir with n saved runs.
func seedHistoryDB(t *testing.T, dir string, n int) {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	for i := 0; i < n; i++ {
		if _, err := db.SaveAnalysis(context.Background(), testAnalysisForReport(t)); err != nil {
			t.Fatalf("failed to save analysis: %v", err)
		}
	}
}

// runHistory executes the history command with args and returns its output.
func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(append([]string{"history"}, args...))
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)

	err := rootCmd.Execute()
	return buf.String(), err
}

// TestRunHistoryCmdNoDatabase tests that a missing database is reported
// rather than created.
func TestRunHistoryCmdNoDatabase(t *testing.T) {
	t.Parallel()

	_, err := runHistory(t, "--db-dir", t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing database")
	}
	if !strings.Contains(err.Error(), "no metrics database") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestRunHistoryCmdListsRuns tests the run listing.
func TestRunHistoryCmdListsRuns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistoryDB(t, dir, 2)

	output, err := runHistory(t, "--db-dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "SOURCE") {
		t.Errorf("expected table header in output, got %q", output)
	}
	if strings.Count(output, "crawl.log") != 2 {
		t.Errorf("expected 2 runs in output, got %q", output)
	}
}

// TestRunHistoryCmdEmptyDatabase tests listing with no saved runs.
func TestRunHistoryCmdEmptyDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistoryDB(t, dir, 0)

	output, err := runHistory(t, "--db-dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "No saved runs") {
		t.Errorf("expected empty-history message, got %q", output)
	}
}

// TestRunHistoryCmdLimit tests the --limit flag.
func TestRunHistoryCmdLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistoryDB(t, dir, 3)

	output, err := runHistory(t, "--db-dir", dir, "--limit", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(output, "crawl.log") != 1 {
		t.Errorf("expected 1 run in output, got %q", output)
	}
}

// TestRunHistoryCmdJSON tests JSON output of the run list.
func TestRunHistoryCmdJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistoryDB(t, dir, 1)

	output, err := runHistory(t, "--db-dir", dir, "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var runs []map[string]any
	if err := json.Unmarshal([]byte(output), &runs); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

// TestRunHistoryCmdShowRun tests showing one run's details.
func TestRunHistoryCmdShowRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistoryDB(t, dir, 1)

	output, err := runHistory(t, "--db-dir", dir, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "Run 1") {
		t.Errorf("expected run header, got %q", output)
	}
	if !strings.Contains(output, "crawl.log") {
		t.Errorf("expected source in output, got %q", output)
	}
	if !strings.Contains(output, "size") {
		t.Errorf("expected histogram summary in output, got %q", output)
	}
}

// TestRunHistoryCmdUnknownRun tests showing a run that does not exist.
func TestRunHistoryCmdUnknownRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistoryDB(t, dir, 1)

	_, err := runHistory(t, "--db-dir", dir, "99")
	if err == nil {
		t.Fatal("expected error for unknown run ID")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestRunHistoryCmdInvalidRunID tests a non-numeric run ID argument.
func TestRunHistoryCmdInvalidRunID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistoryDB(t, dir, 1)

	_, err := runHistory(t, "--db-dir", dir, "abc")
	if err == nil {
		t.Fatal("expected error for invalid run ID")
	}
	if !strings.Contains(err.Error(), "invalid run ID") {
		t.Errorf("unexpected error: %v", err)
	}
}
