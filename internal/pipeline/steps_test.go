package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/crawlytics/crawlytics/internal/database"
	"github.com/crawlytics/crawlytics/internal/fetch"
	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/stats"
)

// writeTestLog writes a small crawl log and returns its path.
func writeTestLog(t *testing.T, imageRef string) string {
	t.Helper()

	log := "{\n" +
		"  \"http://a\"\n" +
		"    \"size\": 1000,\n" +
		"    \"links\": [\n" +
		"      \"http://a/1\",\n" +
		"      \"http://a/2\"\n" +
		"    ],\n" +
		"    \"images\": [\n" +
		"      \"" + imageRef + "\"\n" +
		"    ]\n" +
		"},\n" +
		"{\n" +
		"  \"http://b\"\n" +
		"    \"size\": 2000,\n" +
		"    \"links\": [],\n" +
		"    \"images\": []\n" +
		"}\n"

	path := filepath.Join(t.TempDir(), "crawl.log")
	if err := os.WriteFile(path, []byte(log), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestParseStep tests log parsing into the analysis dataset.
func TestParseStep(t *testing.T) {
	t.Parallel()

	t.Run("builds dataset from log", func(t *testing.T) {
		t.Parallel()

		analysis := model.NewAnalysis(writeTestLog(t, "http://a/i.png"))
		step := NewParseStep()

		if err := step.Do(context.Background(), analysis); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if analysis.Dataset.Len() != 2 {
			t.Errorf("Len() = %d, want 2", analysis.Dataset.Len())
		}
		if got := analysis.Dataset.ImageRefs(); len(got) != 1 || got[0] != "http://a/i.png" {
			t.Errorf("ImageRefs = %v", got)
		}
	})

	t.Run("missing log file fails", func(t *testing.T) {
		t.Parallel()

		analysis := model.NewAnalysis(filepath.Join(t.TempDir(), "absent.log"))
		if err := NewParseStep().Do(context.Background(), analysis); err == nil {
			t.Error("expected an error for a missing log")
		}
	})

	t.Run("honors record cap", func(t *testing.T) {
		t.Parallel()

		analysis := model.NewAnalysis(writeTestLog(t, "http://a/i.png"))
		step := NewParseStep(WithParseMaxRecords(1))

		if err := step.Do(context.Background(), analysis); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if analysis.Dataset.Len() != 1 {
			t.Errorf("Len() = %d, want 1", analysis.Dataset.Len())
		}
		if analysis.Diagnostics.SkippedByCap != 1 {
			t.Errorf("SkippedByCap = %d, want 1", analysis.Diagnostics.SkippedByCap)
		}
	})
}

// TestEnrichStep tests image size resolution against a local server.
func TestEnrichStep(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "7777")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	analysis := model.NewAnalysis(writeTestLog(t, srv.URL+"/i.png"))
	if err := NewParseStep().Do(context.Background(), analysis); err != nil {
		t.Fatalf("parse: %v", err)
	}

	resolver := fetch.NewResolver(fetch.WithHTTPClient(srv.Client()))
	step := NewEnrichStep(resolver)

	if err := step.Do(context.Background(), analysis); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !analysis.FetchEnabled {
		t.Error("FetchEnabled not set")
	}

	samples := analysis.Dataset.ImageSamples()
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	if samples[0].SizeBytes != 7777 || samples[0].Outcome != model.OutcomeResolved {
		t.Errorf("sample = %+v", samples[0])
	}
}

// TestHistogramStep tests per-column histogram computation.
func TestHistogramStep(t *testing.T) {
	t.Parallel()

	t.Run("computes configured columns", func(t *testing.T) {
		t.Parallel()

		analysis := model.NewAnalysis(writeTestLog(t, "http://a/i.png"))
		if err := NewParseStep().Do(context.Background(), analysis); err != nil {
			t.Fatalf("parse: %v", err)
		}

		specs := map[string]stats.Spec{
			model.ColumnSize:      {BucketCount: 4, Low: 0, High: 4000},
			model.ColumnLinkCount: {BucketCount: 4, Low: 0, High: 4},
		}
		if err := NewHistogramStep(specs).Do(context.Background(), analysis); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		size, ok := analysis.Histograms[model.ColumnSize]
		if !ok {
			t.Fatal("size histogram missing")
		}
		// Sizes 1000 and 2000 land in buckets 1 and 2 of width 1000.
		if size.Weights[1] != 1 || size.Weights[2] != 1 {
			t.Errorf("size weights = %v", size.Weights)
		}
	})

	t.Run("skips image sizes without enrichment", func(t *testing.T) {
		t.Parallel()

		analysis := model.NewAnalysis(writeTestLog(t, "http://a/i.png"))
		if err := NewParseStep().Do(context.Background(), analysis); err != nil {
			t.Fatalf("parse: %v", err)
		}

		specs := map[string]stats.Spec{
			model.ColumnImageSize: {BucketCount: 4, Low: 0, High: 4000},
		}
		if err := NewHistogramStep(specs).Do(context.Background(), analysis); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if _, ok := analysis.Histograms[model.ColumnImageSize]; ok {
			t.Error("image_size histogram must be skipped when enrichment did not run")
		}
	})
}

// TestSaveStep tests persistence of a completed run.
func TestSaveStep(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	analysis := model.NewAnalysis(writeTestLog(t, "http://a/i.png"))
	if err := NewParseStep().Do(context.Background(), analysis); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := NewSaveStep(db).Do(context.Background(), analysis); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if analysis.Elapsed <= 0 {
		t.Error("Elapsed not stamped by the save step")
	}

	runs, err := db.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Pages != 2 {
		t.Errorf("unexpected stored runs: %+v", runs)
	}
}
