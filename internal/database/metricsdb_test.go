package database

import (
	"context"
	"testing"
	"time"

	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/stats"
)

// openTestDB opens a MetricsDB in a temp directory.
func openTestDB(t *testing.T) *MetricsDB {
	t.Helper()

	mdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mdb.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return mdb
}

// testAnalysis builds an analysis with two pages, samples, and a histogram.
func testAnalysis() *model.Analysis {
	analysis := model.NewAnalysis("testdata/crawl.log")
	analysis.StartedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	analysis.Elapsed = 1500 * time.Millisecond
	analysis.FetchEnabled = true

	analysis.Dataset.AppendRecord(model.PageRecord{
		Link: "http://a", SizeBytes: 1200, SizeKnown: true,
		OutboundLinkCount: 3, ImageCount: 1, ImageRefs: []string{"http://a/i.png"},
	})
	analysis.Dataset.AppendRecord(model.PageRecord{
		Link: "http://b", OutboundLinkCount: 1,
	})
	analysis.Dataset.AppendImageSamples(model.ImageSizeSample{
		Ref: "http://a/i.png", SizeBytes: 5000, Outcome: model.OutcomeResolved,
	})

	spec := stats.Spec{BucketCount: 4, Low: 0, High: 2000}
	values, _ := analysis.Dataset.Column(model.ColumnSize)
	result, _ := stats.Compute(values, spec)
	analysis.Specs[model.ColumnSize] = spec
	analysis.Histograms[model.ColumnSize] = result

	analysis.Diagnostics.Add(model.Diagnostic{
		Kind: model.KindMalformedField, Line: 9, Record: "http://b",
	})

	return analysis
}

// TestOpenRequiresExistingDB tests the CreateIfNotExists option.
func TestOpenRequiresExistingDB(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
	if err == nil {
		t.Fatal("expected an error when the database does not exist")
	}
}

// TestSaveAndListRuns tests the save and history paths together.
func TestSaveAndListRuns(t *testing.T) {
	t.Parallel()

	mdb := openTestDB(t)
	ctx := context.Background()

	runID, err := mdb.SaveAnalysis(ctx, testAnalysis())
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	if runID == 0 {
		t.Error("expected a non-zero run ID")
	}

	runs, err := mdb.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}

	run := runs[0]
	if run.ID != runID || run.Source != "testdata/crawl.log" {
		t.Errorf("unexpected run metadata: %+v", run)
	}
	if run.Pages != 2 || run.ImageRefs != 1 {
		t.Errorf("Pages/ImageRefs = %d/%d, want 2/1", run.Pages, run.ImageRefs)
	}
	if !run.FetchEnabled {
		t.Error("FetchEnabled not persisted")
	}
	if run.Elapsed != 1500*time.Millisecond {
		t.Errorf("Elapsed = %s", run.Elapsed)
	}
	if run.Diagnostics.MalformedFields != 1 {
		t.Errorf("diagnostics not round-tripped: %+v", run.Diagnostics)
	}
	if run.StartedAt.IsZero() {
		t.Error("StartedAt did not parse")
	}
}

// TestGetRunPages tests that page rows round-trip, including NULL sizes.
func TestGetRunPages(t *testing.T) {
	t.Parallel()

	mdb := openTestDB(t)
	ctx := context.Background()

	runID, err := mdb.SaveAnalysis(ctx, testAnalysis())
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}

	pages, err := mdb.GetRunPages(ctx, runID)
	if err != nil {
		t.Fatalf("GetRunPages() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}

	if pages[0].Link != "http://a" || !pages[0].SizeKnown || pages[0].SizeBytes != 1200 {
		t.Errorf("unexpected first page: %+v", pages[0])
	}
	if pages[1].Link != "http://b" {
		t.Errorf("unexpected second page: %+v", pages[1])
	}
	if pages[1].SizeKnown || pages[1].SizeBytes != 0 {
		t.Errorf("absent size must come back as unknown, got %+v", pages[1])
	}
}

// TestGetRunHistograms tests histogram round-trips.
func TestGetRunHistograms(t *testing.T) {
	t.Parallel()

	mdb := openTestDB(t)
	ctx := context.Background()

	analysis := testAnalysis()
	runID, err := mdb.SaveAnalysis(ctx, analysis)
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}

	histograms, err := mdb.GetRunHistograms(ctx, runID)
	if err != nil {
		t.Fatalf("GetRunHistograms() error = %v", err)
	}

	got, ok := histograms[model.ColumnSize]
	if !ok {
		t.Fatal("size histogram missing")
	}
	want := analysis.Histograms[model.ColumnSize]
	if len(got.Weights) != len(want.Weights) {
		t.Fatalf("weights length = %d, want %d", len(got.Weights), len(want.Weights))
	}
	for i := range want.Weights {
		if got.Weights[i] != want.Weights[i] {
			t.Errorf("weights[%d] = %d, want %d", i, got.Weights[i], want.Weights[i])
		}
	}
}

// TestGetRun tests single-run lookup and the not-found path.
func TestGetRun(t *testing.T) {
	t.Parallel()

	mdb := openTestDB(t)
	ctx := context.Background()

	runID, err := mdb.SaveAnalysis(ctx, testAnalysis())
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}

	run, err := mdb.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.ID != runID {
		t.Errorf("ID = %d, want %d", run.ID, runID)
	}

	if _, err := mdb.GetRun(ctx, runID+999); err == nil {
		t.Error("expected an error for a missing run")
	}
}

// TestListRunsNewestFirst tests the history ordering.
func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	mdb := openTestDB(t)
	ctx := context.Background()

	first := testAnalysis()
	second := testAnalysis()
	second.Source = "testdata/later.log"
	second.StartedAt = first.StartedAt.Add(time.Hour)

	if _, err := mdb.SaveAnalysis(ctx, first); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	if _, err := mdb.SaveAnalysis(ctx, second); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}

	runs, err := mdb.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Source != "testdata/later.log" {
		t.Errorf("newest run first, got %q", runs[0].Source)
	}
}
