package dataset

import (
	"fmt"
	"strings"
	"testing"

	"github.com/crawlytics/crawlytics/internal/model"
)

// record renders one well-formed log record for tests.
func record(link string, size int64, links, images int) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	fmt.Fprintf(&sb, "  %q\n", link)
	fmt.Fprintf(&sb, "    \"size\": %d,\n", size)
	if links == 0 {
		sb.WriteString("    \"links\": [],\n")
	} else {
		sb.WriteString("    \"links\": [\n")
		for i := 0; i < links; i++ {
			fmt.Fprintf(&sb, "      %q,\n", fmt.Sprintf("%s/l%d", link, i))
		}
		sb.WriteString("    ],\n")
	}
	if images == 0 {
		sb.WriteString("    \"images\": []\n")
	} else {
		sb.WriteString("    \"images\": [\n")
		for i := 0; i < images; i++ {
			fmt.Fprintf(&sb, "      %q,\n", fmt.Sprintf("%s/i%d.png", link, i))
		}
		sb.WriteString("    ]\n")
	}
	sb.WriteString("},\n")
	return sb.String()
}

// TestBuilderIngest tests end-to-end ingestion of a small log.
func TestBuilderIngest(t *testing.T) {
	t.Parallel()

	log := record("http://a", 1000, 2, 1) +
		record("http://b", 2500, 0, 0) +
		record("http://c", 40, 1, 3)

	b := NewBuilder()
	if err := b.Ingest(strings.NewReader(log)); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	ds, diags := b.Build()
	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}
	if diags.Total() != 0 {
		t.Errorf("expected no diagnostics, got %+v", diags)
	}

	row := ds.RowAt(0)
	if row.Link != "http://a" || row.SizeBytes != 1000 || row.OutboundLinkCount != 2 || row.ImageCount != 1 {
		t.Errorf("unexpected first row: %+v", row)
	}
	if got := ds.ImageRefs(); len(got) != 4 {
		t.Errorf("ImageRefs = %v, want 4 refs", got)
	}

	col, err := ds.Column(model.ColumnLinkCount)
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if len(col) != 3 || col[0] != 2 || col[1] != 0 || col[2] != 1 {
		t.Errorf("num_links column = %v", col)
	}
}

// TestBuilderRecordCap tests that the cap bounds accepted records and that
// overflow is accounted separately from parse failures.
func TestBuilderRecordCap(t *testing.T) {
	t.Parallel()

	var log strings.Builder
	for i := 0; i < 10; i++ {
		log.WriteString(record(fmt.Sprintf("http://p%d", i), int64(i*100), 0, 0))
	}

	b := NewBuilder(WithMaxRecords(4))
	if err := b.Ingest(strings.NewReader(log.String())); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	ds, diags := b.Build()
	if ds.Len() != 4 {
		t.Errorf("Len() = %d, want 4", ds.Len())
	}
	if diags.SkippedByCap != 6 {
		t.Errorf("SkippedByCap = %d, want 6", diags.SkippedByCap)
	}
	if diags.SkippedRecords != 0 {
		t.Errorf("SkippedRecords = %d, want 0: cap overflow must not count as a parse failure", diags.SkippedRecords)
	}

	// The first records in log order win.
	if ds.RowAt(3).Link != "http://p3" {
		t.Errorf("RowAt(3).Link = %q, want http://p3", ds.RowAt(3).Link)
	}
}

// TestBuilderCapCountsAcceptedRecords tests that discarded records do not
// consume cap slots.
func TestBuilderCapCountsAcceptedRecords(t *testing.T) {
	t.Parallel()

	broken := "{\n    \"size\": 10,\n    \"links\": [],\n    \"images\": []\n},\n"
	log := broken + record("http://a", 1, 0, 0) + record("http://b", 2, 0, 0)

	b := NewBuilder(WithMaxRecords(2))
	if err := b.Ingest(strings.NewReader(log)); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	ds, diags := b.Build()
	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2: the broken record must not occupy a cap slot", ds.Len())
	}
	if diags.SkippedRecords != 1 {
		t.Errorf("SkippedRecords = %d, want 1", diags.SkippedRecords)
	}
	if diags.SkippedByCap != 0 {
		t.Errorf("SkippedByCap = %d, want 0", diags.SkippedByCap)
	}
}

// TestBuilderMultipleIngests tests that rows from successive logs are
// appended in ingest order.
func TestBuilderMultipleIngests(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	if err := b.Ingest(strings.NewReader(record("http://a", 1, 0, 0))); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if err := b.Ingest(strings.NewReader(record("http://b", 2, 0, 0))); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	ds, _ := b.Build()
	if ds.Len() != 2 || ds.RowAt(0).Link != "http://a" || ds.RowAt(1).Link != "http://b" {
		t.Errorf("unexpected rows: %v", ds.Links())
	}
}
