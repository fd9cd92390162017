package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/stats"
)

// MetricsDB provides SQLite-based storage for analysis runs.
// It manages connection pooling and provides methods for saving and
// querying historical runs.
type MetricsDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures MetricsDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a MetricsDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*MetricsDB, error) {
	dbPath := filepath.Join(dbDir, "crawlytics.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	mdb := &MetricsDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := mdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return mdb, nil
}

// Close closes the database connection.
func (mdb *MetricsDB) Close() error {
	return mdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (mdb *MetricsDB) createTables() error {
	schema := `
	-- Runs store one row per analyzed crawl log
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		fetch_enabled INTEGER NOT NULL DEFAULT 0,
		pages INTEGER NOT NULL,
		image_refs INTEGER NOT NULL,
		diagnostics TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages store per-page metric rows for a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		link TEXT NOT NULL,
		size_bytes INTEGER,
		num_links INTEGER NOT NULL,
		num_images INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);

	-- Image samples store resolved image sizes for a run
	CREATE TABLE IF NOT EXISTS image_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		outcome TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_run ON image_samples(run_id);

	-- Histograms store the computed result per column as JSON
	CREATE TABLE IF NOT EXISTS histograms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		column_name TEXT NOT NULL,
		spec_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		UNIQUE(run_id, column_name)
	);
	`

	_, err := mdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnalysis persists one completed analysis and returns its run ID.
// The run row, its pages, image samples, and histograms are written in a
// single transaction so a partial run is never visible.
func (mdb *MetricsDB) SaveAnalysis(ctx context.Context, analysis *model.Analysis) (int64, error) {
	diagsJSON, err := json.Marshal(analysis.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize diagnostics: %w", err)
	}

	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (source, started_at, elapsed_ms, fetch_enabled, pages, image_refs, diagnostics)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		analysis.Source,
		analysis.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		analysis.Elapsed.Milliseconds(),
		analysis.FetchEnabled,
		analysis.Dataset.Len(),
		len(analysis.Dataset.ImageRefs()),
		string(diagsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	if err := insertPages(ctx, tx, runID, analysis.Dataset); err != nil {
		return 0, err
	}
	if err := insertImageSamples(ctx, tx, runID, analysis.Dataset.ImageSamples()); err != nil {
		return 0, err
	}
	if err := insertHistograms(ctx, tx, runID, analysis); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// insertPages writes one row per page. An unknown size is stored as NULL,
// never as zero.
func insertPages(ctx context.Context, tx *sql.Tx, runID int64, ds *model.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, link, size_bytes, num_links, num_images)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < ds.Len(); i++ {
		row := ds.RowAt(i)
		var size any
		if row.SizeKnown {
			size = row.SizeBytes
		}
		if _, err := stmt.ExecContext(ctx, runID, row.Link, size, row.OutboundLinkCount, row.ImageCount); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", row.Link, err)
		}
	}
	return nil
}

// insertImageSamples writes the resolved image size samples.
func insertImageSamples(ctx context.Context, tx *sql.Tx, runID int64, samples []model.ImageSizeSample) error {
	if len(samples) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO image_samples (run_id, ref, size_bytes, outcome)
	VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, runID, s.Ref, s.SizeBytes, string(s.Outcome)); err != nil {
			return fmt.Errorf("failed to insert image sample %s: %w", s.Ref, err)
		}
	}
	return nil
}

// insertHistograms writes the computed histogram per column as JSON blobs.
func insertHistograms(ctx context.Context, tx *sql.Tx, runID int64, analysis *model.Analysis) error {
	for name, result := range analysis.Histograms {
		specJSON, err := json.Marshal(analysis.Specs[name])
		if err != nil {
			return fmt.Errorf("failed to serialize histogram spec %s: %w", name, err)
		}
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to serialize histogram %s: %w", name, err)
		}

		_, err = tx.ExecContext(ctx, `
		INSERT INTO histograms (run_id, column_name, spec_json, result_json)
		VALUES (?, ?, ?, ?)
		`, runID, name, string(specJSON), string(resultJSON))
		if err != nil {
			return fmt.Errorf("failed to insert histogram %s: %w", name, err)
		}
	}
	return nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading full rows.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Source identifies the analyzed crawl log.
	Source string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Elapsed is the total run duration.
	Elapsed time.Duration

	// FetchEnabled reports whether image size enrichment ran.
	FetchEnabled bool

	// Pages is the number of page rows stored.
	Pages int

	// ImageRefs is the number of image references seen.
	ImageRefs int

	// Diagnostics is the run's anomaly record.
	Diagnostics model.Diagnostics
}

// ListRuns returns stored runs, newest first.
func (mdb *MetricsDB) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	rows, err := mdb.db.QueryContext(ctx, `
	SELECT id, source, started_at, elapsed_ms, fetch_enabled, pages, image_refs, diagnostics
	FROM runs
	ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var (
			meta      RunMetadata
			started   string
			elapsedMS int64
			diagsJSON string
		)
		if err := rows.Scan(&meta.ID, &meta.Source, &started, &elapsedMS,
			&meta.FetchEnabled, &meta.Pages, &meta.ImageRefs, &diagsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(diagsJSON), &meta.Diagnostics); err != nil {
			return nil, fmt.Errorf("failed to parse run diagnostics: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// GetRunPages returns the per-page rows of a run in insertion order.
func (mdb *MetricsDB) GetRunPages(ctx context.Context, runID int64) ([]model.Row, error) {
	rows, err := mdb.db.QueryContext(ctx, `
	SELECT link, size_bytes, num_links, num_images
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run pages: %w", err)
	}
	defer rows.Close()

	var pages []model.Row
	for rows.Next() {
		var (
			row  model.Row
			size sql.NullInt64
		)
		if err := rows.Scan(&row.Link, &size, &row.OutboundLinkCount, &row.ImageCount); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		row.SizeBytes = size.Int64
		row.SizeKnown = size.Valid
		pages = append(pages, row)
	}
	return pages, rows.Err()
}

// GetRunHistograms returns the stored histograms of a run keyed by column.
func (mdb *MetricsDB) GetRunHistograms(ctx context.Context, runID int64) (map[string]*stats.Result, error) {
	rows, err := mdb.db.QueryContext(ctx, `
	SELECT column_name, result_json
	FROM histograms
	WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run histograms: %w", err)
	}
	defer rows.Close()

	histograms := make(map[string]*stats.Result)
	for rows.Next() {
		var (
			name       string
			resultJSON string
		)
		if err := rows.Scan(&name, &resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan histogram: %w", err)
		}
		var result stats.Result
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to parse histogram %s: %w", name, err)
		}
		histograms[name] = &result
	}
	return histograms, rows.Err()
}

// GetRun returns the metadata of one run, or an error when it is absent.
func (mdb *MetricsDB) GetRun(ctx context.Context, runID int64) (*RunMetadata, error) {
	row := mdb.db.QueryRowContext(ctx, `
	SELECT id, source, started_at, elapsed_ms, fetch_enabled, pages, image_refs, diagnostics
	FROM runs
	WHERE id = ?
	`, runID)

	var (
		meta      RunMetadata
		started   string
		elapsedMS int64
		diagsJSON string
	)
	err := row.Scan(&meta.ID, &meta.Source, &started, &elapsedMS,
		&meta.FetchEnabled, &meta.Pages, &meta.ImageRefs, &diagsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	meta.StartedAt = parseTimestamp(started)
	meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if err := json.Unmarshal([]byte(diagsJSON), &meta.Diagnostics); err != nil {
		return nil, fmt.Errorf("failed to parse run diagnostics: %w", err)
	}
	return &meta, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
