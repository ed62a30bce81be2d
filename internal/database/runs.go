package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// RunDB provides SQLite-based storage for validation runs.
// It is an output sink only: the engine never reads archived runs to
// influence a scan, and the compare command is the sole consumer.
//
// Design decision: We use a single database file holding every run
// rather than one file per run. This makes run-over-run comparison a
// plain query and keeps backup/restore a single-file operation.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
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

// Open opens or creates a RunDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "proxyscan.db")

	// Check if we should create the database or require it to exist
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

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY during archiving.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- Runs store one row per validation run with its summary
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		reference_ip TEXT,
		total INTEGER NOT NULL,
		working INTEGER NOT NULL,
		anonymous INTEGER NOT NULL,
		avg_latency_ms INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at);

	-- Results store one row per probed candidate within a run
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		endpoint TEXT NOT NULL,
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		working INTEGER NOT NULL,
		reason TEXT NOT NULL,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		exit_ip TEXT,
		anonymity TEXT NOT NULL,
		country TEXT,
		tested_at DATETIME NOT NULL,
		UNIQUE(run_id, endpoint)
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_endpoint ON results(endpoint);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord represents a stored validation run.
type RunRecord struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// StartedAt is when the run began, FinishedAt when it was archived.
	StartedAt  time.Time
	FinishedAt time.Time

	// ReferenceIP is the caller's direct address, when resolved.
	ReferenceIP string

	// Total, Working, and Anonymous are the headline counts.
	Total     int
	Working   int
	Anonymous int

	// AvgLatencyMS is the mean latency across measured working proxies.
	AvgLatencyMS int64

	// Summary is the full summary the run produced.
	Summary model.Summary
}

// ResultRecord represents a stored probe outcome.
type ResultRecord struct {
	ID    int64
	RunID int64

	// Endpoint is the canonical candidate string, credentials included,
	// so archived lists can be re-scanned.
	Endpoint string

	Host string
	Port uint16

	Working bool

	// Reason is the stable failure label, "none" for working proxies.
	Reason string

	LatencyMS int64
	ExitIP    string

	// Anonymity is the stable classification label.
	Anonymity string

	Country  string
	TestedAt time.Time
}

// SaveRun archives a completed run and all its results in one
// transaction. Returns the new run's ID.
func (rdb *RunDB) SaveRun(ctx context.Context, results *model.ResultSet, summary model.Summary) (int64, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO runs (started_at, finished_at, reference_ip, total, working, anonymous, avg_latency_ms, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := tx.ExecContext(ctx, query,
		results.StartedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		results.ReferenceIP,
		summary.Total,
		summary.Working,
		summary.Anonymous,
		summary.AvgLatencyMS,
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, r := range results.All() {
		if err := insertResult(ctx, tx, runID, r); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// insertResult inserts or updates one probe outcome within a run.
// Uses UPSERT so re-archiving a run cannot produce duplicate rows.
func insertResult(ctx context.Context, tx *sql.Tx, runID int64, r *model.ProbeResult) error {
	query := `
	INSERT INTO results (run_id, endpoint, host, port, working, reason, latency_ms, exit_ip, anonymity, country, tested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, endpoint) DO UPDATE SET
		working = excluded.working,
		reason = excluded.reason,
		latency_ms = excluded.latency_ms,
		exit_ip = excluded.exit_ip,
		anonymity = excluded.anonymity,
		country = excluded.country,
		tested_at = excluded.tested_at
	`

	_, err := tx.ExecContext(ctx, query,
		runID,
		r.Proxy,
		r.Host,
		int64(r.Port),
		r.Working,
		r.Reason.String(),
		r.LatencyMS,
		r.ExitIP,
		r.Anonymity.String(),
		r.Country,
		r.TestedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		// Host only: the full endpoint may carry credentials.
		return fmt.Errorf("failed to insert result for %s:%d: %w", r.Host, r.Port, err)
	}

	return nil
}

// RunHistory returns archived runs, newest first.
// A limit of 0 or less returns all runs.
func (rdb *RunDB) RunHistory(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}

	query := `
	SELECT id, started_at, finished_at, reference_ip, total, working, anonymous, avg_latency_ms, summary_json
	FROM runs
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := rdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// RunByID retrieves a run by its database ID.
// Returns nil without error when the run does not exist.
func (rdb *RunDB) RunByID(ctx context.Context, id int64) (*RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, reference_ip, total, working, anonymous, avg_latency_ms, summary_json
	FROM runs
	WHERE id = ?
	`

	rec, err := scanRun(rdb.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return rec, nil
}

// ResultsByRun retrieves every probe outcome of a run, working proxies
// first ordered by latency.
func (rdb *RunDB) ResultsByRun(ctx context.Context, runID int64) ([]ResultRecord, error) {
	query := `
	SELECT id, run_id, endpoint, host, port, working, reason, latency_ms, exit_ip, anonymity, country, tested_at
	FROM results
	WHERE run_id = ?
	ORDER BY working DESC, latency_ms ASC, endpoint ASC
	`

	rows, err := rdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		var port int64
		var exitIP, country sql.NullString
		var testedAt string

		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Endpoint,
			&rec.Host,
			&port,
			&rec.Working,
			&rec.Reason,
			&rec.LatencyMS,
			&exitIP,
			&rec.Anonymity,
			&country,
			&testedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		rec.Port = uint16(port)
		rec.ExitIP = exitIP.String
		rec.Country = country.String
		rec.TestedAt = parseTimestamp(testedAt)

		records = append(records, rec)
	}

	return records, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads one run row.
func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var startedAt, finishedAt string
	var referenceIP sql.NullString
	var summaryJSON string

	err := row.Scan(
		&rec.ID,
		&startedAt,
		&finishedAt,
		&referenceIP,
		&rec.Total,
		&rec.Working,
		&rec.Anonymous,
		&rec.AvgLatencyMS,
		&summaryJSON,
	)
	if err != nil {
		return nil, err
	}

	rec.StartedAt = parseTimestamp(startedAt)
	rec.FinishedAt = parseTimestamp(finishedAt)
	rec.ReferenceIP = referenceIP.String

	if summaryJSON != "" {
		if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
			// Malformed summaries degrade to the headline columns.
			rec.Summary = model.Summary{}
		}
	}

	return &rec, nil
}

// timestampFormats contains the timestamp formats read back from SQLite.
// Rows written by this package use RFC3339Nano; the SQLite default
// format covers rows touched by other tools.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
