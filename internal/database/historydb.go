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

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/model"
)

// HistoryDB provides SQLite-based storage for past URL checks.
// It keeps a bounded log of check results so users can revisit what
// they analyzed and when.
//
// Design decision: We use a single database file in the XDG data
// directory rather than per-day files. A bounded table with insert-time
// pruning keeps the file small without a maintenance command.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// maxRows bounds the checks table; oldest rows are pruned on insert.
	maxRows int
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool

	// MaxRows bounds the checks table. Zero means the default bound.
	MaxRows int
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		MaxRows:           config.DefaultMaxHistoryRows,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "linkguard.db")

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
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = config.DefaultMaxHistoryRows
	}

	hdb := &HistoryDB{
		db:      db,
		dbPath:  dbPath,
		maxRows: maxRows,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Checks store one row per analyzed URL
	CREATE TABLE IF NOT EXISTS checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		url TEXT NOT NULL,
		host TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		risk_level TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checks_timestamp ON checks(timestamp);
	CREATE INDEX IF NOT EXISTS idx_checks_host ON checks(host);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// CheckRecord represents one stored URL check.
type CheckRecord struct {
	ID        int64
	Timestamp time.Time
	URL       string
	Host      string
	RiskScore int
	RiskLevel string
}

// SaveCheck stores a finished report and prunes the oldest rows beyond
// the table bound.
func (hdb *HistoryDB) SaveCheck(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	result, err := hdb.db.ExecContext(ctx, `
	INSERT INTO checks (url, host, risk_score, risk_level, report_json)
	VALUES (?, ?, ?, ?, ?)
	`,
		report.URL,
		report.Host,
		report.RiskScore,
		report.RiskLevel.String(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert check record: %w", err)
	}

	if _, err := hdb.db.ExecContext(ctx, `
	DELETE FROM checks WHERE id NOT IN (
		SELECT id FROM checks ORDER BY id DESC LIMIT ?
	)
	`, hdb.maxRows); err != nil {
		return 0, fmt.Errorf("failed to prune check records: %w", err)
	}

	return result.LastInsertId()
}

// Recent returns the newest checks, most recent first.
func (hdb *HistoryDB) Recent(ctx context.Context, limit int) ([]CheckRecord, error) {
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}

	rows, err := hdb.db.QueryContext(ctx, `
	SELECT id, timestamp, url, host, risk_score, risk_level
	FROM checks
	ORDER BY id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []CheckRecord
	for rows.Next() {
		var record CheckRecord
		var timestamp string
		if err := rows.Scan(
			&record.ID,
			&timestamp,
			&record.URL,
			&record.Host,
			&record.RiskScore,
			&record.RiskLevel,
		); err != nil {
			return nil, fmt.Errorf("failed to scan check record: %w", err)
		}
		record.Timestamp = parseTimestamp(timestamp)
		records = append(records, record)
	}

	return records, rows.Err()
}

// Report reloads the full stored report for one check.
func (hdb *HistoryDB) Report(ctx context.Context, id int64) (*model.Report, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM checks WHERE id = ?`, id,
	).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check record: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse stored report: %w", err)
	}
	return &report, nil
}

// CountChecks returns the number of stored checks.
func (hdb *HistoryDB) CountChecks(ctx context.Context) (int, error) {
	var count int
	if err := hdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count check records: %w", err)
	}
	return count, nil
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
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
