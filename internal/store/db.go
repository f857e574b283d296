package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"aging-dashboard/internal/model"
)

// Session statuses.
const (
	StatusLoading = "loading"
	StatusReady   = "ready"
	StatusFailed  = "failed"
	StatusClosed  = "closed"
)

// ErrNotFound is returned when a session record does not exist.
var ErrNotFound = errors.New("record not found")

// SessionRecord is the persisted summary of one dashboard session.
type SessionRecord struct {
	ID          string                 `json:"id"`
	SourceName  string                 `json:"source_name"`
	Layout      string                 `json:"layout"`
	Status      string                 `json:"status"`
	RowCount    int                    `json:"row_count"`
	ZeroedCells int                    `json:"zeroed_cells"`
	Metrics     *model.PipelineMetrics `json:"metrics,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// SessionError is one failure recorded against a session.
type SessionError struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps session history in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to :memory: is a separate database
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	sessionTable := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		source_name TEXT,
		layout TEXT,
		status TEXT,
		row_count INTEGER DEFAULT 0,
		zeroed_cells INTEGER DEFAULT 0,
		metrics TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS session_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	exportTable := `
	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		type TEXT,
		path TEXT,
		record_count INTEGER,
		success INTEGER,
		error TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{sessionTable, errorTable, exportTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveSession stores a new session in the loading state.
func (s *Store) SaveSession(ctx context.Context, id, sourceName string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, source_name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, sourceName, StatusLoading, now, now)
	return err
}

// CompleteSession records the outcome of a successful load.
func (s *Store) CompleteSession(ctx context.Context, id, layout string, metrics model.PipelineMetrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET layout = ?, status = ?, row_count = ?, zeroed_cells = ?, metrics = ?, updated_at = ? WHERE id = ?`,
		layout, StatusReady, metrics.TotalRecords, metrics.ZeroedCells, string(metricsJSON), now, id)
	return err
}

// UpdateSessionStatus updates session status
func (s *Store) UpdateSessionStatus(ctx context.Context, id, status string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSessionError records an error for a session
func (s *Store) SaveSessionError(ctx context.Context, id string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.ExecContext(ctx,
		`INSERT INTO session_errors (session_id, error_message, created_at) VALUES (?, ?, ?)`,
		id, err.Error(), now)
	return e
}

// ListSessionErrors returns the errors of a session, oldest first.
func (s *Store) ListSessionErrors(ctx context.Context, id string) ([]SessionError, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT error_message, created_at FROM session_errors WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionError
	for rows.Next() {
		var e SessionError
		if err := rows.Scan(&e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_name, COALESCE(layout, ''), status, row_count, zeroed_cells, created_at, updated_at
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.SourceName, &rec.Layout, &rec.Status,
			&rec.RowCount, &rec.ZeroedCells, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// GetSession fetches one session with its stored metrics.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	var (
		rec         SessionRecord
		metricsJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_name, COALESCE(layout, ''), status, row_count, zeroed_cells, metrics, created_at, updated_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&rec.ID, &rec.SourceName, &rec.Layout, &rec.Status, &rec.RowCount, &rec.ZeroedCells,
			&metricsJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if metricsJSON.Valid && metricsJSON.String != "" {
		var m model.PipelineMetrics
		if err := json.Unmarshal([]byte(metricsJSON.String), &m); err != nil {
			return nil, err
		}
		rec.Metrics = &m
	}
	return &rec, nil
}

// SaveExport records one export attempt.
func (s *Store) SaveExport(ctx context.Context, sessionID string, res model.ExportResult) error {
	success := 0
	if res.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (session_id, type, path, record_count, success, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, res.Type, res.Path, res.RecordCount, success, res.Error, res.Timestamp)
	return err
}

// ListExports returns the export history of a session.
func (s *Store) ListExports(ctx context.Context, sessionID string) ([]model.ExportResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, path, record_count, success, COALESCE(error, ''), created_at FROM exports WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ExportResult
	for rows.Next() {
		var (
			res     model.ExportResult
			success int
		)
		if err := rows.Scan(&res.Type, &res.Path, &res.RecordCount, &success, &res.Error, &res.Timestamp); err != nil {
			return nil, err
		}
		res.Success = success == 1
		out = append(out, res)
	}
	return out, rows.Err()
}
