package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/echome-smart/focus-device/internal/models"
)

// SQLiteStore implements Store on an on-device SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL,
  planned_minutes INTEGER NOT NULL,
  elapsed_minutes INTEGER NOT NULL,
  outcome TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

// CreateSession inserts one session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, record *models.SessionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	const stmt = `
INSERT INTO sessions (id, started_at, ended_at, planned_minutes, elapsed_minutes, outcome)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(ctx, stmt,
		record.ID.String(),
		record.StartedAt.UTC().Format(time.RFC3339),
		record.EndedAt.UTC().Format(time.RFC3339),
		record.PlannedMinutes,
		record.ElapsedMinutes,
		string(record.Outcome),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession fetches one record by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRecord, error) {
	const query = `
SELECT id, started_at, ended_at, planned_minutes, elapsed_minutes, outcome
FROM sessions WHERE id = ?;
`
	record, err := scanSession(s.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

// ListSessions returns records newest-first along with the total count.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit, offset int) ([]*models.SessionRecord, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	const query = `
SELECT id, started_at, ended_at, planned_minutes, elapsed_minutes, outcome
FROM sessions ORDER BY started_at DESC LIMIT ? OFFSET ?;
`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []*models.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, record)
	}
	return records, total, rows.Err()
}

// DeleteSession removes one record by id.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.SessionRecord, error) {
	var (
		record   models.SessionRecord
		idStr    string
		startStr string
		endStr   string
		outcome  string
	)
	if err := row.Scan(&idStr, &startStr, &endStr,
		&record.PlannedMinutes, &record.ElapsedMinutes, &outcome); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	record.ID = id
	record.Outcome = models.SessionOutcome(outcome)

	if record.StartedAt, err = time.Parse(time.RFC3339, startStr); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if record.EndedAt, err = time.Parse(time.RFC3339, endStr); err != nil {
		return nil, fmt.Errorf("parse ended_at: %w", err)
	}
	return &record, nil
}
