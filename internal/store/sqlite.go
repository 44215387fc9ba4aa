package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/digital-twin/internal/domain"
	"github.com/ashureev/digital-twin/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	// DefaultListLimit is used when ListFeedback gets a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps ListFeedback.
	MaxListLimit = 500
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db         *sql.DB
	maxRetries int
	baseDelay  time.Duration
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, maxRetries: 3, baseDelay: 100 * time.Millisecond}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL DEFAULT '',
		persona TEXT NOT NULL,
		accuracy INTEGER NOT NULL,
		consciousness INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		turns INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// SaveFeedback stores fb.
// Implements retry logic with exponential backoff to handle SQLITE_BUSY errors.
func (s *SQLiteStore) SaveFeedback(ctx context.Context, fb *domain.Feedback) error {
	if fb == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidFeedback)
	}
	if err := fb.Ratings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, err)
	}
	if fb.Turns < 0 {
		return fmt.Errorf("%w: negative turns", ErrInvalidFeedback)
	}
	if fb.ID == "" {
		fb.ID = domain.NewMessageID()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}

	var err error
	for i := 0; i < s.maxRetries; i++ {
		err = s.saveFeedbackOnce(ctx, fb)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == s.maxRetries-1 {
			break
		}

		delay := s.baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
		slog.Debug("SaveFeedback failed with SQLITE_BUSY, retrying",
			"feedback_id", fb.ID,
			"attempt", i+1,
			"delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("save feedback %s: %w", fb.ID, err)
}

func (s *SQLiteStore) saveFeedbackOnce(ctx context.Context, fb *domain.Feedback) error {
	query := `
	INSERT INTO feedback (id, client_id, persona, accuracy, consciousness, note, turns, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		fb.ID, fb.ClientID, fb.Persona,
		fb.Ratings.Accuracy, fb.Ratings.Consciousness, fb.Ratings.Note,
		fb.Turns, fb.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListFeedback returns the most recent records first.
func (s *SQLiteStore) ListFeedback(ctx context.Context, limit int) ([]*domain.Feedback, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
		SELECT id, client_id, persona, accuracy, consciousness, note, turns, created_at
		FROM feedback ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close feedback rows", "error", closeErr)
		}
	}()

	var out []*domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		var createdAt int64
		if err := rows.Scan(
			&fb.ID, &fb.ClientID, &fb.Persona,
			&fb.Ratings.Accuracy, &fb.Ratings.Consciousness, &fb.Ratings.Note,
			&fb.Turns, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		fb.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, &fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}

	return out, nil
}

var _ Repository = (*SQLiteStore)(nil)
