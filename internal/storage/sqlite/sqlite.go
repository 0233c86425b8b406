// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/tipbot/internal/models"
	"github.com/mmynk/tipbot/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewFromDB(db, opts...), nil
}

// NewFromDB wraps an already opened database. No migrations are run.
func NewFromDB(db *sqlx.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveCalculation appends a calculation and fills in its ID and CreatedAt.
func (s *SQLiteStore) SaveCalculation(ctx context.Context, calc *models.Calculation) error {
	calc.CreatedAt = s.now().Unix()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO calculations (user_id, amount, tip_percent, total, per_person, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		calc.UserID, calc.Amount, calc.TipPercent, calc.Total, calc.PerPerson, calc.CreatedAt,
	)
	if err != nil {
		return storage.NewError("insert calculation", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.NewError("get calculation id", err)
	}
	calc.ID = id

	return nil
}

// GetHistory returns the user's most recent calculations, newest first.
func (s *SQLiteStore) GetHistory(ctx context.Context, userID int64, limit int) ([]models.Calculation, error) {
	history := []models.Calculation{}
	err := s.db.SelectContext(ctx, &history,
		`SELECT id, user_id, amount, tip_percent, total, per_person, created_at
		 FROM calculations
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, storage.NormalizeLimit(limit),
	)
	if err != nil {
		return nil, storage.NewError("get history", err)
	}
	return history, nil
}

// ClearHistory removes all calculations of the user.
func (s *SQLiteStore) ClearHistory(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM calculations WHERE user_id = ?", userID)
	if err != nil {
		return 0, storage.NewError("clear history", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storage.NewError("count deleted calculations", err)
	}
	return n, nil
}

// SetDefaultTip upserts the user's default tip percent.
func (s *SQLiteStore) SetDefaultTip(ctx context.Context, userID int64, percent int) error {
	if !models.ValidTipPercent(percent) {
		return storage.ErrInvalidTipPercent
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, default_tip_percent, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     default_tip_percent = excluded.default_tip_percent,
		     updated_at = excluded.updated_at`,
		userID, percent, s.now().Unix(),
	)
	if err != nil {
		return storage.NewError("set default tip", err)
	}
	return nil
}

// GetDefaultTip returns the stored default tip percent or models.DefaultTipPercent.
func (s *SQLiteStore) GetDefaultTip(ctx context.Context, userID int64) (int, error) {
	var percent int
	err := s.db.GetContext(ctx, &percent,
		"SELECT default_tip_percent FROM user_settings WHERE user_id = ?",
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultTipPercent, nil
	}
	if err != nil {
		return 0, storage.NewError("get default tip", err)
	}
	return percent, nil
}
