// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/tipbot/internal/models"
	"github.com/mmynk/tipbot/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS calculations (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    amount NUMERIC NOT NULL,
    tip_percent INTEGER NOT NULL,
    total NUMERIC NOT NULL,
    per_person NUMERIC,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id BIGINT PRIMARY KEY,
    default_tip_percent INTEGER NOT NULL DEFAULT 10,
    updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculations_user_created ON calculations(user_id, created_at);
`

// PostgresStore implements storage.Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New connects to dsn, verifies the connection and creates the schema.
func New(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(connectCtx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks if the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveCalculation appends a calculation and fills in its ID and CreatedAt.
func (s *PostgresStore) SaveCalculation(ctx context.Context, calc *models.Calculation) error {
	calc.CreatedAt = s.now().Unix()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO calculations (user_id, amount, tip_percent, total, per_person, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		calc.UserID, calc.Amount, calc.TipPercent, calc.Total, calc.PerPerson, calc.CreatedAt,
	).Scan(&calc.ID)
	if err != nil {
		return storage.NewError("insert calculation", err)
	}
	return nil
}

// GetHistory returns the user's most recent calculations, newest first.
func (s *PostgresStore) GetHistory(ctx context.Context, userID int64, limit int) ([]models.Calculation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, amount, tip_percent, total, per_person, created_at
		 FROM calculations
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, storage.NormalizeLimit(limit),
	)
	if err != nil {
		return nil, storage.NewError("get history", err)
	}
	defer rows.Close()

	history := []models.Calculation{}
	for rows.Next() {
		var c models.Calculation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Amount, &c.TipPercent, &c.Total, &c.PerPerson, &c.CreatedAt); err != nil {
			return nil, storage.NewError("scan calculation", err)
		}
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewError("iterate calculations", err)
	}

	return history, nil
}

// ClearHistory removes all calculations of the user.
func (s *PostgresStore) ClearHistory(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM calculations WHERE user_id = $1", userID)
	if err != nil {
		return 0, storage.NewError("clear history", err)
	}
	return tag.RowsAffected(), nil
}

// SetDefaultTip upserts the user's default tip percent.
func (s *PostgresStore) SetDefaultTip(ctx context.Context, userID int64, percent int) error {
	if !models.ValidTipPercent(percent) {
		return storage.ErrInvalidTipPercent
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, default_tip_percent, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET
		     default_tip_percent = EXCLUDED.default_tip_percent,
		     updated_at = EXCLUDED.updated_at`,
		userID, percent, s.now().Unix(),
	)
	if err != nil {
		return storage.NewError("set default tip", err)
	}
	return nil
}

// GetDefaultTip returns the stored default tip percent or models.DefaultTipPercent.
func (s *PostgresStore) GetDefaultTip(ctx context.Context, userID int64) (int, error) {
	var percent int
	err := s.pool.QueryRow(ctx,
		"SELECT default_tip_percent FROM user_settings WHERE user_id = $1",
		userID,
	).Scan(&percent)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultTipPercent, nil
	}
	if err != nil {
		return 0, storage.NewError("get default tip", err)
	}
	return percent, nil
}
