// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/tipbot/internal/models"
)

// DefaultHistoryLimit is the number of records GetHistory returns when the
// caller passes a non-positive limit.
const DefaultHistoryLimit = 5

// ErrInvalidTipPercent is returned by SetDefaultTip for values outside
// [models.MinTipPercent, models.MaxTipPercent].
var ErrInvalidTipPercent = errors.New("tip percent out of range")

// Store defines the interface for calculation history and user settings.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
//
// Every method runs exactly one statement; there are no multi-statement
// transactions.
type Store interface {
	// SaveCalculation appends a new calculation.
	// The store assigns calc.ID and calc.CreatedAt.
	SaveCalculation(ctx context.Context, calc *models.Calculation) error

	// GetHistory returns up to limit calculations for the user, newest first.
	// A non-positive limit means DefaultHistoryLimit.
	GetHistory(ctx context.Context, userID int64, limit int) ([]models.Calculation, error)

	// ClearHistory deletes every calculation of the user and returns how many
	// records were removed.
	ClearHistory(ctx context.Context, userID int64) (int64, error)

	// SetDefaultTip stores the user's default tip percent, replacing any
	// previous value.
	SetDefaultTip(ctx context.Context, userID int64, percent int) error

	// GetDefaultTip returns the user's default tip percent, or
	// models.DefaultTipPercent if the user never set one.
	GetDefaultTip(ctx context.Context, userID int64) (int, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Error reports a failed storage operation. Callers detect it with
// errors.As to tell I/O failures apart from bad input.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a storage failure of operation op.
func NewError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// IsStorageError reports whether err (or anything it wraps) is an *Error.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// NormalizeLimit maps a non-positive limit to DefaultHistoryLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
