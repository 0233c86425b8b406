package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/mmynk/tipbot/internal/calculator"
	"github.com/mmynk/tipbot/internal/models"
	"github.com/mmynk/tipbot/internal/storage"
)

// CalculationObserver is told about every calculation that was persisted.
type CalculationObserver interface {
	ObserveCalculationSaved()
}

// TipService implements the tip, history and default-tip commands.
type TipService struct {
	store    storage.Store
	observer CalculationObserver
}

// TipServiceOption configures a TipService.
type TipServiceOption func(*TipService)

// WithCalculationObserver registers an observer for saved calculations.
func WithCalculationObserver(o CalculationObserver) TipServiceOption {
	return func(s *TipService) { s.observer = o }
}

// NewTipService creates a new TipService with the given storage backend.
func NewTipService(store storage.Store, opts ...TipServiceOption) *TipService {
	s := &TipService{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveTipPercent returns the explicit override if there is one, otherwise
// the user's stored default.
func (s *TipService) resolveTipPercent(ctx context.Context, userID int64, override *int) (int, error) {
	if override != nil {
		return *override, nil
	}
	return s.store.GetDefaultTip(ctx, userID)
}

// ComputeTip parses args, computes the tip, stores the calculation and
// returns the formatted result.
func (s *TipService) ComputeTip(ctx context.Context, userID int64, args []string) (string, error) {
	req, err := ParseTipArgs(args)
	if err != nil {
		return "", err
	}

	percent, err := s.resolveTipPercent(ctx, userID, req.PercentOverride)
	if err != nil {
		slog.Error("ComputeTip: failed to get default tip", "user_id", userID, "error", err)
		return "", storageFailure(err)
	}

	result, err := calculator.CalculateTip(req.Amount, percent, req.People)
	if err != nil {
		return "", &CommandError{Kind: KindOutOfRange, Message: msgNotPositive, Err: err}
	}

	calc := &models.Calculation{
		UserID:     userID,
		Amount:     result.Amount,
		TipPercent: result.TipPercent,
		Total:      result.Total,
		PerPerson:  result.PerPerson,
	}
	if err := s.store.SaveCalculation(ctx, calc); err != nil {
		slog.Error("ComputeTip: failed to save calculation", "user_id", userID, "error", err)
		return "", storageFailure(err)
	}
	if s.observer != nil {
		s.observer.ObserveCalculationSaved()
	}

	slog.Debug("Tip calculated",
		"user_id", userID,
		"calculation_id", calc.ID,
		"tip_percent", percent,
		"people", req.People,
	)

	return formatTipResult(result), nil
}

// History returns the user's most recent calculations, newest first.
func (s *TipService) History(ctx context.Context, userID int64) (string, error) {
	records, err := s.store.GetHistory(ctx, userID, storage.DefaultHistoryLimit)
	if err != nil {
		slog.Error("History: failed to get history", "user_id", userID, "error", err)
		return "", storageFailure(err)
	}
	if len(records) == 0 {
		return msgHistoryEmpty, nil
	}
	return formatHistory(records), nil
}

// ClearHistory deletes all of the user's calculations.
func (s *TipService) ClearHistory(ctx context.Context, userID int64) (string, error) {
	n, err := s.store.ClearHistory(ctx, userID)
	if err != nil {
		slog.Error("ClearHistory: failed to clear history", "user_id", userID, "error", err)
		return "", storageFailure(err)
	}
	if n == 0 {
		return msgHistoryAlreadyEmpty, nil
	}
	slog.Info("History cleared", "user_id", userID, "deleted", n)
	return formatCleared(n), nil
}

// SetDefaultTip stores the percent given in args as the user's default.
func (s *TipService) SetDefaultTip(ctx context.Context, userID int64, args []string) (string, error) {
	if len(args) == 0 {
		return "", newCommandError(KindMissingArgument, msgDefaultMissing)
	}

	digits := digitsOnly(args[0])
	if digits == "" {
		return "", newCommandError(KindInvalidNumber, msgDefaultNotNumeric)
	}

	percent, err := strconv.Atoi(digits)
	if err != nil || !models.ValidTipPercent(percent) {
		return "", newCommandError(KindOutOfRange, formatPercentRange())
	}

	if err := s.store.SetDefaultTip(ctx, userID, percent); err != nil {
		if errors.Is(err, storage.ErrInvalidTipPercent) {
			return "", newCommandError(KindOutOfRange, formatPercentRange())
		}
		slog.Error("SetDefaultTip: failed to store default tip", "user_id", userID, "error", err)
		return "", storageFailure(err)
	}

	slog.Info("Default tip updated", "user_id", userID, "tip_percent", percent)
	return formatDefaultSet(percent), nil
}

// DefaultTip returns the user's current default tip percent.
func (s *TipService) DefaultTip(ctx context.Context, userID int64) (int, error) {
	percent, err := s.store.GetDefaultTip(ctx, userID)
	if err != nil {
		return 0, storageFailure(err)
	}
	return percent, nil
}
