package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tipbot/internal/calculator"
	"github.com/mmynk/tipbot/internal/models"
	"github.com/mmynk/tipbot/internal/rates"
)

// RateSource answers how many RUB one unit of a currency is worth.
// *rates.Provider implements it.
type RateSource interface {
	GetRate(ctx context.Context, code string) (decimal.Decimal, bool)
}

// ConvertService implements the convert command. It never touches storage.
type ConvertService struct {
	rates     RateSource
	supported []string
}

// NewConvertService creates a ConvertService backed by the given rates.
func NewConvertService(source RateSource) *ConvertService {
	return &ConvertService{rates: source, supported: rates.Supported}
}

// Convert parses "amount code" and returns the amount in RUB.
func (s *ConvertService) Convert(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", newCommandError(KindMissingArgument, msgConvertMissingArgs)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(args[0]))
	if err != nil {
		return "", &CommandError{Kind: KindInvalidNumber, Message: msgConvertInvalidAmount, Err: err}
	}
	if !models.AmountInRange(amount) {
		return "", newCommandError(KindInvalidNumber, msgAmountTooLarge)
	}

	code := strings.ToUpper(args[1])
	rate, ok := s.rates.GetRate(ctx, code)
	if !ok {
		slog.Debug("Convert: no rate available", "currency", code)
		return "", newCommandError(KindUnsupportedCurrency, formatUnsupportedCurrency(code, s.supported))
	}

	return formatConversion(amount, code, calculator.Convert(amount, rate), rate), nil
}
