package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNonPositive is returned when amount, percent or people is not above zero.
var ErrNonPositive = errors.New("all values must be positive")

var hundred = decimal.NewFromInt(100)

// TipResult is the outcome of one tip calculation.
type TipResult struct {
	Amount     decimal.Decimal
	TipPercent int
	People     int
	TipAmount  decimal.Decimal
	Total      decimal.Decimal

	// PerPerson is only valid when People > 1.
	PerPerson decimal.NullDecimal
}

// CalculateTip computes the tip and the per-person share of a bill.
// Based on: tip = amount × percent / 100, total = amount + tip,
// per_person = total / people.
func CalculateTip(amount decimal.Decimal, tipPercent, people int) (*TipResult, error) {
	if !amount.IsPositive() || tipPercent <= 0 || people <= 0 {
		return nil, ErrNonPositive
	}

	tip := amount.Mul(decimal.NewFromInt(int64(tipPercent))).Div(hundred)
	total := amount.Add(tip)

	result := &TipResult{
		Amount:     amount,
		TipPercent: tipPercent,
		People:     people,
		TipAmount:  tip,
		Total:      total,
	}
	if people > 1 {
		result.PerPerson = decimal.NewNullDecimal(total.Div(decimal.NewFromInt(int64(people))))
	}

	return result, nil
}

// Convert returns amount expressed in the base currency at the given rate.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}
