package models

import "github.com/shopspring/decimal"

const (
	// maxAmountIntDigits is the number of integer digits in MaxAmount.
	maxAmountIntDigits = 13
	// maxAmountScale is the most fractional digits an amount may carry.
	maxAmountScale = 64
)

// MaxAmount is the largest absolute amount the bot accepts, in any currency.
// It keeps every saved value well inside float64 precision, which SQLite
// REAL columns rely on.
var MaxAmount = decimal.New(1, 12)

// AmountInRange reports whether |d| <= MaxAmount and d has at most
// maxAmountScale fractional digits.
//
// The digit count and exponent are checked before any arithmetic, so inputs
// such as 1e20000000 are rejected without being expanded.
func AmountInRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < -maxAmountScale {
		return false
	}
	if d.NumDigits()+exp > maxAmountIntDigits {
		return false
	}
	return d.Abs().LessThanOrEqual(MaxAmount)
}
