package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency every rate converts into.
const BaseCurrency = "RUB"

// RateSnapshot is the set of exchange rates fetched in one refresh.
// Rates maps an ISO currency code to the number of RUB for one unit.
type RateSnapshot struct {
	Rates       map[string]decimal.Decimal `json:"rates"`
	LastUpdated time.Time                  `json:"last_updated"`
}

// IsStale reports whether the snapshot must be refreshed before use.
// A snapshot that was never filled is always stale.
func (s RateSnapshot) IsStale(now time.Time, maxAge time.Duration) bool {
	if s.LastUpdated.IsZero() {
		return true
	}
	return now.Sub(s.LastUpdated) >= maxAge
}

// Rate returns the cached rate for code, if any.
func (s RateSnapshot) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := s.Rates[code]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, false
	}
	return rate, true
}
