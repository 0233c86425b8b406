package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Calculation represents one saved tip calculation.
// Records are append-only: they are created on every successful tip
// calculation and only ever removed in bulk when the user clears history.
type Calculation struct {
	// ID is assigned by the store on insert.
	ID int64 `db:"id"`

	// UserID is the Telegram user the calculation belongs to.
	UserID int64 `db:"user_id"`

	// Amount is the bill amount before tip.
	Amount decimal.Decimal `db:"amount"`

	// TipPercent is the percent actually applied (explicit or default).
	TipPercent int `db:"tip_percent"`

	// Total is Amount plus tip.
	Total decimal.Decimal `db:"total"`

	// PerPerson is Total split across people.
	// Only valid when the bill was split between more than one person.
	PerPerson decimal.NullDecimal `db:"per_person"`

	// CreatedAt is the Unix timestamp when the record was written.
	CreatedAt int64 `db:"created_at"`
}

// Time returns CreatedAt as a UTC time.
func (c Calculation) Time() time.Time {
	return time.Unix(c.CreatedAt, 0).UTC()
}
