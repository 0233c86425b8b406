package models

const (
	// DefaultTipPercent is used for users who never set their own default.
	DefaultTipPercent = 10

	MinTipPercent = 1
	MaxTipPercent = 100
)

// UserSetting holds per-user preferences. One row per user.
type UserSetting struct {
	UserID            int64 `db:"user_id"`
	DefaultTipPercent int   `db:"default_tip_percent"`
	UpdatedAt         int64 `db:"updated_at"`
}

// ValidTipPercent reports whether p may be stored as a default tip percent.
func ValidTipPercent(p int) bool {
	return p >= MinTipPercent && p <= MaxTipPercent
}
