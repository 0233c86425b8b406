package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRateSnapshotIsStale(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name        string
		lastUpdated time.Time
		want        bool
	}{
		{"never updated", time.Time{}, true},
		{"just updated", now, false},
		{"23 hours old", now.Add(-23 * time.Hour), false},
		{"exactly one day old", now.Add(-day), true},
		{"two days old", now.Add(-2 * day), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RateSnapshot{LastUpdated: tt.lastUpdated}
			assert.Equal(t, tt.want, s.IsStale(now, day))
		})
	}
}

func TestRateSnapshotRate(t *testing.T) {
	s := RateSnapshot{Rates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("90.5"),
		"EUR": decimal.Zero,
	}}

	rate, ok := s.Rate("USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("90.5")))

	_, ok = s.Rate("EUR")
	assert.False(t, ok, "zero rate must count as unavailable")

	_, ok = s.Rate("XYZ")
	assert.False(t, ok)
}

func TestValidTipPercent(t *testing.T) {
	assert.False(t, ValidTipPercent(0))
	assert.True(t, ValidTipPercent(1))
	assert.True(t, ValidTipPercent(100))
	assert.False(t, ValidTipPercent(101))
	assert.False(t, ValidTipPercent(-5))
}
