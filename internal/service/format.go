package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tipbot/internal/calculator"
	"github.com/mmynk/tipbot/internal/models"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// User-facing messages.
const (
	msgTipMissingAmount = "Please specify an amount. Example: /tip 2000 15% 4"
	msgTipInvalidAmount = "Invalid amount. Examples:\n/tip 2000 15% 4\n/tip 2000 4\n/tip 2000"
	msgNotPositive      = "All values must be positive numbers"
	msgAmountTooLarge   = "Amount is too large. Maximum: 1000000000000"

	msgConvertMissingArgs   = "Not enough arguments. Example: /convert 100 USD"
	msgConvertInvalidAmount = "Invalid amount. Example: /convert 100 USD"

	msgDefaultMissing    = "Please specify a percent. Example: /set_default_tip 15"
	msgDefaultNotNumeric = "Invalid percent. Example: /set_default_tip 15"

	msgHistoryEmpty        = "You have no calculation history yet"
	msgHistoryAlreadyEmpty = "ℹ️ Calculation history is already empty"

	msgStorageFailure = "Could not access your data right now. Please try again later."
	msgGenericFailure = "Something went wrong. Please try again."
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatTipResult(r *calculator.TipResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧮 Result (using %d%%):\n", r.TipPercent)
	fmt.Fprintf(&b, "• Amount: %s %s\n", money(r.Amount), models.BaseCurrency)
	fmt.Fprintf(&b, "• Tip: %s %s\n", money(r.TipAmount), models.BaseCurrency)
	fmt.Fprintf(&b, "• Total: %s %s", money(r.Total), models.BaseCurrency)
	if r.PerPerson.Valid {
		fmt.Fprintf(&b, "\n• Per person: %s %s", money(r.PerPerson.Decimal), models.BaseCurrency)
	}
	return b.String()
}

func formatConversion(amount decimal.Decimal, code string, result, rate decimal.Decimal) string {
	return fmt.Sprintf("🧾 Conversion result:\n%s %s = %s %s\nCBR rate: 1 %s = %s %s",
		money(amount), code, money(result), models.BaseCurrency,
		code, money(rate), models.BaseCurrency)
}

func formatUnsupportedCurrency(code string, supported []string) string {
	return fmt.Sprintf("Currency %s is not supported. Available: %s", code, strings.Join(supported, ", "))
}

func formatHistory(records []models.Calculation) string {
	var b strings.Builder
	b.WriteString("📊 Calculation history:\n")
	for _, c := range records {
		fmt.Fprintf(&b, "%s: %s %s + %d%% = %s %s",
			c.Time().Format(historyTimeLayout),
			money(c.Amount), models.BaseCurrency,
			c.TipPercent,
			money(c.Total), models.BaseCurrency)
		if c.PerPerson.Valid {
			fmt.Fprintf(&b, " (per person: %s %s)", money(c.PerPerson.Decimal), models.BaseCurrency)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatCleared(n int64) string {
	if n == 1 {
		return "✅ Deleted 1 record from history"
	}
	return fmt.Sprintf("✅ Deleted %d records from history", n)
}

func formatDefaultSet(percent int) string {
	return fmt.Sprintf("Default tip percent set to %d%%", percent)
}

func formatPercentRange() string {
	return fmt.Sprintf("Tip percent must be between %d and %d", models.MinTipPercent, models.MaxTipPercent)
}
