package service

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tipbot/internal/models"
)

// TipRequest is a parsed tip command.
type TipRequest struct {
	Amount decimal.Decimal
	// PercentOverride is nil when the user did not give an explicit percent
	// and the stored default applies.
	PercentOverride *int
	People          int
}

// percentMarkers are the characters that make the second tip argument a
// percent token ("15%", "def", "default"). The check is case-sensitive.
const percentMarkers = "%def"

func isPercentMarker(arg string) bool {
	return strings.ContainsAny(arg, percentMarkers)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseAmount keeps only digits and a single decimal point, so "2000₽" and
// "1,500" are accepted. The result must be positive. The upper bound is
// checked separately by ParseTipArgs.
func ParseAmount(arg string) (decimal.Decimal, bool) {
	var b strings.Builder
	dots := 0
	for _, r := range arg {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			dots++
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" || cleaned == "." || dots > 1 {
		return decimal.Zero, false
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}
	if strings.HasSuffix(cleaned, ".") {
		cleaned += "0"
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// parseCount returns the integer formed by the digits of arg.
// present is false when arg has no digits; ok is false when the digits do
// not fit in an int.
func parseCount(arg string) (n int, present, ok bool) {
	digits := digitsOnly(arg)
	if digits == "" {
		return 0, false, true
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, true, false
	}
	return n, true, true
}

// ParseTipArgs turns "amount [percent] [people]" into a TipRequest.
//
// The second argument is a percent only if it contains one of the percent
// markers; otherwise it is the number of people. "/tip 2000 4" therefore
// splits 2000 between four people at the default percent.
func ParseTipArgs(args []string) (TipRequest, error) {
	if len(args) == 0 {
		return TipRequest{}, newCommandError(KindMissingArgument, msgTipMissingAmount)
	}

	amount, ok := ParseAmount(args[0])
	if !ok {
		return TipRequest{}, newCommandError(KindInvalidNumber, msgTipInvalidAmount)
	}
	if !models.AmountInRange(amount) {
		return TipRequest{}, newCommandError(KindInvalidNumber, msgAmountTooLarge)
	}

	req := TipRequest{Amount: amount, People: 1}
	if len(args) < 2 {
		return req, nil
	}

	peopleArg := args[1]
	if isPercentMarker(args[1]) {
		percent, present, ok := parseCount(args[1])
		if !ok {
			return TipRequest{}, newCommandError(KindOutOfRange, msgNotPositive)
		}
		if present {
			req.PercentOverride = &percent
		}
		peopleArg = ""
		if len(args) > 2 {
			peopleArg = args[2]
		}
	}

	people, present, ok := parseCount(peopleArg)
	if !ok {
		return TipRequest{}, newCommandError(KindOutOfRange, msgNotPositive)
	}
	if present {
		req.People = people
	}

	return req, nil
}
