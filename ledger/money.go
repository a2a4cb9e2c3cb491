package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY / DATE NORMALIZATION
// =============================================================================

// NormalizeAmount canonicalizes a raw cost into a ledger amount. A nil raw
// amount is treated as zero. The result is rounded to two decimal places to
// match the ledger's decimal(10,2) storage, so repeated updates never drift.
//
// skip is true when the normalized amount is zero or negative: no ledger
// entry may exist for such an amount.
func NormalizeAmount(raw *decimal.Decimal) (amount decimal.Decimal, skip bool) {
	if raw == nil {
		return decimal.Zero, true
	}
	amount = raw.Round(2)
	if amount.Sign() <= 0 {
		return amount, true
	}
	return amount, false
}

// Normalize canonicalizes a raw amount and date pair in one step.
//
// rawDate is an ISO calendar date string; empty means "today", which is
// read from the injected clock. That substitution is the one impure part
// of normalization, which is why the clock is a parameter.
func Normalize(rawAmount *decimal.Decimal, rawDate string, clock Clock) (decimal.Decimal, Date, bool, error) {
	amount, skip := NormalizeAmount(rawAmount)

	if rawDate == "" {
		return amount, clock.Today(), skip, nil
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return decimal.Zero, Date{}, false, err
	}
	return amount, date, skip, nil
}

// MustDecimal parses a decimal literal, panicking on malformed input.
// For constants and tests only.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
