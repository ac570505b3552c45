// Package money centralizes the monetary arithmetic used by rating and
// reconciliation: shopspring decimals, 8-digit half-even intermediates and
// 2-digit half-even display values.
package money

import "github.com/shopspring/decimal"

// CalculationScale is the precision kept on intermediate monetary divisions.
const CalculationScale = 8

// DisplayScale is the precision of stored and displayed currency amounts.
const DisplayScale = 2

var (
	// HoursInMonth is the fixed 30-day month used for monthly-to-hourly
	// pro-ration.
	HoursInMonth = decimal.NewFromInt(30 * 24)

	// GiB is one gibibyte in bytes.
	GiB = decimal.NewFromInt(1 << 30)
)

// DivHalfEven divides a by b keeping CalculationScale digits, rounding
// half-to-even.
func DivHalfEven(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, CalculationScale+4).RoundBank(CalculationScale)
}

// CostPerHour converts a monthly tariff value to its hourly equivalent.
func CostPerHour(costPerMonth decimal.Decimal) decimal.Decimal {
	return DivHalfEven(costPerMonth, HoursInMonth)
}

// BytesToGiB converts a byte count to gibibytes.
func BytesToGiB(bytes decimal.Decimal) decimal.Decimal {
	return DivHalfEven(bytes, GiB)
}

// Display rounds an amount to DisplayScale digits, half-to-even.
func Display(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(DisplayScale)
}
