package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits kept for monetary values.
const MoneyScale = 2

var (
	// Epsilon is the tolerance used for all monetary comparisons.
	Epsilon = decimal.RequireFromString("0.01")

	// AdjustmentCeiling is the largest difference a reconciliation may absorb
	// through an adjustment.
	AdjustmentCeiling = decimal.RequireFromString("500.00")

	hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds d to MoneyScale digits.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// NearlyEqual reports whether |a - b| < Epsilon.
func NearlyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// Percent returns round2(base * rate / 100).
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(base.Mul(rate).Div(hundred))
}

// SumMoney adds up the given values.
func SumMoney(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
