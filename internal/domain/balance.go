package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceComponents are the sums a bank balance is derived from.
type BalanceComponents struct {
	InitialBalance   decimal.Decimal
	Revenue          decimal.Decimal // received, excluding payment_reversal
	Receipts         decimal.Decimal // non-reversed receipt cash
	ReversedPayments decimal.Decimal
	Payments         decimal.Decimal // every payment, reversed or not
	PaidExpenses     decimal.Decimal
}

// Total applies the balance formula.
func (c BalanceComponents) Total() decimal.Decimal {
	return c.InitialBalance.
		Add(c.Revenue).
		Add(c.Receipts).
		Add(c.ReversedPayments).
		Sub(c.Payments).
		Sub(c.PaidExpenses)
}

// BankBalance is the derived balance of a bank with its components.
type BankBalance struct {
	BankID     string
	Balance    decimal.Decimal
	Components BalanceComponents
	ComputedAt time.Time
}
