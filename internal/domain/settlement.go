package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OpenInvoice is an invoice selected for settlement by a credit.
type OpenInvoice struct {
	InvoiceID      string
	AllocationID   string
	PendingBalance decimal.Decimal
}

// OpenInvoiceFrom builds an OpenInvoice from the current invoice row.
func OpenInvoiceFrom(inv *Invoice, allocationID string) OpenInvoice {
	return OpenInvoice{
		InvoiceID:      inv.ID,
		AllocationID:   allocationID,
		PendingBalance: inv.PendingBalance(),
	}
}

// DedupeOpenInvoices keeps the first entry for every invoice id.
func DedupeOpenInvoices(selected []OpenInvoice) []OpenInvoice {
	seen := make(map[string]struct{}, len(selected))
	out := make([]OpenInvoice, 0, len(selected))
	for _, s := range selected {
		if _, ok := seen[s.InvoiceID]; ok {
			continue
		}
		seen[s.InvoiceID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SettlementShare is what one invoice receives from a credit.
type SettlementShare struct {
	InvoiceID string
	// Cash is the part of the transaction amount attributed to this invoice.
	Cash decimal.Decimal
	// Credited is added to total_received; it equals the pending balance.
	Credited decimal.Decimal
	// Adjustment is Cash - Credited.
	Adjustment decimal.Decimal
}

// SettlementPlan is the outcome of matching one credit to open invoices.
type SettlementPlan struct {
	TransactionAmount decimal.Decimal
	TotalSelected     decimal.Decimal
	Difference        decimal.Decimal
	NeedsAdjustment   bool
	Shares            []SettlementShare
}

// ToleranceCheck applies the adjustment rule to a difference:
// below Epsilon nothing is needed, up to AdjustmentCeiling a reason is
// required, above it the operation is refused.
// It returns whether an adjustment record is needed.
func ToleranceCheck(difference decimal.Decimal, reason string) (bool, error) {
	abs := difference.Abs()
	switch {
	case abs.LessThan(Epsilon):
		return false, nil
	case abs.GreaterThan(AdjustmentCeiling):
		return false, &ToleranceExceededError{Difference: RoundMoney(difference), Ceiling: AdjustmentCeiling}
	case strings.TrimSpace(reason) == "":
		return false, NewValidationError("reason",
			"an adjustment reason is required for a difference of "+RoundMoney(difference).StringFixed(MoneyScale),
			ErrReasonRequired)
	default:
		return true, nil
	}
}

// PlanSettlement claims the full pending balance of every selected invoice
// and splits the transaction amount across them in proportion to those
// balances. The last invoice absorbs the rounding remainder.
func PlanSettlement(amount decimal.Decimal, selected []OpenInvoice, reason string) (*SettlementPlan, error) {
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "transaction amount must be positive", ErrInvalidAmount)
	}

	invoices := DedupeOpenInvoices(selected)
	if len(invoices) == 0 {
		return nil, NewValidationError("invoices", "at least one invoice must be selected", nil)
	}

	total := decimal.Zero
	for _, inv := range invoices {
		if inv.PendingBalance.LessThan(Epsilon) {
			return nil, &StaleStateError{Entity: EntityInvoice, ID: inv.InvoiceID, Reason: "invoice has no pending balance"}
		}
		total = total.Add(inv.PendingBalance)
	}
	total = RoundMoney(total)
	amount = RoundMoney(amount)

	difference := amount.Sub(total)
	needsAdjustment, err := ToleranceCheck(difference, reason)
	if err != nil {
		return nil, err
	}

	shares := make([]SettlementShare, 0, len(invoices))
	remaining := amount
	for i, inv := range invoices {
		pending := RoundMoney(inv.PendingBalance)
		cash := remaining
		if i < len(invoices)-1 {
			cash = RoundMoney(amount.Mul(pending).Div(total))
			remaining = remaining.Sub(cash)
		}
		shares = append(shares, SettlementShare{
			InvoiceID:  inv.InvoiceID,
			Cash:       cash,
			Credited:   pending,
			Adjustment: cash.Sub(pending),
		})
	}

	return &SettlementPlan{
		TransactionAmount: amount,
		TotalSelected:     total,
		Difference:        difference,
		NeedsAdjustment:   needsAdjustment,
		Shares:            shares,
	}, nil
}
