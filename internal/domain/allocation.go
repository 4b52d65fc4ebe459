package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payee is a party entitled to a share of an invoice. FeeRate is a percentage.
type Payee struct {
	ID       string
	TenantID string
	Name     string
	FeeRate  decimal.Decimal
}

// AllocationLine is one caller-supplied share of an invoice's gross value.
type AllocationLine struct {
	PayeeID             string
	AllocatedGrossValue decimal.Decimal
}

// InvoiceAllocation is the share of an invoice assigned to one payee.
type InvoiceAllocation struct {
	ID                  string
	TenantID            string
	InvoiceID           string
	PayeeID             string
	AllocatedGrossValue decimal.Decimal
	AdminFee            decimal.Decimal
	AmountToPay         decimal.Decimal
	CreatedAt           time.Time
}

// ValidateAllocationLines checks every line and the total against gross.
func ValidateAllocationLines(gross decimal.Decimal, lines []AllocationLine) error {
	if err := ValidateAllocationLineShapes(lines); err != nil {
		return err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.AllocatedGrossValue)
	}
	if total.Sub(gross).Abs().GreaterThan(Epsilon) {
		return NewValidationError("lines",
			fmt.Sprintf("allocated total %s differs from gross value %s",
				total.StringFixed(MoneyScale), gross.StringFixed(MoneyScale)),
			ErrAllocationMismatch)
	}

	return nil
}

// ValidateAllocationLineShapes checks each line on its own, without the invoice.
func ValidateAllocationLineShapes(lines []AllocationLine) error {
	if len(lines) == 0 {
		return NewValidationError("lines", "at least one allocation line is required", nil)
	}
	for i, line := range lines {
		field := fmt.Sprintf("lines[%d]", i)
		if line.PayeeID == "" {
			return NewValidationError(field+".payee_id", "payee is required", nil)
		}
		if !line.AllocatedGrossValue.IsPositive() {
			return NewValidationError(field+".allocated_gross_value", "must be positive", ErrInvalidAmount)
		}
	}
	return nil
}

// NewInvoiceAllocation applies the payee's fee rate to one line.
func NewInvoiceAllocation(id string, invoice *Invoice, line AllocationLine, payee *Payee, now time.Time) *InvoiceAllocation {
	gross := RoundMoney(line.AllocatedGrossValue)
	fee := Percent(gross, payee.FeeRate)

	return &InvoiceAllocation{
		ID:                  id,
		TenantID:            invoice.TenantID,
		InvoiceID:           invoice.ID,
		PayeeID:             payee.ID,
		AllocatedGrossValue: gross,
		AdminFee:            fee,
		AmountToPay:         gross.Sub(fee),
		CreatedAt:           now,
	}
}

// PayableStatus is the payment state of a payable.
type PayableStatus string

const (
	PayableStatusAwaitingReceipt PayableStatus = "awaiting_receipt"
	PayableStatusPending         PayableStatus = "pending"
	PayableStatusPartiallyPaid   PayableStatus = "partially_paid"
	PayableStatusPaid            PayableStatus = "paid"
	PayableStatusCancelled       PayableStatus = "cancelled"
)

// Payable is the amount owed to a payee for one allocation.
type Payable struct {
	ID                  string
	TenantID            string
	InvoiceID           string
	AllocationID        string
	PayeeID             string
	AmountToPay         decimal.Decimal
	PaidTotal           decimal.Decimal
	Status              PayableStatus
	ExpectedPaymentDate *time.Time
	PaidAt              *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewPayable creates the pending payable for an allocation.
func NewPayable(id string, alloc *InvoiceAllocation, expected *time.Time, now time.Time) *Payable {
	return &Payable{
		ID:                  id,
		TenantID:            alloc.TenantID,
		InvoiceID:           alloc.InvoiceID,
		AllocationID:        alloc.ID,
		PayeeID:             alloc.PayeeID,
		AmountToPay:         alloc.AmountToPay,
		PaidTotal:           decimal.Zero,
		Status:              PayableStatusPending,
		ExpectedPaymentDate: expected,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// PendingBalance returns amount_to_pay - paid_total.
func (p *Payable) PendingBalance() decimal.Decimal {
	return p.AmountToPay.Sub(p.PaidTotal)
}

// SetPaidTotal stores the paid total and derives the status from it.
// A cancelled payable keeps its status.
func (p *Payable) SetPaidTotal(paid decimal.Decimal, paidAt *time.Time, now time.Time) {
	p.PaidTotal = RoundMoney(paid)
	p.UpdatedAt = now
	if p.Status == PayableStatusCancelled {
		return
	}

	switch {
	case p.PaidTotal.GreaterThanOrEqual(p.AmountToPay.Sub(Epsilon)):
		p.Status = PayableStatusPaid
		p.PaidAt = paidAt
	case p.PaidTotal.GreaterThanOrEqual(Epsilon):
		p.Status = PayableStatusPartiallyPaid
		p.PaidAt = nil
	default:
		p.Status = PayableStatusPending
		p.PaidAt = nil
	}
}

// Payment is money paid out against a payable.
// Amount - AdjustmentAmount is what counts towards the payable.
type Payment struct {
	ID               string
	TenantID         string
	PayableID        string
	BankID           string
	Amount           decimal.Decimal
	AdjustmentAmount decimal.Decimal
	PaymentDate      time.Time
	TransactionID    string
	ReversedAt       *time.Time
	ReversedBy       string
	ReversalReason   string
	CreatedAt        time.Time
}

// IsReversed reports whether the payment was reversed.
func (p *Payment) IsReversed() bool {
	return p.ReversedAt != nil
}

// Settled returns the amount this payment counts towards its payable.
func (p *Payment) Settled() decimal.Decimal {
	return p.Amount.Sub(p.AdjustmentAmount)
}

// Reverse marks the payment reversed. It never deletes the row.
func (p *Payment) Reverse(by, reason string, now time.Time) error {
	if p.IsReversed() {
		return NewValidationError("payment_id", "payment is already reversed", ErrInvalidTransition)
	}
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason", "reversal reason is required", ErrReasonRequired)
	}

	p.ReversedAt = &now
	p.ReversedBy = by
	p.ReversalReason = reason
	return nil
}

// SettledTotal sums Settled() over non-reversed payments.
func SettledTotal(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if !p.IsReversed() {
			total = total.Add(p.Settled())
		}
	}
	return total
}
