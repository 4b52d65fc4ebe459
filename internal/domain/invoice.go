package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the receipt state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending           InvoiceStatus = "pending"
	InvoiceStatusPartiallyReceived InvoiceStatus = "partially_received"
	InvoiceStatusReceived          InvoiceStatus = "received"
)

// Taxes holds the tax values printed on an invoice.
type Taxes struct {
	ISS         decimal.Decimal
	PIS         decimal.Decimal
	COFINS      decimal.Decimal
	CSLL        decimal.Decimal
	IRRF        decimal.Decimal
	INSS        decimal.Decimal
	ISSRetained bool
}

// InvoiceData is the structured record returned by an invoice parser.
type InvoiceData struct {
	InvoiceNumber       string
	IssuerRef           string
	PayerRef            string
	IssueDate           time.Time
	ExpectedReceiptDate *time.Time
	GrossValue          decimal.Decimal
	TotalDeductions     decimal.Decimal
	Taxes               Taxes
	NetValueFromSource  *decimal.Decimal
}

// NetValue trusts the source net value when it is present and positive.
// Otherwise net = gross - deductions - retained ISS.
func (d *InvoiceData) NetValue() decimal.Decimal {
	if d.NetValueFromSource != nil && d.NetValueFromSource.IsPositive() {
		return RoundMoney(*d.NetValueFromSource)
	}

	net := d.GrossValue.Sub(d.TotalDeductions)
	if d.Taxes.ISSRetained {
		net = net.Sub(d.Taxes.ISS)
	}

	return RoundMoney(net)
}

// Validate checks the minimum a parsed record must carry.
func (d *InvoiceData) Validate() error {
	if !d.GrossValue.IsPositive() {
		return NewValidationError("gross_value", "must be positive", ErrInvalidAmount)
	}
	if d.TotalDeductions.IsNegative() {
		return NewValidationError("total_deductions", "must not be negative", nil)
	}
	return nil
}

// Invoice is a receivable imported from an invoice source file.
type Invoice struct {
	ID                  string
	TenantID            string
	InvoiceNumber       string
	IssuerRef           string
	PayerRef            string
	IssueDate           time.Time
	GrossValue          decimal.Decimal
	TotalDeductions     decimal.Decimal
	Taxes               Taxes
	NetValue            decimal.Decimal
	TotalReceived       decimal.Decimal
	Status              InvoiceStatus
	ExpectedReceiptDate *time.Time
	ContentHash         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewInvoice builds a pending invoice from parsed data.
func NewInvoice(id, tenantID, contentHash string, data *InvoiceData, now time.Time) *Invoice {
	inv := &Invoice{
		ID:            id,
		TenantID:      tenantID,
		ContentHash:   contentHash,
		TotalReceived: decimal.Zero,
		Status:        InvoiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	inv.ApplyData(data)
	return inv
}

// ApplyData overwrites descriptive, tax and value fields from parsed data.
// Receipt state is left untouched.
func (i *Invoice) ApplyData(data *InvoiceData) {
	i.InvoiceNumber = data.InvoiceNumber
	i.IssuerRef = data.IssuerRef
	i.PayerRef = data.PayerRef
	i.IssueDate = data.IssueDate
	i.ExpectedReceiptDate = data.ExpectedReceiptDate
	i.GrossValue = RoundMoney(data.GrossValue)
	i.TotalDeductions = RoundMoney(data.TotalDeductions)
	i.Taxes = data.Taxes
	i.NetValue = data.NetValue()
	i.Status = InvoiceStatusFor(i.NetValue, i.TotalReceived)
}

// PendingBalance returns net_value - total_received.
func (i *Invoice) PendingBalance() decimal.Decimal {
	return i.NetValue.Sub(i.TotalReceived)
}

// IsOpen reports whether the invoice still expects money.
func (i *Invoice) IsOpen() bool {
	return i.Status != InvoiceStatusReceived && i.PendingBalance().GreaterThanOrEqual(Epsilon)
}

// Credit adds amount to total_received and recomputes the status.
func (i *Invoice) Credit(amount decimal.Decimal, now time.Time) {
	i.TotalReceived = RoundMoney(i.TotalReceived.Add(amount))
	i.Status = InvoiceStatusFor(i.NetValue, i.TotalReceived)
	i.UpdatedAt = now
}

// Debit removes a previously credited amount and recomputes the status.
func (i *Invoice) Debit(amount decimal.Decimal, now time.Time) {
	received := RoundMoney(i.TotalReceived.Sub(amount))
	if received.IsNegative() {
		received = decimal.Zero
	}
	i.TotalReceived = received
	i.Status = InvoiceStatusFor(i.NetValue, i.TotalReceived)
	i.UpdatedAt = now
}

// InvoiceStatusFor derives the invoice status from its totals.
func InvoiceStatusFor(net, received decimal.Decimal) InvoiceStatus {
	switch {
	case received.GreaterThanOrEqual(net.Sub(Epsilon)):
		return InvoiceStatusReceived
	case received.GreaterThanOrEqual(Epsilon):
		return InvoiceStatusPartiallyReceived
	default:
		return InvoiceStatusPending
	}
}

// InvoiceReceipt is money received against an invoice.
// Amount is the cash that reached the bank; Amount - AdjustmentAmount is
// what was credited to the invoice.
type InvoiceReceipt struct {
	ID               string
	TenantID         string
	InvoiceID        string
	BankID           string
	Amount           decimal.Decimal
	AdjustmentAmount decimal.Decimal
	ReceiptDate      time.Time
	TransactionID    string
	ReversedAt       *time.Time
	CreatedAt        time.Time
}

// Credited returns the amount this receipt added to the invoice.
func (r *InvoiceReceipt) Credited() decimal.Decimal {
	return r.Amount.Sub(r.AdjustmentAmount)
}

// IsReversed reports whether the receipt was reversed.
func (r *InvoiceReceipt) IsReversed() bool {
	return r.ReversedAt != nil
}
