package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the payment state of an expense.
type ExpenseStatus string

const (
	ExpenseStatusPending ExpenseStatus = "pending"
	ExpenseStatusPaid    ExpenseStatus = "paid"
)

// Expense is a money-out ledger line.
type Expense struct {
	ID                string
	TenantID          string
	BankID            string
	Description       string
	Category          string
	Amount            decimal.Decimal
	PaidAmount        decimal.Decimal
	Status            ExpenseStatus
	DueDate           *time.Time
	PaidAt            *time.Time
	ExternalID        string
	StatementImportID string
	TransactionID     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MarkPaid links the expense to the bank transaction that paid it.
func (e *Expense) MarkPaid(tx *ImportedTransaction, now time.Time) {
	paidAt := tx.TransactionDate
	e.Status = ExpenseStatusPaid
	e.BankID = tx.BankID
	e.ExternalID = tx.ExternalID
	e.StatementImportID = tx.ImportBatchID
	e.TransactionID = tx.ID
	e.PaidAt = &paidAt
	e.PaidAmount = tx.Amount
	e.UpdatedAt = now
}

// Unlink undoes MarkPaid.
func (e *Expense) Unlink(now time.Time) {
	e.Status = ExpenseStatusPending
	e.BankID = ""
	e.ExternalID = ""
	e.StatementImportID = ""
	e.TransactionID = ""
	e.PaidAt = nil
	e.PaidAmount = decimal.Zero
	e.UpdatedAt = now
}

// RevenueStatus is the receipt state of a revenue line.
type RevenueStatus string

const (
	RevenueStatusPending  RevenueStatus = "pending"
	RevenueStatusReceived RevenueStatus = "received"
)

// Revenue sources.
const (
	RevenueSourceManual          = "manual"
	RevenueSourceStatement       = "statement"
	RevenueSourcePaymentReversal = "payment_reversal"
)

// Revenue is a money-in ledger line.
type Revenue struct {
	ID                string
	TenantID          string
	BankID            string
	Description       string
	Category          string
	Amount            decimal.Decimal
	Status            RevenueStatus
	Source            string
	ReceivedAt        *time.Time
	ExternalID        string
	StatementImportID string
	TransactionID     string
	CreatedAt         time.Time
}

// AdjustmentType tells which side of the ledger an adjustment belongs to.
type AdjustmentType string

const (
	AdjustmentTypeReceipt AdjustmentType = "receipt"
	AdjustmentTypePayment AdjustmentType = "payment"
)

// Adjustment is the immutable record of an accepted discrepancy between the
// expected and the actual amount of a reconciliation.
type Adjustment struct {
	ID               string
	TenantID         string
	Type             AdjustmentType
	ExpectedAmount   decimal.Decimal
	ReceivedAmount   decimal.Decimal
	AdjustmentAmount decimal.Decimal
	Reason           string
	Notes            string
	InvoiceID        string
	PayableID        string
	ExpenseID        string
	BankID           string
	TransactionID    string
	CreatedBy        string
	CreatedAt        time.Time
}

// Bank is a bank account. Its balance is derived on read.
type Bank struct {
	ID             string
	TenantID       string
	Name           string
	InitialBalance decimal.Decimal
	CreatedAt      time.Time
}
