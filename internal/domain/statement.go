package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a bank movement.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransactionStatus is the reconciliation state of an imported transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusReconciled TransactionStatus = "reconciled"
	TransactionStatusCreated    TransactionStatus = "created"
	TransactionStatusIgnored    TransactionStatus = "ignored"
)

// LinkType names the ledger entity a transaction was committed against.
type LinkType string

const (
	LinkTypeNone    LinkType = ""
	LinkTypeExpense LinkType = "expense"
	LinkTypeRevenue LinkType = "revenue"
	LinkTypeInvoice LinkType = "invoice"
	LinkTypePayable LinkType = "payable"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusReconciled, TransactionStatusCreated, TransactionStatusIgnored},
	TransactionStatusReconciled: {TransactionStatusPending},
	TransactionStatusCreated:    {TransactionStatusPending},
}

// FileHash returns the hex SHA-256 of content.
func FileHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// StatementLine is one row returned by a statement parser.
type StatementLine struct {
	ExternalID  string
	Amount      decimal.Decimal
	Type        TransactionType
	Date        time.Time
	Description string
}

// ImportBatch records one imported statement file.
type ImportBatch struct {
	ID               string
	TenantID         string
	BankID           string
	FileName         string
	FileHash         string
	TransactionCount int
	CreatedAt        time.Time
}

// ImportedTransaction is a bank movement awaiting reconciliation.
type ImportedTransaction struct {
	ID              string
	TenantID        string
	BankID          string
	ImportBatchID   string
	ExternalID      string
	Amount          decimal.Decimal
	Type            TransactionType
	TransactionDate time.Time
	Description     string
	Status          TransactionStatus
	LinkType        LinkType
	LinkID          string
	ReversalReason  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewImportedTransaction builds a pending transaction from a statement line.
func NewImportedTransaction(id string, batch *ImportBatch, line StatementLine, now time.Time) *ImportedTransaction {
	return &ImportedTransaction{
		ID:              id,
		TenantID:        batch.TenantID,
		BankID:          batch.BankID,
		ImportBatchID:   batch.ID,
		ExternalID:      line.ExternalID,
		Amount:          RoundMoney(line.Amount.Abs()),
		Type:            line.Type,
		TransactionDate: line.Date,
		Description:     line.Description,
		Status:          TransactionStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CanTransition reports whether the transaction may move to status.
func (t *ImportedTransaction) CanTransition(to TransactionStatus) bool {
	for _, allowed := range transactionTransitions[t.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Commit moves a pending transaction to a committed status and links it.
func (t *ImportedTransaction) Commit(to TransactionStatus, link LinkType, linkID string, now time.Time) error {
	if !t.CanTransition(to) {
		return &StaleStateError{
			Entity: EntityTransaction,
			ID:     t.ID,
			Reason: "status is " + string(t.Status) + ", cannot move to " + string(to),
		}
	}

	t.Status = to
	t.LinkType = link
	t.LinkID = linkID
	t.ReversalReason = ""
	t.UpdatedAt = now
	return nil
}

// Reopen returns a committed transaction to pending.
func (t *ImportedTransaction) Reopen(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason", "reversal reason is required", ErrReasonRequired)
	}
	if !t.CanTransition(TransactionStatusPending) {
		return NewValidationError("status", "transaction in status "+string(t.Status)+" cannot be reversed", ErrInvalidTransition)
	}

	t.Status = TransactionStatusPending
	t.LinkType = LinkTypeNone
	t.LinkID = ""
	t.ReversalReason = reason
	t.UpdatedAt = now
	return nil
}

// IsCredit reports whether money came in.
func (t *ImportedTransaction) IsCredit() bool {
	return t.Type == TransactionTypeCredit
}
