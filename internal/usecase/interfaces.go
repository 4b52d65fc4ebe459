package usecase

import (
	"context"
	"time"

	"github.com/iho/goreconcile/internal/domain"
)

// BankRepository defines data access for banks and their balance sums.
type BankRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Bank, error)
	// BalanceComponents sums every balance-affecting row of the bank.
	BalanceComponents(ctx context.Context, tenantID, bankID string) (domain.BalanceComponents, error)
}

// InvoiceRepository defines data access for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Invoice, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Invoice, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, tenantID string, ids []string) ([]*domain.Invoice, error)
	// FindByContentHash looks the hash up across all tenants. It returns nil when absent.
	FindByContentHash(ctx context.Context, tx Transaction, contentHash string) (*domain.Invoice, error)
	UpdateValues(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	UpdateReceived(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	// ListOpenReceivables returns one row per allocation of every open invoice,
	// and one row with an empty allocation id for open invoices without allocations.
	ListOpenReceivables(ctx context.Context, tenantID string) ([]domain.OpenReceivable, error)
}

// AllocationRepository defines data access for invoice allocations.
type AllocationRepository interface {
	ListByInvoice(ctx context.Context, tenantID, invoiceID string) ([]*domain.InvoiceAllocation, error)
	GetByIDs(ctx context.Context, tx Transaction, tenantID string, ids []string) ([]*domain.InvoiceAllocation, error)
	// ReplaceForInvoice deletes the invoice's allocations and payables and
	// inserts the given ones.
	ReplaceForInvoice(ctx context.Context, tx Transaction, tenantID, invoiceID string, allocations []*domain.InvoiceAllocation, payables []*domain.Payable) error
}

// PayableRepository defines data access for payables.
type PayableRepository interface {
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Payable, error)
	ListByInvoice(ctx context.Context, tenantID, invoiceID string) ([]*domain.Payable, error)
	Update(ctx context.Context, tx Transaction, payable *domain.Payable) error
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Payment, error)
	ListByPayable(ctx context.Context, tx Transaction, tenantID, payableID string) ([]*domain.Payment, error)
	ListByTransaction(ctx context.Context, tx Transaction, tenantID, transactionID string) ([]*domain.Payment, error)
	// CountActiveByInvoice counts non-reversed payments on the invoice's payables.
	CountActiveByInvoice(ctx context.Context, tx Transaction, tenantID, invoiceID string) (int, error)
	MarkReversed(ctx context.Context, tx Transaction, payment *domain.Payment) error
}

// ReceiptRepository defines data access for invoice receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, tx Transaction, receipt *domain.InvoiceReceipt) error
	ListByTransaction(ctx context.Context, tx Transaction, tenantID, transactionID string) ([]*domain.InvoiceReceipt, error)
	MarkReversed(ctx context.Context, tx Transaction, tenantID, id string, reversedAt time.Time) error
}

// ExpenseRepository defines data access for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, tx Transaction, expense *domain.Expense) error
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Expense, error)
	Update(ctx context.Context, tx Transaction, expense *domain.Expense) error
	Delete(ctx context.Context, tx Transaction, tenantID, id string) error
	ListOpen(ctx context.Context, tenantID string) ([]*domain.Expense, error)
	// FindByExternalID returns an expense of the bank carrying the key that is
	// linked to a transaction other than exceptTransactionID, or nil.
	FindByExternalID(ctx context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.Expense, error)
}

// RevenueRepository defines data access for revenues.
type RevenueRepository interface {
	Create(ctx context.Context, tx Transaction, revenue *domain.Revenue) error
	GetByID(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Revenue, error)
	Delete(ctx context.Context, tx Transaction, tenantID, id string) error
	// FindByExternalID returns a revenue of the bank carrying the key that is
	// linked to a transaction other than exceptTransactionID, or nil.
	FindByExternalID(ctx context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.Revenue, error)
}

// AdjustmentRepository defines data access for adjustments.
type AdjustmentRepository interface {
	Create(ctx context.Context, tx Transaction, adjustment *domain.Adjustment) error
	ListByTransaction(ctx context.Context, tenantID, transactionID string) ([]*domain.Adjustment, error)
}

// StatementRepository defines data access for import batches and imported transactions.
type StatementRepository interface {
	// FindBatchByHash returns nil when the bank has no batch with that hash.
	FindBatchByHash(ctx context.Context, tenantID, bankID, fileHash string) (*domain.ImportBatch, error)
	// CreateBatch fails with *domain.DuplicateImportError on a (bank_id, file_hash) conflict.
	CreateBatch(ctx context.Context, tx Transaction, batch *domain.ImportBatch) error
	CreateTransactions(ctx context.Context, tx Transaction, transactions []*domain.ImportedTransaction) error
	GetTransaction(ctx context.Context, tenantID, id string) (*domain.ImportedTransaction, error)
	GetTransactionForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.ImportedTransaction, error)
	UpdateTransaction(ctx context.Context, tx Transaction, transaction *domain.ImportedTransaction) error
	ListTransactionsByBatch(ctx context.Context, tenantID, batchID string) ([]*domain.ImportedTransaction, error)
	// FindCommittedByExternalID returns a reconciled or created transaction of
	// the bank with the same external id and a different id, or nil.
	FindCommittedByExternalID(ctx context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.ImportedTransaction, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Ledger bundles the repositories of the ledger store. Every engine
// component receives the same Ledger.
type Ledger struct {
	Banks       BankRepository
	Invoices    InvoiceRepository
	Allocations AllocationRepository
	Payables    PayableRepository
	Payments    PaymentRepository
	Receipts    ReceiptRepository
	Expenses    ExpenseRepository
	Revenues    RevenueRepository
	Adjustments AdjustmentRepository
	Statements  StatementRepository
	Outbox      OutboxRepository
	Audit       AuditRepository
}

// InvoiceParser turns raw invoice source bytes into structured data.
type InvoiceParser interface {
	Parse(content []byte) (*domain.InvoiceData, error)
}

// StatementParser turns raw statement bytes into ordered lines.
type StatementParser interface {
	Parse(content []byte) ([]domain.StatementLine, error)
}

// PayeeDirectory looks payees up by id.
type PayeeDirectory interface {
	Get(ctx context.Context, tenantID, payeeID string) (*domain.Payee, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
