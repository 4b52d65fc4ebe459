package postgres

import "github.com/iho/goreconcile/internal/usecase"

// NewLedger wires every Postgres repository over one connection pool.
func NewLedger(db DBTX) usecase.Ledger {
	return usecase.Ledger{
		Banks:       NewBankRepository(db),
		Invoices:    NewInvoiceRepository(db),
		Allocations: NewAllocationRepository(db),
		Payables:    NewPayableRepository(db),
		Payments:    NewPaymentRepository(db),
		Receipts:    NewReceiptRepository(db),
		Expenses:    NewExpenseRepository(db),
		Revenues:    NewRevenueRepository(db),
		Adjustments: NewAdjustmentRepository(db),
		Statements:  NewStatementRepository(db),
		Outbox:      NewOutboxRepository(db),
		Audit:       NewAuditRepository(db),
	}
}
