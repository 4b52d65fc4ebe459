package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

type bankRepo struct{ s *Store }

func (r *bankRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Bank, error) {
	var (
		bank *domain.Bank
		ok   bool
	)
	r.s.read(func(d *state) { bank, ok = d.banks.get(id) })
	if !ok || bank.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityBank, id)
	}
	return bank, nil
}

func (r *bankRepo) BalanceComponents(ctx context.Context, tenantID, bankID string) (domain.BalanceComponents, error) {
	bank, err := r.GetByID(ctx, tenantID, bankID)
	if err != nil {
		return domain.BalanceComponents{}, err
	}

	c := domain.BalanceComponents{
		InitialBalance:   bank.InitialBalance,
		Revenue:          decimal.Zero,
		Receipts:         decimal.Zero,
		ReversedPayments: decimal.Zero,
		Payments:         decimal.Zero,
		PaidExpenses:     decimal.Zero,
	}

	inBank := func(tenant, bank string) bool { return tenant == tenantID && bank == bankID }

	r.s.read(func(d *state) {
		for _, rev := range d.revenues.list(func(v *domain.Revenue) bool {
			return inBank(v.TenantID, v.BankID) &&
				v.Status == domain.RevenueStatusReceived &&
				v.Source != domain.RevenueSourcePaymentReversal
		}) {
			c.Revenue = c.Revenue.Add(rev.Amount)
		}
		for _, rec := range d.receipts.list(func(v *domain.InvoiceReceipt) bool {
			return inBank(v.TenantID, v.BankID) && !v.IsReversed()
		}) {
			c.Receipts = c.Receipts.Add(rec.Amount)
		}
		for _, p := range d.payments.list(func(v *domain.Payment) bool {
			return inBank(v.TenantID, v.BankID)
		}) {
			c.Payments = c.Payments.Add(p.Amount)
			if p.IsReversed() {
				c.ReversedPayments = c.ReversedPayments.Add(p.Amount)
			}
		}
		for _, e := range d.expenses.list(func(v *domain.Expense) bool {
			return inBank(v.TenantID, v.BankID) && v.Status == domain.ExpenseStatusPaid
		}) {
			c.PaidExpenses = c.PaidExpenses.Add(e.PaidAmount)
		}
	})

	return c, nil
}

type payeeRepo struct{ s *Store }

func (r *payeeRepo) Get(_ context.Context, tenantID, payeeID string) (*domain.Payee, error) {
	var (
		payee *domain.Payee
		ok    bool
	)
	r.s.read(func(d *state) { payee, ok = d.payees.get(payeeID) })
	if !ok || payee.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityPayee, payeeID)
	}
	return payee, nil
}

type invoiceRepo struct{ s *Store }

func (r *invoiceRepo) Create(_ context.Context, _ usecase.Transaction, invoice *domain.Invoice) error {
	var err error
	r.s.write(func(d *state) {
		if _, taken := d.invoices.find(func(v *domain.Invoice) bool { return v.ContentHash == invoice.ContentHash }); taken {
			err = &domain.DuplicateImportError{Kind: domain.ImportKindInvoice, FileHash: invoice.ContentHash, SameTenant: true}
			return
		}
		d.invoices.put(invoice.ID, invoice)
	})
	return err
}

func (r *invoiceRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Invoice, error) {
	var (
		inv *domain.Invoice
		ok  bool
	)
	r.s.read(func(d *state) { inv, ok = d.invoices.get(id) })
	if !ok || inv.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityInvoice, id)
	}
	return inv, nil
}

func (r *invoiceRepo) GetByIDForUpdate(ctx context.Context, _ usecase.Transaction, tenantID, id string) (*domain.Invoice, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *invoiceRepo) GetByIDsForUpdate(ctx context.Context, _ usecase.Transaction, tenantID string, ids []string) ([]*domain.Invoice, error) {
	out := make([]*domain.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, err := r.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *invoiceRepo) FindByContentHash(_ context.Context, _ usecase.Transaction, contentHash string) (*domain.Invoice, error) {
	var inv *domain.Invoice
	r.s.read(func(d *state) {
		inv, _ = d.invoices.find(func(v *domain.Invoice) bool { return v.ContentHash == contentHash })
	})
	return inv, nil
}

func (r *invoiceRepo) UpdateValues(_ context.Context, _ usecase.Transaction, invoice *domain.Invoice) error {
	return r.update(invoice, func(stored *domain.Invoice) {
		stored.InvoiceNumber = invoice.InvoiceNumber
		stored.IssuerRef = invoice.IssuerRef
		stored.PayerRef = invoice.PayerRef
		stored.IssueDate = invoice.IssueDate
		stored.ExpectedReceiptDate = invoice.ExpectedReceiptDate
		stored.GrossValue = invoice.GrossValue
		stored.TotalDeductions = invoice.TotalDeductions
		stored.Taxes = invoice.Taxes
		stored.NetValue = invoice.NetValue
		stored.Status = invoice.Status
		stored.UpdatedAt = invoice.UpdatedAt
	})
}

func (r *invoiceRepo) UpdateReceived(_ context.Context, _ usecase.Transaction, invoice *domain.Invoice) error {
	return r.update(invoice, func(stored *domain.Invoice) {
		stored.TotalReceived = invoice.TotalReceived
		stored.Status = invoice.Status
		stored.UpdatedAt = invoice.UpdatedAt
	})
}

func (r *invoiceRepo) update(invoice *domain.Invoice, apply func(stored *domain.Invoice)) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.invoices.get(invoice.ID)
		if !ok || stored.TenantID != invoice.TenantID {
			err = domain.NewNotFoundError(domain.EntityInvoice, invoice.ID)
			return
		}
		apply(stored)
		d.invoices.put(stored.ID, stored)
	})
	return err
}

func (r *invoiceRepo) ListOpenReceivables(_ context.Context, tenantID string) ([]domain.OpenReceivable, error) {
	var out []domain.OpenReceivable
	r.s.read(func(d *state) {
		for _, inv := range d.invoices.list(func(v *domain.Invoice) bool {
			return v.TenantID == tenantID && v.IsOpen()
		}) {
			row := domain.OpenReceivable{
				InvoiceID:           inv.ID,
				InvoiceNumber:       inv.InvoiceNumber,
				NetValue:            inv.NetValue,
				TotalReceived:       inv.TotalReceived,
				ExpectedReceiptDate: inv.ExpectedReceiptDate,
			}
			allocs := d.allocations.list(func(v *domain.InvoiceAllocation) bool { return v.InvoiceID == inv.ID })
			if len(allocs) == 0 {
				out = append(out, row)
				continue
			}
			for _, a := range allocs {
				row.AllocationID = a.ID
				out = append(out, row)
			}
		}
	})
	return out, nil
}

type allocationRepo struct{ s *Store }

func (r *allocationRepo) ListByInvoice(_ context.Context, tenantID, invoiceID string) ([]*domain.InvoiceAllocation, error) {
	var out []*domain.InvoiceAllocation
	r.s.read(func(d *state) {
		out = d.allocations.list(func(v *domain.InvoiceAllocation) bool {
			return v.TenantID == tenantID && v.InvoiceID == invoiceID
		})
	})
	return out, nil
}

func (r *allocationRepo) GetByIDs(_ context.Context, _ usecase.Transaction, tenantID string, ids []string) ([]*domain.InvoiceAllocation, error) {
	out := make([]*domain.InvoiceAllocation, 0, len(ids))
	var err error
	r.s.read(func(d *state) {
		for _, id := range ids {
			a, ok := d.allocations.get(id)
			if !ok || a.TenantID != tenantID {
				err = domain.NewNotFoundError(domain.EntityAllocation, id)
				return
			}
			out = append(out, a)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *allocationRepo) ReplaceForInvoice(_ context.Context, _ usecase.Transaction, tenantID, invoiceID string, allocations []*domain.InvoiceAllocation, payables []*domain.Payable) error {
	r.s.write(func(d *state) {
		for _, p := range d.payables.list(func(v *domain.Payable) bool {
			return v.TenantID == tenantID && v.InvoiceID == invoiceID
		}) {
			d.payables.remove(p.ID)
		}
		for _, a := range d.allocations.list(func(v *domain.InvoiceAllocation) bool {
			return v.TenantID == tenantID && v.InvoiceID == invoiceID
		}) {
			d.allocations.remove(a.ID)
		}
		for _, a := range allocations {
			d.allocations.put(a.ID, a)
		}
		for _, p := range payables {
			d.payables.put(p.ID, p)
		}
	})
	return nil
}

type payableRepo struct{ s *Store }

func (r *payableRepo) GetByIDForUpdate(_ context.Context, _ usecase.Transaction, tenantID, id string) (*domain.Payable, error) {
	var (
		p  *domain.Payable
		ok bool
	)
	r.s.read(func(d *state) { p, ok = d.payables.get(id) })
	if !ok || p.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityPayable, id)
	}
	return p, nil
}

func (r *payableRepo) ListByInvoice(_ context.Context, tenantID, invoiceID string) ([]*domain.Payable, error) {
	var out []*domain.Payable
	r.s.read(func(d *state) {
		out = d.payables.list(func(v *domain.Payable) bool {
			return v.TenantID == tenantID && v.InvoiceID == invoiceID
		})
	})
	return out, nil
}

func (r *payableRepo) Update(_ context.Context, _ usecase.Transaction, payable *domain.Payable) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.payables.get(payable.ID)
		if !ok || stored.TenantID != payable.TenantID {
			err = domain.NewNotFoundError(domain.EntityPayable, payable.ID)
			return
		}
		d.payables.put(payable.ID, payable)
	})
	return err
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(_ context.Context, _ usecase.Transaction, payment *domain.Payment) error {
	r.s.write(func(d *state) { d.payments.put(payment.ID, payment) })
	return nil
}

func (r *paymentRepo) GetByIDForUpdate(_ context.Context, _ usecase.Transaction, tenantID, id string) (*domain.Payment, error) {
	var (
		p  *domain.Payment
		ok bool
	)
	r.s.read(func(d *state) { p, ok = d.payments.get(id) })
	if !ok || p.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityPayment, id)
	}
	return p, nil
}

func (r *paymentRepo) ListByPayable(_ context.Context, _ usecase.Transaction, tenantID, payableID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	r.s.read(func(d *state) {
		out = d.payments.list(func(v *domain.Payment) bool {
			return v.TenantID == tenantID && v.PayableID == payableID
		})
	})
	return out, nil
}

func (r *paymentRepo) ListByTransaction(_ context.Context, _ usecase.Transaction, tenantID, transactionID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	r.s.read(func(d *state) {
		out = d.payments.list(func(v *domain.Payment) bool {
			return v.TenantID == tenantID && v.TransactionID == transactionID
		})
	})
	return out, nil
}

func (r *paymentRepo) CountActiveByInvoice(_ context.Context, _ usecase.Transaction, tenantID, invoiceID string) (int, error) {
	count := 0
	r.s.read(func(d *state) {
		for _, p := range d.payments.list(func(v *domain.Payment) bool {
			return v.TenantID == tenantID && !v.IsReversed()
		}) {
			if payable, ok := d.payables.get(p.PayableID); ok && payable.InvoiceID == invoiceID {
				count++
			}
		}
	})
	return count, nil
}

func (r *paymentRepo) MarkReversed(_ context.Context, _ usecase.Transaction, payment *domain.Payment) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.payments.get(payment.ID)
		if !ok || stored.TenantID != payment.TenantID {
			err = domain.NewNotFoundError(domain.EntityPayment, payment.ID)
			return
		}
		stored.ReversedAt = payment.ReversedAt
		stored.ReversedBy = payment.ReversedBy
		stored.ReversalReason = payment.ReversalReason
		d.payments.put(stored.ID, stored)
	})
	return err
}

type receiptRepo struct{ s *Store }

func (r *receiptRepo) Create(_ context.Context, _ usecase.Transaction, receipt *domain.InvoiceReceipt) error {
	r.s.write(func(d *state) { d.receipts.put(receipt.ID, receipt) })
	return nil
}

func (r *receiptRepo) ListByTransaction(_ context.Context, _ usecase.Transaction, tenantID, transactionID string) ([]*domain.InvoiceReceipt, error) {
	var out []*domain.InvoiceReceipt
	r.s.read(func(d *state) {
		out = d.receipts.list(func(v *domain.InvoiceReceipt) bool {
			return v.TenantID == tenantID && v.TransactionID == transactionID
		})
	})
	return out, nil
}

func (r *receiptRepo) MarkReversed(_ context.Context, _ usecase.Transaction, tenantID, id string, reversedAt time.Time) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.receipts.get(id)
		if !ok || stored.TenantID != tenantID {
			err = domain.NewNotFoundError("receipt", id)
			return
		}
		stored.ReversedAt = &reversedAt
		d.receipts.put(id, stored)
	})
	return err
}

type expenseRepo struct{ s *Store }

func (r *expenseRepo) Create(_ context.Context, _ usecase.Transaction, expense *domain.Expense) error {
	r.s.write(func(d *state) { d.expenses.put(expense.ID, expense) })
	return nil
}

func (r *expenseRepo) GetByIDForUpdate(_ context.Context, _ usecase.Transaction, tenantID, id string) (*domain.Expense, error) {
	var (
		e  *domain.Expense
		ok bool
	)
	r.s.read(func(d *state) { e, ok = d.expenses.get(id) })
	if !ok || e.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityExpense, id)
	}
	return e, nil
}

func (r *expenseRepo) Update(_ context.Context, _ usecase.Transaction, expense *domain.Expense) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.expenses.get(expense.ID)
		if !ok || stored.TenantID != expense.TenantID {
			err = domain.NewNotFoundError(domain.EntityExpense, expense.ID)
			return
		}
		d.expenses.put(expense.ID, expense)
	})
	return err
}

func (r *expenseRepo) Delete(_ context.Context, _ usecase.Transaction, tenantID, id string) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.expenses.get(id)
		if !ok || stored.TenantID != tenantID {
			err = domain.NewNotFoundError(domain.EntityExpense, id)
			return
		}
		d.expenses.remove(id)
	})
	return err
}

func (r *expenseRepo) ListOpen(_ context.Context, tenantID string) ([]*domain.Expense, error) {
	var out []*domain.Expense
	r.s.read(func(d *state) {
		out = d.expenses.list(func(v *domain.Expense) bool {
			return v.TenantID == tenantID && v.Status == domain.ExpenseStatusPending
		})
	})
	return out, nil
}

func (r *expenseRepo) FindByExternalID(_ context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.Expense, error) {
	if externalID == "" {
		return nil, nil
	}
	var e *domain.Expense
	r.s.read(func(d *state) {
		e, _ = d.expenses.find(func(v *domain.Expense) bool {
			return v.TenantID == tenantID && v.BankID == bankID &&
				v.ExternalID == externalID && v.TransactionID != exceptTransactionID
		})
	})
	return e, nil
}

type revenueRepo struct{ s *Store }

func (r *revenueRepo) Create(_ context.Context, _ usecase.Transaction, revenue *domain.Revenue) error {
	r.s.write(func(d *state) { d.revenues.put(revenue.ID, revenue) })
	return nil
}

func (r *revenueRepo) GetByID(_ context.Context, _ usecase.Transaction, tenantID, id string) (*domain.Revenue, error) {
	var (
		rev *domain.Revenue
		ok  bool
	)
	r.s.read(func(d *state) { rev, ok = d.revenues.get(id) })
	if !ok || rev.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityRevenue, id)
	}
	return rev, nil
}

func (r *revenueRepo) Delete(_ context.Context, _ usecase.Transaction, tenantID, id string) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.revenues.get(id)
		if !ok || stored.TenantID != tenantID {
			err = domain.NewNotFoundError(domain.EntityRevenue, id)
			return
		}
		d.revenues.remove(id)
	})
	return err
}

func (r *revenueRepo) FindByExternalID(_ context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.Revenue, error) {
	if externalID == "" {
		return nil, nil
	}
	var rev *domain.Revenue
	r.s.read(func(d *state) {
		rev, _ = d.revenues.find(func(v *domain.Revenue) bool {
			return v.TenantID == tenantID && v.BankID == bankID &&
				v.ExternalID == externalID && v.TransactionID != exceptTransactionID
		})
	})
	return rev, nil
}

type adjustmentRepo struct{ s *Store }

func (r *adjustmentRepo) Create(_ context.Context, _ usecase.Transaction, adjustment *domain.Adjustment) error {
	r.s.write(func(d *state) { d.adjustments.put(adjustment.ID, adjustment) })
	return nil
}

func (r *adjustmentRepo) ListByTransaction(_ context.Context, tenantID, transactionID string) ([]*domain.Adjustment, error) {
	var out []*domain.Adjustment
	r.s.read(func(d *state) {
		out = d.adjustments.list(func(v *domain.Adjustment) bool {
			return v.TenantID == tenantID && v.TransactionID == transactionID
		})
	})
	return out, nil
}

type statementRepo struct{ s *Store }

func (r *statementRepo) FindBatchByHash(_ context.Context, tenantID, bankID, fileHash string) (*domain.ImportBatch, error) {
	var b *domain.ImportBatch
	r.s.read(func(d *state) {
		b, _ = d.batches.find(func(v *domain.ImportBatch) bool {
			return v.TenantID == tenantID && v.BankID == bankID && v.FileHash == fileHash
		})
	})
	return b, nil
}

func (r *statementRepo) CreateBatch(_ context.Context, _ usecase.Transaction, batch *domain.ImportBatch) error {
	var err error
	r.s.write(func(d *state) {
		if _, taken := d.batches.find(func(v *domain.ImportBatch) bool {
			return v.BankID == batch.BankID && v.FileHash == batch.FileHash
		}); taken {
			err = &domain.DuplicateImportError{Kind: domain.ImportKindStatement, FileHash: batch.FileHash, SameTenant: true}
			return
		}
		d.batches.put(batch.ID, batch)
	})
	return err
}

func (r *statementRepo) CreateTransactions(_ context.Context, _ usecase.Transaction, transactions []*domain.ImportedTransaction) error {
	r.s.write(func(d *state) {
		for _, t := range transactions {
			d.transactions.put(t.ID, t)
		}
	})
	return nil
}

func (r *statementRepo) GetTransaction(_ context.Context, tenantID, id string) (*domain.ImportedTransaction, error) {
	var (
		t  *domain.ImportedTransaction
		ok bool
	)
	r.s.read(func(d *state) { t, ok = d.transactions.get(id) })
	if !ok || t.TenantID != tenantID {
		return nil, domain.NewNotFoundError(domain.EntityTransaction, id)
	}
	return t, nil
}

func (r *statementRepo) GetTransactionForUpdate(ctx context.Context, _ usecase.Transaction, tenantID, id string) (*domain.ImportedTransaction, error) {
	return r.GetTransaction(ctx, tenantID, id)
}

func (r *statementRepo) UpdateTransaction(_ context.Context, _ usecase.Transaction, transaction *domain.ImportedTransaction) error {
	var err error
	r.s.write(func(d *state) {
		stored, ok := d.transactions.get(transaction.ID)
		if !ok || stored.TenantID != transaction.TenantID {
			err = domain.NewNotFoundError(domain.EntityTransaction, transaction.ID)
			return
		}
		d.transactions.put(transaction.ID, transaction)
	})
	return err
}

func (r *statementRepo) ListTransactionsByBatch(_ context.Context, tenantID, batchID string) ([]*domain.ImportedTransaction, error) {
	var out []*domain.ImportedTransaction
	r.s.read(func(d *state) {
		out = d.transactions.list(func(v *domain.ImportedTransaction) bool {
			return v.TenantID == tenantID && v.ImportBatchID == batchID
		})
	})
	return out, nil
}

func (r *statementRepo) FindCommittedByExternalID(_ context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.ImportedTransaction, error) {
	if externalID == "" {
		return nil, nil
	}
	var t *domain.ImportedTransaction
	r.s.read(func(d *state) {
		t, _ = d.transactions.find(func(v *domain.ImportedTransaction) bool {
			return v.TenantID == tenantID && v.BankID == bankID && v.ExternalID == externalID &&
				v.ID != exceptTransactionID &&
				(v.Status == domain.TransactionStatusReconciled || v.Status == domain.TransactionStatusCreated)
		})
	})
	return t, nil
}

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Create(_ context.Context, _ usecase.Transaction, event *domain.OutboxEvent) error {
	r.s.write(func(d *state) { d.outbox.put(event.ID, event) })
	return nil
}

func (r *outboxRepo) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	r.s.read(func(d *state) {
		out = d.outbox.list(func(v *domain.OutboxEvent) bool { return !v.Published })
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.s.write(func(d *state) {
		if e, ok := d.outbox.get(id); ok {
			e.Published = true
			e.PublishedAt = &publishedAt
			d.outbox.put(id, e)
		}
	})
	return nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) CreateTx(_ context.Context, _ usecase.Transaction, log *domain.AuditLog) error {
	r.s.write(func(d *state) { d.audit.put(log.ID, log) })
	return nil
}

func (r *auditRepo) List(_ context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	r.s.read(func(d *state) {
		out = d.audit.list(func(v *domain.AuditLog) bool {
			return (filter.TenantID == "" || v.TenantID == filter.TenantID) &&
				(filter.Action == "" || v.Action == filter.Action) &&
				(filter.ResourceType == "" || v.ResourceType == filter.ResourceType) &&
				(filter.ResourceID == "" || v.ResourceID == filter.ResourceID)
		})
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
