// Package memory is an in-process Ledger store. Transactions are serialized
// and a rollback restores the snapshot taken at Begin.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

var errTxClosed = errors.New("memory: transaction already closed")

type table[T any] struct {
	rows  map[string]*T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (t *table[T]) get(id string) (*T, bool) {
	v, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

func (t *table[T]) put(id string, v *T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = clone(v)
}

func (t *table[T]) remove(id string) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
}

// list returns copies of the rows accepted by match, in insertion order.
func (t *table[T]) list(match func(*T) bool) []*T {
	var out []*T
	for _, id := range t.order {
		v := t.rows[id]
		if match == nil || match(v) {
			out = append(out, clone(v))
		}
	}
	return out
}

func (t *table[T]) find(match func(*T) bool) (*T, bool) {
	for _, id := range t.order {
		if v := t.rows[id]; match(v) {
			return clone(v), true
		}
	}
	return nil, false
}

func (t *table[T]) copy() *table[T] {
	c := &table[T]{
		rows:  make(map[string]*T, len(t.rows)),
		order: append([]string(nil), t.order...),
	}
	for id, v := range t.rows {
		c.rows[id] = clone(v)
	}
	return c
}

type state struct {
	banks        *table[domain.Bank]
	payees       *table[domain.Payee]
	invoices     *table[domain.Invoice]
	allocations  *table[domain.InvoiceAllocation]
	payables     *table[domain.Payable]
	payments     *table[domain.Payment]
	receipts     *table[domain.InvoiceReceipt]
	expenses     *table[domain.Expense]
	revenues     *table[domain.Revenue]
	adjustments  *table[domain.Adjustment]
	batches      *table[domain.ImportBatch]
	transactions *table[domain.ImportedTransaction]
	outbox       *table[domain.OutboxEvent]
	audit        *table[domain.AuditLog]
}

func newState() *state {
	return &state{
		banks:        newTable[domain.Bank](),
		payees:       newTable[domain.Payee](),
		invoices:     newTable[domain.Invoice](),
		allocations:  newTable[domain.InvoiceAllocation](),
		payables:     newTable[domain.Payable](),
		payments:     newTable[domain.Payment](),
		receipts:     newTable[domain.InvoiceReceipt](),
		expenses:     newTable[domain.Expense](),
		revenues:     newTable[domain.Revenue](),
		adjustments:  newTable[domain.Adjustment](),
		batches:      newTable[domain.ImportBatch](),
		transactions: newTable[domain.ImportedTransaction](),
		outbox:       newTable[domain.OutboxEvent](),
		audit:        newTable[domain.AuditLog](),
	}
}

func (s *state) copy() *state {
	return &state{
		banks:        s.banks.copy(),
		payees:       s.payees.copy(),
		invoices:     s.invoices.copy(),
		allocations:  s.allocations.copy(),
		payables:     s.payables.copy(),
		payments:     s.payments.copy(),
		receipts:     s.receipts.copy(),
		expenses:     s.expenses.copy(),
		revenues:     s.revenues.copy(),
		adjustments:  s.adjustments.copy(),
		batches:      s.batches.copy(),
		transactions: s.transactions.copy(),
		outbox:       s.outbox.copy(),
		audit:        s.audit.copy(),
	}
}

// Store holds every ledger table in memory.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// Ledger returns the repositories backed by this store.
func (s *Store) Ledger() usecase.Ledger {
	return usecase.Ledger{
		Banks:       &bankRepo{s: s},
		Invoices:    &invoiceRepo{s: s},
		Allocations: &allocationRepo{s: s},
		Payables:    &payableRepo{s: s},
		Payments:    &paymentRepo{s: s},
		Receipts:    &receiptRepo{s: s},
		Expenses:    &expenseRepo{s: s},
		Revenues:    &revenueRepo{s: s},
		Adjustments: &adjustmentRepo{s: s},
		Statements:  &statementRepo{s: s},
		Outbox:      &outboxRepo{s: s},
		Audit:       &auditRepo{s: s},
	}
}

// TxManager returns a transaction manager for this store.
func (s *Store) TxManager() usecase.TransactionManager {
	return &txManager{s: s}
}

// Payees returns a payee directory backed by this store.
func (s *Store) Payees() usecase.PayeeDirectory {
	return &payeeRepo{s: s}
}

// AddBank stores a bank.
func (s *Store) AddBank(b *domain.Bank) {
	s.write(func(d *state) { d.banks.put(b.ID, b) })
}

// AddPayee stores a payee.
func (s *Store) AddPayee(p *domain.Payee) {
	s.write(func(d *state) { d.payees.put(p.ID, p) })
}

// AddExpense stores an expense.
func (s *Store) AddExpense(e *domain.Expense) {
	s.write(func(d *state) { d.expenses.put(e.ID, e) })
}

// AddRevenue stores a revenue.
func (s *Store) AddRevenue(r *domain.Revenue) {
	s.write(func(d *state) { d.revenues.put(r.ID, r) })
}

type txManager struct {
	s *Store
}

func (m *txManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.txMu.Lock()
	var snapshot *state
	m.s.read(func(d *state) { snapshot = d.copy() })

	return &tx{s: m.s, snapshot: snapshot}, nil
}

type tx struct {
	s        *Store
	snapshot *state
	done     bool
}

func (t *tx) Commit(context.Context) error {
	if t.done {
		return errTxClosed
	}
	t.done = true
	t.s.txMu.Unlock()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.mu.Lock()
	t.s.data = t.snapshot
	t.s.mu.Unlock()
	t.s.txMu.Unlock()
	return nil
}
