package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/goreconcile/internal/domain"
)

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	db DBTX
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(db DBTX) *BankRepository {
	return &BankRepository{db: db}
}

// GetByID retrieves a bank of the tenant.
func (r *BankRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Bank, error) {
	var (
		b       domain.Bank
		initial pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, initial_balance, created_at
		FROM banks
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&b.ID, &b.TenantID, &b.Name, &initial, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityBank, id)
		}
		return nil, fmt.Errorf("get bank: %w", err)
	}

	b.InitialBalance = numericToDecimal(initial)
	return &b, nil
}

// balanceComponentsSQL sums each balance input in one round trip.
// Revenue excludes payment_reversal rows: the reversed payment already
// returns that money through reversed_payments.
const balanceComponentsSQL = `
	SELECT
		b.initial_balance,
		COALESCE((SELECT SUM(amount) FROM revenues
			WHERE tenant_id = b.tenant_id AND bank_id = b.id
			  AND status = 'received' AND source <> 'payment_reversal'), 0),
		COALESCE((SELECT SUM(amount) FROM invoice_receipts
			WHERE tenant_id = b.tenant_id AND bank_id = b.id AND reversed_at IS NULL), 0),
		COALESCE((SELECT SUM(amount) FROM payments
			WHERE tenant_id = b.tenant_id AND bank_id = b.id AND reversed_at IS NOT NULL), 0),
		COALESCE((SELECT SUM(amount) FROM payments
			WHERE tenant_id = b.tenant_id AND bank_id = b.id), 0),
		COALESCE((SELECT SUM(paid_amount) FROM expenses
			WHERE tenant_id = b.tenant_id AND bank_id = b.id AND status = 'paid'), 0)
	FROM banks b
	WHERE b.tenant_id = $1 AND b.id = $2`

// BalanceComponents sums every balance-affecting row of the bank.
func (r *BankRepository) BalanceComponents(ctx context.Context, tenantID, bankID string) (domain.BalanceComponents, error) {
	var initial, revenue, receipts, reversed, payments, expenses pgtype.Numeric

	err := r.db.QueryRow(ctx, balanceComponentsSQL, tenantID, bankID).
		Scan(&initial, &revenue, &receipts, &reversed, &payments, &expenses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BalanceComponents{}, domain.NewNotFoundError(domain.EntityBank, bankID)
		}
		return domain.BalanceComponents{}, fmt.Errorf("balance components: %w", err)
	}

	return domain.BalanceComponents{
		InitialBalance:   numericToDecimal(initial),
		Revenue:          numericToDecimal(revenue),
		Receipts:         numericToDecimal(receipts),
		ReversedPayments: numericToDecimal(reversed),
		Payments:         numericToDecimal(payments),
		PaidExpenses:     numericToDecimal(expenses),
	}, nil
}

// PayeeRepository implements usecase.PayeeDirectory on the payees table.
type PayeeRepository struct {
	db DBTX
}

// NewPayeeRepository creates a new PayeeRepository.
func NewPayeeRepository(db DBTX) *PayeeRepository {
	return &PayeeRepository{db: db}
}

// Get retrieves a payee of the tenant.
func (r *PayeeRepository) Get(ctx context.Context, tenantID, payeeID string) (*domain.Payee, error) {
	var (
		p    domain.Payee
		rate pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, fee_rate
		FROM payees
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, payeeID,
	).Scan(&p.ID, &p.TenantID, &p.Name, &rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityPayee, payeeID)
		}
		return nil, fmt.Errorf("get payee: %w", err)
	}

	p.FeeRate = numericToDecimal(rate)
	return &p, nil
}
