package usecase

import (
	"context"
	"time"

	"github.com/iho/goreconcile/internal/domain"
)

// BalanceUseCase derives bank balances on read.
type BalanceUseCase struct {
	options
	ledger Ledger
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(ledger Ledger, opts ...Option) *BalanceUseCase {
	return &BalanceUseCase{
		options: newOptions(opts),
		ledger:  ledger,
	}
}

// GetBalance sums the bank's components. Nothing is cached.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, tenantID, bankID string) (balance *domain.BankBalance, err error) {
	start := time.Now()
	defer func() { uc.observe("get_balance", start, err) }()

	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("bank_id", bankID); err != nil {
		return nil, err
	}

	components, err := uc.ledger.Banks.BalanceComponents(ctx, tenantID, bankID)
	if err != nil {
		return nil, err
	}

	return &domain.BankBalance{
		BankID:     bankID,
		Balance:    domain.RoundMoney(components.Total()),
		Components: components,
		ComputedAt: uc.now(),
	}, nil
}
