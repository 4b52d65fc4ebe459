package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/goreconcile/internal/usecase"
)

type txBeginner interface {
	BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error)
}

// TxManagerOption configures a TxManager.
type TxManagerOption func(*TxManager)

// WithIsolation overrides the isolation level of every transaction.
func WithIsolation(level pgx.TxIsoLevel) TxManagerOption {
	return func(m *TxManager) { m.opts.IsoLevel = level }
}

// TxManager implements usecase.TransactionManager. Commits run at
// SERIALIZABLE isolation unless WithIsolation says otherwise; the retrier
// re-runs units that lose a serialization race.
type TxManager struct {
	pool txBeginner
	opts pgx.TxOptions
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool, opts ...TxManagerOption) *TxManager {
	return newTxManager(pool, opts...)
}

func newTxManager(pool txBeginner, opts ...TxManagerOption) *TxManager {
	m := &TxManager{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.Serializable}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return nil, fmt.Errorf("begin %s transaction: %w", m.opts.IsoLevel, err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction. Serialization failures keep their pg
// error so the retrier can see them.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction. Rolling back a transaction that
// already committed is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
