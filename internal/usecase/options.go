package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/infrastructure/metrics"
)

// Option configures a use case.
type Option func(*options)

type options struct {
	metrics *metrics.Metrics
	logger  zerolog.Logger
	retrier Retrier
	now     func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger used for commit and failure logs.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRetrier retries whole transactions on transient storage errors.
func WithRetrier(r Retrier) Option {
	return func(o *options) { o.retrier = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// inTx runs fn inside one database transaction. The whole unit, reads
// included, is re-run when the retrier decides the failure is transient.
func inTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(txCtx context.Context, tx Transaction) error) error {
	op := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return op()
	}
	return retrier.Retry(ctx, op)
}

func (o options) observe(operation string, start time.Time, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		o.metrics.OperationErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

func (o options) recordAdjustment(a *domain.Adjustment) {
	if o.metrics == nil || a == nil {
		return
	}
	o.metrics.AdjustmentsCreated.WithLabelValues(string(a.Type)).Inc()
	amount, _ := a.AdjustmentAmount.Abs().Float64()
	o.metrics.AdjustmentAmount.Observe(amount)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrToleranceExceeded):
		return "tolerance_exceeded"
	case errors.Is(err, domain.ErrDuplicateImport):
		return "duplicate_import"
	case errors.Is(err, domain.ErrStaleState):
		return "stale_state"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func actorFrom(ctx context.Context, actorID string) string {
	if actorID != "" {
		return actorID
	}
	if id, ok := domain.ActorFromContext(ctx); ok {
		return id
	}
	return SystemActor
}

// writeEvent stores an outbox event when an outbox is configured.
func writeEvent(ctx context.Context, ledger Ledger, tx Transaction, event *domain.OutboxEvent) error {
	if ledger.Outbox == nil {
		return nil
	}
	return ledger.Outbox.Create(ctx, tx, event)
}

// writeAudit stores an audit log when an audit repository is configured.
func writeAudit(ctx context.Context, ledger Ledger, tx Transaction, log *domain.AuditLog) error {
	if ledger.Audit == nil {
		return nil
	}
	if log.RequestID == "" {
		log.RequestID, _ = domain.RequestIDFromContext(ctx)
	}
	if log.Status == "" {
		log.Status = domain.AuditStatusSuccess
	}
	return ledger.Audit.CreateTx(ctx, tx, log)
}
