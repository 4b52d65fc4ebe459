package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// MaxBulkImportFiles bounds a single bulk invoice import.
	MaxBulkImportFiles = 500

	// SystemActor is recorded when no actor id is known.
	SystemActor = "system"
)
