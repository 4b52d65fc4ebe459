package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxIDLength          = 64
	MaxReasonLength      = 1000
	MaxDescriptionLength = 500
	MaxAmount            = "1000000000000"
)

// ValidateTenantID checks that a tenant scope was supplied.
func ValidateTenantID(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return NewValidationError("tenant_id", "tenant id is required", ErrTenantRequired)
	}
	if len(tenantID) > MaxIDLength {
		return NewValidationError("tenant_id", fmt.Sprintf("exceeds %d characters", MaxIDLength), ErrTenantRequired)
	}
	return nil
}

// ValidateID checks that a referenced id is present.
func ValidateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return NewValidationError(field, "is required", nil)
	}
	if len(id) > MaxIDLength {
		return NewValidationError(field, fmt.Sprintf("exceeds %d characters", MaxIDLength), nil)
	}
	return nil
}

// ValidateAmount checks that a money amount is positive and within range.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.LessThan(Epsilon) {
		return NewValidationError(field, "must be at least "+Epsilon.StringFixed(MoneyScale), ErrInvalidAmount)
	}

	maxAmount := decimal.RequireFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return NewValidationError(field, "exceeds maximum amount "+MaxAmount, ErrInvalidAmount)
	}

	return nil
}

// ValidateReason checks a free-text reason for length.
func ValidateReason(reason string) error {
	if len(reason) > MaxReasonLength {
		return NewValidationError("reason", fmt.Sprintf("exceeds %d characters", MaxReasonLength), nil)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
