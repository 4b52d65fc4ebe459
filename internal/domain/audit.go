package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	TenantID     string
	ActorID      string // Who performed the action
	Action       AuditAction
	ResourceType string
	ResourceID   string
	RequestID    string
	Reason       string
	BeforeState  JSON
	AfterState   JSON
	Status       AuditStatus
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionInvoiceAllocate    AuditAction = "invoice.allocate"
	AuditActionInvoiceUpdate      AuditAction = "invoice.update"
	AuditActionTransactionAccept  AuditAction = "transaction.accept"
	AuditActionTransactionReverse AuditAction = "transaction.reverse"
	AuditActionAdjustmentCreate   AuditAction = "adjustment.create"
	AuditActionPaymentReverse     AuditAction = "payment.reverse"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	TenantID     string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
