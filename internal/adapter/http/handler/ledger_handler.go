package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/domain"
)

// BalanceService computes derived bank balances.
type BalanceService interface {
	GetBalance(ctx context.Context, tenantID, bankID string) (*domain.BankBalance, error)
}

// AuditLister reads the audit trail.
type AuditLister interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// LedgerHandler serves read-only ledger views.
type LedgerHandler struct {
	balances BalanceService
	audit    AuditLister
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(balances BalanceService, audit AuditLister) *LedgerHandler {
	return &LedgerHandler{balances: balances, audit: audit}
}

// GetBalance handles GET /banks/{bankID}/balance.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	balance, err := h.balances.GetBalance(r.Context(), tenantID, chi.URLParam(r, "bankID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// ListAuditLogs handles GET /audit-logs.
func (h *LedgerHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	limit, offset, err := domain.ValidatePagination(parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	q := r.URL.Query()
	logs, err := h.audit.List(r.Context(), domain.AuditFilter{
		TenantID:     tenantID,
		Action:       domain.AuditAction(q.Get("action")),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[dto.AuditLogResponse]{Data: dto.AuditLogsFromDomain(logs)})
}
