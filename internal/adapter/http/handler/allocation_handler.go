package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

// AllocationService defines the allocation operations used by AllocationHandler.
type AllocationService interface {
	AllocateInvoice(ctx context.Context, input usecase.AllocateInvoiceInput) (*usecase.AllocateInvoiceResult, error)
	ListAllocations(ctx context.Context, tenantID, invoiceID string) ([]*domain.InvoiceAllocation, error)
	ListPayables(ctx context.Context, tenantID, invoiceID string) ([]*domain.Payable, error)
}

// AllocationHandler handles invoice allocation requests.
type AllocationHandler struct {
	allocations AllocationService
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(allocations AllocationService) *AllocationHandler {
	return &AllocationHandler{allocations: allocations}
}

// Allocate handles PUT /invoices/{invoiceID}/allocations.
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID := tenantAndActor(r)

	var req dto.AllocateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.allocations.AllocateInvoice(r.Context(), req.ToUseCaseInput(tenantID, chi.URLParam(r, "invoiceID"), actorID))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AllocateInvoiceResponse{
		Allocations: dto.AllocationsFromDomain(result.Allocations),
		Payables:    dto.PayablesFromDomain(result.Payables),
	})
}

// ListAllocations handles GET /invoices/{invoiceID}/allocations.
func (h *AllocationHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	list, err := h.allocations.ListAllocations(r.Context(), tenantID, chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[dto.AllocationResponse]{Data: dto.AllocationsFromDomain(list)})
}

// ListPayables handles GET /invoices/{invoiceID}/payables.
func (h *AllocationHandler) ListPayables(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	list, err := h.allocations.ListPayables(r.Context(), tenantID, chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[dto.PayableResponse]{Data: dto.PayablesFromDomain(list)})
}
