package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/usecase"
)

// PaymentService defines the payable payment operations.
type PaymentService interface {
	RecordPayment(ctx context.Context, input usecase.RecordPaymentInput) (*usecase.PaymentResult, error)
	ReversePayment(ctx context.Context, input usecase.ReversePaymentInput) (*usecase.PaymentResult, error)
}

// PaymentHandler handles payment requests.
type PaymentHandler struct {
	payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RecordPayment handles POST /payables/{payableID}/payments.
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID := tenantAndActor(r)

	var req dto.RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	input, err := req.ToUseCaseInput(tenantID, chi.URLParam(r, "payableID"), actorID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.payments.RecordPayment(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, paymentResult(result))
}

// ReversePayment handles POST /payments/{paymentID}/reverse.
func (h *PaymentHandler) ReversePayment(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID := tenantAndActor(r)

	var req dto.ReverseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.payments.ReversePayment(r.Context(), usecase.ReversePaymentInput{
		TenantID:  tenantID,
		PaymentID: chi.URLParam(r, "paymentID"),
		Reason:    req.Reason,
		ActorID:   actorID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResult(result))
}

func paymentResult(result *usecase.PaymentResult) dto.PaymentResultResponse {
	return dto.PaymentResultResponse{
		Payment: dto.PaymentFromDomain(result.Payment),
		Payable: dto.PayableFromDomain(result.Payable),
	}
}
