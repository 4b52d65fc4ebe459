package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/goreconcile/internal/adapter/http/handler"
	"github.com/iho/goreconcile/internal/adapter/http/middleware"
	"github.com/iho/goreconcile/internal/infrastructure/metrics"
	"github.com/iho/goreconcile/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ImportHandler         *handler.ImportHandler
	AllocationHandler     *handler.AllocationHandler
	PaymentHandler        *handler.PaymentHandler
	ReconciliationHandler *handler.ReconciliationHandler
	LedgerHandler         *handler.LedgerHandler
	HealthHandler         *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// MaxBodyBytes caps request bodies; zero disables the cap.
	MaxBodyBytes int64
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant)
		if cfg.MaxBodyBytes > 0 {
			r.Use(chimiddleware.RequestSize(cfg.MaxBodyBytes))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Banks
		r.Route("/banks/{bankID}", func(r chi.Router) {
			r.Post("/statements", cfg.ImportHandler.ImportStatement)
			r.Get("/balance", cfg.LedgerHandler.GetBalance)
		})

		// Invoices
		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", cfg.ImportHandler.ImportInvoice)
			r.Post("/import", cfg.ImportHandler.ImportInvoices)
			r.Put("/{invoiceID}/allocations", cfg.AllocationHandler.Allocate)
			r.Get("/{invoiceID}/allocations", cfg.AllocationHandler.ListAllocations)
			r.Get("/{invoiceID}/payables", cfg.AllocationHandler.ListPayables)
		})

		// Statement reconciliation
		r.Get("/batches/{batchID}/suggestions", cfg.ReconciliationHandler.SuggestForBatch)
		r.Route("/transactions/{transactionID}", func(r chi.Router) {
			r.Get("/suggestion", cfg.ReconciliationHandler.Suggest)
			r.Post("/settlement-preview", cfg.ReconciliationHandler.Preview)
			r.Post("/accept", cfg.ReconciliationHandler.Accept)
			r.Post("/create", cfg.ReconciliationHandler.Create)
			r.Post("/ignore", cfg.ReconciliationHandler.Ignore)
			r.Post("/reverse", cfg.ReconciliationHandler.Reverse)
		})

		// Payments
		r.Post("/payables/{payableID}/payments", cfg.PaymentHandler.RecordPayment)
		r.Post("/payments/{paymentID}/reverse", cfg.PaymentHandler.ReversePayment)

		r.Get("/audit-logs", cfg.LedgerHandler.ListAuditLogs)
	})

	return r
}
