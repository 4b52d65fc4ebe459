package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Import metrics
	StatementsImported   prometheus.Counter
	TransactionsImported prometheus.Counter
	InvoicesImported     *prometheus.CounterVec
	DuplicateImports     *prometheus.CounterVec

	// Matching metrics
	MatchSuggestions *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationsCommitted *prometheus.CounterVec
	Reversals                *prometheus.CounterVec
	AdjustmentsCreated       *prometheus.CounterVec
	AdjustmentAmount         prometheus.Histogram
	AllocationsCommitted     prometheus.Counter
	PaymentsReversed         prometheus.Counter

	// Operation metrics
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	RateLimitHits prometheus.Counter

	// Database metrics
	DBRetries *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		StatementsImported: f.NewCounter(prometheus.CounterOpts{
			Name: "goreconcile_statements_imported_total",
			Help: "Total number of statement files imported",
		}),
		TransactionsImported: f.NewCounter(prometheus.CounterOpts{
			Name: "goreconcile_transactions_imported_total",
			Help: "Total number of bank transactions imported",
		}),
		InvoicesImported: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_invoices_imported_total",
				Help: "Total number of invoice files imported by outcome",
			},
			[]string{"outcome"},
		),
		DuplicateImports: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_duplicate_imports_total",
				Help: "Total number of rejected duplicate imports",
			},
			[]string{"kind", "scope"},
		),

		MatchSuggestions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_match_suggestions_total",
				Help: "Total number of match suggestions by confidence",
			},
			[]string{"confidence"},
		),

		ReconciliationsCommitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_reconciliations_committed_total",
				Help: "Total number of committed reconciliations by kind",
			},
			[]string{"kind"},
		),
		Reversals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_reversals_total",
				Help: "Total number of reversed reconciliations by link type",
			},
			[]string{"link_type"},
		),
		AdjustmentsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_adjustments_created_total",
				Help: "Total number of adjustments by type",
			},
			[]string{"type"},
		),
		AdjustmentAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "goreconcile_adjustment_amount",
			Help:    "Absolute adjustment amounts",
			Buckets: []float64{0.1, 1, 5, 10, 50, 100, 250, 500},
		}),
		AllocationsCommitted: f.NewCounter(prometheus.CounterOpts{
			Name: "goreconcile_allocations_committed_total",
			Help: "Total number of invoice allocations committed",
		}),
		PaymentsReversed: f.NewCounter(prometheus.CounterOpts{
			Name: "goreconcile_payments_reversed_total",
			Help: "Total number of payments reversed",
		}),

		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goreconcile_operation_duration_seconds",
				Help:    "Duration of engine operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_operation_errors_total",
				Help: "Total engine errors by operation and type",
			},
			[]string{"operation", "error_type"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goreconcile_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "goreconcile_rate_limit_hits_total",
			Help: "Total rate limited requests",
		}),

		DBRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goreconcile_db_retries_total",
				Help: "Total retried database transactions by pg error code",
			},
			[]string{"code"},
		),
	}
}
