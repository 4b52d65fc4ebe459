package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/goreconcile/internal/domain"
)

const (
	// TenantHeader carries the tenant every request is scoped to.
	TenantHeader = "X-Tenant-ID"
	// ActorHeader carries the acting user recorded in the audit trail.
	ActorHeader = "X-Actor-ID"
)

// Tenant rejects requests without a valid tenant and stores the tenant and
// actor on the context.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(TenantHeader)
		if err := domain.ValidateTenantID(tenantID); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "tenant_required",
				"message": TenantHeader + " header is required",
			})
			return
		}

		ctx := domain.WithTenant(r.Context(), tenantID)
		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = domain.WithActor(ctx, actor)
		}
		l := zerolog.Ctx(ctx).With().Str("tenant_id", tenantID).Logger()
		ctx = l.WithContext(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
