package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/goreconcile/internal/domain"
)

func TestTenantRejectsMissingHeader(t *testing.T) {
	handler := Tenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a tenant")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestTenantStoresIdentity(t *testing.T) {
	var tenant, actor string
	handler := Tenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, _ = domain.TenantFromContext(r.Context())
		actor, _ = domain.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil)
	req.Header.Set(TenantHeader, "tenant-a")
	req.Header.Set(ActorHeader, "user-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if tenant != "tenant-a" || actor != "user-1" {
		t.Fatalf("unexpected identity tenant=%q actor=%q", tenant, actor)
	}
}
