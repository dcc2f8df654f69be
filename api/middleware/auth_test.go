package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/digishelf/digishelf-backend/pkg/logger"
)

func TestRequireRoleForbidsWrongRole(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole("admin", logg)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin/platform-revenue", nil)
	req = req.WithContext(WithRole(req.Context(), "vendor"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// The caller is authenticated but lacks the role, so this is 403 not 401.
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong role, got %d", rec.Code)
	}
}

func TestRequireRolePassesMatchingRole(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole("admin", logg)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin/platform-revenue", nil)
	req = req.WithContext(WithRole(req.Context(), "admin"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected handler to run for matching role, got %d (called=%v)", rec.Code, called)
	}
}
