package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"istc-sms/backend/config"
	"istc-sms/backend/internal/api/handler"
	"istc-sms/backend/pkg/jwt"
)

func testEngine(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{MaxBodySize: 1 << 20},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret", Issuer: "istc-sms", AccessTokenTTL: time.Minute},
		Import: config.ImportConfig{RateLimit: 10, RateWindow: time.Minute},
	}
	mgr := jwt.NewManager(&cfg.Auth)
	// Handlers are never reached by these requests.
	return Setup(cfg, &handler.Handler{}, mgr, nil, nil, zap.NewNop()), mgr
}

func do(r http.Handler, method, path, role string, mgr *jwt.Manager) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		token, _ := mgr.GenerateAccessToken("user-1", role, "")
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := testEngine(t)

	w := do(r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoutes_RequireToken(t *testing.T) {
	r, _ := testEngine(t)

	for _, path := range []string{"/api/v1/results", "/api/v1/reconcile", "/api/v1/semesters"} {
		w := do(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRoutes_RoleGates(t *testing.T) {
	r, mgr := testEngine(t)

	tests := []struct {
		method string
		path   string
		role   string
	}{
		{http.MethodGet, "/api/v1/reconcile", jwt.RoleRegistrar},
		{http.MethodPost, "/api/v1/grace/apply", jwt.RoleStudent},
		{http.MethodPost, "/api/v1/grace/apply", jwt.RoleAdmin},
		{http.MethodPost, "/api/v1/results/import", jwt.RoleStudent},
		{http.MethodPost, "/api/v1/semesters", jwt.RoleTeacher},
		{http.MethodPut, "/api/v1/subjects/abc", jwt.RoleTeacher},
		{http.MethodGet, "/api/v1/failed/export", jwt.RoleTeacher},
	}
	for _, tt := range tests {
		w := do(r, tt.method, tt.path, tt.role, mgr)
		require.Equal(t, http.StatusForbidden, w.Code, "%s %s as %s", tt.method, tt.path, tt.role)
	}
}
