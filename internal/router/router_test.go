package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/api"
	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/config"
	"github.com/MorseWayne/content_shop/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(ctx context.Context) error { return p.err }

func newTestHandler(t *testing.T, db Pinger) (http.Handler, string) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "router-test-secret")
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Upload.Dir = t.TempDir()

	tokens, err := service.NewTokenService(service.JWTConfigFrom(cfg.JWT), zap.NewNop())
	require.NoError(t, err)

	lg := zap.NewNop()
	deps := &Dependencies{
		UserHandler:         api.NewUserHandler(nil, nil, lg),
		BlogHandler:         api.NewBlogHandler(nil, nil, lg),
		ProductHandler:      api.NewProductHandler(nil, lg),
		OrderHandler:        api.NewOrderHandler(nil, lg),
		NotificationHandler: api.NewNotificationHandler(nil, lg),
		Tokens:              tokens,
		Cache:               cache.NewMemoryCache(),
		DB:                  db,
	}
	return New(cfg, deps, lg).Setup(), cfg.Upload.Dir
}

func serve(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t, stubPinger{})

	w := serve(h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body struct {
		Code int `json:"code"`
		Data struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, "ok", body.Data.Checks["database"])
	assert.Equal(t, "ok", body.Data.Checks["cache"])

	down, _ := newTestHandler(t, stubPinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/healthz", nil).Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h, _ := newTestHandler(t, stubPinger{})

	routes := []struct{ method, path string }{
		{http.MethodPut, "/api/v1/auth/update"},
		{http.MethodPut, "/api/v1/auth/change_password"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodDelete, "/api/v1/users/me"},
		{http.MethodPut, "/api/v1/users/profile"},
		{http.MethodPost, "/api/v1/users/profile-picture"},
		{http.MethodPost, "/api/v1/blogs"},
		{http.MethodPost, "/api/v1/blogs/upload-image"},
		{http.MethodPut, "/api/v1/blogs/1"},
		{http.MethodDelete, "/api/v1/blogs/1"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPut, "/api/v1/products/1"},
		{http.MethodDelete, "/api/v1/products/1"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders/1"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPut, "/api/v1/orders/1"},
		{http.MethodDelete, "/api/v1/orders/1"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPost, "/api/v1/notifications"},
		{http.MethodPut, "/api/v1/notifications/1/read"},
	}
	for _, rt := range routes {
		w := serve(h, rt.method, rt.path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
	}

	w := serve(h, http.MethodGet, "/api/v1/users/me", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestMetricsAndStatic(t *testing.T) {
	h, dir := newTestHandler(t, stubPinger{})

	// 先产生一次请求，保证指标已注册出样本
	serve(h, http.MethodGet, "/healthz", nil)
	w := serve(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o644))
	w = serve(h, http.MethodGet, "/uploads/hello.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestHandler(t, stubPinger{})
	w := serve(h, http.MethodOptions, "/api/v1/blogs", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
