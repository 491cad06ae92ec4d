package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Clark-Hu/foodgram/internal/auth"
	"github.com/Clark-Hu/foodgram/internal/config"
	"github.com/Clark-Hu/foodgram/internal/logging"
	"github.com/Clark-Hu/foodgram/internal/repository"
)

func testConfig(tb testing.TB) config.Config {
	tb.Helper()
	return config.Config{
		Port:             "0",
		ReadTimeoutSecs:  15,
		WriteTimeoutSecs: 15,
		IdleTimeoutSecs:  60,
		JWTSecret:        "test-secret",
		TokenTTL:         time.Hour,
		MediaRoot:        tb.TempDir(),
		MediaURL:         "/media/",
		CORSOrigins:      []string{"*"},
		PageSize:         6,
		MaxPageSize:      100,
	}
}

// buildOfflineServer serves requests that are rejected before touching storage.
func buildOfflineServer(tb testing.TB) *Server {
	tb.Helper()
	cfg := testConfig(tb)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, nil)
	return New(cfg, nil, repository.NewWithDB(nil), tokens, logging.Nop())
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := buildOfflineServer(t)
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/recipes/download_shopping_cart/"},
		{http.MethodPost, "/api/recipes/"},
		{http.MethodPatch, "/api/recipes/1/"},
		{http.MethodDelete, "/api/recipes/1/"},
		{http.MethodPost, "/api/recipes/1/favorite/"},
		{http.MethodDelete, "/api/recipes/1/shopping_cart/"},
		{http.MethodGet, "/api/users/me/"},
		{http.MethodGet, "/api/users/subscriptions/"},
		{http.MethodPost, "/api/users/1/subscribe/"},
		{http.MethodPost, "/api/users/set_password/"},
		{http.MethodPost, "/api/auth/token/logout/"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != "UNAUTHORIZED" {
				t.Fatalf("code = %q, want UNAUTHORIZED", body.Code)
			}
		})
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	srv := buildOfflineServer(t)
	other := auth.NewTokenManager("other-secret", time.Hour, nil)
	foreign, err := other.Issue(1, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, header := range []string{"Token garbage", "Token " + foreign, "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/tags/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	srv := buildOfflineServer(t)
	for _, path := range []string{"/api/recipes/abc/", "/api/tags/-1/", "/api/ingredients/x/", "/api/users/0/"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHugePageIsInvalidPage(t *testing.T) {
	srv := buildOfflineServer(t)
	for _, path := range []string{"/api/recipes/?page=3074457345618258603", "/api/users/?page=3074457345618258603&limit=6"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestHealthzWithoutStore(t *testing.T) {
	srv := buildOfflineServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := buildOfflineServer(t)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/me/", nil))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "foodgram_http_requests_total") {
		t.Fatalf("request counter missing from metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := buildOfflineServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/recipes/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS allow origin header")
	}
}
