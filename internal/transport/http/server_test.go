package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glintlab/feedbackd/internal/adapter/gemini"
	"github.com/glintlab/feedbackd/internal/auth"
	"github.com/glintlab/feedbackd/internal/config"
	"github.com/glintlab/feedbackd/internal/service"
	"github.com/glintlab/feedbackd/internal/store"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{GeminiTimeout: time.Second}
	svc := service.New(store.NewMemoryStore(), gemini.NewMockClient(), nil, nil, cfg, nil)
	table := auth.ParseTable("example.com:widget_testkey1")
	return NewServer(svc, table, cfg, nil)
}

func TestPreflightSucceedsForAnyOrigin(t *testing.T) {
	e := newServer(t)

	// Origins outside the trust table still get CORS headers; the API key
	// middleware is the access control layer.
	req := httptest.NewRequest(http.MethodOptions, "/api/feedback/chat", nil)
	req.Header.Set("Origin", "https://unlisted.example.net")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Fatalf("Access-Control-Max-Age = %q, want 86400", got)
	}
}

func TestPreflightAdvertisesWidgetHeaders(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/feedback/submit", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-API-Key")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	allowed := rec.Header().Get("Access-Control-Allow-Headers")
	for _, h := range []string{"X-API-Key", "X-Origin-Domain", "X-GitHub-Repo"} {
		if !headerListContains(allowed, h) {
			t.Fatalf("Allow-Headers %q missing %s", allowed, h)
		}
	}
}

func headerListContains(list, name string) bool {
	for _, part := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(part), name) {
			return true
		}
	}
	return false
}
