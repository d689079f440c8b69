package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/glintlab/feedbackd/internal/adapter/gemini"
	"github.com/glintlab/feedbackd/internal/adapter/github"
	"github.com/glintlab/feedbackd/internal/auth"
	"github.com/glintlab/feedbackd/internal/config"
	"github.com/glintlab/feedbackd/internal/domain"
	"github.com/glintlab/feedbackd/internal/service"
	"github.com/glintlab/feedbackd/internal/store"
)

func newTestServer(t *testing.T) *echo.Echo {
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, tracker service.IssueTracker) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		GeminiTimeout:    time.Second,
		GitHubRepository: "acme/widget",
		GitHubMention:    "@claude",
	}
	st := store.NewMemoryStore()
	svc := service.New(st, gemini.NewMockClient(), tracker, nil, cfg, nil)
	table := auth.ParseTable("example.com:widget_testkey1;other.org:widget_otherkey")

	e := echo.New()
	NewHandler(svc, table, cfg, nil).RegisterRoutes(e)
	return e
}

type stubTracker struct{}

func (stubTracker) CreateIssue(ctx context.Context, repo string, req *github.IssueRequest) (*domain.IssueResult, error) {
	return &domain.IssueResult{URL: "https://github.com/" + repo + "/issues/7", Number: 7, Title: req.Title}, nil
}

func (stubTracker) UpdateIssue(ctx context.Context, repo string, number int, req *github.IssueRequest) (*domain.IssueResult, error) {
	return &domain.IssueResult{URL: fmt.Sprintf("https://github.com/%s/issues/%d", repo, number), Number: number, Title: req.Title}, nil
}

func doRequest(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func authHeaders() map[string]string {
	return map[string]string{
		"X-API-Key": "widget_testkey1",
		"Origin":    "https://example.com",
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestChatRequiresAPIKey(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"abc123","message":"hi"}`, map[string]string{"Origin": "https://example.com"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body["code"] != string(auth.CodeMissingAPIKey) {
		t.Fatalf("code = %q", body["code"])
	}
}

func TestChatRejectsKeyForWrongDomain(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"abc123","message":"hi"}`, map[string]string{
			"X-API-Key": "widget_otherkey",
			"Origin":    "https://example.com",
		})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["code"] != string(auth.CodeKeyNotAuthorizedForDomain) {
		t.Fatalf("code = %q", body["code"])
	}
}

func TestChatAcceptsExplicitOriginDomainHeader(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"abc123","message":"hi"}`, map[string]string{
			"X-API-Key":       "widget_testkey1",
			"X-Origin-Domain": "example.com",
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChatRejectsUntrustedOrigin(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"abc123","message":"hi"}`, map[string]string{
			"X-API-Key": "widget_testkey1",
			"Origin":    "https://evil.com",
		})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestChatHappyPath(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"happy-session","message":"add dark mode please"}`, authHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Role      string `json:"role"`
		Content   string `json:"content"`
		SessionID string `json:"session_id"`
		Turn      int    `json:"turn"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Role != "assistant" || body.Content == "" || body.Turn != 1 || body.SessionID != "happy-session" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestChatInvalidSessionID(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"bad id!","message":"hi"}`, authHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitWithoutTracker(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodPost, "/api/feedback/submit",
		`{"session_id":"abc123","feedback_data":{"title":"t","description":"d"}}`, authHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitWireShape(t *testing.T) {
	e := newTestServerWith(t, stubTracker{})

	rec := doRequest(e, http.MethodPost, "/api/feedback/submit",
		`{"session_id":"abc123","feedback_data":{"title":"search is broken","description":"empty results page"}}`,
		authHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	for _, key := range []string{"issue_url", "issue_number", "title", "notify_enabled"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing top-level %q: %s", key, rec.Body.String())
		}
	}
	if body["issue_number"] != float64(7) || body["notify_enabled"] != true {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/api/feedback/session/fresh-session", "", authHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view struct {
		Status   string            `json:"status"`
		Messages []json.RawMessage `json:"messages"`
	}
	json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Status != "empty" || len(view.Messages) != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}

	doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"fresh-session","message":"hello"}`, authHeaders())

	rec = doRequest(e, http.MethodGet, "/api/feedback/session/fresh-session", "", authHeaders())
	json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Status != "active" || len(view.Messages) != 2 {
		t.Fatalf("expected active session with 2 messages, got %+v", view)
	}

	rec = doRequest(e, http.MethodDelete, "/api/feedback/session/fresh-session", "", authHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(e, http.MethodGet, "/api/feedback/session/fresh-session", "", authHeaders())
	json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Status != "empty" {
		t.Fatalf("expected empty after delete, got %+v", view)
	}
}

func TestConfigInfo(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodGet, "/api/feedback/config", "", authHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		TrackerEnabled bool   `json:"tracker_enabled"`
		Welcome        string `json:"welcome_message"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.TrackerEnabled {
		t.Fatal("tracker must be reported disabled")
	}
	if body.Welcome == "" {
		t.Fatal("welcome message must be present")
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	e := newTestServer(t)

	doRequest(e, http.MethodPost, "/api/feedback/chat",
		`{"session_id":"analyze-me","message":"the login page is broken"}`, authHeaders())

	rec := doRequest(e, http.MethodPost, "/api/feedback/analyze",
		`{"session_id":"analyze-me"}`, authHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Feedback struct {
			Title    string `json:"title"`
			Category string `json:"category"`
		} `json:"feedback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Feedback.Title == "" || body.Feedback.Category != "bug" {
		t.Fatalf("unexpected analysis: %+v", body.Feedback)
	}

	rec = doRequest(e, http.MethodPost, "/api/feedback/analyze",
		`{"session_id":"never-seen"}`, authHeaders())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}
}
