package service

import (
	"context"
	"strings"
	"testing"

	"github.com/glintlab/feedbackd/internal/adapter/gemini"
	"github.com/glintlab/feedbackd/internal/domain"
)

func TestParseAnalysis(t *testing.T) {
	raw := "Here is the analysis:\n```json\n" +
		`{"title":"Add dark mode","description":"Users want a dark theme","labels":["ui","theme"],"category":"feature","priority":"medium"}` +
		"\n```\nLet me know if you need more."
	fd, err := parseAnalysis(raw)
	if err != nil {
		t.Fatalf("parseAnalysis failed: %v", err)
	}
	if fd.Title != "Add dark mode" || fd.Category != domain.CategoryFeature || fd.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected result: %+v", fd)
	}
	if len(fd.Labels) != 2 {
		t.Fatalf("labels = %v", fd.Labels)
	}
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"no json at all", "{}", `{"description":"missing title"}`, "{broken"} {
		if _, err := parseAnalysis(raw); err == nil {
			t.Errorf("parseAnalysis(%q) = nil, want error", raw)
		}
	}
}

func TestParseAnalysisNormalizes(t *testing.T) {
	raw := `{"title":"  <b>Fix</b> crash  ","description":"d","category":"BUG","priority":"Urgent"}`
	fd, err := parseAnalysis(raw)
	if err != nil {
		t.Fatalf("parseAnalysis failed: %v", err)
	}
	if fd.Title != "Fix crash" {
		t.Fatalf("title not sanitized: %q", fd.Title)
	}
	if fd.Category != domain.CategoryBug {
		t.Fatalf("category = %q", fd.Category)
	}
	if fd.Priority != domain.PriorityMedium {
		t.Fatalf("unknown priority must default to medium, got %q", fd.Priority)
	}
}

func TestAnalyzeUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, gemini.NewMockClient(), &fakeTracker{})
	_, err := svc.Analyze(context.Background(), "missing-session")
	if !domain.IsCode(err, domain.ErrCodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}

func TestAnalyzeFallsBackOnUnparseableOutput(t *testing.T) {
	// The mock client replies with prose, not JSON, so analysis must fall
	// back to the keyword heuristic.
	svc, st := newTestService(t, gemini.NewMockClient(), &fakeTracker{})
	ctx := context.Background()

	if err := st.Append(ctx, "analyze-session", domain.Message{ID: "m1", Role: domain.RoleUser, Content: "the export button is broken"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	fd, err := svc.Analyze(ctx, "analyze-session")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if fd.Title != "the export button is broken" {
		t.Fatalf("title = %q", fd.Title)
	}
	if fd.Category != domain.CategoryBug || fd.Priority != domain.PriorityHigh {
		t.Fatalf("keyword classification failed: %+v", fd)
	}
}

func TestAnalyzeWithoutAI(t *testing.T) {
	svc, st := newTestService(t, nil, &fakeTracker{})
	ctx := context.Background()

	if err := st.Append(ctx, "no-ai-analyze", domain.Message{ID: "m1", Role: domain.RoleUser, Content: "page loads are slow"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	fd, err := svc.Analyze(ctx, "no-ai-analyze")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if fd.Category != domain.CategoryImprovement {
		t.Fatalf("category = %q", fd.Category)
	}
}

func TestFallbackAnalysisTitleTruncation(t *testing.T) {
	long := strings.Repeat("y", 80)
	fd := fallbackAnalysis([]domain.Message{{Role: domain.RoleUser, Content: long}})
	if fd.Title != long[:50]+"..." {
		t.Fatalf("title = %q", fd.Title)
	}
	if !strings.Contains(fd.Description, long) {
		t.Fatal("description must carry the transcript")
	}
}
