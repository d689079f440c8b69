package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glintlab/feedbackd/internal/domain"
	"github.com/glintlab/feedbackd/internal/validate"
)

// Analyze distills a session transcript into structured feedback data. The
// AI extraction is best-effort: malformed model output or an AI failure
// degrades to a keyword heuristic rather than failing the request.
func (s *Service) Analyze(ctx context.Context, sessionID string) (*domain.FeedbackData, error) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, err
	}
	history, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to load session", err)
	}
	if len(history) == 0 {
		return nil, domain.NewError(domain.ErrCodeSessionNotFound, "session has no messages", nil)
	}

	if s.ai == nil {
		return fallbackAnalysis(history), nil
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.cfg.GeminiTimeout)
	defer cancel()

	raw, err := s.ai.Complete(aiCtx, nil, analysisPrompt+transcript(history), nil)
	if err != nil {
		s.log.Warn("AI analysis failed, using keyword fallback",
			slog.String("session_id", sessionID),
			slog.String("code", domain.ErrCode(err)),
			slog.Any("error", err))
		return fallbackAnalysis(history), nil
	}

	fd, err := parseAnalysis(raw)
	if err != nil {
		s.log.Warn("AI analysis output unparseable, using keyword fallback",
			slog.String("session_id", sessionID),
			slog.Any("error", err))
		return fallbackAnalysis(history), nil
	}
	return fd, nil
}

func transcript(history []domain.Message) string {
	var b strings.Builder
	for _, m := range history {
		speaker := "User"
		if m.Role == domain.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	return b.String()
}

// parseAnalysis extracts the JSON object from the model output. Models wrap
// JSON in fences or prose often enough that scanning for the outermost braces
// is more reliable than unmarshalling the raw reply.
func parseAnalysis(raw string) (*domain.FeedbackData, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in analysis output")
	}

	var fd domain.FeedbackData
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fd); err != nil {
		return nil, fmt.Errorf("decode analysis output: %w", err)
	}
	if strings.TrimSpace(fd.Title) == "" {
		return nil, fmt.Errorf("analysis output missing title")
	}

	fd.Title = validate.Sanitize(fd.Title, validate.MaxTitleLength)
	fd.Description = validate.Sanitize(fd.Description, validate.MaxDescriptionLength)
	fd.Category = normalizeCategory(fd.Category)
	fd.Priority = normalizePriority(fd.Priority)
	if len(fd.Labels) > validate.MaxLabels {
		fd.Labels = fd.Labels[:validate.MaxLabels]
	}
	for i, l := range fd.Labels {
		fd.Labels[i] = validate.Sanitize(l, validate.MaxLabelLength)
	}
	return &fd, nil
}

func normalizeCategory(c string) string {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case domain.CategoryBug:
		return domain.CategoryBug
	case domain.CategoryImprovement:
		return domain.CategoryImprovement
	case domain.CategoryQuestion:
		return domain.CategoryQuestion
	default:
		return domain.CategoryFeature
	}
}

func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case domain.PriorityLow:
		return domain.PriorityLow
	case domain.PriorityHigh:
		return domain.PriorityHigh
	default:
		return domain.PriorityMedium
	}
}

var bugKeywords = []string{"bug", "error", "broken", "crash", "fail", "doesn't work", "not working"}

var improvementKeywords = []string{"slow", "improve", "better", "confusing", "hard to", "difficult"}

// fallbackAnalysis produces feedback data from the transcript alone: title
// from the opening user message, category from keyword matches.
func fallbackAnalysis(history []domain.Message) *domain.FeedbackData {
	var first string
	var all strings.Builder
	for _, m := range history {
		if m.Role != domain.RoleUser {
			continue
		}
		if first == "" {
			first = m.Content
		}
		all.WriteString(strings.ToLower(m.Content))
		all.WriteString("\n")
	}

	title := first
	if title == "" {
		title = "Feedback from widget"
	}
	if len(title) > 50 {
		title = title[:50] + "..."
	}

	category := domain.CategoryFeature
	priority := domain.PriorityMedium
	text := all.String()
	if containsAny(text, bugKeywords) {
		category = domain.CategoryBug
		priority = domain.PriorityHigh
	} else if containsAny(text, improvementKeywords) {
		category = domain.CategoryImprovement
	}

	return &domain.FeedbackData{
		Title:       title,
		Description: "Summary generated without AI assistance.\n\n" + transcript(history),
		Category:    category,
		Priority:    priority,
		Labels:      []string{"feedback", "widget"},
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
