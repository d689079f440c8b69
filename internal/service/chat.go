package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/glintlab/feedbackd/internal/domain"
	"github.com/glintlab/feedbackd/internal/validate"
)

// ChatRequest is one widget turn. User comes from the authenticated headers,
// never from the body.
type ChatRequest struct {
	SessionID string              `json:"session_id"`
	Message   string              `json:"message"`
	Images    []domain.Image      `json:"images,omitempty"`
	User      domain.UserIdentity `json:"-"`
}

// ChatResult carries the assistant reply plus the hand-off signal. Fallback
// marks replies produced without the AI service; IssueCreated is set on the
// terminal turn regardless of whether the automatic submission succeeded.
type ChatResult struct {
	Role         domain.MessageRole  `json:"role"`
	Content      string              `json:"content"`
	Timestamp    time.Time           `json:"timestamp"`
	SessionID    string              `json:"session_id"`
	Turn         int                 `json:"turn"`
	Fallback     bool                `json:"fallback,omitempty"`
	IssueCreated bool                `json:"issue_created,omitempty"`
	Issue        *domain.IssueResult `json:"issue,omitempty"`
}

// HandleChat runs one conversation turn: validate, persist the user message,
// produce a reply keyed on the user-turn count, and on the terminal turn
// trigger issue submission exactly once.
func (s *Service) HandleChat(ctx context.Context, meta CallerMeta, req ChatRequest) (*ChatResult, error) {
	if err := validate.SessionID(req.SessionID); err != nil {
		return nil, err
	}
	if err := validate.MessageContent(req.Message, len(req.Images) > 0); err != nil {
		return nil, err
	}
	if s.ai == nil {
		return nil, domain.NewError(domain.ErrCodeNoAIService, "AI service is not configured", nil)
	}

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   validate.Sanitize(req.Message, validate.MaxMessageLength),
		Images:    req.Images,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.Append(ctx, req.SessionID, userMsg); err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to record message", err)
	}

	history, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to load session", err)
	}
	turn := domain.UserTurns(history)

	var reply string
	var fallback bool
	if turn == 2 {
		reply = closingReply
	} else {
		reply, fallback = s.assistantReply(ctx, history, userMsg, turn)
	}

	assistantMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.Append(ctx, req.SessionID, assistantMsg); err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to record reply", err)
	}

	result := &ChatResult{
		Role:      assistantMsg.Role,
		Content:   assistantMsg.Content,
		Timestamp: assistantMsg.Timestamp,
		SessionID: req.SessionID,
		Turn:      turn,
		Fallback:  fallback,
	}

	if turn == 2 {
		first, err := s.store.MarkIssueCreated(ctx, req.SessionID)
		if err != nil {
			s.log.Error("issue flag update failed", slog.String("session_id", req.SessionID), slog.Any("error", err))
		} else if first {
			result.IssueCreated = true
			issue, err := s.HandleSubmissionRequested(ctx, IssueSubmissionRequested{
				SessionID: req.SessionID,
				Meta:      meta,
				User:      req.User,
			})
			if err != nil {
				s.log.Error("automatic issue submission failed",
					slog.String("session_id", req.SessionID),
					slog.String("code", domain.ErrCode(err)),
					slog.Any("error", err))
			} else {
				result.Issue = issue
				s.log.Info("issue created",
					slog.String("session_id", req.SessionID),
					slog.String("url", issue.URL))
			}
		}
	}

	return result, nil
}

// assistantReply asks the AI service for a reply and degrades to the canned
// rotation when it fails. The AI call runs outside any session lock.
func (s *Service) assistantReply(ctx context.Context, history []domain.Message, userMsg domain.Message, turn int) (string, bool) {
	var prompt string
	if turn <= 1 {
		prompt = elaborationPrompt(userMsg.Content, len(userMsg.Images))
	} else {
		prompt = continuationPrompt(userMsg.Content)
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.cfg.GeminiTimeout)
	defer cancel()

	// History passed to the model excludes the message being answered.
	prior := history[:len(history)-1]
	reply, err := s.ai.Complete(aiCtx, prior, prompt, userMsg.Images)
	if err != nil {
		s.log.Warn("AI completion failed, using fallback reply",
			slog.String("code", domain.ErrCode(err)),
			slog.Int("turn", turn),
			slog.Any("error", err))
		return fallbackReply(turn), true
	}
	return reply, false
}
