package service

import (
	"context"

	"github.com/glintlab/feedbackd/internal/domain"
	"github.com/glintlab/feedbackd/internal/validate"
)

// SessionView is the transcript as exposed over HTTP.
type SessionView struct {
	SessionID string               `json:"session_id"`
	Messages  []domain.Message     `json:"messages"`
	Status    domain.SessionStatus `json:"status"`
}

// GetSession returns the transcript. Unknown sessions are not an error: the
// widget polls before its first message, so an empty view comes back instead.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, err
	}
	messages, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to load session", err)
	}
	status := domain.SessionStatusActive
	if len(messages) == 0 {
		status = domain.SessionStatusEmpty
	}
	return &SessionView{SessionID: sessionID, Messages: messages, Status: status}, nil
}

// ClearSession removes all session state. Deleting an unknown session is a
// no-op.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	if err := validate.SessionID(sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to clear session", err)
	}
	return nil
}
