package store

import (
	"context"
	"sync"

	"github.com/glintlab/feedbackd/internal/domain"
)

// session is one in-memory conversation log. Its mutex serializes
// read-modify-append for this id only; it is never held across network calls.
type session struct {
	mu           sync.Mutex
	messages     []domain.Message
	issueCreated bool
}

// MemoryStore keeps sessions for the lifetime of the process. A RWMutex
// guards the map itself; each session carries its own lock so writers to
// different ids never contend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*session)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) get(sessionID string, create bool) *session {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil || !create {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess = s.sessions[sessionID]; sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// Append creates the session if absent, then appends the message.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	sess := s.get(sessionID, true)
	sess.mu.Lock()
	sess.messages = append(sess.messages, msg)
	sess.mu.Unlock()
	return nil
}

// Get returns a copy of the session's ordered message log. Unknown ids yield
// an empty slice, not an error.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) ([]domain.Message, error) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return []domain.Message{}, nil
	}
	sess.mu.Lock()
	out := make([]domain.Message, len(sess.messages))
	copy(out, sess.messages)
	sess.mu.Unlock()
	return out, nil
}

// Delete removes the session. Deleting an unknown id is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// MarkIssueCreated flips the one-shot flag, returning true only for the
// caller that performed the flip.
func (s *MemoryStore) MarkIssueCreated(ctx context.Context, sessionID string) (bool, error) {
	sess := s.get(sessionID, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.issueCreated {
		return false, nil
	}
	sess.issueCreated = true
	return true, nil
}

// IssueCreated reads the one-shot flag.
func (s *MemoryStore) IssueCreated(ctx context.Context, sessionID string) (bool, error) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return false, nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.issueCreated, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
