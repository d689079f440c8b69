// Package store defines session storage and its implementations.
package store

import (
	"context"

	"github.com/glintlab/feedbackd/internal/domain"
)

// Store is keyed storage of ordered message logs per session.
//
// Append must be atomic with respect to concurrent appends to the same
// session id; independent ids never block each other. Get returns an empty
// slice for an unknown id. Delete is idempotent. MarkIssueCreated is a
// test-and-set on the per-session one-shot flag: it returns true exactly once
// per session lifetime, which is what makes issue creation at-most-once.
type Store interface {
	Append(ctx context.Context, sessionID string, msg domain.Message) error
	Get(ctx context.Context, sessionID string) ([]domain.Message, error)
	Delete(ctx context.Context, sessionID string) error
	MarkIssueCreated(ctx context.Context, sessionID string) (bool, error)
	IssueCreated(ctx context.Context, sessionID string) (bool, error)
	Close() error
}
