package gemini

import (
	"context"
	"fmt"

	"github.com/glintlab/feedbackd/internal/domain"
)

// MockClient is a canned Completer used in MOCK mode and in tests.
type MockClient struct {
	// Err, when set, is returned from every call. Lets tests force the
	// orchestrator onto its fallback path.
	Err error
}

// NewMockClient creates a mock Completer.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Completer = (*MockClient)(nil)

// Complete returns a deterministic reply derived from the prompt.
func (m *MockClient) Complete(ctx context.Context, history []domain.Message, prompt string, images []domain.Image) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if len(images) > 0 {
		return fmt.Sprintf("[MOCK] I can see %d attached image(s). Could you tell me more about what you'd like changed?", len(images)), nil
	}
	return fmt.Sprintf("[MOCK] Thanks for the feedback (%d prior messages). Why do you feel this change is needed?", len(history)), nil
}
