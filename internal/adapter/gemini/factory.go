package gemini

import (
	"context"
	"log/slog"
)

const (
	// EnvMode values understood by New.
	ModeMock = "MOCK"
)

// New creates a Completer based on the configured mode. MOCK mode returns the
// canned client; otherwise a real Gemini client is constructed.
func New(ctx context.Context, mode, apiKey, model string) (Completer, error) {
	if mode == ModeMock {
		slog.Info("FEEDBACKD_MODE=MOCK detected, using mock AI client")
		return NewMockClient(), nil
	}
	return NewClient(ctx, apiKey, model)
}
