package gemini

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/glintlab/feedbackd/internal/domain"
)

// classify maps an underlying transport/service failure onto the adapter's
// error taxonomy so operators can tell configuration problems from transient
// outages. Timeouts count as network unavailability.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewError(domain.ErrCodeAINetwork, "AI request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewError(domain.ErrCodeAINetwork, "unable to reach AI service", err)
	}

	msg := err.Error()
	switch {
	case containsAny(msg, "API_KEY", "API key", "UNAUTHENTICATED", "401"):
		return domain.NewError(domain.ErrCodeAIInvalidCredential, "AI credentials are invalid or missing", err)
	case containsAny(msg, "PERMISSION_DENIED", "403"):
		return domain.NewError(domain.ErrCodeAIPermissionDenied, "AI service access denied", err)
	case containsAny(msg, "RESOURCE_EXHAUSTED", "QUOTA", "quota", "429"):
		return domain.NewError(domain.ErrCodeAIQuotaExceeded, "AI quota exceeded", err)
	case containsAny(msg, "connection refused", "no such host", "network"):
		return domain.NewError(domain.ErrCodeAINetwork, "unable to reach AI service", err)
	default:
		return domain.NewError(domain.ErrCodeAIUnknown, "AI request failed", err)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
