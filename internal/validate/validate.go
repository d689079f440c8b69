// Package validate holds pure input validation and sanitization helpers.
// Everything arriving from the widget is treated as hostile.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/glintlab/feedbackd/internal/domain"
)

const (
	// MaxMessageLength caps chat message content.
	MaxMessageLength = 2000
	// MaxTitleLength caps issue titles.
	MaxTitleLength = 200
	// MaxDescriptionLength caps issue descriptions.
	MaxDescriptionLength = 5000
	// MaxLabels caps the number of labels on a single submission.
	MaxLabels = 10
	// MaxLabelLength caps a single label.
	MaxLabelLength = 50
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,40}$`)

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
}

var dataURIPattern = regexp.MustCompile(`(?i)data:`)

// suspiciousDataURI reports whether s carries a data: URI other than
// data:image/.
func suspiciousDataURI(s string) bool {
	for _, loc := range dataURIPattern.FindAllStringIndex(s, -1) {
		if !strings.HasPrefix(strings.ToLower(s[loc[1]:]), "image/") {
			return true
		}
	}
	return false
}

var (
	scriptTagPattern    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
	jsProtocolPattern   = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerPattern = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// SessionID checks the opaque session identifier format.
func SessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return domain.NewError(domain.ErrCodeSessionIDInvalid, "invalid session ID format", nil)
	}
	return nil
}

// MessageContent checks chat message text. An empty message is allowed only
// when the turn carries images, which callers signal via allowEmpty.
func MessageContent(content string, allowEmpty bool) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		if allowEmpty {
			return nil
		}
		return domain.NewError(domain.ErrCodeMessageInvalid, "message content cannot be empty", nil)
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return domain.NewError(domain.ErrCodeMessageInvalid,
			fmt.Sprintf("message content is too long (max %d characters)", MaxMessageLength), nil)
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(trimmed) {
			return domain.NewError(domain.ErrCodeMessageInvalid, "message content contains suspicious patterns", nil)
		}
	}
	if suspiciousDataURI(trimmed) {
		return domain.NewError(domain.ErrCodeMessageInvalid, "message content contains suspicious patterns", nil)
	}
	return nil
}

// Sanitize strips markup and dangerous protocols from user input and caps
// its length. Lengths are in characters, not bytes, so multibyte input is
// never cut mid-rune. Safe for titles, labels, and chat content alike.
func Sanitize(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	trimmed = TruncateRunes(trimmed, maxLen)
	trimmed = scriptTagPattern.ReplaceAllString(trimmed, "")
	trimmed = htmlTagPattern.ReplaceAllString(trimmed, "")
	trimmed = jsProtocolPattern.ReplaceAllString(trimmed, "")
	trimmed = eventHandlerPattern.ReplaceAllString(trimmed, "")
	return strings.TrimSpace(trimmed)
}

// TruncateRunes caps s at maxLen characters, cutting on a rune boundary.
func TruncateRunes(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

// FeedbackData checks the structured submission payload.
func FeedbackData(fd *domain.FeedbackData) error {
	if fd == nil {
		return domain.NewError(domain.ErrCodeFeedbackInvalid, "invalid feedback data structure", nil)
	}
	if strings.TrimSpace(fd.Title) == "" {
		return domain.NewError(domain.ErrCodeFeedbackInvalid, "missing or invalid field: title", nil)
	}
	if strings.TrimSpace(fd.Description) == "" {
		return domain.NewError(domain.ErrCodeFeedbackInvalid, "missing or invalid field: description", nil)
	}
	if utf8.RuneCountInString(fd.Title) > MaxTitleLength {
		return domain.NewError(domain.ErrCodeFeedbackInvalid,
			fmt.Sprintf("title is too long (max %d characters)", MaxTitleLength), nil)
	}
	if utf8.RuneCountInString(fd.Description) > MaxDescriptionLength {
		return domain.NewError(domain.ErrCodeFeedbackInvalid,
			fmt.Sprintf("description is too long (max %d characters)", MaxDescriptionLength), nil)
	}
	switch fd.Priority {
	case "", domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
	default:
		return domain.NewError(domain.ErrCodeFeedbackInvalid, "invalid priority value", nil)
	}
	if len(fd.Labels) > MaxLabels {
		return domain.NewError(domain.ErrCodeFeedbackInvalid, "too many labels", nil)
	}
	return nil
}
