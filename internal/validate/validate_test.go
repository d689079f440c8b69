package validate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/glintlab/feedbackd/internal/domain"
)

func TestSessionID(t *testing.T) {
	valid := []string{"abc123", "session-id_42", strings.Repeat("a", 40), "ABC_-z9"}
	for _, id := range valid {
		if err := SessionID(id); err != nil {
			t.Errorf("SessionID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "short", strings.Repeat("a", 41), "has space", "has.dot", "semi;colon", "слово123"}
	for _, id := range invalid {
		err := SessionID(id)
		if err == nil {
			t.Errorf("SessionID(%q) = nil, want error", id)
			continue
		}
		if !domain.IsCode(err, domain.ErrCodeSessionIDInvalid) {
			t.Errorf("SessionID(%q) code = %s", id, domain.ErrCode(err))
		}
	}
}

func TestMessageContent(t *testing.T) {
	if err := MessageContent("hello", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := MessageContent(strings.Repeat("a", MaxMessageLength), false); err != nil {
		t.Fatalf("content at the cap must pass: %v", err)
	}
	if err := MessageContent(strings.Repeat("a", MaxMessageLength+1), false); err == nil {
		t.Fatal("content above the cap must fail")
	}
	if err := MessageContent("", false); err == nil {
		t.Fatal("empty content without images must fail")
	}
	if err := MessageContent("   ", false); err == nil {
		t.Fatal("whitespace-only content without images must fail")
	}
	if err := MessageContent("", true); err != nil {
		t.Fatalf("empty content with images must pass: %v", err)
	}
}

func TestMessageContentCountsCharacters(t *testing.T) {
	// Multibyte content is measured in characters, not bytes.
	if err := MessageContent(strings.Repeat("日", MaxMessageLength), false); err != nil {
		t.Fatalf("multibyte content at the cap must pass: %v", err)
	}
	if err := MessageContent(strings.Repeat("日", MaxMessageLength+1), false); err == nil {
		t.Fatal("multibyte content above the cap must fail")
	}
}

func TestMessageContentSuspiciousPatterns(t *testing.T) {
	bad := []string{
		"<script>alert(1)</script>",
		"click javascript:void(0)",
		`<img onerror=alert(1)>`,
		"see data:text/html;base64,xxx",
		"data:imprecise/type;base64,xxx",
		"trailing data:",
	}
	for _, in := range bad {
		if err := MessageContent(in, false); err == nil {
			t.Errorf("MessageContent(%q) = nil, want error", in)
		}
	}
	// Inline images use data:image URIs, which stay legal.
	if err := MessageContent("data:image/png;base64,iVBOR", false); err != nil {
		t.Fatalf("data:image URI must pass: %v", err)
	}
	if err := MessageContent("see DATA:IMAGE/png;base64,iVBOR", false); err != nil {
		t.Fatalf("data:image URI is case-insensitive: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain text  ", "plain text"},
		{"<script>alert(1)</script>rest", "rest"},
		{"<b>bold</b> text", "bold text"},
		{"javascript:alert(1)", "alert(1)"},
		{"x onclick=y", "x y"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in, 100); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("a", 60)
	if got := Sanitize(long, 50); len(got) != 50 {
		t.Errorf("Sanitize length = %d, want 50", len(got))
	}
}

func TestSanitizeTruncatesOnRuneBoundaries(t *testing.T) {
	got := Sanitize(strings.Repeat("日", 100), 50)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Fatalf("rune count = %d, want 50", n)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"日本語テスト", 3, "日本語"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFeedbackData(t *testing.T) {
	ok := &domain.FeedbackData{Title: "title", Description: "desc", Priority: domain.PriorityHigh}
	if err := FeedbackData(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	jp := &domain.FeedbackData{Title: strings.Repeat("日", MaxTitleLength), Description: "desc"}
	if err := FeedbackData(jp); err != nil {
		t.Fatalf("multibyte title at the cap must pass: %v", err)
	}

	bad := []*domain.FeedbackData{
		nil,
		{Description: "desc"},
		{Title: "title"},
		{Title: strings.Repeat("a", MaxTitleLength+1), Description: "desc"},
		{Title: "title", Description: strings.Repeat("a", MaxDescriptionLength+1)},
		{Title: "title", Description: "desc", Priority: "urgent"},
		{Title: "title", Description: "desc", Labels: make([]string, MaxLabels+1)},
	}
	for i, fd := range bad {
		err := FeedbackData(fd)
		if err == nil {
			t.Errorf("case %d: expected error", i)
			continue
		}
		if !domain.IsCode(err, domain.ErrCodeFeedbackInvalid) {
			t.Errorf("case %d: code = %s", i, domain.ErrCode(err))
		}
	}
}
