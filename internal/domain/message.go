// Package domain defines the core domain models for the feedback service.
package domain

import "time"

// MessageRole identifies the author of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Image is an inline image attached to a message. Data is base64-encoded;
// a leading "data:<mime>;base64," prefix is tolerated and stripped on decode.
type Image struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Message is a single entry in a session's conversation log.
// Messages are immutable once appended.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Images    []Image     `json:"images,omitempty"`
}

// UserTurns returns the number of user messages in the log. The conversation
// state is always derived from this count, never stored separately.
func UserTurns(messages []Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// SessionStatus describes a session as seen by the inspection endpoint.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEmpty  SessionStatus = "empty"
)

// WelcomeMessage is the fixed greeting shown when a widget opens a fresh
// session. Emitting it is the embedding client's job; it is exposed here so
// server and widget agree on the wording.
const WelcomeMessage = "Hello! Please share your feature requests or feedback. What improvements would you like to see?"
