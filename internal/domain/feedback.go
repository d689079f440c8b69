package domain

// Priority levels accepted for feedback.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Feedback categories recognized by the issue pipeline.
const (
	CategoryFeature     = "feature"
	CategoryBug         = "bug"
	CategoryImprovement = "improvement"
	CategoryQuestion    = "question"
)

// FeedbackData is the structured summary of a conversation, either extracted
// by the AI analyzer or assembled by the orchestrator at the terminal turn.
// All fields are attacker-controlled input and are sanitized before use.
type FeedbackData struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// UserIdentity is optional reporter attribution carried on X-User-* headers.
type UserIdentity struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// IssueResult is what the tracker returns for a created or updated issue.
type IssueResult struct {
	URL    string `json:"issue_url"`
	Number int    `json:"issue_number"`
	Title  string `json:"title"`
}
