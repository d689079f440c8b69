package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glintlab/feedbackd/internal/adapter/github"
	"github.com/glintlab/feedbackd/internal/domain"
	"github.com/glintlab/feedbackd/internal/policy"
	"github.com/glintlab/feedbackd/internal/validate"
)

// SubmitRequest is a manual issue submission: structured feedback data plus
// the session whose transcript should be attached. A non-zero IssueNumber
// refines the already-created issue instead of opening a second one.
type SubmitRequest struct {
	SessionID   string              `json:"session_id"`
	Feedback    domain.FeedbackData `json:"feedback_data"`
	IssueNumber int                 `json:"issue_number,omitempty"`
	User        domain.UserIdentity `json:"-"`
}

// SubmitResult is the outcome of a submission, serialized flat so the widget
// reads {issue_url, issue_number, title, notify_enabled}.
type SubmitResult struct {
	domain.IssueResult
	NotifyEnabled bool `json:"notify_enabled"`
}

// Submit files an issue from caller-provided feedback data. Tracker failures
// are returned to the caller unsoftened: the submission was lost and hiding
// that would silently drop the user's feedback.
func (s *Service) Submit(ctx context.Context, meta CallerMeta, req SubmitRequest) (*SubmitResult, error) {
	if err := validate.SessionID(req.SessionID); err != nil {
		return nil, err
	}
	if err := validate.FeedbackData(&req.Feedback); err != nil {
		return nil, err
	}

	history, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to load session", err)
	}

	fd := req.Feedback
	fd.Title = validate.Sanitize(fd.Title, validate.MaxTitleLength)
	fd.Description = validate.Sanitize(fd.Description, validate.MaxDescriptionLength)
	if fd.Category == "" {
		fd.Category = domain.CategoryFeature
	}
	if fd.Priority == "" {
		fd.Priority = domain.PriorityMedium
	}

	issue, err := s.fileIssue(ctx, meta, req.SessionID, fd, req.User, history, req.IssueNumber)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{IssueResult: *issue, NotifyEnabled: s.cfg.GitHubMention != ""}, nil
}

// IssueSubmissionRequested is the terminal-turn hand-off: the orchestrator
// emits it exactly once per session after winning the one-shot flag, and the
// pipeline consumes it as a discrete step.
type IssueSubmissionRequested struct {
	SessionID string
	Meta      CallerMeta
	User      domain.UserIdentity
}

// HandleSubmissionRequested assembles feedback data from the transcript at
// the terminal turn and files the issue. The title is the opening user
// message, truncated.
func (s *Service) HandleSubmissionRequested(ctx context.Context, ev IssueSubmissionRequested) (*domain.IssueResult, error) {
	history, err := s.store.Get(ctx, ev.SessionID)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to load session", err)
	}

	var first string
	for _, m := range history {
		if m.Role == domain.RoleUser {
			first = m.Content
			break
		}
	}
	title := first
	if title == "" {
		title = "Feedback from widget"
	}
	if truncated := validate.TruncateRunes(title, 50); truncated != title {
		title = truncated + "..."
	}

	fd := domain.FeedbackData{
		Title:       title,
		Description: "Feedback collected through the embedded widget conversation.",
		Category:    domain.CategoryFeature,
		Priority:    domain.PriorityMedium,
		Labels:      []string{"feedback", "widget"},
	}
	return s.fileIssue(ctx, ev.Meta, ev.SessionID, fd, ev.User, history, 0)
}

// fileIssue runs the shared pipeline tail: policy gate, body assembly,
// tracker call. A non-zero issueNumber rewrites that issue instead of
// creating a new one.
func (s *Service) fileIssue(ctx context.Context, meta CallerMeta, sessionID string, fd domain.FeedbackData, user domain.UserIdentity, history []domain.Message, issueNumber int) (*domain.IssueResult, error) {
	if s.tracker == nil {
		return nil, domain.NewError(domain.ErrCodeTrackerNotConfigured, "issue tracker is not configured", nil)
	}
	repo := meta.Repo
	if repo == "" {
		repo = s.cfg.GitHubRepository
	}
	if !github.ValidRepository(repo) {
		return nil, domain.NewError(domain.ErrCodeTrackerNotConfigured, "issue tracker repository is not configured", nil)
	}

	if s.policy != nil {
		count, bytes := imageStats(history)
		decision, err := s.policy.Evaluate(ctx, policy.Input{
			Domain:     meta.Domain,
			Category:   fd.Category,
			Labels:     fd.Labels,
			ImageCount: count,
			ImageBytes: bytes,
		})
		if err != nil {
			s.log.Warn("submission policy evaluation failed, allowing", slog.Any("error", err))
		} else if decision != "allow" {
			return nil, domain.NewError(domain.ErrCodeSubmissionBlocked, "submission blocked by policy", nil)
		}
	}

	issueReq := &github.IssueRequest{
		Title:  issueTitle(fd),
		Body:   buildIssueBody(fd, user, history, sessionID, s.cfg.GitHubMention),
		Labels: fd.Labels,
	}
	var (
		issue *domain.IssueResult
		err   error
	)
	if issueNumber > 0 {
		issue, err = s.tracker.UpdateIssue(ctx, repo, issueNumber, issueReq)
	} else {
		issue, err = s.tracker.CreateIssue(ctx, repo, issueReq)
	}
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeTracker, "issue creation failed", err)
	}
	return issue, nil
}

// issueTitle prefixes the title with the category tag used by triage.
func issueTitle(fd domain.FeedbackData) string {
	var prefix string
	switch fd.Category {
	case domain.CategoryBug:
		prefix = "[Bug Report]"
	case domain.CategoryImprovement:
		prefix = "[Enhancement]"
	case domain.CategoryFeature:
		prefix = "[Feature Request]"
	default:
		prefix = "[Request]"
	}
	return prefix + " " + fd.Title
}

// buildIssueBody renders the tracker issue body: summary sections, reporter
// attribution, a collapsed transcript, and the notification footer.
func buildIssueBody(fd domain.FeedbackData, user domain.UserIdentity, history []domain.Message, sessionID, mention string) string {
	var b strings.Builder

	b.WriteString("## Overview\n\n")
	b.WriteString(fd.Description)
	b.WriteString("\n\n## Category\n\n")
	b.WriteString(fd.Category)
	b.WriteString("\n\n## Priority\n\n")
	b.WriteString(fd.Priority)
	b.WriteString("\n")

	if user.Name != "" || user.Email != "" {
		b.WriteString("\n## Reporter\n\n")
		if user.Name != "" {
			fmt.Fprintf(&b, "- Name: %s\n", user.Name)
		}
		if user.Email != "" {
			fmt.Fprintf(&b, "- Email: %s\n", user.Email)
		}
	}

	// Manifest only: raw image bytes never go into the textual body.
	var n int
	for _, m := range history {
		for _, img := range m.Images {
			if n == 0 {
				b.WriteString("\n## Attachments\n\n")
			}
			n++
			fmt.Fprintf(&b, "- image %d: %s, %d bytes\n", n, img.MimeType, len(img.Data))
		}
	}

	b.WriteString("\n<details>\n<summary>Conversation history</summary>\n\n")
	for _, m := range history {
		speaker := "User"
		if m.Role == domain.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "**%s**: %s\n\n", speaker, m.Content)
	}
	b.WriteString("</details>\n\n---\n")
	fmt.Fprintf(&b, "Session ID: `%s`\n", sessionID)
	if mention != "" {
		fmt.Fprintf(&b, "\n%s Please review this feedback.\n", mention)
	}
	return b.String()
}

func imageStats(history []domain.Message) (count, bytes int) {
	for _, m := range history {
		for _, img := range m.Images {
			count++
			bytes += len(img.Data)
		}
	}
	return count, bytes
}
