// Package github is the issue tracker client. It talks to the GitHub REST
// API directly; tracker failures are surfaced verbatim because a lost issue
// is a data-loss risk, unlike a degraded AI reply.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/glintlab/feedbackd/internal/domain"
)

const defaultBaseURL = "https://api.github.com"

var repoPattern = regexp.MustCompile(`^[^/]+/[^/]+$`)

// TokenSource yields an API token per request, so App-installation tokens
// can be refreshed transparently.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a personal access token.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

// APIError is a tracker-side failure, preserved verbatim for the caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %d %s", e.StatusCode, e.Message)
}

// Client is the GitHub REST client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a GitHub client with the given token source.
func NewClient(tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// IssueRequest is the payload for creating or updating an issue.
type IssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// ValidRepository reports whether repo has the "owner/repo" shape.
func ValidRepository(repo string) bool {
	return repoPattern.MatchString(repo)
}

// CreateIssue files a new issue in repo.
func (c *Client) CreateIssue(ctx context.Context, repo string, req *IssueRequest) (*domain.IssueResult, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("%s/repos/%s/issues", c.baseURL, repo), req, http.StatusCreated)
}

// UpdateIssue rewrites an existing issue's title, body, and labels.
func (c *Client) UpdateIssue(ctx context.Context, repo string, number int, req *IssueRequest) (*domain.IssueResult, error) {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/repos/%s/issues/%d", c.baseURL, repo, number), req, http.StatusOK)
}

func (c *Client) do(ctx context.Context, method, url string, req *IssueRequest, wantStatus int) (*domain.IssueResult, error) {
	if req == nil {
		return nil, fmt.Errorf("nil issue request")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain tracker token: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/vnd.github+json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	var issue struct {
		HTMLURL string `json:"html_url"`
		Number  int    `json:"number"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse issue response: %w", err)
	}
	return &domain.IssueResult{URL: issue.HTMLURL, Number: issue.Number, Title: issue.Title}, nil
}
