// Package service implements the feedback conversation orchestrator and the
// issue submission pipeline on top of the store and adapters.
package service

import (
	"context"
	"log/slog"

	"github.com/glintlab/feedbackd/internal/adapter/gemini"
	"github.com/glintlab/feedbackd/internal/adapter/github"
	"github.com/glintlab/feedbackd/internal/config"
	"github.com/glintlab/feedbackd/internal/domain"
	"github.com/glintlab/feedbackd/internal/policy"
	"github.com/glintlab/feedbackd/internal/store"
)

// IssueTracker is the slice of the tracker client the pipeline needs.
type IssueTracker interface {
	CreateIssue(ctx context.Context, repo string, req *github.IssueRequest) (*domain.IssueResult, error)
	UpdateIssue(ctx context.Context, repo string, number int, req *github.IssueRequest) (*domain.IssueResult, error)
}

// Service wires the orchestrator's collaborators together. The AI completer
// and the tracker may be nil when unconfigured; the affected operations fail
// fast with configuration errors instead of touching session state.
type Service struct {
	store   store.Store
	ai      gemini.Completer
	tracker IssueTracker
	policy  *policy.Engine
	cfg     *config.Config
	log     *slog.Logger
}

// New creates a Service.
func New(st store.Store, ai gemini.Completer, tracker IssueTracker, pol *policy.Engine, cfg *config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:   st,
		ai:      ai,
		tracker: tracker,
		policy:  pol,
		cfg:     cfg,
		log:     log,
	}
}

// CallerMeta is per-request context established by the transport layer:
// the authenticated origin domain, an optional repository override, and
// optional reporter identity.
type CallerMeta struct {
	Domain string
	Repo   string
	User   domain.UserIdentity
}
