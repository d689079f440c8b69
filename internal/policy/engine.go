// Package policy gates issue submissions through an OPA rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine evaluates the submission policy.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine compiles the given rego policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.submission_policy.decision"),
		rego.Module("submission_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Engine{query: query}, nil
}

// Input is what the policy sees for one submission attempt.
type Input struct {
	Domain     string   `json:"domain"`
	Category   string   `json:"category"`
	Labels     []string `json:"labels"`
	ImageCount int      `json:"image_count"`
	ImageBytes int      `json:"image_bytes"`
}

// Evaluate returns the policy decision, "allow" or "block". Prepared queries
// are safe for concurrent evaluation.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "allow", nil
	}
	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "allow", nil
}

// DefaultPolicy is the built-in submission policy: allow everything except
// plainly abusive payloads. Deployments override it via SUBMISSION_POLICY.
const DefaultPolicy = `
package submission_policy

default decision = "allow"

# Refuse submissions self-labelled as spam.
decision = "block" {
	input.labels[_] == "spam"
}

# Refuse more than four attached images.
decision = "block" {
	input.image_count > 4
}

# Refuse more than 5 MiB of attached image data.
decision = "block" {
	input.image_bytes > 5242880
}
`
