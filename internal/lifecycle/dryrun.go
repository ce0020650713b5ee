package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/rules"
)

// Explainer reports how every rule fares for a request. *rules.Engine
// satisfies it.
type Explainer interface {
	Explain(ctx context.Context, ec rules.EvalContext) (rules.Decision, []rules.RuleResult, error)
}

// DryRunResult is what Create would decide, without creating anything.
type DryRunResult struct {
	Context  rules.EvalContext
	Decision rules.Decision
	Results  []rules.RuleResult
}

// DryRun evaluates the approval rules for a hypothetical request by userID.
func (m *Manager) DryRun(ctx context.Context, userID string, t request.Type, tmdbID int64) (*DryRunResult, error) {
	in := CreateInput{UserID: userID, MediaType: t, TMDBID: tmdbID}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ex, ok := m.deps.Rules.(Explainer)
	if !ok {
		return nil, errors.New("approval rules do not support explain")
	}

	md, err := m.fetchMedia(ctx, t, tmdbID)
	if err != nil {
		return nil, err
	}
	approved, err := m.deps.Requests.CountApproved(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count approved requests: %w", err)
	}

	ec := rules.EvalContext{UserID: userID, ApprovedRequests: approved, Media: md.facts, Now: m.clock.Now()}
	decision, results, err := ex.Explain(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("explain approval rules: %w", err)
	}
	return &DryRunResult{Context: ec, Decision: decision, Results: results}, nil
}
