package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Lister supplies the rules to evaluate.
type Lister interface {
	List(ctx context.Context) ([]*Rule, error)
}

// Decision is the outcome of evaluating all rules for one request.
type Decision struct {
	AutoApproved bool
	MatchedRule  *Rule // nil when nothing matched
}

// RuleResult records how a single rule fared during Explain.
type RuleResult struct {
	Rule    *Rule
	Skipped bool // disabled, never evaluated
	Matched bool
}

// Engine decides whether a request is auto-approved.
type Engine struct {
	rules Lister
	loc   *time.Location
	log   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLocation sets the timezone used by time-based rules. Defaults to UTC.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// NewEngine creates a rule engine backed by rules.
func NewEngine(rules Lister, opts ...EngineOption) *Engine {
	e := &Engine{rules: rules, loc: time.UTC, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "rules")
	return e
}

// ordered returns enabled rules by precedence: priority descending, ID ascending.
func ordered(all []*Rule) []*Rule {
	enabled := make([]*Rule, 0, len(all))
	for _, r := range all {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		if enabled[i].Priority != enabled[j].Priority {
			return enabled[i].Priority > enabled[j].Priority
		}
		return enabled[i].ID < enabled[j].ID
	})
	return enabled
}

// Evaluate runs enabled rules in precedence order. The first match wins.
// No match means the request needs manual approval.
func (e *Engine) Evaluate(ctx context.Context, ec EvalContext) (Decision, error) {
	all, err := e.rules.List(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("load rules: %w", err)
	}
	if ec.Now.IsZero() {
		ec.Now = time.Now()
	}
	hour := ec.Now.In(e.loc).Hour()

	for _, r := range ordered(all) {
		if r.Conditions == nil {
			continue
		}
		if r.Conditions.Matches(ec, hour) {
			e.log.Debug("rule matched", "rule_id", r.ID, "rule", r.Name, "type", r.Type(), "user", ec.UserID)
			return Decision{AutoApproved: true, MatchedRule: r}, nil
		}
	}
	return Decision{}, nil
}

// Explain evaluates every rule and reports each result, in precedence order
// with disabled rules last. The returned Decision is identical to Evaluate's.
func (e *Engine) Explain(ctx context.Context, ec EvalContext) (Decision, []RuleResult, error) {
	all, err := e.rules.List(ctx)
	if err != nil {
		return Decision{}, nil, fmt.Errorf("load rules: %w", err)
	}
	if ec.Now.IsZero() {
		ec.Now = time.Now()
	}
	hour := ec.Now.In(e.loc).Hour()

	var (
		decision Decision
		results  []RuleResult
	)
	for _, r := range ordered(all) {
		matched := r.Conditions != nil && r.Conditions.Matches(ec, hour)
		if matched && decision.MatchedRule == nil {
			decision = Decision{AutoApproved: true, MatchedRule: r}
		}
		results = append(results, RuleResult{Rule: r, Matched: matched})
	}
	for _, r := range all {
		if !r.Enabled {
			results = append(results, RuleResult{Rule: r, Skipped: true})
		}
	}
	return decision, results, nil
}
