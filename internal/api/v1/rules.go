package v1

import (
	"net/http"

	"github.com/vmunix/reqarr/internal/lifecycle"
	"github.com/vmunix/reqarr/internal/rules"
)

// toRule builds a rule from a request body.
func (b *ruleRequest) toRule() (*rules.Rule, error) {
	cond, err := rules.DecodeConditions(b.Type, b.Conditions)
	if err != nil {
		return nil, err
	}
	enabled := true
	if b.Enabled != nil {
		enabled = *b.Enabled
	}
	return &rules.Rule{
		Name:        b.Name,
		Description: b.Description,
		Enabled:     enabled,
		Priority:    b.Priority,
		Conditions:  cond,
	}, nil
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	all, err := s.deps.Rules.List(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	items := make([]ruleResponse, len(all))
	for i, rule := range all {
		items[i] = ruleToResponse(rule)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid rule ID")
		return
	}
	rule, err := s.deps.Rules.Get(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleToResponse(rule))
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	var body ruleRequest
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	rule, err := body.toRule()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := s.deps.Rules.Create(r.Context(), rule); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.log.Info("rule created", "rule_id", rule.ID, "type", rule.Type(), "admin", s.actor(r))
	writeJSON(w, http.StatusCreated, ruleToResponse(rule))
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid rule ID")
		return
	}
	var body ruleRequest
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	rule, err := body.toRule()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	rule.ID = id
	if err := s.deps.Rules.Update(r.Context(), rule); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	// Re-read for the stored creation time.
	stored, err := s.deps.Rules.Get(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.log.Info("rule updated", "rule_id", id, "admin", s.actor(r))
	writeJSON(w, http.StatusOK, ruleToResponse(stored))
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid rule ID")
		return
	}
	if err := s.deps.Rules.Delete(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.log.Info("rule deleted", "rule_id", id, "admin", s.actor(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) evaluateRules(w http.ResponseWriter, r *http.Request) {
	var body evaluateRequest
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	t, err := lifecycle.ParseMediaType(body.MediaType)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.deps.Lifecycle.DryRun(r.Context(), body.UserID, t, body.TMDBID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	resp := evaluateResponse{
		AutoApproved:     res.Decision.AutoApproved,
		ApprovedRequests: res.Context.ApprovedRequests,
		VoteAverage:      res.Context.Media.VoteAverage,
		Popularity:       res.Context.Media.Popularity,
		Certification:    res.Context.Media.Certification,
		Genres:           res.Context.Media.Genres,
		Results:          make([]ruleResultResponse, len(res.Results)),
	}
	if resp.Genres == nil {
		resp.Genres = []int{}
	}
	if res.Decision.MatchedRule != nil {
		id := res.Decision.MatchedRule.ID
		resp.MatchedRuleID = &id
	}
	for i, rr := range res.Results {
		resp.Results[i] = ruleResultResponse{
			RuleID:  rr.Rule.ID,
			Name:    rr.Rule.Name,
			Type:    rr.Rule.Type(),
			Matched: rr.Matched,
			Skipped: rr.Skipped,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
