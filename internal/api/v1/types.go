// internal/api/v1/types.go
package v1

import (
	"encoding/json"
	"time"

	"github.com/vmunix/reqarr/internal/events"
	"github.com/vmunix/reqarr/internal/lifecycle"
	"github.com/vmunix/reqarr/internal/notify"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/rules"
)

// createRequest is the body of POST /requests.
type createRequest struct {
	MediaType        string `json:"mediaType"`
	TMDBID           int64  `json:"tmdbId"`
	Seasons          []int  `json:"seasons,omitempty"`
	QualityProfileID *int64 `json:"qualityProfileId,omitempty"`
}

// bulkRequest is the body of POST /requests/bulk.
type bulkRequest struct {
	Items []createRequest `json:"items"`
}

// denyRequest is the optional body of POST /requests/{id}/deny.
type denyRequest struct {
	Reason string `json:"reason"`
}

// seasonItemResponse is one requested season.
type seasonItemResponse struct {
	Season   int  `json:"season"`
	Episodes int  `json:"episodes,omitempty"`
	Active   bool `json:"active"`
}

// requestResponse is the API representation of a request.
type requestResponse struct {
	ID               string               `json:"id"`
	MediaType        string               `json:"mediaType"`
	TMDBID           int64                `json:"tmdbId"`
	TVDBID           *int64               `json:"tvdbId,omitempty"`
	Title            string               `json:"title"`
	Year             int                  `json:"year,omitempty"`
	PosterPath       string               `json:"posterPath,omitempty"`
	Status           request.State        `json:"status"`
	RequestedBy      string               `json:"requestedBy"`
	AutoApproved     bool                 `json:"autoApproved"`
	ApprovalRuleID   *int64               `json:"approvalRuleId,omitempty"`
	QualityProfileID *int64               `json:"qualityProfileId,omitempty"`
	ExternalID       *int64               `json:"externalId,omitempty"`
	LastError        string               `json:"lastError,omitempty"`
	DecidedBy        *string              `json:"decidedBy,omitempty"`
	Seasons          []seasonItemResponse `json:"seasons,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func wireMediaType(t request.Type) string {
	if t == request.TypeEpisode {
		return "tv"
	}
	return string(t)
}

func requestToResponse(r *request.Request) *requestResponse {
	if r == nil {
		return nil
	}
	resp := &requestResponse{
		ID:               r.ID,
		MediaType:        wireMediaType(r.Type),
		TMDBID:           r.TMDBID,
		TVDBID:           r.TVDBID,
		Title:            r.Title,
		Year:             r.ReleaseYear,
		PosterPath:       r.PosterPath,
		Status:           r.Status,
		RequestedBy:      r.RequestedBy,
		AutoApproved:     r.AutoApproved,
		ApprovalRuleID:   r.ApprovalRuleID,
		QualityProfileID: r.QualityProfileID,
		ExternalID:       r.ExternalID,
		LastError:        r.LastError,
		DecidedBy:        r.DecidedBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	for _, it := range r.Items {
		resp.Seasons = append(resp.Seasons, seasonItemResponse{Season: it.Season, Episodes: it.Episodes, Active: it.Active})
	}
	return resp
}

// createResponse is the response for POST /requests.
type createResponse struct {
	Outcome lifecycle.Outcome `json:"outcome"`
	Reason  lifecycle.Reason  `json:"reason,omitempty"`
	Seasons []int             `json:"seasons,omitempty"`
	Error   string            `json:"error,omitempty"`
	Request *requestResponse  `json:"request,omitempty"`
}

// listRequestsResponse is the response for GET /requests.
type listRequestsResponse struct {
	Items  []*requestResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// requestStatusResponse is the response for the request-status check.
type requestStatusResponse struct {
	Requested bool             `json:"requested"`
	Request   *requestResponse `json:"request,omitempty"`
}

// serviceResponse reports where a title lives in Radarr or Sonarr.
type serviceResponse struct {
	Status     resolver.Status        `json:"status"`
	Service    string                 `json:"service"`
	ExternalID int64                  `json:"externalId,omitempty"`
	Monitored  bool                   `json:"monitored"`
	HasFile    bool                   `json:"hasFile"`
	Seasons    []resolver.SeasonStats `json:"seasons,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// profilesResponse lists quality profiles. Error is set when the service
// could not be reached.
type profilesResponse struct {
	Service  string           `json:"service"`
	Profiles []profileSummary `json:"profiles"`
	Error    string           `json:"error,omitempty"`
}

type profileSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ruleRequest is the body of POST and PUT /rules.
type ruleRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Enabled     *bool           `json:"enabled"`
	Priority    int             `json:"priority"`
	Type        rules.RuleType  `json:"type"`
	Conditions  json.RawMessage `json:"conditions"`
}

// ruleResponse is the API representation of a rule.
type ruleResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Enabled     bool            `json:"enabled"`
	Priority    int             `json:"priority"`
	Type        rules.RuleType  `json:"type"`
	Conditions  json.RawMessage `json:"conditions"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func ruleToResponse(r *rules.Rule) ruleResponse {
	raw, err := rules.EncodeConditions(r.Conditions)
	if err != nil || len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return ruleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Enabled:     r.Enabled,
		Priority:    r.Priority,
		Type:        r.Type(),
		Conditions:  raw,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// evaluateRequest is the body of POST /rules/evaluate.
type evaluateRequest struct {
	UserID    string `json:"userId"`
	MediaType string `json:"mediaType"`
	TMDBID    int64  `json:"tmdbId"`
}

type ruleResultResponse struct {
	RuleID  int64          `json:"ruleId"`
	Name    string         `json:"name"`
	Type    rules.RuleType `json:"type"`
	Matched bool           `json:"matched"`
	Skipped bool           `json:"skipped,omitempty"`
}

// evaluateResponse reports a rule dry run.
type evaluateResponse struct {
	AutoApproved     bool                 `json:"autoApproved"`
	MatchedRuleID    *int64               `json:"matchedRuleId,omitempty"`
	ApprovedRequests int                  `json:"approvedRequests"`
	VoteAverage      float64              `json:"voteAverage"`
	Popularity       float64              `json:"popularity"`
	Certification    string               `json:"certification,omitempty"`
	Genres           []int                `json:"genres"`
	Results          []ruleResultResponse `json:"results"`
}

// endpointRequest is the body of POST /users/{id}/notifications.
type endpointRequest struct {
	Kind   notify.Kind `json:"kind"`
	Target string      `json:"target"`
}

// listEndpointsResponse is the response for GET /users/{id}/notifications.
type listEndpointsResponse struct {
	Items []notify.Endpoint `json:"items"`
}

// webhookResponse reports what a Jellyfin notification changed.
type webhookResponse struct {
	Handled   bool   `json:"handled"`
	Available int    `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// EventResponse is the API representation of a persisted event.
type EventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"eventType"`
	EntityType string          `json:"entityType"`
	EntityID   int64           `json:"entityId"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurredAt"`
}

// listEventsResponse is the response for event listings.
type listEventsResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
}

func eventsToResponse(raw []events.RawEvent) listEventsResponse {
	resp := listEventsResponse{Items: make([]EventResponse, len(raw)), Total: len(raw)}
	for i, e := range raw {
		resp.Items[i] = EventResponse{
			ID:         e.ID,
			EventType:  e.EventType,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Payload:    json.RawMessage(e.Payload),
			OccurredAt: e.OccurredAt.Format(time.RFC3339),
		}
	}
	return resp
}

// statusResponse is the response for GET /status.
type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Radarr  bool   `json:"radarr"`
	Sonarr  bool   `json:"sonarr"`
}
