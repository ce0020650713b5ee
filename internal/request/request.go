// Package request stores media requests and guards against duplicate active requests.
package request

import (
	"time"
)

// Type distinguishes movie requests from TV (season) requests.
type Type string

const (
	TypeMovie   Type = "movie"
	TypeEpisode Type = "episode"
)

// Valid reports whether t is a known request type.
func (t Type) Valid() bool {
	return t == TypeMovie || t == TypeEpisode
}

// State is the lifecycle state of a request.
type State string

const (
	StatePending   State = "pending"
	StateSubmitted State = "submitted"
	StateAvailable State = "available"
	StateDenied    State = "denied"
	StateFailed    State = "failed"
	StateRemoved   State = "removed"
)

// AllStates lists every lifecycle state.
var AllStates = []State{StatePending, StateSubmitted, StateAvailable, StateDenied, StateFailed, StateRemoved}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	for _, v := range AllStates {
		if s == v {
			return true
		}
	}
	return false
}

// IsActive reports whether a request in this state blocks a new request for the
// same media. Failed requests stay active until an admin retries or removes them.
func (s State) IsActive() bool {
	return s != StateDenied && s != StateRemoved
}

// Request is one user's ask for a movie or a set of seasons of a series.
type Request struct {
	ID               string
	Type             Type
	TMDBID           int64
	TVDBID           *int64
	Title            string
	PosterPath       string
	BackdropPath     string
	ReleaseYear      int
	Status           State
	RequestedBy      string
	AutoApproved     bool
	ApprovalRuleID   *int64
	QualityProfileID *int64
	ExternalID       *int64 // Radarr movie id or Sonarr series id
	LastError        string
	DecidedBy        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Items []Item // TV only
}

// Seasons returns the season numbers of the request's items in stored order.
func (r *Request) Seasons() []int {
	seasons := make([]int, 0, len(r.Items))
	for _, it := range r.Items {
		seasons = append(seasons, it.Season)
	}
	return seasons
}

// Item is one season of a TV request.
type Item struct {
	ID        int64
	RequestID string
	TMDBID    int64
	Season    int
	Episodes  int // 0 means the whole season
	Active    bool
}

// Filter specifies criteria for listing requests.
type Filter struct {
	Statuses    []State
	Type        *Type
	RequestedBy *string
	TMDBID      *int64
	Limit       int
	Offset      int
}
