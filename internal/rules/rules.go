// Package rules implements admin-defined auto-approval rules and their evaluation.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// RuleType names the kind of condition a rule checks.
type RuleType string

const (
	TypeUserTrust     RuleType = "user_trust"
	TypePopularity    RuleType = "popularity"
	TypeTimeBased     RuleType = "time_based"
	TypeGenre         RuleType = "genre"
	TypeContentRating RuleType = "content_rating"
)

// AllTypes lists every rule type.
var AllTypes = []RuleType{TypeUserTrust, TypePopularity, TypeTimeBased, TypeGenre, TypeContentRating}

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	return slices.Contains(AllTypes, t)
}

var (
	// ErrNotFound indicates the rule doesn't exist.
	ErrNotFound = errors.New("rule not found")

	// ErrInvalidRule indicates a rule failed validation.
	ErrInvalidRule = errors.New("invalid rule")
)

// Rule is an admin-defined auto-approval policy.
type Rule struct {
	ID          int64
	Name        string
	Description string
	Enabled     bool
	Priority    int // higher runs first
	Conditions  Conditions
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Type returns the rule's type, derived from its conditions.
func (r *Rule) Type() RuleType {
	if r.Conditions == nil {
		return ""
	}
	return r.Conditions.RuleType()
}

// MediaFacts are the TMDB attributes rules can inspect.
type MediaFacts struct {
	Genres        []int
	VoteAverage   float64
	Popularity    float64
	Certification string
}

// EvalContext is everything a rule may look at for one request.
type EvalContext struct {
	UserID           string
	ApprovedRequests int
	Media            MediaFacts
	Now              time.Time
}

// Conditions is the typed payload of a rule. Exactly one concrete type exists
// per RuleType.
type Conditions interface {
	RuleType() RuleType
	// Matches reports whether the condition holds. hour is the local hour of ec.Now.
	Matches(ec EvalContext, hour int) bool
}

// UserTrustConditions approves users with enough previously approved requests.
type UserTrustConditions struct {
	MinApprovedRequests int `json:"minApprovedRequests" validate:"gte=0"`
}

func (UserTrustConditions) RuleType() RuleType { return TypeUserTrust }

func (c UserTrustConditions) Matches(ec EvalContext, _ int) bool {
	return ec.ApprovedRequests >= c.MinApprovedRequests
}

// PopularityConditions approves well-rated or popular media. Every threshold
// that is set must be met.
type PopularityConditions struct {
	MinVoteAverage *float64 `json:"minVoteAverage,omitempty" validate:"omitempty,gte=0,lte=10"`
	MinPopularity  *float64 `json:"minPopularity,omitempty" validate:"omitempty,gte=0"`
}

func (PopularityConditions) RuleType() RuleType { return TypePopularity }

func (c PopularityConditions) Matches(ec EvalContext, _ int) bool {
	if c.MinVoteAverage == nil && c.MinPopularity == nil {
		return false
	}
	if c.MinVoteAverage != nil && ec.Media.VoteAverage < *c.MinVoteAverage {
		return false
	}
	if c.MinPopularity != nil && ec.Media.Popularity < *c.MinPopularity {
		return false
	}
	return true
}

// TimeBasedConditions approves requests made during the allowed hours.
type TimeBasedConditions struct {
	AllowedHours []int `json:"allowedHours" validate:"min=1,dive,gte=0,lte=23"`
}

func (TimeBasedConditions) RuleType() RuleType { return TypeTimeBased }

func (c TimeBasedConditions) Matches(_ EvalContext, hour int) bool {
	return slices.Contains(c.AllowedHours, hour)
}

// GenreConditions approves media with at least one allowed TMDB genre.
type GenreConditions struct {
	AllowedGenres []int `json:"allowedGenres" validate:"min=1,dive,gt=0"`
}

func (GenreConditions) RuleType() RuleType { return TypeGenre }

func (c GenreConditions) Matches(ec EvalContext, _ int) bool {
	for _, g := range ec.Media.Genres {
		if slices.Contains(c.AllowedGenres, g) {
			return true
		}
	}
	return false
}

// ContentRatingConditions approves media whose certification is allowed.
// Comparison ignores case and surrounding whitespace.
type ContentRatingConditions struct {
	AllowedRatings []string `json:"allowedRatings" validate:"min=1,dive,required"`
}

func (ContentRatingConditions) RuleType() RuleType { return TypeContentRating }

func (c ContentRatingConditions) Matches(ec EvalContext, _ int) bool {
	cert := strings.TrimSpace(ec.Media.Certification)
	if cert == "" {
		return false
	}
	for _, r := range c.AllowedRatings {
		if strings.EqualFold(strings.TrimSpace(r), cert) {
			return true
		}
	}
	return false
}

// undecodable stands in for stored conditions that no longer parse.
// It never matches, so a damaged row cannot approve anything.
type undecodable struct {
	ruleType RuleType
	raw      string
}

func (u undecodable) RuleType() RuleType { return u.ruleType }

func (undecodable) Matches(EvalContext, int) bool { return false }

// DecodeConditions parses raw JSON into the concrete conditions type for t.
// Unknown fields are ignored.
func DecodeConditions(t RuleType, raw []byte) (Conditions, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var (
		c   Conditions
		err error
	)
	switch t {
	case TypeUserTrust:
		var v UserTrustConditions
		err = json.Unmarshal(raw, &v)
		c = v
	case TypePopularity:
		var v PopularityConditions
		err = json.Unmarshal(raw, &v)
		c = v
	case TypeTimeBased:
		var v TimeBasedConditions
		err = json.Unmarshal(raw, &v)
		c = v
	case TypeGenre:
		var v GenreConditions
		err = json.Unmarshal(raw, &v)
		c = v
	case TypeContentRating:
		var v ContentRatingConditions
		err = json.Unmarshal(raw, &v)
		c = v
	default:
		return nil, fmt.Errorf("%w: unknown rule type %q", ErrInvalidRule, t)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: conditions for %s: %v", ErrInvalidRule, t, err)
	}
	return c, nil
}

// EncodeConditions serialises conditions for storage.
func EncodeConditions(c Conditions) ([]byte, error) {
	if u, ok := c.(undecodable); ok {
		return []byte(u.raw), nil
	}
	return json.Marshal(c)
}
