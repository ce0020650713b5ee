package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vmunix/reqarr/internal/arr"
	"github.com/vmunix/reqarr/internal/events"
	"github.com/vmunix/reqarr/internal/jellyfin"
	"github.com/vmunix/reqarr/internal/lifecycle"
	"github.com/vmunix/reqarr/internal/notify"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/rules"
	"github.com/vmunix/reqarr/internal/seasons"
	"github.com/vmunix/reqarr/internal/tmdb"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Lifecycle creates requests and moves them between states.
type Lifecycle interface {
	Create(ctx context.Context, in lifecycle.CreateInput) (*lifecycle.CreateResult, error)
	CreateBulk(ctx context.Context, userID string, items []lifecycle.BulkItem) (*lifecycle.BulkResult, error)
	RequestCollection(ctx context.Context, userID string, collectionID int64, force bool) (*lifecycle.CollectionResult, error)
	Approve(ctx context.Context, id, adminID string) (*request.Request, error)
	Deny(ctx context.Context, id, adminID, reason string) (*request.Request, error)
	Retry(ctx context.Context, id, adminID string) (*request.Request, error)
	Remove(ctx context.Context, id, actor string, admin bool) (*request.Request, error)
	DryRun(ctx context.Context, userID string, t request.Type, tmdbID int64) (*lifecycle.DryRunResult, error)
}

// RequestStore reads requests.
type RequestStore interface {
	Get(ctx context.Context, id string) (*request.Request, error)
	List(ctx context.Context, f request.Filter) ([]*request.Request, int, error)
	FindActive(ctx context.Context, t request.Type, tmdbID int64, season *int) (*request.Request, error)
}

// RuleStore persists approval rules.
type RuleStore interface {
	List(ctx context.Context) ([]*rules.Rule, error)
	Get(ctx context.Context, id int64) (*rules.Rule, error)
	Create(ctx context.Context, r *rules.Rule) error
	Update(ctx context.Context, r *rules.Rule) error
	Delete(ctx context.Context, id int64) error
}

// SeasonSummarizer builds the per-season view of a series.
type SeasonSummarizer interface {
	Summary(ctx context.Context, tmdbID int64, tvdbID *int64, known []int) (*seasons.Summary, error)
}

// Metadata fetches TMDB details.
type Metadata interface {
	GetMovie(ctx context.Context, tmdbID int64) (*tmdb.Movie, error)
	GetTV(ctx context.Context, tmdbID int64) (*tmdb.TV, error)
}

// ServiceResolver answers questions about Radarr and Sonarr.
type ServiceResolver interface {
	Find(ctx context.Context, q resolver.Query, maxAge time.Duration) resolver.Lookup
	QualityProfiles(ctx context.Context, service string) ([]arr.QualityProfile, error)
	Configured(service string) bool
}

// EndpointStore persists notification endpoints.
type EndpointStore interface {
	Add(ctx context.Context, e *notify.Endpoint) error
	List(ctx context.Context, userID string) ([]notify.Endpoint, error)
	Get(ctx context.Context, id int64) (*notify.Endpoint, error)
	Delete(ctx context.Context, id int64) error
}

// JellyfinStore records episodes reported by Jellyfin.
type JellyfinStore interface {
	Record(ctx context.Context, ep jellyfin.Episode) error
	RemoveItem(ctx context.Context, itemID string) (bool, error)
}

// Reconciler marks requests available when media arrives.
type Reconciler interface {
	ReconcileMedia(ctx context.Context, t request.Type, tmdbID int64) (int, error)
	MovieInLibrary(ctx context.Context, tmdbID int64) (bool, error)
}

// EventLog reads the persisted lifecycle events.
type EventLog interface {
	ForRequest(ctx context.Context, requestID string) ([]events.RawEvent, error)
	Recent(ctx context.Context, limit int) ([]events.RawEvent, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Lifecycle Lifecycle
	Requests  RequestStore
	Rules     RuleStore
	Seasons   SeasonSummarizer
	Metadata  Metadata
	Resolver  ServiceResolver

	// Optional dependencies (nil if not configured)
	Endpoints  EndpointStore
	Jellyfin   JellyfinStore
	Reconciler Reconciler
	EventLog   EventLog
	Metrics    http.Handler
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	switch {
	case d.Lifecycle == nil:
		return errors.New("lifecycle manager is required")
	case d.Requests == nil:
		return errors.New("request store is required")
	case d.Rules == nil:
		return errors.New("rule store is required")
	case d.Seasons == nil:
		return errors.New("season aggregator is required")
	case d.Metadata == nil:
		return errors.New("metadata client is required")
	case d.Resolver == nil:
		return errors.New("resolver is required")
	}
	return nil
}
