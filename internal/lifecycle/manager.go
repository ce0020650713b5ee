// Package lifecycle creates media requests and moves them through their
// states: deduplication, auto-approval, submission to Radarr or Sonarr,
// admin decisions and availability.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/reqarr/internal/clock"
	"github.com/vmunix/reqarr/internal/events"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/rules"
	"github.com/vmunix/reqarr/internal/tmdb"
)

// Outcome is the result of a creation call. It is separate from the request
// state: a conflict creates nothing.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeConflict Outcome = "conflict"
	OutcomeFailed   Outcome = "failed"
)

// Reason qualifies a conflict.
type Reason string

const (
	ReasonAlreadyRequested Reason = "already_requested"
	ReasonAlreadyExists    Reason = "already_exists"
)

// Store is the request persistence the manager needs.
type Store interface {
	Create(ctx context.Context, r *request.Request) error
	Get(ctx context.Context, id string) (*request.Request, error)
	List(ctx context.Context, f request.Filter) ([]*request.Request, int, error)
	FindActive(ctx context.Context, t request.Type, tmdbID int64, season *int) (*request.Request, error)
	ActiveSeasons(ctx context.Context, tmdbID int64) (map[int]string, error)
	CountApproved(ctx context.Context, userID string) (int, error)
	Transition(ctx context.Context, id string, to request.State, fn func(r *request.Request)) (*request.Request, request.State, error)
}

// Metadata is the TMDB client.
type Metadata interface {
	GetMovie(ctx context.Context, tmdbID int64) (*tmdb.Movie, error)
	GetTV(ctx context.Context, tmdbID int64) (*tmdb.TV, error)
	GetTVSeason(ctx context.Context, tmdbID int64, season int) (*tmdb.Season, error)
	GetCollection(ctx context.Context, collectionID int64) (*tmdb.Collection, error)
}

// Resolver finds and submits titles in Radarr and Sonarr.
type Resolver interface {
	Find(ctx context.Context, q resolver.Query, maxAge time.Duration) resolver.Lookup
	Ensure(ctx context.Context, spec resolver.SubmitSpec) (*resolver.ExternalRef, error)
	Invalidate(t request.Type, tmdbID int64, tvdbID *int64)
}

// Approver decides auto-approval.
type Approver interface {
	Evaluate(ctx context.Context, ec rules.EvalContext) (rules.Decision, error)
}

// Endpoints counts a user's notification endpoints.
type Endpoints interface {
	Count(ctx context.Context, userID string) (int, error)
}

// Library reports seasons already seen in the media server's library.
type Library interface {
	AvailableSeasons(ctx context.Context, tmdbID int64) ([]int, error)
}

// Publisher receives lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Recorder receives metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	RequestOutcome(outcome, reason string)
	RuleMatched(ruleType string)
	Transition(from, to string)
	UpstreamError(service string)
	ObserveCreate(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RequestOutcome(string, string) {}
func (nopRecorder) RuleMatched(string)            {}
func (nopRecorder) Transition(string, string)     {}
func (nopRecorder) UpstreamError(string)          {}
func (nopRecorder) ObserveCreate(time.Duration)   {}

// Deps are the manager's collaborators. Endpoints, Library, Bus and Metrics
// are optional.
type Deps struct {
	Requests  Store
	Metadata  Metadata
	Resolver  Resolver
	Rules     Approver
	Endpoints Endpoints
	Library   Library
	Bus       Publisher
	Metrics   Recorder
}

// Validate checks that all required dependencies are provided.
func (d Deps) Validate() error {
	switch {
	case d.Requests == nil:
		return errors.New("request store is required")
	case d.Metadata == nil:
		return errors.New("metadata client is required")
	case d.Resolver == nil:
		return errors.New("resolver is required")
	case d.Rules == nil:
		return errors.New("rule engine is required")
	}
	return nil
}

// Defaults for Config.
const (
	DefaultBulkMaxItems           = 50
	DefaultBulkConcurrency        = 5
	DefaultItemTimeout            = 5 * time.Second
	DefaultCollectionStatusMaxAge = time.Minute
	DefaultCertificationRegion    = "US"
)

// Config tunes the manager.
type Config struct {
	RequireNotifications   bool
	BulkMaxItems           int
	BulkConcurrency        int
	ItemTimeout            time.Duration
	CollectionStatusMaxAge time.Duration
	CertificationRegion    string
}

func (c *Config) applyDefaults() {
	if c.BulkMaxItems <= 0 {
		c.BulkMaxItems = DefaultBulkMaxItems
	}
	if c.BulkConcurrency <= 0 {
		c.BulkConcurrency = DefaultBulkConcurrency
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = DefaultItemTimeout
	}
	if c.CollectionStatusMaxAge == 0 {
		c.CollectionStatusMaxAge = DefaultCollectionStatusMaxAge
	}
	if c.CertificationRegion == "" {
		c.CertificationRegion = DefaultCertificationRegion
	}
}

// Manager runs the request lifecycle.
type Manager struct {
	deps  Deps
	cfg   Config
	clock clock.Clock
	log   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for rule evaluation and timing.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.log = logger
		}
	}
}

// New creates a Manager.
func New(deps Deps, cfg Config, opts ...Option) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	cfg.applyDefaults()
	m := &Manager{deps: deps, cfg: cfg, clock: clock.Real{}, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "lifecycle")
	return m, nil
}

// ParseMediaType maps the API's media type names to request types.
func ParseMediaType(s string) (request.Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return request.TypeMovie, nil
	case "tv", "episode", "series":
		return request.TypeEpisode, nil
	}
	return "", invalid(CodeUnsupportedMediaType, "media type %q is not supported", s)
}

// CreateInput is a user's request for a movie or seasons of a series.
type CreateInput struct {
	UserID           string
	MediaType        request.Type
	TMDBID           int64
	Seasons          []int // TV only; empty means every regular season
	QualityProfileID *int64

	// force skips the already-in-library check. Set by collection requests.
	force bool
}

// CreateResult reports what Create did.
type CreateResult struct {
	Outcome  Outcome          `json:"outcome"`
	Reason   Reason           `json:"reason,omitempty"`
	Request  *request.Request `json:"-"`
	Decision rules.Decision   `json:"-"`
	Seasons  []int            `json:"seasons,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (in *CreateInput) validate() error {
	switch {
	case strings.TrimSpace(in.UserID) == "":
		return invalid(CodeMissingUser, "requester id is required")
	case !in.MediaType.Valid():
		return invalid(CodeUnsupportedMediaType, "media type %q is not supported", in.MediaType)
	case in.TMDBID <= 0:
		return invalid(CodeInvalidTMDBID, "tmdb id must be a positive integer, got %d", in.TMDBID)
	case in.MediaType == request.TypeMovie && len(in.Seasons) > 0:
		return invalid(CodeInvalidSeason, "movies have no seasons")
	}
	for _, s := range in.Seasons {
		if s < 1 {
			return invalid(CodeInvalidSeason, "season numbers start at 1, got %d", s)
		}
	}
	return nil
}

// checkNotifications enforces the notification-endpoint precondition.
func (m *Manager) checkNotifications(ctx context.Context, userID string) error {
	if !m.cfg.RequireNotifications || m.deps.Endpoints == nil {
		return nil
	}
	n, err := m.deps.Endpoints.Count(ctx, userID)
	if err != nil {
		return fmt.Errorf("count notification endpoints: %w", err)
	}
	if n == 0 {
		return ErrNotificationsRequired
	}
	return nil
}

// media is the TMDB metadata a request needs.
type media struct {
	title        string
	year         int
	posterPath   string
	backdropPath string
	tvdbID       *int64
	seasons      []int // regular seasons, TV only
	facts        rules.MediaFacts
}

func (m *Manager) fetchMedia(ctx context.Context, t request.Type, tmdbID int64) (*media, error) {
	region := m.cfg.CertificationRegion
	if t == request.TypeMovie {
		mv, err := m.deps.Metadata.GetMovie(ctx, tmdbID)
		if err != nil {
			return nil, m.metadataError(tmdbID, err)
		}
		return &media{
			title:        mv.Title,
			year:         mv.Year(),
			posterPath:   mv.PosterPath,
			backdropPath: mv.BackdropPath,
			facts: rules.MediaFacts{
				Genres:        mv.GenreIDs(),
				VoteAverage:   mv.VoteAverage,
				Popularity:    mv.Popularity,
				Certification: mv.Certification(region),
			},
		}, nil
	}

	tv, err := m.deps.Metadata.GetTV(ctx, tmdbID)
	if err != nil {
		return nil, m.metadataError(tmdbID, err)
	}
	return &media{
		title:        tv.Name,
		year:         tv.Year(),
		posterPath:   tv.PosterPath,
		backdropPath: tv.BackdropPath,
		tvdbID:       tv.TVDBID(),
		seasons:      tv.RegularSeasons(),
		facts: rules.MediaFacts{
			Genres:        tv.GenreIDs(),
			VoteAverage:   tv.VoteAverage,
			Popularity:    tv.Popularity,
			Certification: tv.Certification(region),
		},
	}, nil
}

func (m *Manager) metadataError(tmdbID int64, err error) error {
	if errors.Is(err, tmdb.ErrNotFound) {
		return invalid(CodeInvalidTMDBID, "tmdb id %d not found", tmdbID)
	}
	m.deps.Metrics.UpstreamError("tmdb")
	return fmt.Errorf("%w: tmdb: %w", ErrUpstream, err)
}

// Create runs a new request through validation, the notification gate,
// deduplication, metadata, the library check, approval rules and
// persistence, then submits it if a rule auto-approved it. The steps run in
// that order.
//
// Conflicts are reported in the result, not as errors. A submission failure
// leaves the request in the failed state and reports OutcomeFailed.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	start := m.clock.Now()
	res, err := m.create(ctx, in)
	m.deps.Metrics.ObserveCreate(m.clock.Now().Sub(start))
	switch {
	case err != nil:
		m.deps.Metrics.RequestOutcome(string(OutcomeFailed), "error")
	default:
		m.deps.Metrics.RequestOutcome(string(res.Outcome), string(res.Reason))
	}
	return res, err
}

func (m *Manager) create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := m.checkNotifications(ctx, in.UserID); err != nil {
		return nil, err
	}

	// Fast-path dedup. The unique indexes remain authoritative at insert.
	var active map[int]string
	if in.MediaType == request.TypeMovie {
		existing, err := m.deps.Requests.FindActive(ctx, request.TypeMovie, in.TMDBID, nil)
		if err != nil {
			return nil, fmt.Errorf("check active requests: %w", err)
		}
		if existing != nil {
			return conflict(ReasonAlreadyRequested, existing), nil
		}
	} else {
		var err error
		if active, err = m.deps.Requests.ActiveSeasons(ctx, in.TMDBID); err != nil {
			return nil, fmt.Errorf("check active seasons: %w", err)
		}
		if len(in.Seasons) > 0 {
			if remaining := withoutSeasons(in.Seasons, active); len(remaining) == 0 {
				return m.seasonConflict(ctx, in.Seasons, active)
			}
		}
	}

	md, err := m.fetchMedia(ctx, in.MediaType, in.TMDBID)
	if err != nil {
		return nil, err
	}

	var seasons []int
	if in.MediaType == request.TypeEpisode {
		wanted := in.Seasons
		if len(wanted) == 0 {
			if len(md.seasons) == 0 {
				return nil, invalid(CodeInvalidSeason, "%s has no regular seasons", md.title)
			}
			wanted = md.seasons
		} else if len(md.seasons) > 0 {
			last := slices.Max(md.seasons)
			for _, s := range wanted {
				if s > last {
					return nil, invalid(CodeInvalidSeason, "%s has no season %d", md.title, s)
				}
			}
		}
		seasons = withoutSeasons(wanted, active)
		if len(seasons) == 0 {
			return m.seasonConflict(ctx, wanted, active)
		}
	}

	if !in.force {
		lookup := m.deps.Resolver.Find(ctx, resolver.Query{
			Type: in.MediaType, TMDBID: in.TMDBID, TVDBID: md.tvdbID, Title: md.title, Year: md.year,
		}, 0)
		switch lookup.Status {
		case resolver.StatusFound:
			if in.MediaType == request.TypeMovie {
				if lookup.Ref.HasFile {
					return &CreateResult{Outcome: OutcomeConflict, Reason: ReasonAlreadyExists}, nil
				}
			} else {
				seasons = withoutAvailable(seasons, lookup.Ref.Seasons)
				if len(seasons) == 0 {
					return &CreateResult{Outcome: OutcomeConflict, Reason: ReasonAlreadyExists}, nil
				}
			}
		case resolver.StatusUnavailable:
			// Unknown availability is not "missing"; carry on and let submission decide.
			m.log.Warn("library check unavailable", "tmdb_id", in.TMDBID, "type", in.MediaType, "error", lookup.Err)
		}
		if in.MediaType == request.TypeEpisode && m.deps.Library != nil {
			have, err := m.deps.Library.AvailableSeasons(ctx, in.TMDBID)
			if err != nil {
				m.log.Warn("library cache read failed", "tmdb_id", in.TMDBID, "error", err)
			}
			seasons = slices.DeleteFunc(seasons, func(s int) bool { return slices.Contains(have, s) })
			if len(seasons) == 0 {
				return &CreateResult{Outcome: OutcomeConflict, Reason: ReasonAlreadyExists}, nil
			}
		}
	}

	approved, err := m.deps.Requests.CountApproved(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("count approved requests: %w", err)
	}
	decision, err := m.deps.Rules.Evaluate(ctx, rules.EvalContext{
		UserID:           in.UserID,
		ApprovedRequests: approved,
		Media:            md.facts,
		Now:              m.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate approval rules: %w", err)
	}

	r := &request.Request{
		Type:             in.MediaType,
		TMDBID:           in.TMDBID,
		TVDBID:           md.tvdbID,
		Title:            md.title,
		PosterPath:       md.posterPath,
		BackdropPath:     md.backdropPath,
		ReleaseYear:      md.year,
		Status:           request.StatePending,
		RequestedBy:      in.UserID,
		AutoApproved:     decision.AutoApproved,
		QualityProfileID: in.QualityProfileID,
	}
	if decision.MatchedRule != nil {
		id := decision.MatchedRule.ID
		r.ApprovalRuleID = &id
	}
	for _, s := range seasons {
		r.Items = append(r.Items, request.Item{Season: s})
	}

	for {
		err := m.deps.Requests.Create(ctx, r)
		if err == nil {
			break
		}
		if !errors.Is(err, request.ErrDuplicate) {
			return nil, fmt.Errorf("persist request: %w", err)
		}
		// Lost the race to a concurrent request for the same media.
		m.log.Info("concurrent duplicate request", "tmdb_id", in.TMDBID, "user_id", in.UserID)
		if in.MediaType == request.TypeMovie {
			winner, ferr := m.deps.Requests.FindActive(ctx, in.MediaType, in.TMDBID, nil)
			if ferr != nil {
				return nil, fmt.Errorf("load conflicting request: %w", ferr)
			}
			return conflict(ReasonAlreadyRequested, winner), nil
		}
		taken, ferr := m.takenSeasons(ctx, in.TMDBID, seasons)
		if ferr != nil {
			return nil, ferr
		}
		if len(taken) == 0 {
			return nil, fmt.Errorf("persist request: %w", err)
		}
		remaining := withoutSeasons(seasons, taken)
		if len(remaining) == 0 {
			return m.seasonConflict(ctx, seasons, taken)
		}
		seasons = remaining
		r.Items = r.Items[:0]
		for _, s := range seasons {
			r.Items = append(r.Items, request.Item{Season: s})
		}
	}

	m.log.Info("request created", "request_id", r.ID, "tmdb_id", r.TMDBID, "type", r.Type,
		"user_id", r.RequestedBy, "auto_approved", decision.AutoApproved)
	m.publish(ctx, &events.RequestCreated{
		BaseEvent:      m.baseEvent(events.EventRequestCreated, r),
		RequestInfo:    info(r, "", request.StatePending),
		AutoApproved:   decision.AutoApproved,
		ApprovalRuleID: r.ApprovalRuleID,
	})

	res := &CreateResult{Outcome: OutcomeCreated, Request: r, Decision: decision, Seasons: seasons}
	if !decision.AutoApproved {
		return res, nil
	}

	m.deps.Metrics.RuleMatched(string(decision.MatchedRule.Type()))
	submitted, err := m.submit(ctx, r, "rule:"+strconv.FormatInt(decision.MatchedRule.ID, 10), false)
	if submitted != nil {
		res.Request = submitted
	}
	if err != nil {
		if !errors.Is(err, ErrUpstream) {
			return nil, err
		}
		res.Outcome = OutcomeFailed
		res.Error = res.Request.LastError
	}
	return res, nil
}

func conflict(reason Reason, existing *request.Request) *CreateResult {
	res := &CreateResult{Outcome: OutcomeConflict, Reason: reason, Request: existing}
	if existing != nil {
		res.Seasons = existing.Seasons()
	}
	return res
}

// takenSeasons looks up which of seasons are now held by an active request,
// keyed by season.
func (m *Manager) takenSeasons(ctx context.Context, tmdbID int64, seasons []int) (map[int]string, error) {
	taken := make(map[int]string)
	for _, s := range seasons {
		holder, err := m.deps.Requests.FindActive(ctx, request.TypeEpisode, tmdbID, &s)
		if err != nil {
			return nil, fmt.Errorf("load conflicting request: %w", err)
		}
		if holder != nil {
			taken[s] = holder.ID
		}
	}
	return taken, nil
}

// seasonConflict reports the request holding the first already-active season.
func (m *Manager) seasonConflict(ctx context.Context, seasons []int, active map[int]string) (*CreateResult, error) {
	res := &CreateResult{Outcome: OutcomeConflict, Reason: ReasonAlreadyRequested, Seasons: seasons}
	for _, s := range seasons {
		if id, ok := active[s]; ok {
			existing, err := m.deps.Requests.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load conflicting request: %w", err)
			}
			res.Request = existing
			break
		}
	}
	return res, nil
}

// withoutSeasons returns the sorted, deduplicated seasons not in active.
func withoutSeasons(seasons []int, active map[int]string) []int {
	out := make([]int, 0, len(seasons))
	for _, s := range seasons {
		if _, taken := active[s]; !taken && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// withoutAvailable drops seasons that already have files.
func withoutAvailable(seasons []int, stats []resolver.SeasonStats) []int {
	out := seasons[:0:0]
	for _, s := range seasons {
		have := slices.ContainsFunc(stats, func(st resolver.SeasonStats) bool {
			return st.Number == s && st.HasFiles()
		})
		if !have {
			out = append(out, s)
		}
	}
	return out
}

// submit hands a pending request to Radarr or Sonarr and records the result.
// On failure the request moves to failed with the error kept in LastError,
// and the returned error wraps ErrUpstream.
func (m *Manager) submit(ctx context.Context, r *request.Request, actor string, manual bool) (*request.Request, error) {
	ref, err := m.deps.Resolver.Ensure(ctx, resolver.SubmitSpec{
		Type:             r.Type,
		TMDBID:           r.TMDBID,
		TVDBID:           r.TVDBID,
		Title:            r.Title,
		Year:             r.ReleaseYear,
		QualityProfileID: r.QualityProfileID,
		Seasons:          r.Seasons(),
	})

	// Record the outcome even if the caller's deadline expired during submission.
	wctx := context.WithoutCancel(ctx)

	if err != nil {
		m.deps.Metrics.UpstreamError(resolver.ServiceFor(r.Type))
		msg := err.Error()
		failed, from, terr := m.deps.Requests.Transition(wctx, r.ID, request.StateFailed, func(fr *request.Request) {
			fr.LastError = msg
			if manual {
				fr.DecidedBy = &actor
			}
		})
		if terr != nil {
			return nil, fmt.Errorf("record submission failure: %w", terr)
		}
		m.transitioned(from, failed.Status)
		m.log.Warn("submission failed", "request_id", r.ID, "tmdb_id", r.TMDBID, "error", err)
		m.publish(wctx, &events.RequestFailed{
			BaseEvent:   m.baseEvent(events.EventRequestFailed, failed),
			RequestInfo: info(failed, from, failed.Status),
			Error:       msg,
		})
		return failed, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}

	submitted, from, err := m.deps.Requests.Transition(wctx, r.ID, request.StateSubmitted, func(sr *request.Request) {
		id := ref.ExternalID
		sr.ExternalID = &id
		sr.LastError = ""
		if manual {
			sr.DecidedBy = &actor
		}
	})
	if err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}
	m.transitioned(from, submitted.Status)
	m.log.Info("request submitted", "request_id", r.ID, "tmdb_id", r.TMDBID,
		"service", ref.Service, "external_id", ref.ExternalID, "approved_by", actor)
	m.publish(wctx, &events.RequestApproved{
		BaseEvent:   m.baseEvent(events.EventRequestApproved, submitted),
		RequestInfo: info(submitted, from, submitted.Status),
		ApprovedBy:  actor,
		ExternalID:  submitted.ExternalID,
	})
	return submitted, nil
}

// Approve submits a pending request on an admin's behalf. If submission
// fails the request is returned in the failed state together with an error
// wrapping ErrUpstream.
func (m *Manager) Approve(ctx context.Context, id, adminID string) (*request.Request, error) {
	r, err := m.deps.Requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != request.StatePending {
		return nil, fmt.Errorf("approve %s request: %w", r.Status, request.ErrInvalidTransition)
	}
	return m.submit(ctx, r, adminID, true)
}

// Deny rejects a pending request. The reason travels with the event only.
func (m *Manager) Deny(ctx context.Context, id, adminID, reason string) (*request.Request, error) {
	r, from, err := m.deps.Requests.Transition(ctx, id, request.StateDenied, func(r *request.Request) {
		r.DecidedBy = &adminID
	})
	if err != nil {
		return nil, err
	}
	m.transitioned(from, r.Status)
	m.log.Info("request denied", "request_id", id, "admin", adminID)
	m.publish(ctx, &events.RequestDenied{
		BaseEvent:   m.baseEvent(events.EventRequestDenied, r),
		RequestInfo: info(r, from, r.Status),
		DeniedBy:    adminID,
		Reason:      reason,
	})
	return r, nil
}

// Retry moves a failed request back to pending and submits it again,
// reusing the same row.
func (m *Manager) Retry(ctx context.Context, id, adminID string) (*request.Request, error) {
	r, from, err := m.deps.Requests.Transition(ctx, id, request.StatePending, func(r *request.Request) {
		r.DecidedBy = &adminID
	})
	if err != nil {
		return nil, err
	}
	m.transitioned(from, r.Status)
	m.log.Info("request retried", "request_id", id, "admin", adminID)
	m.publish(ctx, &events.RequestRetried{
		BaseEvent:   m.baseEvent(events.EventRequestRetried, r),
		RequestInfo: info(r, from, r.Status),
		RetriedBy:   adminID,
	})
	return m.submit(ctx, r, adminID, true)
}

// Remove withdraws a request. Only the requester or an admin may remove it.
func (m *Manager) Remove(ctx context.Context, id, actor string, admin bool) (*request.Request, error) {
	if !admin {
		r, err := m.deps.Requests.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if r.RequestedBy != actor {
			return nil, fmt.Errorf("remove request %s: %w", id, ErrForbidden)
		}
	}

	r, from, err := m.deps.Requests.Transition(ctx, id, request.StateRemoved, nil)
	if err != nil {
		return nil, err
	}
	m.transitioned(from, r.Status)
	m.log.Info("request removed", "request_id", id, "actor", actor)
	m.publish(ctx, &events.RequestRemoved{
		BaseEvent:   m.baseEvent(events.EventRequestRemoved, r),
		RequestInfo: info(r, from, r.Status),
		RemovedBy:   actor,
	})
	return r, nil
}

// MarkAvailable records that the media has files. Already-available requests
// are returned unchanged.
func (m *Manager) MarkAvailable(ctx context.Context, id string) (*request.Request, error) {
	r, from, err := m.deps.Requests.Transition(ctx, id, request.StateAvailable, func(r *request.Request) {
		r.LastError = ""
	})
	if errors.Is(err, request.ErrInvalidTransition) && from == request.StateAvailable {
		return m.deps.Requests.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	m.transitioned(from, r.Status)
	m.log.Info("request available", "request_id", id, "tmdb_id", r.TMDBID)
	m.publish(ctx, &events.RequestAvailable{
		BaseEvent:   m.baseEvent(events.EventRequestAvailable, r),
		RequestInfo: info(r, from, r.Status),
	})
	return r, nil
}

func (m *Manager) transitioned(from, to request.State) {
	m.deps.Metrics.Transition(string(from), string(to))
}

func (m *Manager) baseEvent(eventType string, r *request.Request) events.BaseEvent {
	e := events.NewBaseEvent(eventType, events.EntityRequest, r.TMDBID)
	e.Timestamp = m.clock.Now()
	return e
}

func (m *Manager) publish(ctx context.Context, e events.Event) {
	if m.deps.Bus == nil {
		return
	}
	if err := m.deps.Bus.Publish(ctx, e); err != nil {
		m.log.Error("publish event failed", "type", e.EventType(), "error", err)
	}
}

func info(r *request.Request, from, to request.State) events.RequestInfo {
	return events.RequestInfo{
		RequestID:   r.ID,
		MediaType:   string(r.Type),
		Title:       r.Title,
		RequestedBy: r.RequestedBy,
		Seasons:     r.Seasons(),
		From:        string(from),
		To:          string(to),
	}
}
