package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/seasons"
)

// SeasonAvailability judges whether a series' requested seasons all have files.
type SeasonAvailability interface {
	AllAvailable(ctx context.Context, tmdbID int64, tvdbID *int64, seasons []int) (bool, seasons.Availability, error)
}

// Reconciler moves open requests to available once their media has files.
type Reconciler struct {
	manager  *Manager
	seasons  SeasonAvailability
	interval time.Duration
	log      *slog.Logger
}

// NewReconciler creates a reconciler that polls every interval.
func NewReconciler(manager *Manager, seasons SeasonAvailability, interval time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		manager:  manager,
		seasons:  seasons,
		interval: interval,
		log:      logger.With("component", "reconciler"),
	}
}

var openStates = []request.State{request.StatePending, request.StateSubmitted, request.StateFailed}

// Run reconciles immediately and then on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.log.Info("reconciler started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.ReconcileOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("reconcile failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReconcileOnce checks every open request and returns how many became available.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	open, _, err := r.manager.deps.Requests.List(ctx, request.Filter{Statuses: openStates})
	if err != nil {
		return 0, fmt.Errorf("list open requests: %w", err)
	}
	return r.reconcile(ctx, open), nil
}

// ReconcileMedia checks the open requests for one title, after dropping any
// cached lookup for it.
func (r *Reconciler) ReconcileMedia(ctx context.Context, t request.Type, tmdbID int64) (int, error) {
	open, _, err := r.manager.deps.Requests.List(ctx, request.Filter{Statuses: openStates, Type: &t, TMDBID: &tmdbID})
	if err != nil {
		return 0, fmt.Errorf("list open requests: %w", err)
	}
	for _, req := range open {
		r.manager.deps.Resolver.Invalidate(t, tmdbID, req.TVDBID)
	}
	return r.reconcile(ctx, open), nil
}

func (r *Reconciler) reconcile(ctx context.Context, open []*request.Request) int {
	marked := 0
	for _, req := range open {
		if ctx.Err() != nil {
			break
		}
		ok, err := r.isAvailable(ctx, req)
		if err != nil {
			r.log.Warn("availability check failed", "request_id", req.ID, "tmdb_id", req.TMDBID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if _, err := r.manager.MarkAvailable(ctx, req.ID); err != nil {
			r.log.Warn("mark available failed", "request_id", req.ID, "error", err)
			continue
		}
		marked++
	}
	if marked > 0 {
		r.log.Info("requests now available", "count", marked)
	}
	return marked
}

func (r *Reconciler) isAvailable(ctx context.Context, req *request.Request) (bool, error) {
	if req.Type == request.TypeMovie {
		l := r.manager.deps.Resolver.Find(ctx, resolver.Query{Type: req.Type, TMDBID: req.TMDBID, Title: req.Title, Year: req.ReleaseYear}, -1)
		switch l.Status {
		case resolver.StatusFound:
			return l.Ref.HasFile, nil
		case resolver.StatusUnavailable:
			return false, errors.New(l.Err)
		}
		return false, nil
	}

	if r.seasons == nil {
		return false, nil
	}
	ok, av, err := r.seasons.AllAvailable(ctx, req.TMDBID, req.TVDBID, req.Seasons())
	if err != nil {
		return false, err
	}
	if !ok && av.Warning != "" {
		return false, errors.New(av.Warning)
	}
	return ok, nil
}

// MovieInLibrary marks the open request for a movie available because the
// media server reported it. Returns false if no open request exists.
func (r *Reconciler) MovieInLibrary(ctx context.Context, tmdbID int64) (bool, error) {
	req, err := r.manager.deps.Requests.FindActive(ctx, request.TypeMovie, tmdbID, nil)
	if err != nil {
		return false, err
	}
	if req == nil || req.Status == request.StateAvailable {
		return false, nil
	}
	if _, err := r.manager.MarkAvailable(ctx, req.ID); err != nil {
		return false, err
	}
	r.manager.deps.Resolver.Invalidate(request.TypeMovie, tmdbID, nil)
	return true, nil
}
