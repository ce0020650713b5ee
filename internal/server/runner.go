// Package server runs the daemon's long-lived components under one context.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pruner deletes persisted events older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config for the runner.
type Config struct {
	EventRetention time.Duration // zero disables pruning
	PruneInterval  time.Duration
}

// DefaultPruneInterval is used when Config.PruneInterval is unset.
const DefaultPruneInterval = time.Hour

type component struct {
	name string
	run  func(ctx context.Context) error
}

// Runner manages the background components: the notification dispatcher,
// the reconciler, event pruning and the HTTP server.
type Runner struct {
	config     Config
	pruner     Pruner
	components []component
	logger     *slog.Logger
}

// NewRunner creates a new runner. pruner may be nil.
func NewRunner(cfg Config, pruner Pruner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = DefaultPruneInterval
	}
	return &Runner{
		config: cfg,
		pruner: pruner,
		logger: logger.With("component", "runner"),
	}
}

// Add registers a component. run must return once ctx is done.
func (r *Runner) Add(name string, run func(ctx context.Context) error) {
	r.components = append(r.components, component{name: name, run: run})
}

// Run starts all components.
// It blocks until the context is canceled or a component fails; either way
// the others are stopped before it returns.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, c := range r.components {
		g.Go(func() error {
			r.logger.Debug("component started", "name", c.name)
			err := c.run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("component failed", "name", c.name, "error", err)
				return fmt.Errorf("%s: %w", c.name, err)
			}
			r.logger.Debug("component stopped", "name", c.name)
			return err
		})
	}

	if r.pruner != nil && r.config.EventRetention > 0 {
		g.Go(func() error {
			return r.prune(ctx)
		})
	}

	// Keep Run blocking even with nothing registered.
	g.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})

	return g.Wait()
}

func (r *Runner) prune(ctx context.Context) error {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	for {
		n, err := r.pruner.Prune(ctx, r.config.EventRetention)
		switch {
		case err != nil:
			r.logger.Warn("event prune failed", "error", err)
		case n > 0:
			r.logger.Info("events pruned", "count", n, "retention", r.config.EventRetention)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ServeHTTP returns a component that serves srv until ctx is done, then
// shuts it down gracefully within timeout.
func ServeHTTP(srv *http.Server, timeout time.Duration, logger *slog.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		logger.Info("http server listening", "addr", srv.Addr)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("http server stopped")
		return ctx.Err()
	}
}
