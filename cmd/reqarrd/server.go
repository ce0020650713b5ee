package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	v1 "github.com/vmunix/reqarr/internal/api/v1"
	"github.com/vmunix/reqarr/internal/arr"
	"github.com/vmunix/reqarr/internal/config"
	"github.com/vmunix/reqarr/internal/database"
	"github.com/vmunix/reqarr/internal/events"
	"github.com/vmunix/reqarr/internal/jellyfin"
	"github.com/vmunix/reqarr/internal/lifecycle"
	"github.com/vmunix/reqarr/internal/metrics"
	"github.com/vmunix/reqarr/internal/notify"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/rules"
	"github.com/vmunix/reqarr/internal/seasons"
	"github.com/vmunix/reqarr/internal/server"
	"github.com/vmunix/reqarr/internal/tmdb"
)

const shutdownTimeout = 30 * time.Second

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	loc, err := cfg.Requests.Location()
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	// Open database (runs migrations)
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m := metrics.New()

	// === Stores ===
	requestStore := request.NewStore(db)
	ruleStore := rules.NewStore(db, logger)
	endpointStore := notify.NewEndpointStore(db)
	jellyfinStore := jellyfin.NewStore(db, logger)
	eventLog := events.NewEventLog(db)

	bus := events.NewBus(eventLog, logger)
	defer func() { _ = bus.Close() }()

	// === Clients (nil if not configured) ===
	metadata := tmdb.NewClient(cfg.TMDB.APIKey, tmdb.WithCacheTTL(cfg.TMDB.CacheTTL.Duration))

	breakerOpts := []arr.Option{
		arr.WithBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.Timeout.Duration),
		arr.WithBreakerListener(m.BreakerChanged),
	}
	var (
		radarr   resolver.RadarrAPI
		sonarr   resolver.SonarrAPI
		defaults resolver.Config
	)
	if rc := cfg.Radarr; rc != nil {
		radarr = arr.NewRadarr(rc.URL, rc.APIKey, logger, append(breakerOpts, arr.WithTimeout(rc.Timeout.Duration))...)
		defaults.Radarr = resolver.RadarrDefaults{
			RootFolder:          rc.RootFolder,
			QualityProfileID:    rc.QualityProfileID,
			MinimumAvailability: rc.MinimumAvailability,
		}
	}
	if sc := cfg.Sonarr; sc != nil {
		sonarr = arr.NewSonarr(sc.URL, sc.APIKey, logger, append(breakerOpts, arr.WithTimeout(sc.Timeout.Duration))...)
		defaults.Sonarr = resolver.SonarrDefaults{
			RootFolder:       sc.RootFolder,
			QualityProfileID: sc.QualityProfileID,
			SeasonFolder:     sc.SeasonFolder,
		}
	}
	defaults.CacheTTL = cfg.Cache.TTL.Duration
	defaults.CacheSize = cfg.Cache.Size

	res := resolver.New(radarr, sonarr, defaults,
		resolver.WithLogger(logger),
		resolver.WithUpstreamErrorHook(m.UpstreamError),
	)

	// === Services ===
	engine := rules.NewEngine(ruleStore, rules.WithLocation(loc), rules.WithLogger(logger))
	aggregator := seasons.NewAggregator(requestStore, res, jellyfinStore, logger)

	manager, err := lifecycle.New(lifecycle.Deps{
		Requests:  requestStore,
		Metadata:  metadata,
		Resolver:  res,
		Rules:     engine,
		Endpoints: endpointStore,
		Library:   jellyfinStore,
		Bus:       bus,
		Metrics:   m,
	}, lifecycle.Config{
		RequireNotifications:   cfg.Requests.RequireNotifications,
		BulkMaxItems:           cfg.Requests.BulkMaxItems,
		BulkConcurrency:        cfg.Requests.BulkConcurrency,
		ItemTimeout:            cfg.Requests.ItemTimeout.Duration,
		CollectionStatusMaxAge: cfg.Requests.CollectionStatusMaxAge.Duration,
		CertificationRegion:    cfg.TMDB.Region,
	}, lifecycle.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	reconciler := lifecycle.NewReconciler(manager, aggregator, cfg.Reconcile.Interval.Duration, logger)

	sender := notify.NewWebhookSender(cfg.Notifications.WebhookTimeout.Duration, notify.NewLogSender(logger))
	dispatcher := notify.NewDispatcher(bus, endpointStore, sender, cfg.Notifications.Admins, logger)

	// === HTTP Setup ===
	deps := v1.ServerDeps{
		Lifecycle:  manager,
		Requests:   requestStore,
		Rules:      ruleStore,
		Seasons:    aggregator,
		Metadata:   metadata,
		Resolver:   res,
		Endpoints:  endpointStore,
		Jellyfin:   jellyfinStore,
		Reconciler: reconciler,
		EventLog:   eventLog,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = m.Handler()
	}
	api, err := v1.New(deps, v1.Config{
		APIKey:       cfg.Server.APIKey,
		AdminAPIKey:  cfg.Server.AdminAPIKey,
		WebhookToken: cfg.Jellyfin.WebhookToken,
		MetricsPath:  cfg.Metrics.Path,
		Version:      version,
	}, logger)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           v1.LogRequests(api.Handler(), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// === Background components ===
	runner := server.NewRunner(server.Config{EventRetention: cfg.Events.Retention.Duration}, eventLog, logger)
	runner.Add("dispatcher", dispatcher.Run)
	if cfg.Reconcile.Enabled {
		runner.Add("reconciler", reconciler.Run)
	}
	runner.Add("http", server.ServeHTTP(srv, shutdownTimeout, logger))

	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"radarr", radarr != nil,
		"sonarr", sonarr != nil,
		"reconcile", cfg.Reconcile.Enabled,
		"metrics", cfg.Metrics.Enabled,
		"log_level", cfg.Server.LogLevel,
	)

	// Stop on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
