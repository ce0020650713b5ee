// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vmunix/reqarr/internal/lifecycle"
	"github.com/vmunix/reqarr/internal/notify"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/rules"
)

// maxBodyBytes bounds request bodies, including webhook payloads.
const maxBodyBytes = 1 << 20

// Config holds API server configuration.
type Config struct {
	APIKey       string // empty disables API key checks
	AdminAPIKey  string // empty disables admin endpoints
	WebhookToken string // empty accepts unauthenticated webhooks
	MetricsPath  string
	Version      string
}

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
	cfg  Config
	log  *slog.Logger
}

// New creates a new v1 API server.
func New(deps ServerDeps, cfg Config, logger *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Server{deps: deps, cfg: cfg, log: logger.With("component", "api")}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Requests
	mux.HandleFunc("POST /api/v1/requests", s.authed(s.createRequest))
	mux.HandleFunc("POST /api/v1/requests/bulk", s.authed(s.createBulk))
	mux.HandleFunc("POST /api/v1/collections/{id}/requests", s.authed(s.requestCollection))
	mux.HandleFunc("GET /api/v1/requests", s.authed(s.listRequests))
	mux.HandleFunc("GET /api/v1/requests/{id}", s.authed(s.getRequest))
	mux.HandleFunc("DELETE /api/v1/requests/{id}", s.authed(s.removeRequest))
	mux.HandleFunc("POST /api/v1/requests/{id}/approve", s.admin(s.approveRequest))
	mux.HandleFunc("POST /api/v1/requests/{id}/deny", s.admin(s.denyRequest))
	mux.HandleFunc("POST /api/v1/requests/{id}/retry", s.admin(s.retryRequest))

	// Media status
	mux.HandleFunc("GET /api/v1/media/{type}/{tmdbId}/request-status", s.authed(s.requestStatus))
	mux.HandleFunc("GET /api/v1/media/{type}/{tmdbId}/service", s.authed(s.serviceStatus))
	mux.HandleFunc("GET /api/v1/tv/{tmdbId}/seasons", s.authed(s.seasonSummary))
	mux.HandleFunc("GET /api/v1/profiles/{service}", s.authed(s.listProfiles))

	// Approval rules
	mux.HandleFunc("GET /api/v1/rules", s.admin(s.listRules))
	mux.HandleFunc("POST /api/v1/rules", s.admin(s.createRule))
	mux.HandleFunc("POST /api/v1/rules/evaluate", s.admin(s.evaluateRules))
	mux.HandleFunc("GET /api/v1/rules/{id}", s.admin(s.getRule))
	mux.HandleFunc("PUT /api/v1/rules/{id}", s.admin(s.updateRule))
	mux.HandleFunc("DELETE /api/v1/rules/{id}", s.admin(s.deleteRule))

	// Notification endpoints
	mux.HandleFunc("GET /api/v1/users/{id}/notifications", s.authed(s.requireEndpoints(s.listEndpoints)))
	mux.HandleFunc("POST /api/v1/users/{id}/notifications", s.authed(s.requireEndpoints(s.addEndpoint)))
	mux.HandleFunc("DELETE /api/v1/notifications/{id}", s.authed(s.requireEndpoints(s.deleteEndpoint)))

	// Events
	mux.HandleFunc("GET /api/v1/events", s.admin(s.requireEventLog(s.listEvents)))
	mux.HandleFunc("GET /api/v1/requests/{id}/events", s.authed(s.requireEventLog(s.listRequestEvents)))

	// Jellyfin
	mux.HandleFunc("POST /api/v1/webhooks/jellyfin", s.webhookAuth(s.requireJellyfin(s.jellyfinWebhook)))

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	if s.deps.Metrics != nil {
		mux.Handle("GET "+s.cfg.MetricsPath, s.deps.Metrics)
	}
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// errorResponse is the standard error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// writeFailure maps domain errors to status codes.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, rules.ErrInvalidRule):
		writeError(w, http.StatusBadRequest, "INVALID_RULE", err.Error())
	case errors.Is(err, notify.ErrInvalid):
		writeError(w, http.StatusBadRequest, "INVALID_ENDPOINT", err.Error())
	case errors.Is(err, lifecycle.ErrNotificationsRequired):
		writeError(w, http.StatusForbidden, "NOTIFICATIONS_REQUIRED", err.Error())
	case errors.Is(err, lifecycle.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, request.ErrNotFound), errors.Is(err, rules.ErrNotFound), errors.Is(err, notify.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, notify.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, request.ErrInvalidTransition), errors.Is(err, request.ErrStale):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, lifecycle.ErrUpstream):
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pathID extracts and parses an int64 path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// mediaPath parses the {type} and {tmdbId} path parameters.
func (s *Server) mediaPath(w http.ResponseWriter, r *http.Request) (request.Type, int64, bool) {
	t, err := lifecycle.ParseMediaType(r.PathValue("type"))
	if err != nil {
		s.writeFailure(w, r, err)
		return "", 0, false
	}
	id, err := pathID(r, "tmdbId")
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, lifecycle.CodeInvalidTMDBID, "tmdb id must be a positive integer")
		return "", 0, false
	}
	return t, id, true
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Version: s.cfg.Version,
		Radarr:  s.deps.Resolver.Configured(resolver.ServiceRadarr),
		Sonarr:  s.deps.Resolver.Configured(resolver.ServiceSonarr),
	})
}

// parseStatuses splits a comma separated status list.
func parseStatuses(raw string) ([]request.State, error) {
	if raw == "" {
		return nil, nil
	}
	var out []request.State
	for _, part := range strings.Split(raw, ",") {
		st := request.State(strings.TrimSpace(part))
		if !st.Valid() {
			return nil, fmt.Errorf("unknown status %q", part)
		}
		out = append(out, st)
	}
	return out, nil
}
