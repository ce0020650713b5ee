package v1

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Headers carrying caller identity.
const (
	headerAPIKey   = "X-Api-Key"
	headerAdminKey = "X-Admin-Key"
	headerUserID   = "X-User-ID"
)

func keyMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// userID returns the requesting user's id.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerUserID))
}

// isAdmin reports whether the caller presented the admin key.
func (s *Server) isAdmin(r *http.Request) bool {
	return s.cfg.AdminAPIKey != "" && keyMatches(r.Header.Get(headerAdminKey), s.cfg.AdminAPIKey)
}

// actor names the caller in decisions and events.
func (s *Server) actor(r *http.Request) string {
	if id := userID(r); id != "" {
		return id
	}
	if s.isAdmin(r) {
		return "admin"
	}
	return ""
}

// authed rejects callers without the API key. The admin key is accepted in
// its place.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" && !keyMatches(r.Header.Get(headerAPIKey), s.cfg.APIKey) && !s.isAdmin(r) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid API key")
			return
		}
		next(w, r)
	}
}

// admin wraps a handler that only admins may call.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdmin(r) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "admin key required")
			return
		}
		next(w, r)
	})
}

// webhookAuth checks the shared webhook token passed as ?token=.
func (s *Server) webhookAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.WebhookToken != "" && !keyMatches(r.URL.Query().Get("token"), s.cfg.WebhookToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook token")
			return
		}
		next(w, r)
	}
}

// requireEndpoints wraps a handler and returns 503 if the endpoint store is not configured.
func (s *Server) requireEndpoints(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Endpoints == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Notifications not configured")
			return
		}
		next(w, r)
	}
}

// requireJellyfin wraps a handler and returns 503 if the Jellyfin cache is not configured.
func (s *Server) requireJellyfin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Jellyfin == nil || s.deps.Reconciler == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Jellyfin not configured")
			return
		}
		next(w, r)
	}
}

// requireEventLog wraps a handler and returns 503 if the event log is not configured.
func (s *Server) requireEventLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.EventLog == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Event log not configured")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

// LogRequests logs one line per request.
func LogRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
