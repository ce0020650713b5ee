package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RequestOutcome("created", "")
	m.RequestOutcome("conflict", "already_requested")
	m.RequestOutcome("conflict", "already_requested")
	m.RuleMatched("popularity")
	m.Transition("pending", "submitted")
	m.UpstreamError("radarr")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("created", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("conflict", "already_requested")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ruleMatches.WithLabelValues("popularity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamErrs.WithLabelValues("radarr")))
}

func TestMetrics_BreakerState(t *testing.T) {
	m := New()

	m.BreakerChanged("sonarr", gobreaker.StateClosed, gobreaker.StateOpen)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.breakerState.WithLabelValues("sonarr")))

	m.BreakerChanged("sonarr", gobreaker.StateOpen, gobreaker.StateHalfOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerState.WithLabelValues("sonarr")))

	m.BreakerChanged("sonarr", gobreaker.StateHalfOpen, gobreaker.StateClosed)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.breakerState.WithLabelValues("sonarr")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RequestOutcome("created", "")
	m.ObserveCreate(120 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `reqarr_requests_total{outcome="created",reason=""} 1`), body)
	assert.Contains(t, body, "reqarr_request_create_duration_seconds_count 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.UpstreamError("tmdb")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.upstreamErrs.WithLabelValues("tmdb")))
}
