package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultFailureThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
)

// client is the HTTP plumbing shared by Radarr and Sonarr.
type client struct {
	service    string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger

	failureThreshold uint32
	breakerTimeout   time.Duration
	onStateChange    func(service string, from, to gobreaker.State)
	breaker          *gobreaker.CircuitBreaker[any]
}

// Option configures a Radarr or Sonarr client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithBreaker configures the circuit breaker. It opens after threshold
// consecutive failures and tries again after timeout.
func WithBreaker(threshold uint32, timeout time.Duration) Option {
	return func(c *client) {
		if threshold > 0 {
			c.failureThreshold = threshold
		}
		if timeout > 0 {
			c.breakerTimeout = timeout
		}
	}
}

// WithBreakerListener is called whenever the circuit breaker changes state.
func WithBreakerListener(fn func(service string, from, to gobreaker.State)) Option {
	return func(c *client) {
		c.onStateChange = fn
	}
}

func newClient(service, baseURL, apiKey string, logger *slog.Logger, opts []Option) *client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &client{
		service:          service,
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		apiKey:           apiKey,
		httpClient:       &http.Client{Timeout: defaultTimeout},
		log:              logger.With("component", service),
		failureThreshold: defaultFailureThreshold,
		breakerTimeout:   defaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			if c.onStateChange != nil {
				c.onStateChange(name, from, to)
			}
		},
		// Only outages count against the breaker; a 404 or a rejected add
		// means the service is healthy.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
	})
	return c
}

// BreakerState reports the breaker state ("closed", "half-open", "open").
func (c *client) BreakerState() string {
	return c.breaker.State().String()
}

// do performs an API call through the circuit breaker. body, if non-nil, is
// sent as JSON; result, if non-nil, receives the decoded response.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doRequest(ctx, method, path, query, body, result)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s circuit open", ErrUnavailable, c.service)
	}
	return err
}

func (c *client) doRequest(ctx context.Context, method, path string, query url.Values, body, result any) error {
	start := time.Now()
	reqURL := c.baseURL + "/api/v3" + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", method, "path", path, "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, c.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		c.log.Debug("api server error", "method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, c.service, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{Service: c.service, Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	c.log.Debug("api request complete", "method", method, "path", path, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// readErrorMessage extracts a message from an error body. The *arr apps send
// either a list of validation failures or a single object.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var list []errorResponse
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, e := range list {
			if e.ErrorMessage != "" {
				msgs = append(msgs, e.ErrorMessage)
			}
		}
		return strings.Join(msgs, "; ")
	}

	var single errorResponse
	if json.Unmarshal(raw, &single) == nil {
		if single.Message != "" {
			return single.Message
		}
		if single.ErrorMessage != "" {
			return single.ErrorMessage
		}
	}
	return strings.TrimSpace(string(raw))
}
