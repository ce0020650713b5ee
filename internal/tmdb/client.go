package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vmunix/reqarr/internal/clock"
)

const defaultBaseURL = "https://api.themoviedb.org"
const defaultCacheTTL = 6 * time.Hour

// ErrNotFound is returned when a title doesn't exist in TMDB.
var ErrNotFound = errors.New("not found in tmdb")

// Client is a TMDB API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	clock      clock.Clock
	cache      *responseCache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCacheTTL sets the cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithClock sets the clock used for cache expiry.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cacheTTL: defaultCacheTTL,
		clock:    clock.Real{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = newCache(c.cacheTTL, c.clock)
	return c
}

// GetMovie fetches movie metadata, including release certifications, by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	var movie Movie
	path := "/3/movie/" + strconv.FormatInt(tmdbID, 10)
	if err := c.get(ctx, path, url.Values{"append_to_response": {"release_dates"}}, &movie); err != nil {
		return nil, fmt.Errorf("movie %d: %w", tmdbID, err)
	}
	return &movie, nil
}

// GetTV fetches series metadata, including external IDs and content ratings.
func (c *Client) GetTV(ctx context.Context, tmdbID int64) (*TV, error) {
	var tv TV
	path := "/3/tv/" + strconv.FormatInt(tmdbID, 10)
	if err := c.get(ctx, path, url.Values{"append_to_response": {"external_ids,content_ratings"}}, &tv); err != nil {
		return nil, fmt.Errorf("tv %d: %w", tmdbID, err)
	}
	return &tv, nil
}

// GetTVSeason fetches one season of a series with its episodes.
func (c *Client) GetTVSeason(ctx context.Context, tmdbID int64, season int) (*Season, error) {
	var s Season
	path := fmt.Sprintf("/3/tv/%d/season/%d", tmdbID, season)
	if err := c.get(ctx, path, nil, &s); err != nil {
		return nil, fmt.Errorf("tv %d season %d: %w", tmdbID, season, err)
	}
	return &s, nil
}

// GetCollection fetches a movie collection and its parts.
func (c *Client) GetCollection(ctx context.Context, collectionID int64) (*Collection, error) {
	var coll Collection
	path := "/3/collection/" + strconv.FormatInt(collectionID, 10)
	if err := c.get(ctx, path, nil, &coll); err != nil {
		return nil, fmt.Errorf("collection %d: %w", collectionID, err)
	}
	return &coll, nil
}

// get fetches path and decodes the JSON body into out. Successful bodies are
// cached by path and query, without the API key.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	cacheKey := path
	if len(query) > 0 {
		cacheKey += "?" + query.Encode()
	}

	// Check cache first
	if body, ok := c.cache.get(cacheKey); ok {
		return json.Unmarshal(body, out)
	}

	// Build request
	params := url.Values{"api_key": {c.apiKey}}
	for k, v := range query {
		params[k] = v
	}
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	// Execute
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Handle errors
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB API error: %s", resp.Status)
	}

	// Decode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	// Cache and return
	c.cache.set(cacheKey, body)
	return nil
}
