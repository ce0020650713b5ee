package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to the reqarr HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	adminKey   string
	user       string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the X-Api-Key header.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithAdminKey sets the X-Admin-Key header.
func WithAdminKey(key string) ClientOption {
	return func(c *Client) { c.adminKey = key }
}

// WithUser sets the X-User-ID header.
func WithUser(id string) ClientOption {
	return func(c *Client) { c.user = id }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %d: %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

func (c *Client) do(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}
	if c.user != "" {
		req.Header.Set("X-User-ID", c.user)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body, result any) error {
	return c.do(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body, result any) error {
	return c.do(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string, result any) error {
	return c.do(http.MethodDelete, path, nil, result)
}

// API response types (mirror server types)

type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Radarr  bool   `json:"radarr"`
	Sonarr  bool   `json:"sonarr"`
}

type SeasonItem struct {
	Season   int  `json:"season"`
	Episodes int  `json:"episodes,omitempty"`
	Active   bool `json:"active"`
}

type RequestResponse struct {
	ID             string       `json:"id"`
	MediaType      string       `json:"mediaType"`
	TMDBID         int64        `json:"tmdbId"`
	Title          string       `json:"title"`
	Year           int          `json:"year,omitempty"`
	Status         string       `json:"status"`
	RequestedBy    string       `json:"requestedBy"`
	AutoApproved   bool         `json:"autoApproved"`
	ApprovalRuleID *int64       `json:"approvalRuleId,omitempty"`
	ExternalID     *int64       `json:"externalId,omitempty"`
	LastError      string       `json:"lastError,omitempty"`
	DecidedBy      *string      `json:"decidedBy,omitempty"`
	Seasons        []SeasonItem `json:"seasons,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

type CreateRequest struct {
	MediaType        string `json:"mediaType"`
	TMDBID           int64  `json:"tmdbId"`
	Seasons          []int  `json:"seasons,omitempty"`
	QualityProfileID *int64 `json:"qualityProfileId,omitempty"`
}

type CreateResponse struct {
	Outcome string           `json:"outcome"`
	Reason  string           `json:"reason,omitempty"`
	Seasons []int            `json:"seasons,omitempty"`
	Error   string           `json:"error,omitempty"`
	Request *RequestResponse `json:"request,omitempty"`
}

type ListRequestsResponse struct {
	Items  []RequestResponse `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// RequestFilter narrows a request listing.
type RequestFilter struct {
	Statuses string
	User     string
	Type     string
	TMDBID   int64
	Limit    int
	Offset   int
}

func (f RequestFilter) query() string {
	q := url.Values{}
	if f.Statuses != "" {
		q.Set("status", f.Statuses)
	}
	if f.User != "" {
		q.Set("user", f.User)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.TMDBID > 0 {
		q.Set("tmdb_id", strconv.FormatInt(f.TMDBID, 10))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

type RuleResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Enabled     bool            `json:"enabled"`
	Priority    int             `json:"priority"`
	Type        string          `json:"type"`
	Conditions  json.RawMessage `json:"conditions"`
}

type RuleRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	Priority    int             `json:"priority"`
	Type        string          `json:"type"`
	Conditions  json.RawMessage `json:"conditions"`
}

type ListRulesResponse struct {
	Items []RuleResponse `json:"items"`
	Total int            `json:"total"`
}

type SeasonRow struct {
	Season        int    `json:"season"`
	Requested     bool   `json:"requested"`
	RequestID     string `json:"requestId,omitempty"`
	RequestStatus string `json:"requestStatus,omitempty"`
	Episodes      int    `json:"episodes,omitempty"`
	Available     bool   `json:"available"`
	Status        string `json:"status"`
}

type SeasonSummaryResponse struct {
	TMDBID  int64       `json:"tmdbId"`
	Seasons []SeasonRow `json:"seasons"`
	Warning string      `json:"warning,omitempty"`
}

// Status returns server health and configured services.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateRequest submits a movie or TV request.
func (c *Client) CreateRequest(body CreateRequest) (*CreateResponse, error) {
	var resp CreateResponse
	if err := c.post("/api/v1/requests", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRequests lists requests matching f.
func (c *Client) ListRequests(f RequestFilter) (*ListRequestsResponse, error) {
	var resp ListRequestsResponse
	if err := c.get("/api/v1/requests"+f.query(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRequest fetches one request.
func (c *Client) GetRequest(id string) (*RequestResponse, error) {
	var resp RequestResponse
	if err := c.get("/api/v1/requests/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Approve approves a pending request.
func (c *Client) Approve(id string) (*RequestResponse, error) {
	return c.decide(id, "approve", nil)
}

// Deny denies a pending request.
func (c *Client) Deny(id, reason string) (*RequestResponse, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return c.decide(id, "deny", body)
}

// Retry resubmits a failed request.
func (c *Client) Retry(id string) (*RequestResponse, error) {
	return c.decide(id, "retry", nil)
}

func (c *Client) decide(id, action string, body any) (*RequestResponse, error) {
	var resp RequestResponse
	if err := c.post("/api/v1/requests/"+url.PathEscape(id)+"/"+action, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Remove removes a request.
func (c *Client) Remove(id string) (*RequestResponse, error) {
	var resp RequestResponse
	if err := c.delete("/api/v1/requests/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Seasons returns the per-season request summary for a series.
func (c *Client) Seasons(tmdbID int64) (*SeasonSummaryResponse, error) {
	var resp SeasonSummaryResponse
	if err := c.get(fmt.Sprintf("/api/v1/tv/%d/seasons", tmdbID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rules lists approval rules.
func (c *Client) Rules() (*ListRulesResponse, error) {
	var resp ListRulesResponse
	if err := c.get("/api/v1/rules", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddRule creates an approval rule.
func (c *Client) AddRule(body RuleRequest) (*RuleResponse, error) {
	var resp RuleResponse
	if err := c.post("/api/v1/rules", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteRule deletes an approval rule.
func (c *Client) DeleteRule(id int64) error {
	return c.delete(fmt.Sprintf("/api/v1/rules/%d", id), nil)
}
