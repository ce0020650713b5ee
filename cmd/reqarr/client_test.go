package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStatus_Success(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/status").
		ExpectGET().
		RespondJSON(StatusResponse{Status: "ok", Version: "1.0.0", Radarr: true}).
		Build()

	status, err := NewClient(srv.URL).Status()
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.True(t, status.Radarr)
	assert.False(t, status.Sonarr)
}

func TestClient_SendsAuthHeaders(t *testing.T) {
	srv := newMockServer(t).
		ExpectHeader("X-Api-Key", "k").
		ExpectHeader("X-Admin-Key", "a").
		ExpectHeader("X-User-ID", "alice").
		RespondJSON(StatusResponse{Status: "ok"}).
		Build()

	_, err := NewClient(srv.URL, WithAPIKey("k"), WithAdminKey("a"), WithUser("alice")).Status()
	require.NoError(t, err)
}

func TestClient_APIError(t *testing.T) {
	srv := newMockServer(t).
		RespondError(http.StatusConflict, "INVALID_TRANSITION", "cannot move from available to denied").
		Build()

	_, err := NewClient(srv.URL).Deny("r1", "")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "INVALID_TRANSITION", apiErr.Code)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "cannot move from available to denied")
}

func TestClient_PlainTextError(t *testing.T) {
	srv := newMockServer(t).
		Handler(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal server error"))
		}).
		Build()

	_, err := NewClient(srv.URL).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "internal server error")
}

func TestClient_ConnectionError(t *testing.T) {
	srv := newMockServer(t).Build()
	srv.Close()

	_, err := NewClient(srv.URL).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := newMockServer(t).
		Handler(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not valid json"))
		}).
		Build()

	_, err := NewClient(srv.URL).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_CreateRequest(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/requests").
		ExpectPOST().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body CreateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "tv", body.MediaType)
			assert.Equal(t, int64(1396), body.TMDBID)
			assert.Equal(t, []int{1, 2}, body.Seasons)
			respondJSON(t, w, http.StatusCreated, CreateResponse{
				Outcome: "created",
				Request: &RequestResponse{ID: "r1", Status: "pending"},
			})
		}).
		Build()

	resp, err := NewClient(srv.URL).CreateRequest(CreateRequest{MediaType: "tv", TMDBID: 1396, Seasons: []int{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "created", resp.Outcome)
	require.NotNil(t, resp.Request)
	assert.Equal(t, "r1", resp.Request.ID)
}

func TestClient_ListRequests_Query(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/requests").
		ExpectGET().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "pending,failed", q.Get("status"))
			assert.Equal(t, "movie", q.Get("type"))
			assert.Equal(t, "550", q.Get("tmdb_id"))
			assert.Equal(t, "10", q.Get("limit"))
			assert.Empty(t, q.Get("offset"))
			respondJSON(t, w, http.StatusOK, ListRequestsResponse{Total: 0, Limit: 10})
		}).
		Build()

	resp, err := NewClient(srv.URL).ListRequests(RequestFilter{Statuses: "pending,failed", Type: "movie", TMDBID: 550, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Limit)
}

func TestRequestFilter_EmptyQuery(t *testing.T) {
	assert.Empty(t, RequestFilter{}.query())
}

func TestClient_DeleteRule_NoContent(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/rules/7").
		ExpectDELETE().
		Handler(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}).
		Build()

	require.NoError(t, NewClient(srv.URL).DeleteRule(7))
}

func TestClient_Deny_SendsReason(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/requests/r1/deny").
		ExpectPOST().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "not in budget", body["reason"])
			respondJSON(t, w, http.StatusOK, RequestResponse{ID: "r1", Status: "denied"})
		}).
		Build()

	req, err := NewClient(srv.URL).Deny("r1", "not in budget")
	require.NoError(t, err)
	assert.Equal(t, "denied", req.Status)
}
