package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vmunix/reqarr/internal/lifecycle"
	"github.com/vmunix/reqarr/internal/request"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	t, err := lifecycle.ParseMediaType(body.MediaType)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.deps.Lifecycle.Create(r.Context(), lifecycle.CreateInput{
		UserID:           userID(r),
		MediaType:        t,
		TMDBID:           body.TMDBID,
		Seasons:          body.Seasons,
		QualityProfileID: body.QualityProfileID,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Outcome == lifecycle.OutcomeConflict {
		status = http.StatusOK
	}
	writeJSON(w, status, createResponse{
		Outcome: res.Outcome,
		Reason:  res.Reason,
		Seasons: res.Seasons,
		Error:   res.Error,
		Request: requestToResponse(res.Request),
	})
}

func (s *Server) createBulk(w http.ResponseWriter, r *http.Request) {
	var body bulkRequest
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	items := make([]lifecycle.BulkItem, len(body.Items))
	for i, it := range body.Items {
		// Unknown media types are reported per item by the manager.
		t, err := lifecycle.ParseMediaType(it.MediaType)
		if err != nil {
			t = request.Type(it.MediaType)
		}
		items[i] = lifecycle.BulkItem{MediaType: t, TMDBID: it.TMDBID, Seasons: it.Seasons}
	}

	res, err := s.deps.Lifecycle.CreateBulk(r.Context(), userID(r), items)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) requestCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, lifecycle.CodeInvalidTMDBID, "collection id must be a positive integer")
		return
	}
	var body struct {
		Force bool `json:"force"`
	}
	if err := decodeBody(r, &body, true); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if f, err := strconv.ParseBool(r.URL.Query().Get("force")); err == nil && f {
		body.Force = true
	}

	res, err := s.deps.Lifecycle.RequestCollection(r.Context(), userID(r), id, body.Force)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statuses, err := parseStatuses(q.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
		return
	}

	f := request.Filter{
		Statuses: statuses,
		Limit:    queryInt(r, "limit", defaultPageSize),
		Offset:   queryInt(r, "offset", 0),
	}
	if f.Limit <= 0 || f.Offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit must be positive and offset non-negative")
		return
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if v := q.Get("type"); v != "" {
		t, err := lifecycle.ParseMediaType(v)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		f.Type = &t
	}
	if v := q.Get("tmdb_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, lifecycle.CodeInvalidTMDBID, "tmdb_id must be a positive integer")
			return
		}
		f.TMDBID = &id
	}

	// Users only see their own requests.
	if s.isAdmin(r) {
		if v := q.Get("user"); v != "" {
			f.RequestedBy = &v
		}
	} else {
		uid := userID(r)
		if uid == "" {
			writeError(w, http.StatusBadRequest, lifecycle.CodeMissingUser, "X-User-ID header is required")
			return
		}
		f.RequestedBy = &uid
	}

	reqs, total, err := s.deps.Requests.List(r.Context(), f)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	resp := listRequestsResponse{Items: make([]*requestResponse, len(reqs)), Total: total, Limit: f.Limit, Offset: f.Offset}
	for i, req := range reqs {
		resp.Items[i] = requestToResponse(req)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.deps.Requests.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req))
}

func (s *Server) approveRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.deps.Lifecycle.Approve(r.Context(), r.PathValue("id"), s.actor(r))
	if err != nil {
		s.writeDecisionFailure(w, r, req, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req))
}

func (s *Server) denyRequest(w http.ResponseWriter, r *http.Request) {
	var body denyRequest
	if err := decodeBody(r, &body, true); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	req, err := s.deps.Lifecycle.Deny(r.Context(), r.PathValue("id"), s.actor(r), body.Reason)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req))
}

func (s *Server) retryRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.deps.Lifecycle.Retry(r.Context(), r.PathValue("id"), s.actor(r))
	if err != nil {
		s.writeDecisionFailure(w, r, req, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req))
}

func (s *Server) removeRequest(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(r)
	if actor == "" {
		writeError(w, http.StatusBadRequest, lifecycle.CodeMissingUser, "X-User-ID header is required")
		return
	}
	req, err := s.deps.Lifecycle.Remove(r.Context(), r.PathValue("id"), actor, s.isAdmin(r))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req))
}

// writeDecisionFailure reports a failed submission. The request was still
// moved to failed, so it is returned alongside the error.
func (s *Server) writeDecisionFailure(w http.ResponseWriter, r *http.Request, req *request.Request, err error) {
	if req == nil || !errors.Is(err, lifecycle.ErrUpstream) {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusBadGateway, struct {
		errorResponse
		Request *requestResponse `json:"request"`
	}{errorResponse{Error: err.Error(), Code: "UPSTREAM_ERROR"}, requestToResponse(req)})
}
