package v1

import (
	"net/http"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	raw, err := s.deps.EventLog.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eventsToResponse(raw))
}

func (s *Server) listRequestEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Verify request exists
	if _, err := s.deps.Requests.Get(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	raw, err := s.deps.EventLog.ForRequest(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eventsToResponse(raw))
}
