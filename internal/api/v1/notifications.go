package v1

import (
	"net/http"

	"github.com/vmunix/reqarr/internal/notify"
)

// ownerOrAdmin reports whether the caller may manage userID's endpoints.
func (s *Server) ownerOrAdmin(r *http.Request, owner string) bool {
	return s.isAdmin(r) || (owner != "" && userID(r) == owner)
}

func (s *Server) listEndpoints(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("id")
	if !s.ownerOrAdmin(r, owner) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot view another user's notifications")
		return
	}
	eps, err := s.deps.Endpoints.List(r.Context(), owner)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if eps == nil {
		eps = []notify.Endpoint{}
	}
	writeJSON(w, http.StatusOK, listEndpointsResponse{Items: eps})
}

func (s *Server) addEndpoint(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("id")
	if !s.ownerOrAdmin(r, owner) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot change another user's notifications")
		return
	}
	var body endpointRequest
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	ep := &notify.Endpoint{UserID: owner, Kind: body.Kind, Target: body.Target}
	if err := s.deps.Endpoints.Add(r.Context(), ep); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ep)
}

func (s *Server) deleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid endpoint ID")
		return
	}
	ep, err := s.deps.Endpoints.Get(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if !s.ownerOrAdmin(r, ep.UserID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "cannot change another user's notifications")
		return
	}
	if err := s.deps.Endpoints.Delete(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
