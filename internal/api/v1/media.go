package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vmunix/reqarr/internal/lifecycle"
	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
)

func (s *Server) requestStatus(w http.ResponseWriter, r *http.Request) {
	t, id, ok := s.mediaPath(w, r)
	if !ok {
		return
	}
	var season *int
	if v := r.URL.Query().Get("season"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || t == request.TypeMovie {
			writeError(w, http.StatusBadRequest, lifecycle.CodeInvalidSeason, "season must be a positive integer for tv")
			return
		}
		season = &n
	}

	req, err := s.deps.Requests.FindActive(r.Context(), t, id, season)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if req == nil {
		writeJSON(w, http.StatusOK, requestStatusResponse{})
		return
	}
	writeJSON(w, http.StatusOK, requestStatusResponse{Requested: true, Request: requestToResponse(req)})
}

func (s *Server) serviceStatus(w http.ResponseWriter, r *http.Request) {
	t, id, ok := s.mediaPath(w, r)
	if !ok {
		return
	}

	q := resolver.Query{Type: t, TMDBID: id}
	if t == request.TypeEpisode {
		// Without metadata the series is still matched by TMDB id.
		if tv, err := s.deps.Metadata.GetTV(r.Context(), id); err == nil {
			q.TVDBID = tv.TVDBID()
			q.Title = tv.Name
			q.Year = tv.Year()
		}
	}

	l := s.deps.Resolver.Find(r.Context(), q, 0)
	resp := serviceResponse{Status: l.Status, Service: resolver.ServiceFor(t), Error: l.Err}
	if l.Found() {
		resp.ExternalID = l.Ref.ExternalID
		resp.Monitored = l.Ref.Monitored
		resp.HasFile = l.Ref.HasFile
		resp.Seasons = l.Ref.Seasons
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) seasonSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "tmdbId")
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, lifecycle.CodeInvalidTMDBID, "tmdb id must be a positive integer")
		return
	}

	var (
		tvdbID   *int64
		known    []int
		metaWarn string
	)
	tv, err := s.deps.Metadata.GetTV(r.Context(), id)
	if err != nil {
		s.log.Warn("season metadata unavailable", "tmdb_id", id, "error", err)
		metaWarn = "metadata unavailable: " + err.Error()
	} else {
		tvdbID = tv.TVDBID()
		known = tv.RegularSeasons()
	}

	sum, err := s.deps.Seasons.Summary(r.Context(), id, tvdbID, known)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if metaWarn != "" {
		if sum.Warning != "" {
			sum.Warning = metaWarn + "; " + sum.Warning
		} else {
			sum.Warning = metaWarn
		}
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	profiles, err := s.deps.Resolver.QualityProfiles(r.Context(), service)
	if errors.Is(err, resolver.ErrUnknownService) {
		writeError(w, http.StatusNotFound, "UNKNOWN_SERVICE", err.Error())
		return
	}

	resp := profilesResponse{Service: service, Profiles: make([]profileSummary, len(profiles))}
	for i, p := range profiles {
		resp.Profiles[i] = profileSummary{ID: p.ID, Name: p.Name}
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
