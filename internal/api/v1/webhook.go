package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/vmunix/reqarr/internal/jellyfin"
	"github.com/vmunix/reqarr/internal/request"
)

// jellyfinWebhook keeps the episode cache current and marks matching
// requests available.
func (s *Server) jellyfinWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not read body")
		return
	}
	p, err := jellyfin.ParsePayload(body)
	if errors.Is(err, jellyfin.ErrUnsupported) {
		// Jellyfin retries on non-2xx; ignored notifications must still succeed.
		s.log.Debug("webhook ignored", "reason", err)
		writeJSON(w, http.StatusOK, webhookResponse{Reason: err.Error()})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	ctx := r.Context()
	tmdbID := p.MediaTMDBID()
	resp := webhookResponse{Handled: true}

	switch p.ItemType {
	case jellyfin.ItemEpisode:
		if p.NotificationType == jellyfin.NotificationItemDeleted {
			if _, err := s.deps.Jellyfin.RemoveItem(ctx, p.ItemID); err != nil {
				s.writeFailure(w, r, err)
				return
			}
			s.log.Info("episode removed", "tmdb_id", tmdbID, "item_id", p.ItemID)
			writeJSON(w, http.StatusOK, resp)
			return
		}
		if err := s.deps.Jellyfin.Record(ctx, p.Episode()); err != nil {
			s.writeFailure(w, r, err)
			return
		}
		n, err := s.deps.Reconciler.ReconcileMedia(ctx, request.TypeEpisode, tmdbID)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		resp.Available = n

	case jellyfin.ItemMovie:
		if p.NotificationType != jellyfin.NotificationItemAdded {
			resp.Handled = false
			resp.Reason = "movie removal does not change requests"
			break
		}
		ok, err := s.deps.Reconciler.MovieInLibrary(ctx, tmdbID)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		if ok {
			resp.Available = 1
		}
	}

	s.log.Info("webhook handled", "type", p.NotificationType, "item_type", p.ItemType,
		"tmdb_id", tmdbID, "available", resp.Available)
	writeJSON(w, http.StatusOK, resp)
}
