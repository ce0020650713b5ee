package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/reqarr/internal/request"
	"github.com/vmunix/reqarr/internal/resolver"
	"github.com/vmunix/reqarr/internal/tmdb"
)

// BulkItem is one entry of a bulk request.
type BulkItem struct {
	MediaType request.Type `json:"mediaType"`
	TMDBID    int64        `json:"tmdbId"`
	Seasons   []int        `json:"seasons,omitempty"`
}

// BulkItemResult reports one item's outcome.
type BulkItemResult struct {
	Index     int           `json:"index"`
	MediaType request.Type  `json:"mediaType"`
	TMDBID    int64         `json:"tmdbId"`
	Outcome   Outcome       `json:"outcome"`
	Reason    Reason        `json:"reason,omitempty"`
	RequestID string        `json:"requestId,omitempty"`
	Status    request.State `json:"status,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// BulkResult is the itemised result of CreateBulk.
type BulkResult struct {
	Created    int              `json:"created"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	RequestIDs []string         `json:"requestIds"`
	Items      []BulkItemResult `json:"items"`
}

// CreateBulk creates each item independently with bounded concurrency and a
// per-item timeout. A failing item never affects the others; only batch-level
// problems (the requester, size, the notification gate) return an error.
func (m *Manager) CreateBulk(ctx context.Context, userID string, items []BulkItem) (*BulkResult, error) {
	switch {
	case strings.TrimSpace(userID) == "":
		return nil, invalid(CodeMissingUser, "requester id is required")
	case len(items) == 0:
		return nil, invalid(CodeEmptyBatch, "at least one item is required")
	case len(items) > m.cfg.BulkMaxItems:
		return nil, invalid(CodeBatchTooLarge, "at most %d items per batch, got %d", m.cfg.BulkMaxItems, len(items))
	}
	if err := m.checkNotifications(ctx, userID); err != nil {
		return nil, err
	}

	results := make([]BulkItemResult, len(items))
	g := new(errgroup.Group)
	g.SetLimit(m.cfg.BulkConcurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = m.bulkItem(ctx, userID, i, item)
			return nil
		})
	}
	_ = g.Wait() // items never return errors

	out := &BulkResult{Items: results, RequestIDs: []string{}}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeCreated:
			out.Created++
			out.RequestIDs = append(out.RequestIDs, r.RequestID)
		case OutcomeConflict:
			out.Skipped++
		default:
			out.Failed++
		}
	}
	m.log.Info("bulk request", "user_id", userID, "items", len(items),
		"created", out.Created, "skipped", out.Skipped, "failed", out.Failed)
	return out, nil
}

func (m *Manager) bulkItem(ctx context.Context, userID string, index int, item BulkItem) BulkItemResult {
	ictx, cancel := context.WithTimeout(ctx, m.cfg.ItemTimeout)
	defer cancel()

	out := BulkItemResult{Index: index, MediaType: item.MediaType, TMDBID: item.TMDBID}
	res, err := m.Create(ictx, CreateInput{
		UserID:    userID,
		MediaType: item.MediaType,
		TMDBID:    item.TMDBID,
		Seasons:   item.Seasons,
	})
	if err != nil {
		out.Outcome = OutcomeFailed
		out.Error = itemError(ictx, err)
		return out
	}
	out.Outcome = res.Outcome
	out.Reason = res.Reason
	out.Error = res.Error
	if res.Request != nil {
		out.RequestID = res.Request.ID
		out.Status = res.Request.Status
	}
	return out
}

func itemError(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timed out: " + err.Error()
	}
	return err.Error()
}

// Collection item tags.
const (
	TagSubmitted        = "submitted"
	TagPending          = "pending"
	TagAlreadyExists    = "already_exists"
	TagAlreadyRequested = "already_requested"
	TagFailed           = "failed"
)

// CollectionItem is one movie of a collection request.
type CollectionItem struct {
	TMDBID    int64  `json:"tmdbId"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CollectionResult lists the outcome for every movie in a collection.
type CollectionResult struct {
	CollectionID int64            `json:"collectionId"`
	Name         string           `json:"name"`
	Results      []CollectionItem `json:"results"`
}

// RequestCollection requests every movie in a TMDB collection. Movies the
// library already has are skipped unless force is set; ownership is judged
// from resolver answers no older than CollectionStatusMaxAge.
func (m *Manager) RequestCollection(ctx context.Context, userID string, collectionID int64, force bool) (*CollectionResult, error) {
	if collectionID <= 0 {
		return nil, invalid(CodeInvalidTMDBID, "collection id must be a positive integer, got %d", collectionID)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, invalid(CodeMissingUser, "requester id is required")
	}
	if err := m.checkNotifications(ctx, userID); err != nil {
		return nil, err
	}

	coll, err := m.deps.Metadata.GetCollection(ctx, collectionID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, invalid(CodeInvalidTMDBID, "collection %d not found", collectionID)
		}
		m.deps.Metrics.UpstreamError("tmdb")
		return nil, fmt.Errorf("%w: tmdb: %w", ErrUpstream, err)
	}

	results := make([]CollectionItem, len(coll.Parts))
	g := new(errgroup.Group)
	g.SetLimit(m.cfg.BulkConcurrency)
	for i, part := range coll.Parts {
		g.Go(func() error {
			results[i] = m.collectionItem(ctx, userID, part, force)
			return nil
		})
	}
	_ = g.Wait()

	m.log.Info("collection request", "user_id", userID, "collection_id", collectionID, "parts", len(coll.Parts))
	return &CollectionResult{CollectionID: coll.ID, Name: coll.Name, Results: results}, nil
}

func (m *Manager) collectionItem(ctx context.Context, userID string, part tmdb.CollectionPart, force bool) CollectionItem {
	ictx, cancel := context.WithTimeout(ctx, m.cfg.ItemTimeout)
	defer cancel()

	out := CollectionItem{TMDBID: part.ID, Title: part.Title}
	if !force {
		l := m.deps.Resolver.Find(ictx, resolver.Query{Type: request.TypeMovie, TMDBID: part.ID}, m.cfg.CollectionStatusMaxAge)
		if l.Found() && l.Ref.HasFile {
			out.Status = TagAlreadyExists
			return out
		}
	}

	res, err := m.Create(ictx, CreateInput{UserID: userID, MediaType: request.TypeMovie, TMDBID: part.ID, force: force})
	if err != nil {
		out.Status = TagFailed
		out.Error = itemError(ictx, err)
		return out
	}
	if res.Request != nil {
		out.RequestID = res.Request.ID
	}
	switch {
	case res.Outcome == OutcomeConflict && res.Reason == ReasonAlreadyExists:
		out.Status = TagAlreadyExists
	case res.Outcome == OutcomeConflict:
		out.Status = TagAlreadyRequested
	case res.Outcome == OutcomeFailed:
		out.Status = TagFailed
		out.Error = res.Error
	case res.Request.Status == request.StateSubmitted:
		out.Status = TagSubmitted
	default:
		out.Status = TagPending
	}
	return out
}
