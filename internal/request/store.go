package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store persists requests and their season items.
type Store struct {
	db *sql.DB
}

// NewStore creates a request store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// mapSQLiteError converts SQLite errors to package errors.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}

const requestColumns = `id, type, tmdb_id, tvdb_id, title, poster_path, backdrop_path, release_year, status,
	requested_by, auto_approved, approval_rule_id, quality_profile_id, external_id, last_error, decided_by,
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*Request, error) {
	r := &Request{}
	err := row.Scan(&r.ID, &r.Type, &r.TMDBID, &r.TVDBID, &r.Title, &r.PosterPath, &r.BackdropPath,
		&r.ReleaseYear, &r.Status, &r.RequestedBy, &r.AutoApproved, &r.ApprovalRuleID, &r.QualityProfileID,
		&r.ExternalID, &r.LastError, &r.DecidedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create inserts a request and its items atomically. An empty ID is replaced
// with a new UUID; status defaults to pending. Returns ErrDuplicate when an
// active request already covers the movie or one of the seasons.
func (s *Store) Create(ctx context.Context, r *Request) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatePending
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Type, r.TMDBID, r.TVDBID, r.Title, r.PosterPath, r.BackdropPath, r.ReleaseYear, r.Status,
		r.RequestedBy, r.AutoApproved, r.ApprovalRuleID, r.QualityProfileID, r.ExternalID, r.LastError,
		r.DecidedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", mapSQLiteError(err))
	}

	active := r.Status.IsActive()
	for i := range r.Items {
		it := &r.Items[i]
		it.RequestID = r.ID
		it.TMDBID = r.TMDBID
		it.Active = active
		result, err := tx.ExecContext(ctx, `
			INSERT INTO request_items (request_id, tmdb_id, season, episodes, active)
			VALUES (?, ?, ?, ?, ?)`,
			it.RequestID, it.TMDBID, it.Season, it.Episodes, it.Active,
		)
		if err != nil {
			return fmt.Errorf("insert season %d: %w", it.Season, mapSQLiteError(err))
		}
		if it.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("get last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit request: %w", mapSQLiteError(err))
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func getRequest(ctx context.Context, q querier, id string) (*Request, error) {
	r, err := scanRequest(q.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM requests WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get request %s: %w", id, mapSQLiteError(err))
	}
	if r.Items, err = listItems(ctx, q, "request_id = ?", id); err != nil {
		return nil, err
	}
	return r, nil
}

// Get retrieves a request with its items.
// Returns ErrNotFound if the request does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Request, error) {
	return getRequest(ctx, s.db, id)
}

func listItems(ctx context.Context, q querier, where string, args ...any) ([]Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, request_id, tmdb_id, season, episodes, active
		FROM request_items WHERE `+where+` ORDER BY season, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.RequestID, &it.TMDBID, &it.Season, &it.Episodes, &it.Active); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// List returns requests matching the filter, newest first.
// Returns (results, totalCount, error). Items are populated.
func (s *Store) List(ctx context.Context, f Filter) ([]*Request, int, error) {
	var conditions []string
	var args []any

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *f.Type)
	}
	if f.RequestedBy != nil {
		conditions = append(conditions, "requested_by = ?")
		args = append(args, *f.RequestedBy)
	}
	if f.TMDBID != nil {
		conditions = append(conditions, "tmdb_id = ?")
		args = append(args, *f.TMDBID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM requests "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	query := "SELECT " + requestColumns + " FROM requests " + whereClause + " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	var results []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			_ = rows.Close()
			return nil, 0, fmt.Errorf("scan request: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, 0, fmt.Errorf("iterate requests: %w", err)
	}
	// Close before loading items: the pool holds a single connection.
	_ = rows.Close()

	for _, r := range results {
		if r.Type != TypeEpisode {
			continue
		}
		if r.Items, err = listItems(ctx, s.db, "request_id = ?", r.ID); err != nil {
			return nil, 0, err
		}
	}

	return results, total, nil
}

// FindActiveMovie returns the active request for a movie, or nil if none.
func (s *Store) FindActiveMovie(ctx context.Context, tmdbID int64) (*Request, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE type = 'movie' AND tmdb_id = ? AND status NOT IN ('denied', 'removed')
		ORDER BY created_at DESC LIMIT 1`, tmdbID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active movie %d: %w", tmdbID, err)
	}
	return r, nil
}

// FindActiveSeason returns the active TV request covering (tmdbID, season).
// With a nil season, any actively requested season matches. Returns nil if none.
func (s *Store) FindActiveSeason(ctx context.Context, tmdbID int64, season *int) (*Request, error) {
	query := `SELECT request_id FROM request_items WHERE tmdb_id = ? AND active = 1`
	args := []any{tmdbID}
	if season != nil {
		query += " AND season = ?"
		args = append(args, *season)
	}
	query += " ORDER BY id LIMIT 1"

	var requestID string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active season: %w", err)
	}
	return s.Get(ctx, requestID)
}

// FindActive dispatches to FindActiveMovie or FindActiveSeason by type.
func (s *Store) FindActive(ctx context.Context, t Type, tmdbID int64, season *int) (*Request, error) {
	if t == TypeMovie {
		return s.FindActiveMovie(ctx, tmdbID)
	}
	return s.FindActiveSeason(ctx, tmdbID, season)
}

// ActiveItems returns every active season item for a series, ordered by season.
func (s *Store) ActiveItems(ctx context.Context, tmdbID int64) ([]Item, error) {
	return listItems(ctx, s.db, "tmdb_id = ? AND active = 1", tmdbID)
}

// ActiveSeasons maps each actively requested season of a series to its request id.
func (s *Store) ActiveSeasons(ctx context.Context, tmdbID int64) (map[int]string, error) {
	items, err := s.ActiveItems(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	seasons := make(map[int]string, len(items))
	for _, it := range items {
		seasons[it.Season] = it.RequestID
	}
	return seasons, nil
}

// CountApproved returns how many of the user's requests were ever approved,
// by a rule or an admin. Approval sticks after a later failure or removal;
// denied requests never count.
func (s *Store) CountApproved(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM requests
		WHERE requested_by = ? AND status != 'denied'
			AND (auto_approved = 1 OR decided_by IS NOT NULL OR status IN ('submitted', 'available'))`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count approved: %w", err)
	}
	return n, nil
}

// Transition moves a request to a new state. fn, if non-nil, may adjust other
// fields of the loaded request before it is written; it must not change Status.
// Leaving the active states deactivates the request's season items in the same
// transaction. Returns the updated request and the state it left.
func (s *Store) Transition(ctx context.Context, id string, to State, fn func(r *Request)) (*Request, State, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r, err := getRequest(ctx, tx, id)
	if err != nil {
		return nil, "", err
	}
	from := r.Status
	if !from.CanTransitionTo(to) {
		return nil, from, fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	if fn != nil {
		fn(r)
	}
	r.Status = to
	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx, `
		UPDATE requests SET status = ?, tvdb_id = ?, title = ?, poster_path = ?, backdrop_path = ?, release_year = ?,
			auto_approved = ?, approval_rule_id = ?, quality_profile_id = ?, external_id = ?, last_error = ?,
			decided_by = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		r.Status, r.TVDBID, r.Title, r.PosterPath, r.BackdropPath, r.ReleaseYear, r.AutoApproved, r.ApprovalRuleID,
		r.QualityProfileID, r.ExternalID, r.LastError, r.DecidedBy, now, r.ID, from,
	)
	if err != nil {
		return nil, from, fmt.Errorf("update request %s: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, from, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, from, fmt.Errorf("update request %s: %w", id, ErrStale)
	}

	if from.IsActive() && !to.IsActive() {
		if _, err := tx.ExecContext(ctx, "UPDATE request_items SET active = 0 WHERE request_id = ?", id); err != nil {
			return nil, from, fmt.Errorf("deactivate items: %w", err)
		}
		for i := range r.Items {
			r.Items[i].Active = false
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, from, fmt.Errorf("commit transition: %w", mapSQLiteError(err))
	}
	r.UpdatedAt = now
	return r, from, nil
}
