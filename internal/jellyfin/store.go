// Package jellyfin caches which episodes the Jellyfin library holds, as
// reported by the Jellyfin webhook plugin.
package jellyfin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Episode is one cached library episode.
type Episode struct {
	TMDBID       int64
	Season       int
	Episode      int
	SeriesItemID string
	ItemID       string
	UpdatedAt    time.Time
}

// Store persists the availability cache.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore creates a Jellyfin availability store.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, log: logger.With("component", "jellyfin")}
}

// Record upserts an episode. Season 0 (specials) is stored but never counted
// as an available season.
func (s *Store) Record(ctx context.Context, ep Episode) error {
	if ep.TMDBID <= 0 {
		return fmt.Errorf("record episode: invalid tmdb id %d", ep.TMDBID)
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jellyfin_availability (tmdb_id, season, episode, series_item_id, item_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id, season, episode) DO UPDATE SET
			series_item_id = excluded.series_item_id,
			item_id = excluded.item_id,
			updated_at = excluded.updated_at`,
		ep.TMDBID, ep.Season, ep.Episode, ep.SeriesItemID, ep.ItemID, now,
	)
	if err != nil {
		return fmt.Errorf("record episode %d s%02de%02d: %w", ep.TMDBID, ep.Season, ep.Episode, err)
	}
	s.log.Debug("episode recorded", "tmdb_id", ep.TMDBID, "season", ep.Season, "episode", ep.Episode)
	return nil
}

// RemoveItem drops the episode with the given Jellyfin item id.
// Returns false if nothing was cached for it.
func (s *Store) RemoveItem(ctx context.Context, itemID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM jellyfin_availability WHERE item_id = ?", itemID)
	if err != nil {
		return false, fmt.Errorf("remove item %s: %w", itemID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// AvailableSeasons returns the regular seasons (≥1) with at least one cached
// episode, ascending.
func (s *Store) AvailableSeasons(ctx context.Context, tmdbID int64) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT season FROM jellyfin_availability
		WHERE tmdb_id = ? AND season >= 1
		ORDER BY season`, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("available seasons %d: %w", tmdbID, err)
	}
	defer func() { _ = rows.Close() }()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		seasons = append(seasons, season)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return seasons, nil
}

// EpisodeCounts returns how many episodes of each regular season are cached.
func (s *Store) EpisodeCounts(ctx context.Context, tmdbID int64) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT season, COUNT(*) FROM jellyfin_availability
		WHERE tmdb_id = ? AND season >= 1
		GROUP BY season`, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("episode counts %d: %w", tmdbID, err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int]int)
	for rows.Next() {
		var season, n int
		if err := rows.Scan(&season, &n); err != nil {
			return nil, fmt.Errorf("scan episode count: %w", err)
		}
		counts[season] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episode counts: %w", err)
	}
	return counts, nil
}

// SeriesItemID returns the Jellyfin series item id for a TMDB series, or ""
// if no episode of it is cached.
func (s *Store) SeriesItemID(ctx context.Context, tmdbID int64) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT series_item_id FROM jellyfin_availability
		WHERE tmdb_id = ? AND series_item_id != ''
		ORDER BY updated_at DESC LIMIT 1`, tmdbID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("series item id %d: %w", tmdbID, err)
	}
	return id, nil
}
