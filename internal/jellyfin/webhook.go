package jellyfin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Notification types sent by the Jellyfin webhook plugin.
const (
	NotificationItemAdded   = "ItemAdded"
	NotificationItemDeleted = "ItemDeleted"
)

// Item types the webhook cares about.
const (
	ItemMovie   = "Movie"
	ItemEpisode = "Episode"
)

// ErrUnsupported is returned for notifications that carry nothing to record.
var ErrUnsupported = errors.New("unsupported webhook notification")

// Payload is the webhook body. Jellyfin's template fields are strings, so
// numeric fields are tolerated in either form.
type Payload struct {
	NotificationType string  `json:"NotificationType"`
	ItemType         string  `json:"ItemType"`
	ItemID           string  `json:"ItemId"`
	SeriesID         string  `json:"SeriesId"`
	SeasonNumber     flexInt `json:"SeasonNumber"`
	EpisodeNumber    flexInt `json:"EpisodeNumber"`
	TMDBID           flexInt `json:"Provider_tmdb"`
	SeriesTMDBID     flexInt `json:"SeriesProvider_tmdb"`
	Name             string  `json:"Name"`
}

// ParsePayload decodes and checks a webhook body.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	switch p.NotificationType {
	case NotificationItemAdded, NotificationItemDeleted:
	default:
		return nil, fmt.Errorf("%q: %w", p.NotificationType, ErrUnsupported)
	}
	switch p.ItemType {
	case ItemMovie:
		if p.TMDBID <= 0 {
			return nil, fmt.Errorf("movie %s without tmdb id: %w", p.ItemID, ErrUnsupported)
		}
	case ItemEpisode:
		if p.SeriesTMDBID <= 0 {
			return nil, fmt.Errorf("episode %s without series tmdb id: %w", p.ItemID, ErrUnsupported)
		}
	default:
		return nil, fmt.Errorf("item type %q: %w", p.ItemType, ErrUnsupported)
	}
	return &p, nil
}

// MediaTMDBID is the TMDB id of the movie, or of the series an episode belongs to.
func (p *Payload) MediaTMDBID() int64 {
	if p.ItemType == ItemEpisode {
		return int64(p.SeriesTMDBID)
	}
	return int64(p.TMDBID)
}

// Episode converts an episode payload to a cache row.
func (p *Payload) Episode() Episode {
	return Episode{
		TMDBID:       int64(p.SeriesTMDBID),
		Season:       int(p.SeasonNumber),
		Episode:      int(p.EpisodeNumber),
		SeriesItemID: p.SeriesID,
		ItemID:       p.ItemID,
	}
}

type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	*f = flexInt(n)
	return nil
}
