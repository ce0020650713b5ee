// Package arr provides clients for the Radarr and Sonarr v3 APIs.
package arr

// Image is poster/fanart artwork attached to a movie or series.
type Image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

// QualityProfile is a named quality profile.
type QualityProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SystemStatus is the subset of /system/status we report.
type SystemStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}

// Movie is a Radarr movie.
type Movie struct {
	ID                  int64            `json:"id,omitempty"`
	Title               string           `json:"title"`
	Year                int              `json:"year"`
	TMDBID              int64            `json:"tmdbId"`
	IMDBID              string           `json:"imdbId,omitempty"`
	TitleSlug           string           `json:"titleSlug,omitempty"`
	Monitored           bool             `json:"monitored"`
	HasFile             bool             `json:"hasFile"`
	QualityProfileID    int64            `json:"qualityProfileId,omitempty"`
	RootFolderPath      string           `json:"rootFolderPath,omitempty"`
	MinimumAvailability string           `json:"minimumAvailability,omitempty"`
	Images              []Image          `json:"images,omitempty"`
	AddOptions          *MovieAddOptions `json:"addOptions,omitempty"`
}

// MovieAddOptions controls what Radarr does after adding a movie.
type MovieAddOptions struct {
	SearchForMovie bool   `json:"searchForMovie"`
	Monitor        string `json:"monitor,omitempty"`
}

// Series is a Sonarr series.
type Series struct {
	ID               int64             `json:"id,omitempty"`
	Title            string            `json:"title"`
	Year             int               `json:"year"`
	TVDBID           int64             `json:"tvdbId"`
	TMDBID           int64             `json:"tmdbId,omitempty"`
	IMDBID           string            `json:"imdbId,omitempty"`
	TitleSlug        string            `json:"titleSlug,omitempty"`
	Monitored        bool              `json:"monitored"`
	SeasonFolder     bool              `json:"seasonFolder"`
	SeriesType       string            `json:"seriesType,omitempty"`
	QualityProfileID int64             `json:"qualityProfileId,omitempty"`
	RootFolderPath   string            `json:"rootFolderPath,omitempty"`
	Seasons          []Season          `json:"seasons"`
	Images           []Image           `json:"images,omitempty"`
	AddOptions       *SeriesAddOptions `json:"addOptions,omitempty"`
}

// Season returns the series season with the given number, or nil.
func (s *Series) Season(number int) *Season {
	for i := range s.Seasons {
		if s.Seasons[i].SeasonNumber == number {
			return &s.Seasons[i]
		}
	}
	return nil
}

// Season is one season of a Sonarr series.
type Season struct {
	SeasonNumber int               `json:"seasonNumber"`
	Monitored    bool              `json:"monitored"`
	Statistics   *SeasonStatistics `json:"statistics,omitempty"`
}

// SeasonStatistics are Sonarr's per-season file counts.
type SeasonStatistics struct {
	EpisodeFileCount  int   `json:"episodeFileCount"`
	EpisodeCount      int   `json:"episodeCount"`
	TotalEpisodeCount int   `json:"totalEpisodeCount"`
	SizeOnDisk        int64 `json:"sizeOnDisk"`
}

// SeriesAddOptions controls what Sonarr does after adding a series.
type SeriesAddOptions struct {
	SearchForMissingEpisodes bool   `json:"searchForMissingEpisodes"`
	Monitor                  string `json:"monitor,omitempty"`
}

type command struct {
	Name         string `json:"name"`
	SeriesID     int64  `json:"seriesId,omitempty"`
	SeasonNumber int    `json:"seasonNumber,omitempty"`
}

type errorResponse struct {
	Message      string `json:"message"`
	ErrorMessage string `json:"errorMessage"`
}
