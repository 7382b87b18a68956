package lastfm

import "time"

// Scrobble is one playback reported by Last.fm.
type Scrobble struct {
	Artist   string
	Title    string
	Album    string
	PlayedAt time.Time
}

// apiError is the error envelope Last.fm returns for failures.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// recentTracksResponse mirrors the user.getRecentTracks JSON shape.
type recentTracksResponse struct {
	RecentTracks struct {
		Track []recentTrack `json:"track"`
		Attr  struct {
			Page       string `json:"page"`
			TotalPages string `json:"totalPages"`
		} `json:"@attr"`
	} `json:"recenttracks"`
}

type recentTrack struct {
	Name   string `json:"name"`
	Artist struct {
		Text string `json:"#text"`
	} `json:"artist"`
	Album struct {
		Text string `json:"#text"`
	} `json:"album"`
	Date *struct {
		UTS string `json:"uts"`
	} `json:"date"` // absent for the now-playing entry
	Attr *struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
}
