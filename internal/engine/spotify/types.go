package spotify

// JSON shapes of the Web API responses this client consumes. Only the
// fields the catalog needs are declared.

// Page is one page of playlist items.
type Page struct {
	Items  []PlaylistItem `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
	Next   string         `json:"next"`
}

// HasNext reports whether another page follows.
func (p *Page) HasNext() bool { return p.Next != "" }

// PlaylistItem is a playlist entry: the add timestamp plus the track
// object, which may be a music track or a podcast episode.
type PlaylistItem struct {
	AddedAt string       `json:"added_at"`
	Track   *TrackObject `json:"track"`
}

// TrackObject is the polymorphic item payload. Type is "episode" for
// podcast episodes; everything else is filtered out by the fetcher.
type TrackObject struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	DurationMS      int64        `json:"duration_ms"`
	Description     string       `json:"description"`
	HTMLDescription string       `json:"html_description"`
	ReleaseDate     string       `json:"release_date"`
	Explicit        bool         `json:"explicit"`
	Languages       []string     `json:"languages"`
	ExternalURLs    ExternalURLs `json:"external_urls"`
	Show            *ShowObject  `json:"show"`
}

// EpisodeObject is the full episode detail from /episodes/{id}.
type EpisodeObject struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	HTMLDescription string       `json:"html_description"`
	DurationMS      int64        `json:"duration_ms"`
	ReleaseDate     string       `json:"release_date"`
	ExternalURLs    ExternalURLs `json:"external_urls"`
	Show            *ShowObject  `json:"show"`
}

type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

type ShowObject struct {
	Name string `json:"name"`
}

type playlistMeta struct {
	Name string `json:"name"`
}
