// Package catalog is the durable episode catalog: the single owner of
// persisted episodes and per-playlist sync cursors. Two backends exist —
// SQLite (default, one portable file, single process) and PostgreSQL
// (optional, for shared deployments). All mutations are committed before
// the call returns, so callers recover from a crash by re-reading
// uncategorized rows.
package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an operation references an unknown
// episode or playlist ID. It signals an integrity bug, not a transient
// condition — callers must not retry it.
var ErrNotFound = errors.New("catalog: not found")

// Fallback is the sentinel label for episodes the classifier could not
// place inside the bounded vocabulary. It is never counted as a
// vocabulary member.
const Fallback = "Uncategorized"

// Episode is one podcast installment. Identity is the source-assigned
// stable ID; the same ID is never inserted twice, only the category may
// be backfilled later.
type Episode struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ShowName    string    `json:"show_name,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	ReleaseDate string    `json:"release_date,omitempty"`
	AddedAt     time.Time `json:"added_at"`
	URL         string    `json:"url,omitempty"`
	PlaylistID  string    `json:"playlist_id"`
	Category    string    `json:"category,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Cursor is the per-playlist sync bookmark.
type Cursor struct {
	PlaylistID   string    `json:"playlist_id"`
	PlaylistName string    `json:"playlist_name,omitempty"`
	SyncedAt     time.Time `json:"synced_at"`
	EpisodeCount int       `json:"episode_count"`
}

// CategoryCount is one row of the per-category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats is a snapshot of catalog totals.
type Stats struct {
	Episodes      int             `json:"episodes"`
	Categories    int             `json:"categories"`
	Uncategorized int             `json:"uncategorized"`
	Playlists     int             `json:"playlists"`
	TopCategories []CategoryCount `json:"top_categories,omitempty"`
}

// Store is the catalog contract shared by the SQLite and PostgreSQL
// backends. An empty category marks an episode as pending
// classification; Fallback counts as classified.
type Store interface {
	// UpsertEpisodes inserts episodes whose ID is not yet present and
	// returns how many were inserted. Existing rows — including any
	// assigned category — are left untouched, so re-running a sync with
	// identical source data is a no-op.
	UpsertEpisodes(ctx context.Context, playlistID string, episodes []Episode) (int, error)

	// KnownIDs returns the set of episode IDs already stored for a
	// playlist, used by the fetcher for its page diff.
	KnownIDs(ctx context.Context, playlistID string) (map[string]struct{}, error)

	// ListUncategorized returns episodes with an empty category in a
	// stable order (processed_at, then id) so repeated partial runs make
	// monotonic progress. limit <= 0 means all.
	ListUncategorized(ctx context.Context, limit int) ([]Episode, error)

	// SetCategory records the category for an episode. Returns
	// ErrNotFound for unknown IDs; setting the same category twice is a
	// harmless no-op.
	SetCategory(ctx context.Context, episodeID, category string) error

	// DistinctCategories returns the assigned category vocabulary,
	// excluding the empty string and the Fallback sentinel.
	DistinctCategories(ctx context.Context) ([]string, error)

	// GetCursor returns the sync cursor for a playlist, or ErrNotFound
	// before the first successful sync.
	GetCursor(ctx context.Context, playlistID string) (*Cursor, error)

	// UpdateCursor records a successful sync pass.
	UpdateCursor(ctx context.Context, playlistID, name string, count int) error

	// ListEpisodes returns episodes ordered by added_at descending.
	// Empty playlistID means the whole catalog.
	ListEpisodes(ctx context.Context, playlistID string) ([]Episode, error)

	// Stats returns catalog totals and the top categories.
	Stats(ctx context.Context) (*Stats, error)

	// ResetCategories clears every assigned category, keeping episodes.
	// Returns the number of episodes cleared.
	ResetCategories(ctx context.Context) (int64, error)

	// ResetAll drops all persisted state. Destructive — only on explicit
	// operator request.
	ResetAll(ctx context.Context) error

	Close() error
}
