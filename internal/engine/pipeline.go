package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/anatolykoptev/go_podcast/internal/engine/spotify"
)

// PlaylistResult reports one playlist's sync outcome within a run.
type PlaylistResult struct {
	PlaylistID string `json:"playlist_id"`
	Name       string `json:"name,omitempty"`
	Fetched    int    `json:"fetched"`
	New        int    `json:"new"`
	Error      string `json:"error,omitempty"`
}

// RunSummary aggregates a full sync + classification run.
type RunSummary struct {
	Playlists  []PlaylistResult `json:"playlists"`
	Fetched    int              `json:"fetched"`
	New        int              `json:"new"`
	Classified int              `json:"classified"`
	Failed     int              `json:"failed"` // still pending after the pass
	QuotaHit   bool             `json:"quota_hit,omitempty"`
}

// RunSync walks every configured playlist, persists episodes not yet in
// the catalog, then (unless classify is false) runs one classification
// pass over everything pending. One playlist failing is recorded in the
// summary and does not stop the others; an error is returned only when
// no playlist could be synced at all or persistence itself broke.
func RunSync(ctx context.Context, playlistIDs []string, classify bool) (*RunSummary, error) {
	if len(playlistIDs) == 0 {
		return nil, fmt.Errorf("sync: no playlists configured")
	}

	sum := &RunSummary{}
	failed := 0
	for _, id := range playlistIDs {
		pr := syncPlaylist(ctx, id)
		sum.Playlists = append(sum.Playlists, pr)
		sum.Fetched += pr.Fetched
		sum.New += pr.New
		if pr.Error != "" {
			failed++
		}
	}
	if failed == len(playlistIDs) {
		return sum, fmt.Errorf("sync: all %d playlists failed", failed)
	}

	if !classify {
		return sum, nil
	}

	classifier, err := NewClassifier(ctx, cfg.Store)
	if err != nil {
		return sum, err
	}
	res, err := classifier.Run(ctx)
	if res != nil {
		sum.Classified = res.Classified
		sum.Failed = res.Failed
		sum.QuotaHit = res.QuotaHit
	}
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			// Pending episodes are picked up by the next run.
			slog.Warn("run finished early on model quota", slog.Int("pending", sum.Failed))
			return sum, nil
		}
		return sum, err
	}
	return sum, nil
}

// syncPlaylist walks one playlist page by page, committing each page's
// new episodes before requesting the next. The walk always covers every
// page: playlist item order is not a reliable recency signal, so there
// is no early stop on a fully-known page.
func syncPlaylist(ctx context.Context, playlistID string) PlaylistResult {
	pr := PlaylistResult{PlaylistID: playlistID}

	fail := func(err error) PlaylistResult {
		metrics.SourceErrors.Add(1)
		ferr := &FetchError{PlaylistID: playlistID, Err: err}
		slog.Error("playlist sync failed", slog.String("playlist", playlistID), slog.Any("error", err))
		pr.Error = ferr.Error()
		return pr
	}

	known, err := cfg.Store.KnownIDs(ctx, playlistID)
	if err != nil {
		return fail(err)
	}

	name, err := RetryDo(ctx, DefaultRetryConfig, func() (string, error) {
		metrics.SourceRequests.Add(1)
		return cfg.Source.PlaylistName(ctx, playlistID)
	})
	if err != nil {
		return fail(err)
	}
	pr.Name = name

	total := 0
	for offset := 0; ; {
		page, err := RetryDo(ctx, DefaultRetryConfig, func() (*spotify.Page, error) {
			metrics.SourceRequests.Add(1)
			return cfg.Source.Page(ctx, playlistID, offset)
		})
		if err != nil {
			return fail(err)
		}

		eps := make([]catalog.Episode, 0, len(page.Items))
		for _, item := range page.Items {
			t := item.Track
			if t == nil || t.Type != "episode" || t.ID == "" {
				continue
			}
			pr.Fetched++
			if _, ok := known[t.ID]; ok {
				continue
			}
			eps = append(eps, buildEpisode(ctx, playlistID, item))
		}

		n, err := cfg.Store.UpsertEpisodes(ctx, playlistID, eps)
		if err != nil {
			return fail(err)
		}
		pr.New += n
		metrics.EpisodesNew.Add(int64(n))

		total = page.Total
		offset += len(page.Items)
		if !page.HasNext() || len(page.Items) == 0 {
			break
		}
	}
	metrics.EpisodesFetched.Add(int64(pr.Fetched))

	if err := cfg.Store.UpdateCursor(ctx, playlistID, name, total); err != nil {
		return fail(err)
	}
	slog.Info("playlist synced",
		slog.String("playlist", playlistID),
		slog.String("name", name),
		slog.Int("fetched", pr.Fetched),
		slog.Int("new", pr.New),
	)
	return pr
}

// buildEpisode converts a playlist item into a catalog row. Playlist
// pages sometimes arrive without a description; the episode detail
// endpoint fills the gap, best effort.
func buildEpisode(ctx context.Context, playlistID string, item spotify.PlaylistItem) catalog.Episode {
	t := item.Track
	desc := DescriptionText(t.Description, t.HTMLDescription)
	show := ""
	if t.Show != nil {
		show = t.Show.Name
	}

	if desc == "" || show == "" {
		detail, err := RetryDo(ctx, DefaultRetryConfig, func() (*spotify.EpisodeObject, error) {
			metrics.SourceRequests.Add(1)
			return cfg.Source.Episode(ctx, t.ID)
		})
		if err != nil {
			slog.Warn("episode detail unavailable", slog.String("episode", t.ID), slog.Any("error", err))
		} else {
			if desc == "" {
				desc = DescriptionText(detail.Description, detail.HTMLDescription)
			}
			if show == "" && detail.Show != nil {
				show = detail.Show.Name
			}
		}
	}

	addedAt, err := time.Parse(time.RFC3339, item.AddedAt)
	if err != nil {
		addedAt = time.Now().UTC()
	}

	return catalog.Episode{
		ID:          t.ID,
		Title:       strings.TrimSpace(t.Name),
		Description: desc,
		ShowName:    show,
		DurationMS:  t.DurationMS,
		ReleaseDate: t.ReleaseDate,
		AddedAt:     addedAt,
		URL:         t.ExternalURLs.Spotify,
		PlaylistID:  playlistID,
		ProcessedAt: time.Now().UTC(),
	}
}
