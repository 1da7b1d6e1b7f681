// Package spotify is a thin client for the source playlist API. Token
// acquisition and refresh live outside this module: the client takes a
// ready bearer token. Retry policy is owned by the caller (the fetcher),
// which is why every call maps straight to one HTTP request.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultAPIBase is the public Web API root.
const DefaultAPIBase = "https://api.spotify.com/v1"

// pageLimit is the items-per-page the API allows at most.
const pageLimit = 100

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify: status %d %s", e.Code, http.StatusText(e.Code))
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client calls the source playlist API.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient builds a client for the given API base (empty = DefaultAPIBase)
// and bearer token.
func NewClient(base, token string, hc *http.Client) *Client {
	if base == "" {
		base = DefaultAPIBase
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: base, token: token, http: hc}
}

// PlaylistName fetches the display name of a playlist.
func (c *Client) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	var meta playlistMeta
	endpoint := fmt.Sprintf("%s/playlists/%s?fields=name", c.base, url.PathEscape(playlistID))
	if err := c.getJSON(ctx, endpoint, &meta); err != nil {
		return "", err
	}
	return meta.Name, nil
}

// Page fetches one page of playlist items starting at offset.
// additional_types=track,episode makes the API return episode items
// instead of dropping them from mixed playlists.
func (c *Client) Page(ctx context.Context, playlistID string, offset int) (*Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(pageLimit))
	q.Set("additional_types", "track,episode")
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks?%s", c.base, url.PathEscape(playlistID), q.Encode())

	var page Page
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Episode fetches full episode detail, used when the playlist item
// carries no description.
func (c *Client) Episode(ctx context.Context, episodeID string) (*EpisodeObject, error) {
	var ep EpisodeObject
	endpoint := fmt.Sprintf("%s/episodes/%s", c.base, url.PathEscape(episodeID))
	if err := c.getJSON(ctx, endpoint, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("spotify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify: decode response: %w", err)
	}
	return nil
}
