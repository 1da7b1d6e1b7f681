package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", srv.Client())
}

func TestPagePaging(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		offset := r.URL.Query().Get("offset")
		switch offset {
		case "0":
			fmt.Fprint(w, `{
				"items": [
					{"added_at": "2025-06-01T10:00:00Z", "track": {"id": "e1", "name": "One", "type": "episode", "duration_ms": 1000}},
					{"added_at": "2025-06-01T11:00:00Z", "track": {"id": "t1", "name": "Song", "type": "track"}}
				],
				"limit": 2, "offset": 0, "total": 3, "next": "http://example/next"
			}`)
		default:
			fmt.Fprint(w, `{
				"items": [{"added_at": "2025-06-02T10:00:00Z", "track": {"id": "e2", "name": "Two", "type": "episode"}}],
				"limit": 2, "offset": 2, "total": 3, "next": null
			}`)
		}
	})

	ctx := context.Background()
	page, err := c.Page(ctx, "P1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if !page.HasNext() {
		t.Error("expected next page")
	}
	if page.Items[0].Track.Type != "episode" || page.Items[1].Track.Type != "track" {
		t.Error("track types not preserved")
	}

	page, err = c.Page(ctx, "P1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.HasNext() {
		t.Error("last page should not have next")
	}
}

func TestPageStatusError(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Page(context.Background(), "P1", 0)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != 429 {
		t.Errorf("expected 429, got %d", se.Code)
	}
	if !se.Retryable() {
		t.Error("429 should be retryable")
	}
}

func TestStatusErrorRetryable(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{401, false},
		{404, false},
	}
	for _, tt := range tests {
		if got := (&StatusError{Code: tt.code}).Retryable(); got != tt.want {
			t.Errorf("Retryable(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestPlaylistName(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "Morning Commute"}`)
	})
	name, err := c.PlaylistName(context.Background(), "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Morning Commute" {
		t.Errorf("got %q", name)
	}
}

func TestEpisodeDetail(t *testing.T) {
	c := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "e1", "name": "One", "description": "full text", "show": {"name": "The Show"}}`)
	})
	ep, err := c.Episode(context.Background(), "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.Description != "full text" || ep.Show == nil || ep.Show.Name != "The Show" {
		t.Errorf("unexpected episode: %+v", ep)
	}
}
