package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default single-file backend. It opens with a single
// connection (SQLite: single writer); concurrent multi-process access is
// unsupported — use the PostgreSQL backend for that.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the catalog database at path.
// Use ":memory:" for an ephemeral store in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS episodes (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT,
		show_name    TEXT,
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		release_date TEXT,
		added_at     TEXT,
		url          TEXT,
		playlist_id  TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		processed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_episodes_playlist ON episodes(playlist_id);
	CREATE INDEX IF NOT EXISTS idx_episodes_category ON episodes(category);
	CREATE TABLE IF NOT EXISTS playlists (
		id            TEXT PRIMARY KEY,
		name          TEXT,
		synced_at     TEXT NOT NULL,
		episode_count INTEGER NOT NULL DEFAULT 0
	)`)
	return err
}

func (s *SQLiteStore) UpsertEpisodes(ctx context.Context, playlistID string, episodes []Episode) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog: begin: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	now := time.Now().UTC()
	for _, ep := range episodes {
		processed := ep.ProcessedAt
		if processed.IsZero() {
			processed = now
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO episodes
			 (id, title, description, show_name, duration_ms, release_date, added_at, url, playlist_id, category, processed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ep.ID, ep.Title, ep.Description, ep.ShowName, ep.DurationMS, ep.ReleaseDate,
			formatTime(ep.AddedAt), ep.URL, playlistID, ep.Category, formatTime(processed),
		)
		if err != nil {
			return 0, fmt.Errorf("catalog: insert %s: %w", ep.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) KnownIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM episodes WHERE playlist_id = ?`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("catalog: known ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) ListUncategorized(ctx context.Context, limit int) ([]Episode, error) {
	q := `SELECT ` + episodeCols + ` FROM episodes WHERE category = '' ORDER BY processed_at, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list uncategorized: %w", err)
	}
	defer rows.Close()
	return scanEpisodes(rows)
}

func (s *SQLiteStore) SetCategory(ctx context.Context, episodeID, category string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM episodes WHERE id = ?`, episodeID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("catalog: episode %s: %w", episodeID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("catalog: set category %s: %w", episodeID, err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE episodes SET category = ? WHERE id = ?`, category, episodeID)
	if err != nil {
		return fmt.Errorf("catalog: set category %s: %w", episodeID, err)
	}
	return nil
}

func (s *SQLiteStore) DistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM episodes WHERE category != '' AND category != ? ORDER BY category`,
		Fallback,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: distinct categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCursor(ctx context.Context, playlistID string) (*Cursor, error) {
	var c Cursor
	var name sql.NullString
	var synced string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, synced_at, episode_count FROM playlists WHERE id = ?`, playlistID,
	).Scan(&c.PlaylistID, &name, &synced, &c.EpisodeCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog: playlist %s: %w", playlistID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get cursor: %w", err)
	}
	c.PlaylistName = name.String
	c.SyncedAt = parseTime(synced)
	return &c, nil
}

func (s *SQLiteStore) UpdateCursor(ctx context.Context, playlistID, name string, count int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, synced_at, episode_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, synced_at = excluded.synced_at, episode_count = excluded.episode_count`,
		playlistID, name, formatTime(time.Now().UTC()), count,
	)
	if err != nil {
		return fmt.Errorf("catalog: update cursor %s: %w", playlistID, err)
	}
	return nil
}

func (s *SQLiteStore) ListEpisodes(ctx context.Context, playlistID string) ([]Episode, error) {
	q := `SELECT ` + episodeCols + ` FROM episodes`
	args := []any{}
	if playlistID != "" {
		q += ` WHERE playlist_id = ?`
		args = append(args, playlistID)
	}
	q += ` ORDER BY added_at DESC, id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list episodes: %w", err)
	}
	defer rows.Close()
	return scanEpisodes(rows)
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(DISTINCT CASE WHEN category != '' AND category != ? THEN category END),
		SUM(CASE WHEN category = '' THEN 1 ELSE 0 END),
		COUNT(DISTINCT playlist_id)
		FROM episodes`, Fallback)
	var uncat sql.NullInt64
	if err := row.Scan(&st.Episodes, &st.Categories, &uncat, &st.Playlists); err != nil {
		return nil, fmt.Errorf("catalog: stats: %w", err)
	}
	st.Uncategorized = int(uncat.Int64)

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) AS n FROM episodes
		 WHERE category != '' AND category != ?
		 GROUP BY category ORDER BY n DESC, category LIMIT 10`, Fallback)
	if err != nil {
		return nil, fmt.Errorf("catalog: stats top: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		st.TopCategories = append(st.TopCategories, cc)
	}
	return &st, rows.Err()
}

func (s *SQLiteStore) ResetCategories(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE episodes SET category = '' WHERE category != ''`)
	if err != nil {
		return 0, fmt.Errorf("catalog: reset categories: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) ResetAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM episodes`)
	if err != nil {
		return fmt.Errorf("catalog: reset: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM playlists`)
	if err != nil {
		return fmt.Errorf("catalog: reset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

const episodeCols = `id, title, description, show_name, duration_ms, release_date, added_at, url, playlist_id, category, processed_at`

func scanEpisodes(rows *sql.Rows) ([]Episode, error) {
	var out []Episode
	for rows.Next() {
		var ep Episode
		var desc, show, release, added, url sql.NullString
		var processed string
		if err := rows.Scan(&ep.ID, &ep.Title, &desc, &show, &ep.DurationMS, &release,
			&added, &url, &ep.PlaylistID, &ep.Category, &processed); err != nil {
			return nil, err
		}
		ep.Description = desc.String
		ep.ShowName = show.String
		ep.ReleaseDate = release.String
		ep.URL = url.String
		ep.AddedAt = parseTime(added.String)
		ep.ProcessedAt = parseTime(processed)
		out = append(out, ep)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
