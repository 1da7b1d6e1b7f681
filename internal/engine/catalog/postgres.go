package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs the catalog with PostgreSQL for deployments where
// several processes share one catalog. Same contract as SQLiteStore;
// uniqueness and idempotence are enforced by the primary key and
// ON CONFLICT DO NOTHING.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and runs schema migrations.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("catalog: create pgx pool: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("catalog: init schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS episodes (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT,
		show_name    TEXT,
		duration_ms  BIGINT NOT NULL DEFAULT 0,
		release_date TEXT,
		added_at     TIMESTAMPTZ,
		url          TEXT,
		playlist_id  TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		processed_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_episodes_playlist ON episodes(playlist_id);
	CREATE INDEX IF NOT EXISTS idx_episodes_category ON episodes(category);
	CREATE TABLE IF NOT EXISTS playlists (
		id            TEXT PRIMARY KEY,
		name          TEXT,
		synced_at     TIMESTAMPTZ NOT NULL,
		episode_count INTEGER NOT NULL DEFAULT 0
	)`)
	return err
}

func (s *PostgresStore) UpsertEpisodes(ctx context.Context, playlistID string, episodes []Episode) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	now := time.Now().UTC()
	for _, ep := range episodes {
		processed := ep.ProcessedAt
		if processed.IsZero() {
			processed = now
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO episodes
			 (id, title, description, show_name, duration_ms, release_date, added_at, url, playlist_id, category, processed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO NOTHING`,
			ep.ID, ep.Title, ep.Description, ep.ShowName, ep.DurationMS, ep.ReleaseDate,
			nullTime(ep.AddedAt), ep.URL, playlistID, ep.Category, processed,
		)
		if err != nil {
			return 0, fmt.Errorf("catalog: insert %s: %w", ep.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("catalog: commit: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) KnownIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM episodes WHERE playlist_id = $1`, playlistID)
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

func (s *PostgresStore) ListUncategorized(ctx context.Context, limit int) ([]Episode, error) {
	q := `SELECT ` + episodeCols + ` FROM episodes WHERE category = '' ORDER BY processed_at, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list uncategorized: %w", err)
	}
	defer rows.Close()
	return scanPgEpisodes(rows)
}

func (s *PostgresStore) SetCategory(ctx context.Context, episodeID, category string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE episodes SET category = $1 WHERE id = $2`, category, episodeID)
	if err != nil {
		return fmt.Errorf("catalog: set category %s: %w", episodeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: episode %s: %w", episodeID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT category FROM episodes WHERE category != '' AND category != $1 ORDER BY category`,
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

func (s *PostgresStore) GetCursor(ctx context.Context, playlistID string) (*Cursor, error) {
	var c Cursor
	var name *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, synced_at, episode_count FROM playlists WHERE id = $1`, playlistID,
	).Scan(&c.PlaylistID, &name, &c.SyncedAt, &c.EpisodeCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("catalog: playlist %s: %w", playlistID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get cursor: %w", err)
	}
	if name != nil {
		c.PlaylistName = *name
	}
	return &c, nil
}

func (s *PostgresStore) UpdateCursor(ctx context.Context, playlistID, name string, count int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO playlists (id, name, synced_at, episode_count) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, synced_at = EXCLUDED.synced_at, episode_count = EXCLUDED.episode_count`,
		playlistID, name, time.Now().UTC(), count,
	)
	if err != nil {
		return fmt.Errorf("catalog: update cursor %s: %w", playlistID, err)
	}
	return nil
}

func (s *PostgresStore) ListEpisodes(ctx context.Context, playlistID string) ([]Episode, error) {
	q := `SELECT ` + episodeCols + ` FROM episodes`
	args := []any{}
	if playlistID != "" {
		q += ` WHERE playlist_id = $1`
		args = append(args, playlistID)
	}
	q += ` ORDER BY added_at DESC NULLS LAST, id`
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list episodes: %w", err)
	}
	defer rows.Close()
	return scanPgEpisodes(rows)
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `SELECT
		COUNT(*),
		COUNT(DISTINCT CASE WHEN category != '' AND category != $1 THEN category END),
		COUNT(*) FILTER (WHERE category = ''),
		COUNT(DISTINCT playlist_id)
		FROM episodes`, Fallback,
	).Scan(&st.Episodes, &st.Categories, &st.Uncategorized, &st.Playlists)
	if err != nil {
		return nil, fmt.Errorf("catalog: stats: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT category, COUNT(*) AS n FROM episodes
		 WHERE category != '' AND category != $1
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

func (s *PostgresStore) ResetCategories(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE episodes SET category = '' WHERE category != ''`)
	if err != nil {
		return 0, fmt.Errorf("catalog: reset categories: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ResetAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE episodes, playlists`); err != nil {
		return fmt.Errorf("catalog: reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgEpisodes(rows pgx.Rows) ([]Episode, error) {
	var out []Episode
	for rows.Next() {
		var ep Episode
		var desc, show, release, url *string
		var added *time.Time
		if err := rows.Scan(&ep.ID, &ep.Title, &desc, &show, &ep.DurationMS, &release,
			&added, &url, &ep.PlaylistID, &ep.Category, &ep.ProcessedAt); err != nil {
			return nil, err
		}
		if desc != nil {
			ep.Description = *desc
		}
		if show != nil {
			ep.ShowName = *show
		}
		if release != nil {
			ep.ReleaseDate = *release
		}
		if url != nil {
			ep.URL = *url
		}
		if added != nil {
			ep.AddedAt = *added
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
