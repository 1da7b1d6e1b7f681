// go_podcast — Spotify podcast playlist catalog.
//
// Incrementally syncs podcast episodes from saved playlists into a local
// catalog, classifies them into a bounded category vocabulary with an
// LLM, answers questions grounded in the catalog, and exports to Excel.
// Runs as a CLI or as an MCP server over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_podcast/internal/engine"
	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/anatolykoptev/go_podcast/internal/engine/spotify"
	"github.com/anatolykoptev/go_podcast/internal/podserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "go_podcast",
		Short:         "Podcast playlist catalog: sync, classify, ask, export",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(syncCmd(), askCmd(), statsCmd(), categoriesCmd(), exportCmd(), resetCmd(), serveCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	var playlist string
	var noLLM bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch new episodes from configured playlists and classify them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initEngine(true)
			if err != nil {
				return err
			}
			defer store.Close()

			ids := engine.Cfg.PlaylistIDs
			if playlist != "" {
				ids = []string{playlist}
			}
			sum, err := engine.RunSync(cmd.Context(), ids, !noLLM)
			if sum != nil {
				for _, pr := range sum.Playlists {
					if pr.Error != "" {
						slog.Warn("playlist skipped", slog.String("playlist", pr.PlaylistID), slog.String("error", pr.Error))
					}
				}
				slog.Info("sync finished",
					slog.Int("fetched", sum.Fetched),
					slog.Int("new", sum.New),
					slog.Int("classified", sum.Classified),
					slog.Int("pending", sum.Failed),
					slog.Bool("quota_hit", sum.QuotaHit),
				)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&playlist, "playlist", "", "sync only this playlist ID")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "fetch and store only, skip classification")
	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the saved episode catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := initEngine(false)
			if err != nil {
				return err
			}
			defer store.Close()

			question := args[0]
			for _, a := range args[1:] {
				question += " " + a
			}
			answer, err := engine.Answer(cmd.Context(), question)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals and top categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initEngine(false)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Episodes:      %d\n", stats.Episodes)
			fmt.Printf("Playlists:     %d\n", stats.Playlists)
			fmt.Printf("Categories:    %d\n", stats.Categories)
			fmt.Printf("Uncategorized: %d\n", stats.Uncategorized)
			if len(stats.TopCategories) > 0 {
				fmt.Println("Top categories:")
				for _, c := range stats.TopCategories {
					fmt.Printf("  %-30s %d\n", c.Category, c.Count)
				}
			}
			return nil
		},
	}
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the assigned category vocabulary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initEngine(false)
			if err != nil {
				return err
			}
			defer store.Close()

			cats, err := store.DistinctCategories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Println(c)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output, playlist string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to Excel (or CSV by extension)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initEngine(false)
			if err != nil {
				return err
			}
			defer store.Close()

			path, n, err := engine.ExportCatalog(cmd.Context(), output, playlist)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d episodes to %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "target path (.csv for CSV, default timestamped .xlsx)")
	cmd.Flags().StringVar(&playlist, "playlist", "", "export only this playlist ID")
	return cmd
}

func resetCmd() *cobra.Command {
	var categoriesOnly bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear assigned categories, or drop the whole catalog with --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initEngine(false)
			if err != nil {
				return err
			}
			defer store.Close()

			if categoriesOnly {
				n, err := store.ResetCategories(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Cleared categories on %d episodes\n", n)
				return nil
			}
			if err := store.ResetAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Catalog dropped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&categoriesOnly, "categories", false, "clear categories only, keep episodes")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := initEngine(true)
			if err != nil {
				return err
			}
			defer store.Close()

			port := env.Str("MCP_PORT", "8893")
			slog.Info("starting go_podcast", slog.String("port", port))

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "go_podcast",
				Version: version,
			}, nil)
			podserver.RegisterTools(server)
			slog.Info("tools registered", slog.Int("count", 6))

			return mcpserver.Run(server, mcpserver.Config{
				Name:         "go_podcast",
				Version:      version,
				Port:         port,
				WriteTimeout: 600 * time.Second,
				Metrics:      engine.FormatMetrics,
			})
		},
	}
}

// initEngine wires the catalog store, the playlist source, and the LLM
// client from environment configuration. withSource=false skips the
// Spotify token exchange for commands that only read the local catalog.
func initEngine(withSource bool) (catalog.Store, error) {
	c := engine.Config{
		PlaylistIDs:          env.List("PLAYLIST_IDS", ""),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 8192),
		RPMLimit:             env.Int("LLM_RPM_LIMIT", 15),
		MaxCategories:        env.Int("MAX_CATEGORIES", 24),
		ClassifyBatch:        env.Int("CLASSIFY_BATCH", 8),
		ClassifyRetries:      env.Int("CLASSIFY_RETRIES", 2),
		MaxDescChars:         env.Int("MAX_DESC_CHARS", 1000),
		AnswerContextChars:   env.Int("ANSWER_CONTEXT_CHARS", 60000),
		DBPath:               env.Str("DB_PATH", "podcasts.db"),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	var store catalog.Store
	var err error
	if c.DatabaseURL != "" {
		store, err = catalog.ConnectPostgres(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres catalog: %w", err)
		}
		slog.Info("catalog: postgres backend")
	} else {
		store, err = catalog.OpenSQLite(c.DBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite catalog: %w", err)
		}
		slog.Info("catalog: sqlite backend", slog.String("path", c.DBPath))
	}
	c.Store = store

	if withSource {
		token := env.Str("SPOTIFY_TOKEN", "")
		if token == "" {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			token, err = spotify.ClientCredentialsToken(ctx, c.HTTPClient, "",
				env.Str("SPOTIFY_CLIENT_ID", ""), env.Str("SPOTIFY_CLIENT_SECRET", ""))
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("spotify auth: %w", err)
			}
		}
		c.Source = spotify.NewClient(env.Str("SPOTIFY_API_BASE", ""), token, c.HTTPClient)
	}

	c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	return store, nil
}
