package podserver

import (
	"context"
	"strings"

	"github.com/anatolykoptev/go_podcast/internal/engine"
	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type EpisodesInput struct {
	PlaylistID string `json:"playlist_id,omitempty" jsonschema:"Filter to one playlist (default: whole catalog)"`
	Category   string `json:"category,omitempty" jsonschema:"Filter to one category, case-insensitive"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max episodes to return (default 50)"`
}

type EpisodesOutput struct {
	Count    int               `json:"count"`
	Episodes []catalog.Episode `json:"episodes"`
}

func registerEpisodes(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "podcast_episodes",
		Description: "List saved episodes, newest first, optionally filtered by playlist or category. Returns full metadata: title, show, description, duration, dates, URL, category.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input EpisodesInput) (*mcp.CallToolResult, EpisodesOutput, error) {
		eps, err := engine.Cfg.Store.ListEpisodes(ctx, input.PlaylistID)
		if err != nil {
			return nil, EpisodesOutput{}, err
		}

		if input.Category != "" {
			want := strings.ToLower(input.Category)
			filtered := eps[:0]
			for _, ep := range eps {
				if strings.ToLower(ep.Category) == want {
					filtered = append(filtered, ep)
				}
			}
			eps = filtered
		}

		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		if len(eps) > limit {
			eps = eps[:limit]
		}
		return nil, EpisodesOutput{Count: len(eps), Episodes: eps}, nil
	})
}
