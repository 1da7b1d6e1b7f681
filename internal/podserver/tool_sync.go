package podserver

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go_podcast/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SyncInput struct {
	PlaylistID string `json:"playlist_id,omitempty" jsonschema:"Sync only this playlist instead of every configured one"`
	NoLLM      bool   `json:"no_llm,omitempty" jsonschema:"Fetch and store episodes but skip the classification pass"`
}

func registerSync(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "podcast_sync",
		Description: "Incrementally sync configured Spotify playlists into the local catalog and classify new episodes into a bounded category vocabulary. Already-stored episodes are never refetched or reclassified. Returns per-playlist fetch counts and classification totals.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SyncInput) (*mcp.CallToolResult, *engine.RunSummary, error) {
		ids := engine.Cfg.PlaylistIDs
		if input.PlaylistID != "" {
			ids = []string{input.PlaylistID}
		}
		if len(ids) == 0 {
			return nil, nil, fmt.Errorf("no playlists configured: set PLAYLIST_IDS or pass playlist_id")
		}
		sum, err := engine.RunSync(ctx, ids, !input.NoLLM)
		if err != nil {
			return nil, nil, err
		}
		return nil, sum, nil
	})
}
