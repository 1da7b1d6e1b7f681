package podserver

import (
	"context"

	"github.com/anatolykoptev/go_podcast/internal/engine"
	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type StatsInput struct{}

func registerStats(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "podcast_stats",
		Description: "Catalog totals: episode count, playlists, category count, how many episodes are still uncategorized, and the top categories.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, *catalog.Stats, error) {
		stats, err := engine.Cfg.Store.Stats(ctx)
		if err != nil {
			return nil, nil, err
		}
		return nil, stats, nil
	})
}
