// Package podserver exposes the podcast catalog over MCP: syncing,
// browsing, category breakdowns, and grounded question answering.
package podserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers all catalog tools on the given MCP server:
// podcast_sync, podcast_ask, podcast_episodes, podcast_categories,
// podcast_stats, podcast_export.
func RegisterTools(server *mcp.Server) {
	registerSync(server)
	registerAsk(server)
	registerEpisodes(server)
	registerCategories(server)
	registerStats(server)
	registerExport(server)
}
