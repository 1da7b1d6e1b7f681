package podserver

import (
	"context"

	"github.com/anatolykoptev/go_podcast/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ExportInput struct {
	Output     string `json:"output,omitempty" jsonschema:"Target path; .csv writes CSV, anything else Excel (default: timestamped .xlsx)"`
	PlaylistID string `json:"playlist_id,omitempty" jsonschema:"Export only this playlist (default: whole catalog)"`
}

type ExportOutput struct {
	Path     string `json:"path"`
	Episodes int    `json:"episodes"`
}

func registerExport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "podcast_export",
		Description: "Export the episode catalog to a spreadsheet (Excel by default, CSV by extension) with human-readable headers and fitted column widths. Returns the written path and row count.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
		path, n, err := engine.ExportCatalog(ctx, input.Output, input.PlaylistID)
		if err != nil {
			return nil, ExportOutput{}, err
		}
		return nil, ExportOutput{Path: path, Episodes: n}, nil
	})
}
