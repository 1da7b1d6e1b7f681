package podserver

import (
	"context"

	"github.com/anatolykoptev/go_podcast/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CategoriesInput struct{}

type CategoriesOutput struct {
	Count      int      `json:"count"`
	Categories []string `json:"categories"`
}

func registerCategories(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "podcast_categories",
		Description: "List the current category vocabulary assigned by classification. Excludes the Uncategorized fallback.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ CategoriesInput) (*mcp.CallToolResult, CategoriesOutput, error) {
		cats, err := engine.Cfg.Store.DistinctCategories(ctx)
		if err != nil {
			return nil, CategoriesOutput{}, err
		}
		return nil, CategoriesOutput{Count: len(cats), Categories: cats}, nil
	})
}
