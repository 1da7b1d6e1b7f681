package podserver

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go_podcast/internal/engine"
	"github.com/anatolykoptev/go_podcast/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Question string `json:"question" jsonschema:"Free-text question about the saved episodes (e.g. what do I have about burnout?)"`
}

type AskOutput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func registerAsk(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "podcast_ask",
		Description: "Answer a question using only the saved episode catalog (titles, shows, descriptions, categories). States plainly when the catalog has nothing relevant instead of guessing. Stateless: each question is answered on its own.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
		if input.Question == "" {
			return nil, AskOutput{}, fmt.Errorf("question is required")
		}

		cacheKey := engine.CacheKey("ask", toolutil.NormQuestion(input.Question))
		if out, ok := toolutil.CacheLoadJSON[AskOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		answer, err := engine.Answer(ctx, input.Question)
		if err != nil {
			return nil, AskOutput{}, err
		}
		out := AskOutput{Question: input.Question, Answer: answer}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
