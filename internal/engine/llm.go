package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// currentDate returns today's date in ISO 8601 format (UTC).
func currentDate() string {
	return time.Now().UTC().Format("2006-01-02")
}

// batchLabel is one classification decision in the model's JSON output.
type batchLabel struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// llmBatchOutput is the JSON structure expected from the LLM for a
// classification batch.
type llmBatchOutput struct {
	Categories []batchLabel `json:"categories"`
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	metrics.LLMCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, "", prompt)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}

// parseBatchLabels decodes a classification response into an id →
// raw-label map. The response is an untrusted external answer: missing
// ids, empty labels, and duplicates are dropped here, and label text is
// validated against the vocabulary by the classifier.
func parseBatchLabels(raw string) (map[string]string, error) {
	raw = stripFences(raw)
	var out llmBatchOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("classify: parse failed on %q: %w", Truncate(raw, 200), err)
	}
	if len(out.Categories) == 0 {
		return nil, fmt.Errorf("classify: empty response")
	}
	labels := make(map[string]string, len(out.Categories))
	for _, c := range out.Categories {
		if c.ID == "" || strings.TrimSpace(c.Category) == "" {
			continue
		}
		if _, ok := labels[c.ID]; ok {
			continue
		}
		labels[c.ID] = c.Category
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("classify: no usable labels in response")
	}
	return labels, nil
}
