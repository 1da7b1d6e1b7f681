package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
)

// Answer responds to a free-text question using only facts present in
// the local catalog. Stateless and single-shot: no conversation memory
// across calls. An empty catalog short-circuits without calling the
// model; a model failure is surfaced, never papered over with a
// fabricated answer.
func Answer(ctx context.Context, question string) (string, error) {
	metrics.AnswerRequests.Add(1)

	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("answer: empty question")
	}

	eps, err := cfg.Store.ListEpisodes(ctx, "")
	if err != nil {
		return "", fmt.Errorf("answer: load catalog: %w", err)
	}
	if len(eps) == 0 {
		return noDataAnswer, nil
	}

	corpus := buildCorpusContext(eps, cfg.AnswerContextChars)
	prompt := fmt.Sprintf(answerPrompt, currentDate(), corpus, question)

	resp, err := CallLLM(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer: model call: %w", err)
	}
	return resp, nil
}

// buildCorpusContext renders episodes for the model, most recently
// added first, stopping at the character budget. When the corpus
// exceeds the budget the oldest episodes are the ones dropped.
func buildCorpusContext(eps []catalog.Episode, budget int) string {
	var sb strings.Builder
	for i, ep := range eps {
		entry := renderEpisodeEntry(i+1, ep)
		if sb.Len()+len(entry) > budget {
			break
		}
		sb.WriteString(entry)
	}
	return sb.String()
}

func renderEpisodeEntry(n int, ep catalog.Episode) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n[%d] %s — %s", n, ep.Title, ep.ShowName)
	meta := make([]string, 0, 3)
	if ep.Category != "" {
		meta = append(meta, ep.Category)
	}
	if ep.ReleaseDate != "" {
		meta = append(meta, ep.ReleaseDate)
	}
	if ep.DurationMS > 0 {
		meta = append(meta, fmt.Sprintf("%d min", ep.DurationMS/60000))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(meta, ", "))
	}
	sb.WriteByte('\n')
	if desc := strings.TrimSpace(ep.Description); desc != "" {
		fmt.Fprintf(&sb, "%s\n", TruncateRunes(desc, 600, "…"))
	}
	return sb.String()
}
