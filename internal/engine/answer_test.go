package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerEmptyCorpusShortCircuits(t *testing.T) {
	model := &scriptedLLM{}
	newTestEngine(t, model, 5, 10)

	got, err := Answer(context.Background(), "what do I listen to about AI?")
	require.NoError(t, err)
	assert.Equal(t, noDataAnswer, got)
	assert.Zero(t, model.calls, "empty corpus must not reach the model")
}

func TestAnswerGroundsPromptInCatalog(t *testing.T) {
	model := &scriptedLLM{responses: []string{"You have two tech episodes."}}
	store := newTestEngine(t, model, 5, 10)
	seedEpisodes(t, store, 2)

	got, err := Answer(context.Background(), "anything about tech?")
	require.NoError(t, err)
	assert.Equal(t, "You have two tech episodes.", got)

	require.Len(t, model.prompts, 1)
	p := model.prompts[0]
	assert.Contains(t, p, "ONLY the episode catalog")
	assert.Contains(t, p, "say so plainly instead of guessing")
	assert.Contains(t, p, "Episode 1")
	assert.Contains(t, p, "Episode 2")
	assert.Contains(t, p, "anything about tech?")
}

func TestAnswerSurfacesModelFailure(t *testing.T) {
	model := &scriptedLLM{errs: []error{errors.New("upstream down")}}
	store := newTestEngine(t, model, 5, 10)
	seedEpisodes(t, store, 1)

	_, err := Answer(context.Background(), "anything?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	newTestEngine(t, &scriptedLLM{}, 5, 10)
	_, err := Answer(context.Background(), "   ")
	require.Error(t, err)
}

func TestBuildCorpusContextBudget(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	eps := []catalog.Episode{
		{Title: "Newest", ShowName: "S", Description: strings.Repeat("a", 200), AddedAt: base.Add(2 * time.Hour)},
		{Title: "Middle", ShowName: "S", Description: strings.Repeat("b", 200), AddedAt: base.Add(time.Hour)},
		{Title: "Oldest", ShowName: "S", Description: strings.Repeat("c", 200), AddedAt: base},
	}

	// Budget fits roughly one entry: the newest survives, the oldest
	// is dropped first.
	out := buildCorpusContext(eps, 250)
	assert.Contains(t, out, "Newest")
	assert.NotContains(t, out, "Oldest")

	full := buildCorpusContext(eps, 10000)
	assert.Contains(t, full, "Newest")
	assert.Contains(t, full, "Middle")
	assert.Contains(t, full, "Oldest")
}

func TestRenderEpisodeEntry(t *testing.T) {
	ep := catalog.Episode{
		Title:       "Deep Work",
		ShowName:    "Focus Pod",
		Category:    "Productivity",
		ReleaseDate: "2025-05-01",
		DurationMS:  1800000,
		Description: "How to focus.",
	}
	got := renderEpisodeEntry(3, ep)
	assert.Contains(t, got, "[3] Deep Work — Focus Pod")
	assert.Contains(t, got, "Productivity")
	assert.Contains(t, got, "30 min")
	assert.Contains(t, got, "How to focus.")
}
