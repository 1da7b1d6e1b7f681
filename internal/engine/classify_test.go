package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM plays back canned responses (or errors) in order and
// records every prompt it saw.
type scriptedLLM struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedLLM) Complete(_ context.Context, _ string, prompt string, _ ...llm.ChatOption) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("scripted llm: out of responses")
}

// nopWaiter stands in for the rate limiter so tests never sleep.
type nopWaiter struct{ waits int }

func (w *nopWaiter) Wait(context.Context) error {
	w.waits++
	return nil
}

func newTestEngine(t *testing.T, model *scriptedLLM, maxCategories, batch int) catalog.Store {
	t.Helper()
	store, err := catalog.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	Init(Config{
		LLMClient:       model,
		Store:           store,
		MaxCategories:   maxCategories,
		ClassifyBatch:   batch,
		ClassifyRetries: 1,
	})
	return store
}

func newTestClassifier(t *testing.T, store catalog.Store) (*Classifier, *nopWaiter) {
	t.Helper()
	c, err := NewClassifier(context.Background(), store)
	require.NoError(t, err)
	w := &nopWaiter{}
	c.limiter = w
	return c, w
}

func seedEpisodes(t *testing.T, store catalog.Store, n int) {
	t.Helper()
	eps := make([]catalog.Episode, 0, n)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		eps = append(eps, catalog.Episode{
			ID:          fmt.Sprintf("ep%d", i+1),
			Title:       fmt.Sprintf("Episode %d", i+1),
			ShowName:    "The Show",
			AddedAt:     base.Add(time.Duration(i) * time.Hour),
			ProcessedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	_, err := store.UpsertEpisodes(context.Background(), "P1", eps)
	require.NoError(t, err)
}

func batchResponse(pairs ...string) string {
	var sb strings.Builder
	sb.WriteString(`{"categories": [`)
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `{"id": %q, "category": %q}`, pairs[i], pairs[i+1])
	}
	sb.WriteString(`]}`)
	return sb.String()
}

func TestClassifyVocabularyBound(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		batchResponse("ep1", "Tech & AI", "ep2", "Mental Health", "ep3", "Cooking"),
	}}
	store := newTestEngine(t, model, 2, 10)
	seedEpisodes(t, store, 3)

	c, w := newTestClassifier(t, store)
	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Classified)
	assert.Equal(t, 1, w.waits)

	cats, err := store.DistinctCategories(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(cats), 2, "vocabulary must never exceed the cap")

	// The overflow label fell back instead of being rejected:
	// nothing is left pending.
	pending, err := store.ListUncategorized(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestClassifyReusesSeededVocabulary(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		// Different casing and spacing than the stored label.
		batchResponse("ep1", "  tech & ai "),
	}}
	store := newTestEngine(t, model, 5, 10)
	seedEpisodes(t, store, 2)
	require.NoError(t, store.SetCategory(context.Background(), "ep2", "Tech & AI"))

	c, _ := newTestClassifier(t, store)
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	cats, err := store.DistinctCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Tech & AI"}, cats, "label must map to the canonical form")
}

func TestClassifyStrictPromptWhenVocabularyFull(t *testing.T) {
	model := &scriptedLLM{responses: []string{batchResponse("ep1", "Tech")}}
	store := newTestEngine(t, model, 2, 10)
	seedEpisodes(t, store, 1)

	// Fill the vocabulary before the run.
	_, err := store.UpsertEpisodes(context.Background(), "P2", []catalog.Episode{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
	})
	require.NoError(t, err)
	require.NoError(t, store.SetCategory(context.Background(), "a", "Tech"))
	require.NoError(t, store.SetCategory(context.Background(), "b", "Health"))

	c, _ := newTestClassifier(t, store)
	_, err = c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "closed list")
	assert.NotContains(t, model.prompts[0], "propose a new category")
}

func TestClassifyResumesAfterFailedBatch(t *testing.T) {
	// Batch size 2: first batch succeeds, second fails permanently.
	model := &scriptedLLM{
		responses: []string{
			batchResponse("ep1", "Tech", "ep2", "Tech"),
			"", "",
		},
		errs: []error{nil, errors.New("boom"), errors.New("boom")},
	}
	store := newTestEngine(t, model, 5, 2)
	seedEpisodes(t, store, 4)

	c, _ := newTestClassifier(t, store)
	res, err := c.Run(context.Background())
	require.NoError(t, err, "a failed batch must not abort the pass")
	assert.Equal(t, 2, res.Classified)
	assert.Equal(t, 2, res.Failed)

	pending, err := store.ListUncategorized(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// A later run with a healthy model picks up exactly the remainder.
	model2 := &scriptedLLM{responses: []string{batchResponse("ep3", "Health", "ep4", "Health")}}
	Cfg.LLMClient = model2
	c2, _ := newTestClassifier(t, store)
	res2, err := c2.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res2.Classified)

	pending, err = store.ListUncategorized(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Earlier categories untouched by the second run.
	eps, err := store.ListEpisodes(context.Background(), "")
	require.NoError(t, err)
	for _, ep := range eps {
		if ep.ID == "ep1" || ep.ID == "ep2" {
			assert.Equal(t, "Tech", ep.Category)
		}
	}
}

func TestClassifyMonotonicProgress(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		batchResponse("ep1", "Tech", "ep2", "Health", "ep3", "Tech"),
	}}
	store := newTestEngine(t, model, 5, 10)
	seedEpisodes(t, store, 3)

	before, err := store.ListUncategorized(context.Background(), 0)
	require.NoError(t, err)

	c, _ := newTestClassifier(t, store)
	_, err = c.Run(context.Background())
	require.NoError(t, err)

	after, err := store.ListUncategorized(context.Background(), 0)
	require.NoError(t, err)
	assert.Less(t, len(after), len(before))
}

func TestClassifyQuotaExhaustionStopsRun(t *testing.T) {
	model := &scriptedLLM{
		responses: []string{batchResponse("ep1", "Tech", "ep2", "Tech")},
		errs:      []error{nil, errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")},
	}
	store := newTestEngine(t, model, 5, 2)
	seedEpisodes(t, store, 4)

	c, _ := newTestClassifier(t, store)
	res, err := c.Run(context.Background())
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.True(t, res.QuotaHit)
	assert.Equal(t, 2, res.Classified, "first batch committed before the quota hit")
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 2, model.calls, "quota errors are not retried")

	pending, err := store.ListUncategorized(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestClassifyMalformedResponseRetried(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		"not json at all",
		batchResponse("ep1", "Tech"),
	}}
	store := newTestEngine(t, model, 5, 10)
	seedEpisodes(t, store, 1)

	c, _ := newTestClassifier(t, store)
	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Classified)
	assert.Equal(t, 2, model.calls)
}

func TestResolveFallback(t *testing.T) {
	store := newTestEngine(t, &scriptedLLM{}, 1, 10)
	c, _ := newTestClassifier(t, store)

	assert.Equal(t, "Tech", c.resolve("Tech"))               // fills the cap
	assert.Equal(t, "Tech", c.resolve("  TECH  "))           // normalized reuse
	assert.Equal(t, catalog.Fallback, c.resolve("Cooking"))  // over the cap
	assert.Equal(t, catalog.Fallback, c.resolve("   "))      // unusable label
	assert.Equal(t, 1, c.VocabularySize())
}
