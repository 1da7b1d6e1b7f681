package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
)

// classifyRetryConfig retries malformed or failed batch responses.
// Quota exhaustion is never retried — it ends classification for the run.
var classifyRetryConfig = RetryConfig{
	MaxRetries:  2,
	InitialWait: 2 * time.Second,
	MaxWait:     15 * time.Second,
	Multiplier:  2.0,
	RetryIf:     func(err error) bool { return !isQuotaExhausted(err) },
}

// Classifier assigns each uncategorized episode to one label from a
// bounded, reused vocabulary, under the model's requests-per-minute
// ceiling. It is built per run: the working vocabulary is seeded from
// the catalog and grown in memory as new labels are accepted.
type Classifier struct {
	store   catalog.Store
	limiter waiter
	// vocab maps NormalizeCategory(label) → canonical display form.
	vocab map[string]string
	max   int
	batch int
}

// ClassifyResult summarizes one classification pass.
type ClassifyResult struct {
	Classified int
	Failed     int // left uncategorized for a later run
	QuotaHit   bool
}

// NewClassifier seeds the working vocabulary from the catalog's
// distinct categories.
func NewClassifier(ctx context.Context, store catalog.Store) (*Classifier, error) {
	existing, err := store.DistinctCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("classify: seed vocabulary: %w", err)
	}
	vocab := make(map[string]string, len(existing))
	for _, c := range existing {
		vocab[NormalizeCategory(c)] = c
	}
	return &Classifier{
		store:   store,
		limiter: NewRPMLimiter(cfg.RPMLimit),
		vocab:   vocab,
		max:     cfg.MaxCategories,
		batch:   cfg.ClassifyBatch,
	}, nil
}

// Run classifies every pending episode in batches. Each decided
// (episode, category) pair is persisted immediately, so an interrupted
// run leaves only the not-yet-processed episodes pending. A failed
// batch is logged and skipped; quota exhaustion stops the pass early
// with the remainder counted as failed.
func (c *Classifier) Run(ctx context.Context) (*ClassifyResult, error) {
	pending, err := c.store.ListUncategorized(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("classify: list pending: %w", err)
	}
	res := &ClassifyResult{}
	if len(pending) == 0 {
		return res, nil
	}

	slog.Info("classification pass",
		slog.Int("pending", len(pending)),
		slog.Int("vocabulary", len(c.vocab)),
		slog.Int("batch", c.batch),
	)

	for start := 0; start < len(pending); start += c.batch {
		// Interruptible at batch boundaries only: a request in flight
		// and its persistence always complete together.
		if ctx.Err() != nil {
			res.Failed += len(pending) - start
			return res, ctx.Err()
		}

		batch := pending[start:min(start+c.batch, len(pending))]
		labels, err := c.classifyBatch(ctx, start/c.batch, batch)
		if err != nil {
			if isQuotaExhausted(err) {
				slog.Warn("model quota exhausted, stopping classification for this run",
					slog.Int("remaining", len(pending)-start))
				res.Failed += len(pending) - start
				res.QuotaHit = true
				return res, ErrQuotaExceeded
			}
			metrics.ClassifyFailures.Add(int64(len(batch)))
			res.Failed += len(batch)
			slog.Error("classification batch failed, episodes stay pending",
				slog.Int("batch", start/c.batch), slog.Any("error", err))
			continue
		}

		for _, ep := range batch {
			raw, ok := labels[ep.ID]
			if !ok {
				// Model skipped this id; leave it for a later run.
				metrics.ClassifyFailures.Add(1)
				res.Failed++
				continue
			}
			category := c.resolve(raw)
			if err := c.store.SetCategory(ctx, ep.ID, category); err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return res, fmt.Errorf("classify: %w", err)
				}
				res.Failed++
				slog.Error("persist category failed", slog.String("episode", ep.ID), slog.Any("error", err))
				continue
			}
			metrics.EpisodesClassified.Add(1)
			res.Classified++
			slog.Info("classified",
				slog.String("episode", ep.ID),
				slog.String("title", TruncateRunes(ep.Title, 60, "…")),
				slog.String("category", category),
			)
		}
	}
	return res, nil
}

// classifyBatch sends one model request for a batch and parses the
// labels, retrying transient failures.
func (c *Classifier) classifyBatch(ctx context.Context, n int, batch []catalog.Episode) (map[string]string, error) {
	prompt := c.buildPrompt(batch)

	rc := classifyRetryConfig
	if cfg.ClassifyRetries > 0 {
		rc.MaxRetries = cfg.ClassifyRetries
	}
	labels, err := RetryDo(ctx, rc, func() (map[string]string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		raw, err := CallLLM(ctx, prompt)
		if err != nil {
			if isQuotaExhausted(err) {
				return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
			}
			return nil, err
		}
		return parseBatchLabels(raw)
	})
	if err != nil {
		if isQuotaExhausted(err) {
			return nil, err
		}
		return nil, &ClassificationError{Batch: n, Err: err}
	}
	return labels, nil
}

// buildPrompt renders the batch plus the current vocabulary. Below the
// cap the model may propose new labels; at the cap the list is closed.
func (c *Classifier) buildPrompt(batch []catalog.Episode) string {
	var guidance string
	if len(c.vocab) > 0 {
		names := make([]string, 0, len(c.vocab))
		for _, v := range c.vocab {
			names = append(names, v)
		}
		list := `"` + strings.Join(names, `", "`) + `"`
		if len(c.vocab) >= c.max {
			guidance = fmt.Sprintf(classifyStrictGuidance, list) + "\n"
		} else {
			guidance = fmt.Sprintf(classifyReuseGuidance, list) + "\n"
		}
	}

	var sb strings.Builder
	for _, ep := range batch {
		fmt.Fprintf(&sb, "\nid: %s\nPodcast: %s\nTitle: %s\n", ep.ID, ep.ShowName, ep.Title)
		if desc := strings.TrimSpace(ep.Description); desc != "" {
			fmt.Fprintf(&sb, "Description: %s\n", TruncateRunes(desc, cfg.MaxDescChars, "…"))
		}
	}
	return fmt.Sprintf(classifyPrompt, guidance, sb.String())
}

// resolve validates a model label against the vocabulary. Known labels
// map to their canonical form; new ones are accepted only below the
// cap. Past the cap an unknown label falls back to the Uncategorized
// sentinel so the pass still terminates with every episode labeled.
func (c *Classifier) resolve(raw string) string {
	cleaned := CleanCategory(raw)
	if cleaned == "" {
		return catalog.Fallback
	}
	key := NormalizeCategory(cleaned)
	if canon, ok := c.vocab[key]; ok {
		return canon
	}
	if len(c.vocab) < c.max {
		c.vocab[key] = cleaned
		return cleaned
	}
	return catalog.Fallback
}

// VocabularySize reports the current distinct category count.
func (c *Classifier) VocabularySize() int { return len(c.vocab) }
