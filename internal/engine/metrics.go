package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SourceRequests     atomic.Int64
	SourceErrors       atomic.Int64
	EpisodesFetched    atomic.Int64
	EpisodesNew        atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	EpisodesClassified atomic.Int64
	ClassifyFailures   atomic.Int64
	AnswerRequests     atomic.Int64
	ExportRuns         atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"source_requests":     metrics.SourceRequests.Load(),
		"source_errors":       metrics.SourceErrors.Load(),
		"episodes_fetched":    metrics.EpisodesFetched.Load(),
		"episodes_new":        metrics.EpisodesNew.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"episodes_classified": metrics.EpisodesClassified.Load(),
		"classify_failures":   metrics.ClassifyFailures.Load(),
		"answer_requests":     metrics.AnswerRequests.Load(),
		"export_runs":         metrics.ExportRuns.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"source_requests", "source_errors",
		"episodes_fetched", "episodes_new",
		"llm_calls", "llm_errors",
		"episodes_classified", "classify_failures",
		"answer_requests", "export_runs",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
