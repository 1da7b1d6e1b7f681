// Package toolutil provides shared helper functions for go_podcast MCP tools.
package toolutil

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anatolykoptev/go_podcast/internal/engine"
)

// NormQuestion normalises a question for cache keying: trimmed,
// lowercased, inner whitespace collapsed. The answer itself always sees
// the original text.
func NormQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	cached, ok := engine.CacheGet(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	var out T
	if err := json.Unmarshal([]byte(cached), &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	engine.CacheSet(ctx, key, string(data))
}
