package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/anatolykoptev/go_podcast/internal/engine/spotify"
)

// Completer is the slice of the LLM client the engine calls. Satisfied
// by *llm.Client; tests inject scripted fakes.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, opts ...llm.ChatOption) (string, error)
}

// Source lists playlist content from the streaming service. Satisfied by
// *spotify.Client; tests inject scripted pages.
type Source interface {
	PlaylistName(ctx context.Context, playlistID string) (string, error)
	Page(ctx context.Context, playlistID string, offset int) (*spotify.Page, error)
	Episode(ctx context.Context, episodeID string) (*spotify.EpisodeObject, error)
}

// Config holds all engine configuration, injected from main.
type Config struct {
	PlaylistIDs []string

	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int

	RPMLimit           int // classification requests per minute ceiling
	MaxCategories      int // vocabulary cardinality bound
	ClassifyBatch      int // episodes per model request
	ClassifyRetries    int // per-batch retry budget
	MaxDescChars       int // per-episode description chars sent to the model
	AnswerContextChars int // corpus context budget for Q&A

	DBPath      string
	DatabaseURL string // non-empty = PostgreSQL catalog backend

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
	LLMClient  Completer
	Source     Source
	Store      catalog.Store
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages and main.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.RPMLimit <= 0 {
		c.RPMLimit = 15
	}
	if c.MaxCategories <= 0 {
		c.MaxCategories = 24
	}
	if c.ClassifyBatch <= 0 {
		c.ClassifyBatch = 8
	}
	if c.MaxDescChars <= 0 {
		c.MaxDescChars = 1000
	}
	if c.AnswerContextChars <= 0 {
		c.AnswerContextChars = 60000
	}
	cfg = c
	Cfg = &cfg
}
