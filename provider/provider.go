package provider

import (
	"context"
	"errors"
	"os"

	"github.com/mohammad-safakhou/careerchat/config"
	gemini_provider "github.com/mohammad-safakhou/careerchat/provider/gemini"
	openai_provider "github.com/mohammad-safakhou/careerchat/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
	Gemini Client = "gemini"
)

// Completer generates text for a system instruction and a user prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Completer
	Embedder
}

// NewProvider creates a new LLM client based on the provided configuration.
// An empty api_key falls back to the vendor's conventional environment variable.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	cfg = cfg.Normalize()
	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.APIKey == "" {
			return nil, errors.New("llm.api_key or OPENAI_API_KEY not set")
		}
		return openai_provider.NewOpenAIClient(cfg), nil
	case Gemini:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		if cfg.APIKey == "" {
			return nil, errors.New("llm.api_key or GEMINI_API_KEY not set")
		}
		c, err := gemini_provider.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
