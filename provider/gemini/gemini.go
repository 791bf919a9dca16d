package gemini_provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/careerchat/config"
	"google.golang.org/genai"
)

// client implements provider.Provider for the Google Gemini API.
type client struct {
	api             *genai.Client
	completionModel string
	embeddingModel  string
	temperature     float32
	maxTokens       int32
}

// NewGeminiClient creates a Gemini client. A non-empty BaseURL overrides the API endpoint.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*client, error) {
	cfg = cfg.Normalize()
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &client{
		api:             gc,
		completionModel: cfg.CompletionModel,
		embeddingModel:  cfg.EmbeddingModel,
		temperature:     float32(cfg.Temperature),
		maxTokens:       int32(cfg.MaxTokens),
	}, nil
}

func (c *client) generateConfig(system string) *genai.GenerateContentConfig {
	temp := c.temperature
	gcfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: c.maxTokens,
	}
	if system != "" {
		gcfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	return gcfg
}

func (c *client) Complete(ctx context.Context, system, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.api.Models.GenerateContent(ctx, c.completionModel, contents, c.generateConfig(system))
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	// a blocked or empty candidate comes back as "" and is handled by the caller
	return strings.TrimSpace(resp.Text()), nil
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := c.api.Models.EmbedContent(ctx, c.embeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	vecs := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		vecs[i] = e.Values
	}
	return vecs, nil
}
