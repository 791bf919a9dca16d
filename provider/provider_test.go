package provider

import (
	"context"
	"testing"

	"github.com/mohammad-safakhou/careerchat/config"
)

func TestNewProviderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	for _, name := range []string{"openai", "gemini"} {
		if _, err := NewProvider(context.Background(), config.LLMConfig{Provider: name}); err == nil {
			t.Fatalf("%s: expected error without api key", name)
		}
	}
}

func TestNewProviderUsesEnvKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := NewProvider(context.Background(), config.LLMConfig{Provider: "openai"})
	if err != nil || p == nil {
		t.Fatalf("expected provider from env key, got %v", err)
	}
}

func TestNewProviderRejectsUnknown(t *testing.T) {
	if _, err := NewProvider(context.Background(), config.LLMConfig{Provider: "anthropic", APIKey: "x"}); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}
