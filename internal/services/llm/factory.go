package llm

import (
	"context"
	"fmt"
	"strings"

	"podenrich/internal/config"
)

// New returns the Generator selected by cfg.Provider. Generators that hold
// connections also implement io.Closer.
func New(ctx context.Context, cfg config.LLMConfig, opts ...Option) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.TimeoutSeconds, opts...), nil
	case config.ProviderOpenRouter:
		return NewClient(Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Referer:        cfg.Referer,
			Title:          cfg.Title,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, opts...), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.TimeoutSeconds, opts...), nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// HealthCheck issues a single short completion to confirm credentials and
// model. Callers pass a generator built with a one-attempt retrier.
func HealthCheck(ctx context.Context, gen Generator) error {
	if gen == nil {
		return fmt.Errorf("llm health: generator not configured")
	}
	_, err := gen.Generate(ctx, Request{
		System:    "You are a health check. Reply with the single word OK.",
		User:      "Reply with OK.",
		MaxTokens: 5,
	})
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	return nil
}
