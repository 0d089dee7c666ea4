package llm

import (
	"fmt"

	"greenlife/internal/domain"
	"greenlife/internal/retry"
)

// NewProvider builds a ChatProvider from config. The API key comes from the
// caller (environment, typically). When retryCfg is non-nil the provider is
// wrapped in the retry decorator.
func NewProvider(cfg *domain.AssistantConfig, apiKey string, retryCfg *domain.RetryConfig) (domain.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: nil assistant config")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("llm: API key is required for provider %q", cfg.Provider)
	}

	var provider domain.ChatProvider
	switch cfg.Provider {
	case "groq":
		provider = NewGroqProvider(apiKey, cfg.Model)
	case "openai":
		provider = NewOpenAIProvider(apiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	if retryCfg != nil {
		provider = retry.NewRetryableProvider(provider, retry.FromDomain(retryCfg))
	}
	return provider, nil
}
