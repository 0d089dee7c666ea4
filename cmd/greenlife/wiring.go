package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"greenlife/internal/assistant"
	"greenlife/internal/cart"
	"greenlife/internal/catalog"
	"greenlife/internal/config"
	convo "greenlife/internal/context"
	"greenlife/internal/domain"
	"greenlife/internal/llm"
	"greenlife/internal/tokenizer"
	"greenlife/internal/tooling"
)

// defaultConfigPath is used when GREENLIFE_CONFIG is not set.
const defaultConfigPath = "greenlife.json"

// configPath resolves the config file location from the environment.
func configPath() string {
	if p := os.Getenv("GREENLIFE_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// loadConfig loads the config file, falling back to defaults when the file
// does not exist. Any other load failure (bad JSON, failed validation) is
// fatal.
func loadConfig() (*domain.Config, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// setupLogger installs the process-wide slog logger per the infra config.
func setupLogger(infra domain.InfraConfig) {
	var level slog.Level
	switch infra.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if infra.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// apiKeyFromEnv resolves the provider API key from the environment. Keys are
// never stored in the config file.
func apiKeyFromEnv(provider string) (string, error) {
	var envVar string
	switch provider {
	case "groq":
		envVar = "GROQ_API_KEY"
	case "openai":
		envVar = "OPENAI_API_KEY"
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s is not set", envVar)
	}
	return key, nil
}

// buildAssistant wires one session's worth of collaborators: its own cart,
// conversation, tool registry, and dispatcher over the shared catalog,
// provider, and order store. extraOpts lets the caller attach a transcript.
func buildAssistant(cfg *domain.Config, provider domain.ChatProvider, cat *catalog.Catalog, orders domain.OrderStore, sessionID string, extraOpts ...assistant.Option) (*assistant.Assistant, error) {
	mgr := cart.NewManager()
	conversation := convo.NewConversation(cfg.Assistant.WindowTurns)

	reg := tooling.NewToolRegistry()
	if err := tooling.RegisterShopTools(reg, cat, mgr, orders, sessionID, cfg.Assistant.Currency); err != nil {
		return nil, err
	}
	dispatcher := assistant.NewDispatcher(reg)

	opts := make([]assistant.Option, 0, len(extraOpts)+1)
	if cfg.Assistant.ContextTokens > 0 && cfg.Assistant.Encoding != "" {
		tok, err := tokenizer.NewTikToken(cfg.Assistant.Encoding)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assistant.WithFitter(convo.NewFitter(tok, cfg.Assistant.ContextTokens)))
	}
	opts = append(opts, extraOpts...)

	return assistant.New(cfg.Assistant, provider, cat, mgr, conversation, dispatcher, opts...), nil
}

// newProvider builds the configured chat provider with retry wrapping.
func newProvider(cfg *domain.Config) (domain.ChatProvider, error) {
	apiKey, err := apiKeyFromEnv(cfg.Assistant.Provider)
	if err != nil {
		return nil, err
	}
	return llm.NewProvider(&cfg.Assistant, apiKey, &cfg.Retry)
}
