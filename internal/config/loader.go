package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"greenlife/internal/domain"
)

// marshalIndent and writeFile are used by WriteDefault; tests may replace to force errors.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
)

// Default returns the baseline configuration a fresh install starts from.
func Default() *domain.Config {
	return &domain.Config{
		Assistant: domain.AssistantConfig{
			Provider:      "groq",
			Model:         "llama-3.3-70b-versatile",
			Temperature:   0.7,
			MaxTokens:     1024,
			WindowTurns:   5,
			ContextTokens: 6000,
			Encoding:      "cl100k_base",
			Currency:      "₹",
			ErrorMessage:  "Sorry, that action could not be completed.",
			Apology:       "I apologize, but I'm having trouble processing your request. Please try again.",
		},
		Gateway: domain.GatewayConfig{
			Port:        8080,
			IdleMinutes: 30,
			SweepCron:   "*/10 * * * *",
		},
		Infra: domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
		Retry: domain.RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 500,
			MaxBackoff:     30000,
			Multiplier:     2,
		},
		Paths: domain.PathsConfig{
			Catalog:    "products.json",
			Transcript: "transcript.jsonl",
			OrdersDB:   "file:orders.db",
		},
	}
}

// WriteDefault writes a default Config to path (e.g. greenlife.json). Parent
// directories are not created.
func WriteDefault(path string) error {
	data, err := marshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data, 0644)
}

// Load reads path, unmarshals into domain.Config, validates it, and cleans
// all path fields. A missing file, invalid JSON, or a failed validation all
// return an error; the process must not start on a partial config.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	var c domain.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	CleanPaths(&c)
	return &c, nil
}

// Validate enforces the fields the assistant cannot run without.
func Validate(cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config validate: nil config")
	}
	if cfg.Assistant.Provider == "" {
		return fmt.Errorf("config validate: assistant.provider is required")
	}
	if cfg.Assistant.Model == "" {
		return fmt.Errorf("config validate: assistant.model is required")
	}
	if cfg.Assistant.WindowTurns <= 0 {
		return fmt.Errorf("config validate: assistant.windowTurns must be > 0")
	}
	if cfg.Assistant.Temperature < 0 {
		return fmt.Errorf("config validate: assistant.temperature must be >= 0")
	}
	if cfg.Paths.Catalog == "" {
		return fmt.Errorf("config validate: paths.catalog is required")
	}
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		return fmt.Errorf("config validate: gateway.port must be 0-65535")
	}
	return nil
}

// CleanPaths applies filepath.Clean to all path fields in cfg to mitigate
// path traversal. The orders DB field is a URL, not a path, and is left alone.
func CleanPaths(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	cfg.Paths.Catalog = filepath.Clean(cfg.Paths.Catalog)
	if cfg.Paths.Transcript != "" {
		cfg.Paths.Transcript = filepath.Clean(cfg.Paths.Transcript)
	}
}
