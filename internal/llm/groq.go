package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"greenlife/internal/domain"
)

// GroqProvider calls the Groq Chat Completions API (OpenAI-compatible wire).
type GroqProvider struct {
	apiKey      string
	model       string
	client      *http.Client
	baseURL     string
	marshalFunc func(v interface{}) ([]byte, error) // for testing
}

// NewGroqProvider returns a Groq-backed ChatProvider.
func NewGroqProvider(apiKey, model string) *GroqProvider {
	return &GroqProvider{
		apiKey:      apiKey,
		model:       model,
		client:      &http.Client{},
		baseURL:     "https://api.groq.com/openai/v1/chat/completions",
		marshalFunc: json.Marshal,
	}
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements domain.ChatProvider.
func (p *GroqProvider) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body := chatCompletionRequest{
		Model:       p.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	raw, err := p.marshalFunc(body)
	if err != nil {
		return "", fmt.Errorf("groq marshal: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("groq do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq api: %s", resp.Status)
	}
	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("groq decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("groq: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

var _ domain.ChatProvider = (*GroqProvider)(nil)
