package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"greenlife/internal/domain"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + mustQuote(content) + `}}]}`
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGroqComplete_ShouldSendAuthAndModelAndReturnContent(t *testing.T) {
	var gotAuth string
	var gotBody chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(completionBody("hello there")))
	}))
	defer srv.Close()

	p := NewGroqProvider("test-key", "test-model")
	p.baseURL = srv.URL

	got, err := p.Complete(context.Background(), domain.ChatRequest{
		Messages:    []domain.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: 0.5,
		MaxTokens:   64,
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "hello there" {
		t.Errorf("Complete() = %q, want hello there", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotBody.Model != "test-model" {
		t.Errorf("request model = %q, want test-model", gotBody.Model)
	}
	if gotBody.Temperature != 0.5 || gotBody.MaxTokens != 64 {
		t.Errorf("sampling params = (%v, %d), want (0.5, 64)", gotBody.Temperature, gotBody.MaxTokens)
	}
}

func TestGroqComplete_WhenNon200_ShouldReturnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGroqProvider("k", "m")
	p.baseURL = srv.URL

	if _, err := p.Complete(context.Background(), domain.ChatRequest{}); err == nil {
		t.Fatal("429 response should return error")
	}
}

func TestGroqComplete_WhenNoChoices_ShouldReturnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewGroqProvider("k", "m")
	p.baseURL = srv.URL

	if _, err := p.Complete(context.Background(), domain.ChatRequest{}); err == nil {
		t.Fatal("empty choices should return error")
	}
}

func TestGroqComplete_WhenContextCancelled_ShouldReturnEarly(t *testing.T) {
	p := NewGroqProvider("k", "m")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Complete(ctx, domain.ChatRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Complete() error = %v, want context.Canceled", err)
	}
}

func TestGroqComplete_WhenMarshalFails_ShouldReturnError(t *testing.T) {
	p := NewGroqProvider("k", "m")
	p.marshalFunc = func(v interface{}) ([]byte, error) { return nil, errors.New("marshal failed") }

	if _, err := p.Complete(context.Background(), domain.ChatRequest{}); err == nil {
		t.Fatal("marshal failure should return error")
	}
}
