package domain

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	Assistant AssistantConfig `json:"assistant"`
	Gateway   GatewayConfig   `json:"gateway"`
	Infra     InfraConfig     `json:"infra"`
	Retry     RetryConfig     `json:"retry"`
	Paths     PathsConfig     `json:"paths"`
}

// AssistantConfig controls the model, sampling, and prompt assembly.
type AssistantConfig struct {
	Provider      string  `json:"provider"` // "groq" | "openai"
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"maxTokens"`
	WindowTurns   int     `json:"windowTurns"`   // trailing turns included in the prompt
	ContextTokens int     `json:"contextTokens"` // token budget for the fitted window (0 = no fitting)
	Encoding      string  `json:"encoding"`      // tiktoken encoding, e.g. "cl100k_base"
	Currency      string  `json:"currency"`      // currency symbol for price formatting
	ErrorMessage  string  `json:"errorMessage"`  // substituted result when a tool call fails
	Apology       string  `json:"apology"`       // user-safe message when the reply call fails
}

type GatewayConfig struct {
	Port        int    `json:"port"`
	AuthToken   string `json:"authToken,omitempty"` // When set, gateway requires Authorization: Bearer <authToken>
	IdleMinutes int    `json:"idleMinutes"`         // Sessions idle longer than this are swept
	SweepCron   string `json:"sweepCron"`           // Cron expression for the idle-session sweep
}

// RetryConfig controls retry behaviour for language-model calls.
type RetryConfig struct {
	MaxRetries     int `json:"maxRetries"`     // Maximum retry attempts (0 = no retries)
	InitialBackoff int `json:"initialBackoff"` // Initial backoff in milliseconds
	MaxBackoff     int `json:"maxBackoff"`     // Maximum backoff in milliseconds
	Multiplier     int `json:"multiplier"`     // Backoff multiplier (e.g. 2 for exponential doubling)
}

type InfraConfig struct {
	LogFormat string `json:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel"`
}

type PathsConfig struct {
	Catalog    string `json:"catalog"`    // Catalog data file (.json or .yaml)
	Transcript string `json:"transcript"` // JSONL transcript file ("" disables persistence)
	OrdersDB   string `json:"ordersDb"`   // libsql URL, e.g. "file:orders.db" ("" disables)
}

// =============================================================================
// Shop Domain
// =============================================================================

// Product is reference data loaded once at startup and never mutated.
type Product struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	Category         string  `json:"category"`
	UnitSize         string  `json:"unit_size"`
	Stock            int     `json:"stock"`
	MinOrderQuantity int     `json:"min_order_quantity"`
}

type CartStatus string

const (
	CartActive     CartStatus = "active"
	CartCheckedOut CartStatus = "checked_out"
)

// CartLine is one product's entry in the cart. LineTotal is always
// Quantity * UnitPrice, recomputed on every mutation rather than stored
// independently of its inputs.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Cart holds at most one line per product. Total always equals the sum of
// the line totals.
type Cart struct {
	Lines  []CartLine `json:"lines"`
	Total  float64    `json:"total"`
	Status CartStatus `json:"status"`
}

// Order is a persisted checkout record.
type Order struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Lines     []CartLine `json:"lines"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"createdAt"`
}

// =============================================================================
// Messaging Protocol
// =============================================================================

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is one turn of the conversation as retained in the transcript.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatMessage is the wire-level role-tagged message sent to the language
// capability. It carries no transcript metadata.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one language-capability round trip: role-tagged messages
// plus sampling parameters. The model identifier belongs to the provider.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// =============================================================================
// Tooling
// =============================================================================

// ToolCall is a structured (name, arguments) instruction extracted from model
// output. Constructed by the parser, consumed by the dispatcher, not persisted.
type ToolCall struct {
	Name      string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type ToolResult struct {
	Data     string            `json:"data"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// LastAction records the most recently dispatched tool call and its outcome.
// Overwritten on every dispatch (last-write-wins), never merged.
type LastAction struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
	Result    string          `json:"result"`
}
