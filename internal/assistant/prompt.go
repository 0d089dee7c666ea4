package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"greenlife/internal/domain"
	"greenlife/internal/toolcall"
)

// productInfo is the catalog projection embedded in the context snapshot.
// It carries only the fields the model needs to talk about products.
type productInfo struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	UnitSize string  `json:"unit_size"`
	Stock    int     `json:"stock"`
	MinOrder int     `json:"min_order"`
}

// contextSnapshot is the JSON document grounding both language-capability
// calls: cart state, the full catalog projection, and the last action.
type contextSnapshot struct {
	Cart       domain.Cart            `json:"cart"`
	Products   map[string]productInfo `json:"products"`
	LastAction *domain.LastAction     `json:"last_action"`
}

// buildSnapshot assembles the current context snapshot as a JSON string.
func (a *Assistant) buildSnapshot() (string, error) {
	products := make(map[string]productInfo)
	for _, p := range a.catalog.All() {
		products[p.ID] = productInfo{
			Name:     p.Name,
			Price:    p.Price,
			UnitSize: p.UnitSize,
			Stock:    p.Stock,
			MinOrder: p.MinOrderQuantity,
		}
	}
	snap := contextSnapshot{
		Cart:       a.cart.Summary(),
		Products:   products,
		LastAction: a.convo.LastAction(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("assistant: marshaling context snapshot: %w", err)
	}
	return string(data), nil
}

// replySystemPrompt builds the system instruction for the conversational
// reply call. It embeds the context snapshot and forbids leaking tool-call
// syntax to the user.
func replySystemPrompt(snapshot, currency string) string {
	return fmt.Sprintf(`You are GreenLife Assistant, helping customers shop for organic Indian food products.

Current Context: %s

Your capabilities:
1. Show available products and their details
2. Add items to cart (check minimum order quantities)
3. Remove items from cart
4. Process checkout
5. Answer questions about products

Guidelines:
- Be concise and natural in responses
- Maintain context of the conversation
- Verify stock before suggesting products
- Guide users through the ordering process
- Keep track of cart state
- Use %s for prices

Respond naturally to the user's message. Do not expose technical details or function calls in your response.`, snapshot, currency)
}

// extractionSystemPrompt builds the deterministic tool-extraction instruction:
// the context snapshot, the advertised tool registry, the formatting rules,
// and the tag grammar with its no-action sentinel.
func extractionSystemPrompt(snapshot string, defs []domain.ToolDefinition, currency string) (string, error) {
	toolsJSON, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("assistant: marshaling tool definitions: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `You identify which tool calls an assistant reply implies.

Current context: %s

Available tools: %s

Rules for tool usage:
1. Use exact product names and prices from the catalog
2. Respect minimum order quantities
3. Verify stock availability before actions
4. Calculate totals based on unit price × quantity
5. Format currency as %s with 2 decimal places

Return tool calls in XML format:
<tool>tool_name</tool><arguments>{json args}</arguments>

If no tool call applies, return exactly: %s`,
		snapshot, toolsJSON, currency, toolcall.NoActionSentinel)
	return sb.String(), nil
}

// chatMessages maps a conversation window into wire messages, prefixed by
// the system instruction.
func chatMessages(systemPrompt string, window []domain.Message) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(window)+1)
	out = append(out, domain.ChatMessage{Role: string(domain.RoleSystem), Content: systemPrompt})
	for _, msg := range window {
		out = append(out, domain.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
