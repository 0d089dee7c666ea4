package assistant

import (
	"fmt"

	"greenlife/internal/domain"
	"greenlife/internal/tooling"
)

// Dispatcher connects parsed tool calls to SchemaTool implementations. It
// owns the semantic validation the parser deliberately skips: the tool name
// is checked against the registry and the raw JSON arguments are validated
// against the tool's schema before execution.
type Dispatcher struct {
	registry *tooling.ToolRegistry
}

// NewDispatcher creates a dispatcher backed by the given registry.
// Panics if registry is nil.
func NewDispatcher(registry *tooling.ToolRegistry) *Dispatcher {
	if registry == nil {
		panic("dispatcher: registry must not be nil")
	}
	return &Dispatcher{registry: registry}
}

// Definitions returns the registry's tool definitions in advertised order.
func (d *Dispatcher) Definitions() []domain.ToolDefinition {
	return d.registry.Definitions()
}

// Dispatch looks up the tool by name, validates the arguments against the
// tool's JSON Schema, and executes it. If the tool is unknown or validation
// fails, a descriptive error is returned and the tool is never invoked.
func (d *Dispatcher) Dispatch(call domain.ToolCall) (*domain.ToolResult, error) {
	tool, err := d.registry.Get(call.Name)
	if err != nil {
		return nil, err // "unknown tool: ..."
	}

	if err := tooling.ValidateAgainstSchema(call.Arguments, tool.Definition()); err != nil {
		return nil, fmt.Errorf("schema validation failed for tool %q: %w", call.Name, err)
	}

	return tool.Call(call.Arguments)
}
