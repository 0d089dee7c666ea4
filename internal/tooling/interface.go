package tooling

import (
	"encoding/json"

	"greenlife/internal/domain"
)

// SchemaTool is a tool whose input contract is a JSON Schema. The registry
// advertises the schema to the language capability; the dispatcher validates
// raw arguments against it before Call runs.
type SchemaTool interface {
	// Name returns the tool name used in the tag grammar.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Definition returns the JSON Schema for the tool's arguments.
	Definition() string

	// Call executes the tool with pre-validated JSON arguments.
	Call(args json.RawMessage) (*domain.ToolResult, error)
}

// ToolResult is re-exported from domain for implementations in this package.
type ToolResult = domain.ToolResult
