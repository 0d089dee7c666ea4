package toolcall

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"greenlife/internal/domain"
)

// NoActionSentinel is the literal the model emits when no tool calls apply.
const NoActionSentinel = "<tool_call>None</tool_call>"

// callPattern matches one tag-grammar occurrence: a tool-name tag pair
// immediately followed by an arguments tag pair. Non-greedy so adjacent
// occurrences do not merge; (?s) lets argument JSON span lines.
var callPattern = regexp.MustCompile(`(?s)<tool>(.*?)</tool><arguments>(.*?)</arguments>`)

// Option is a functional option for configuring a Parser.
type Option func(*Parser)

// WithLogger sets a structured logger for the Parser. If l is nil it is
// ignored and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser extracts structured tool calls from the tag grammar the model emits.
// It performs no semantic validation: unknown tool names pass through to the
// dispatcher, which owns the registry check.
type Parser struct {
	logger *slog.Logger
}

// NewParser returns a ready-to-use Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// Parse returns the tool calls found in text, in order of appearance.
// The no-action sentinel (surrounding whitespace ignored) yields an empty
// result without pattern matching. An occurrence whose argument payload is
// not valid JSON is dropped with a warning; sibling occurrences are kept.
func (p *Parser) Parse(text string) []domain.ToolCall {
	if strings.TrimSpace(text) == NoActionSentinel {
		return nil
	}

	var calls []domain.ToolCall
	for _, match := range callPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(match[1])
		args := strings.TrimSpace(match[2])
		if !json.Valid([]byte(args)) {
			p.log().Warn("dropping tool call with malformed arguments",
				"tool", name,
				"arguments", args,
			)
			continue
		}
		calls = append(calls, domain.ToolCall{
			Name:      name,
			Arguments: json.RawMessage(args),
		})
	}
	return calls
}
