package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"greenlife/internal/cart"
	"greenlife/internal/catalog"
	convo "greenlife/internal/context"
	"greenlife/internal/domain"
	"greenlife/internal/toolcall"
)

// Option is a functional option for configuring an Assistant.
type Option func(*Assistant)

// WithFitter sets the token-budget fitter applied to the prompt window.
// If f is nil it is ignored (the window is sent without token fitting).
func WithFitter(f *convo.Fitter) Option {
	return func(a *Assistant) {
		if f != nil {
			a.fitter = f
		}
	}
}

// WithTranscript sets the transcript store messages are persisted to.
// If ts is nil it is ignored (no persistence).
func WithTranscript(ts domain.TranscriptStore) Option {
	return func(a *Assistant) {
		if ts != nil {
			a.transcript = ts
		}
	}
}

// WithLogger sets a structured logger. If l is nil it is ignored and the
// default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// Assistant runs the per-turn orchestration loop: assemble context, request
// a conversational reply, extract the implied tool calls, execute them
// against the cart and catalog, and fold the results back into context.
// One Assistant serves one session; turns are processed strictly
// sequentially because each turn depends on the prior turn's committed state.
type Assistant struct {
	cfg        domain.AssistantConfig
	provider   domain.ChatProvider
	catalog    *catalog.Catalog
	cart       *cart.Manager
	convo      *convo.Conversation
	parser     *toolcall.Parser
	dispatcher *Dispatcher

	fitter     *convo.Fitter          // optional; nil means no token fitting
	transcript domain.TranscriptStore // optional; nil means no persistence
	logger     *slog.Logger           // optional; nil uses slog.Default()
}

// New returns an Assistant wired to the given collaborators. All of
// provider, cat, cartMgr, conversation, and dispatcher must be non-nil.
func New(cfg domain.AssistantConfig, provider domain.ChatProvider, cat *catalog.Catalog, cartMgr *cart.Manager, conversation *convo.Conversation, dispatcher *Dispatcher, opts ...Option) *Assistant {
	if provider == nil {
		panic("assistant: provider must not be nil")
	}
	if cat == nil {
		panic("assistant: catalog must not be nil")
	}
	if cartMgr == nil {
		panic("assistant: cart must not be nil")
	}
	if conversation == nil {
		panic("assistant: conversation must not be nil")
	}
	if dispatcher == nil {
		panic("assistant: dispatcher must not be nil")
	}
	a := &Assistant{
		cfg:        cfg,
		provider:   provider,
		catalog:    cat,
		cart:       cartMgr,
		convo:      conversation,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.parser = toolcall.NewParser(toolcall.WithLogger(a.log()))
	return a
}

func (a *Assistant) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Conversation returns the session's conversation state.
func (a *Assistant) Conversation() *convo.Conversation { return a.convo }

// Cart returns the session's cart manager.
func (a *Assistant) Cart() *cart.Manager { return a.cart }

// ProcessMessage runs one full turn for the given user message and returns
// the assistant's reply. The returned string is always safe to show the
// user; a non-nil error reports a turn-fatal capability failure (the reply
// is then the configured apology). Failures in the extraction and dispatch
// stages degrade gracefully: the turn still completes with the reply.
func (a *Assistant) ProcessMessage(ctx context.Context, userMessage string) (string, error) {
	a.record(domain.RoleUser, userMessage)

	// AwaitingReply: one capability round trip for the user-facing reply.
	reply, err := a.requestReply(ctx, userMessage)
	if err != nil {
		a.log().Error("reply request failed", "state", stateFailed, "error", err)
		return a.cfg.Apology, fmt.Errorf("assistant: reply request: %w", err)
	}

	// ReplyReceived: commit the reply to history immediately so partial
	// failures downstream still leave a consistent transcript.
	a.log().Debug("reply committed", "state", stateReplyReceived)
	a.record(domain.RoleAssistant, reply)
	a.convo.SetTurn(userMessage, reply)

	// ExtractingTools + Dispatching: auxiliary; never abort the turn.
	a.handleActions(ctx, reply)

	a.log().Debug("turn complete", "state", stateDone)
	return reply, nil
}

// requestReply performs the conversational capability call with the current
// context snapshot and the fitted trailing window.
func (a *Assistant) requestReply(ctx context.Context, userMessage string) (string, error) {
	a.log().Debug("assembling reply request", "state", stateAwaitingReply)

	snapshot, err := a.buildSnapshot()
	if err != nil {
		return "", err
	}
	system := replySystemPrompt(snapshot, a.cfg.Currency)

	window := a.convo.Window()
	if a.fitter != nil {
		fitted, err := a.fitter.FitToWindow(window, system)
		if err != nil {
			return "", err
		}
		window = fitted
	}

	return a.provider.Complete(ctx, domain.ChatRequest{
		Messages:    chatMessages(system, window),
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
}

// handleActions extracts the tool calls implied by reply and executes them.
// Per-call failures are isolated: the failing call's result becomes the
// configured generic error message and the remaining calls still run. After
// all calls, the last-action slot is overwritten with the final call's
// record (last-write-wins).
func (a *Assistant) handleActions(ctx context.Context, reply string) {
	raw, err := a.requestExtraction(ctx, reply)
	if err != nil {
		a.log().Warn("tool extraction failed, skipping dispatch",
			"state", stateExtractingTools, "error", err)
		return
	}

	calls := a.parser.Parse(raw)
	if len(calls) == 0 {
		return
	}
	a.log().Debug("dispatching tool calls", "state", stateDispatching, "count", len(calls))

	var last domain.LastAction
	for _, call := range calls {
		result := a.cfg.ErrorMessage
		res, err := a.dispatcher.Dispatch(call)
		if err != nil {
			a.log().Warn("tool call failed", "tool", call.Name, "error", err)
		} else {
			result = res.Data
		}
		last = domain.LastAction{Tool: call.Name, Arguments: call.Arguments, Result: result}
	}
	a.convo.SetLastAction(last)
}

// requestExtraction performs the deterministic tool-extraction call:
// temperature is forced to zero so the tag-grammar output is reproducible.
func (a *Assistant) requestExtraction(ctx context.Context, reply string) (string, error) {
	snapshot, err := a.buildSnapshot()
	if err != nil {
		return "", err
	}
	system, err := extractionSystemPrompt(snapshot, a.dispatcher.Definitions(), a.cfg.Currency)
	if err != nil {
		return "", err
	}
	return a.provider.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: string(domain.RoleSystem), Content: system},
			{Role: string(domain.RoleUser), Content: reply},
		},
		Temperature: 0,
		MaxTokens:   a.cfg.MaxTokens,
	})
}

// record appends a message to the conversation and, when configured, the
// transcript store. Persistence is best-effort; failures are logged only.
func (a *Assistant) record(role domain.MessageRole, content string) {
	msg := a.convo.AppendText(role, content)
	if a.transcript == nil {
		return
	}
	if err := a.transcript.Append(msg); err != nil {
		a.log().Warn("transcript append failed", "role", role, "error", err)
	}
}
