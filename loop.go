package sentinell

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMaxTurns is the default number of model round trips per run.
	DefaultMaxTurns = 3

	// DefaultExhaustedMessage is returned as Outcome.Text when the turn budget runs out.
	DefaultExhaustedMessage = "Error: agent reached its turn limit without a final answer."
)

type loopConfig struct {
	name             string
	maxTurns         int
	systemPrompt     string
	exhaustedMessage string
	logger           *slog.Logger

	messageHook    func(ctx context.Context, text string) error
	toolResultHook func(ctx context.Context, call ToolCall, result ToolResult) error
	turnHook       func(ctx context.Context, turn int) error
	outcomeHook    func(ctx context.Context, outcome *Outcome)
}

// LoopOption configures a Loop.
type LoopOption func(*loopConfig)

// WithLoopName names the loop in logs, spans and metrics. Default is "agent".
func WithLoopName(name string) LoopOption {
	return func(c *loopConfig) {
		c.name = name
	}
}

// WithMaxTurns sets the maximum number of model round trips (send a turn to the model and act on
// its response) for one run. Values below 1 are ignored.
func WithMaxTurns(n int) LoopOption {
	return func(c *loopConfig) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

// WithSystemPrompt sets the system instruction of each session.
func WithSystemPrompt(prompt string) LoopOption {
	return func(c *loopConfig) {
		c.systemPrompt = prompt
	}
}

// WithExhaustedMessage sets the text of an exhausted Outcome.
func WithExhaustedMessage(msg string) LoopOption {
	return func(c *loopConfig) {
		c.exhaustedMessage = msg
	}
}

// WithLogger sets the logger used when the context carries none. Default is the context logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(c *loopConfig) {
		c.logger = logger
	}
}

// WithMessageHook sets a callback for every text part the model returns, including reasoning text
// that accompanies a tool call. Returning an error aborts the run.
func WithMessageHook(hook func(ctx context.Context, text string) error) LoopOption {
	return func(c *loopConfig) {
		c.messageHook = hook
	}
}

// WithToolResultHook sets a callback invoked after each tool execution. Returning an error aborts the run.
func WithToolResultHook(hook func(ctx context.Context, call ToolCall, result ToolResult) error) LoopOption {
	return func(c *loopConfig) {
		c.toolResultHook = hook
	}
}

// WithTurnHook sets a callback invoked before each model round trip (turn starts from 1).
// Returning an error aborts the run.
func WithTurnHook(hook func(ctx context.Context, turn int) error) LoopOption {
	return func(c *loopConfig) {
		c.turnHook = hook
	}
}

// WithOutcomeHook sets a callback invoked when a run terminates with an Outcome.
func WithOutcomeHook(hook func(ctx context.Context, outcome *Outcome)) LoopOption {
	return func(c *loopConfig) {
		c.outcomeHook = hook
	}
}

// Loop drives a model through tool calls until it answers or the turn budget runs out.
// A Loop is immutable and may run concurrently; each Run owns its session and conversation.
type Loop struct {
	client   LLMClient
	registry *ToolRegistry
	invoker  *ToolInvoker
	cfg      loopConfig
}

// NewLoop creates a loop over the tools in registry.
func NewLoop(client LLMClient, registry *ToolRegistry, options ...LoopOption) *Loop {
	cfg := loopConfig{
		name:             "agent",
		maxTurns:         DefaultMaxTurns,
		exhaustedMessage: DefaultExhaustedMessage,
		messageHook:      func(context.Context, string) error { return nil },
		toolResultHook:   func(context.Context, ToolCall, ToolResult) error { return nil },
		turnHook:         func(context.Context, int) error { return nil },
		outcomeHook:      func(context.Context, *Outcome) {},
	}
	for _, opt := range options {
		opt(&cfg)
	}

	if registry == nil {
		registry, _ = NewToolRegistry()
	}

	return &Loop{
		client:   client,
		registry: registry,
		invoker:  NewToolInvoker(registry),
		cfg:      cfg,
	}
}

// Name returns the loop name.
func (x *Loop) Name() string {
	return x.cfg.name
}

// MaxTurns returns the turn budget.
func (x *Loop) MaxTurns() int {
	return x.cfg.maxTurns
}

// Run executes task. Tool failures are fed back to the model as text; a failure to reach the
// model is returned as an error wrapping ErrModelAccess. Exhausting the turn budget is not an
// error: it yields an Outcome with Kind OutcomeExhausted.
func (x *Loop) Run(ctx context.Context, task string) (outcome *Outcome, err error) {
	logger := x.cfg.logger
	if logger == nil {
		logger = LoggerFromContext(ctx)
	}
	conv := newConversation()
	logger = logger.With("loop", x.cfg.name, "request_id", uuid.NewString(), "conversation_id", conv.ID)
	ctx = ContextWithLogger(ctx, logger)

	ctx, span := tracer.Start(ctx, "reasoning_loop",
		trace.WithAttributes(
			attribute.String("loop.name", x.cfg.name),
			attribute.Int("loop.max_turns", x.cfg.maxTurns),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.String("loop.outcome", outcome.Kind.String()),
				attribute.Int("loop.turns", outcome.Turns),
			)
			x.cfg.outcomeHook(ctx, outcome)
		}
		span.End()
	}()

	logger.Info("starting reasoning loop", "task", task, "max_turns", x.cfg.maxTurns)

	ssn, err := x.client.NewSession(ctx,
		WithSessionSystemPrompt(x.cfg.systemPrompt),
		WithSessionTools(x.registry.Specs()...),
	)
	if err != nil {
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", ErrModelAccess, err), "failed to open session", goerr.V("loop", x.cfg.name))
	}

	var input Input = Text(task)
	for turn := 1; turn <= x.cfg.maxTurns; turn++ {
		if err := x.cfg.turnHook(ctx, turn); err != nil {
			return nil, goerr.Wrap(err, "turn hook failed", goerr.V("turn", turn))
		}

		resp, err := x.send(ctx, ssn, input, turn)
		if err != nil {
			return nil, err
		}

		for _, text := range resp.Texts() {
			logger.Debug("model thought", "turn", turn, "text", text)
			if err := x.cfg.messageHook(ctx, text); err != nil {
				return nil, goerr.Wrap(err, "message hook failed", goerr.V("turn", turn))
			}
		}

		call, count := resp.FirstToolCall()
		if call == nil {
			conv.add(Turn{Input: input, Response: resp})
			logger.Info("reasoning loop finished", "turns", turn)
			return &Outcome{
				Kind:         OutcomeFinalAnswer,
				Text:         resp.Text(),
				Turns:        turn,
				Conversation: conv,
			}, nil
		}
		if count > 1 {
			logger.Warn("model requested multiple tool calls, only the first is executed", "count", count, "tool", call.Name)
		}

		result := x.invoker.Invoke(ctx, *call)
		conv.add(Turn{Input: input, Response: resp, Result: &result})
		if err := x.cfg.toolResultHook(ctx, *call, result); err != nil {
			return nil, goerr.Wrap(err, "tool result hook failed", goerr.V("turn", turn))
		}

		input = result
	}

	logger.Warn("reasoning loop exhausted turn budget", "max_turns", x.cfg.maxTurns)
	return &Outcome{
		Kind:         OutcomeExhausted,
		Text:         x.cfg.exhaustedMessage,
		Turns:        x.cfg.maxTurns,
		Conversation: conv,
	}, nil
}

func (x *Loop) send(ctx context.Context, ssn Session, input Input, turn int) (*Response, error) {
	ctx, span := tracer.Start(ctx, "llm_call", trace.WithAttributes(attribute.Int("loop.turn", turn)))
	defer span.End()

	LoggerFromContext(ctx).Debug("sending to model", "turn", turn, "input", input)
	resp, err := ssn.Send(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", ErrModelAccess, err), "failed to get model response",
			goerr.V("loop", x.cfg.name),
			goerr.V("turn", turn),
		)
	}
	if resp == nil {
		resp = &Response{}
	}
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.InputToken),
		attribute.Int("llm.output_tokens", resp.OutputToken),
	)
	return resp, nil
}
