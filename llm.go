package sentinell

import (
	"context"
	"log/slog"
	"strings"
)

// LLMClient is a client for each LLM service.
type LLMClient interface {
	// NewSession opens a conversational session. A session keeps its own history.
	NewSession(ctx context.Context, options ...SessionOption) (Session, error)
}

// Session is one conversation with a model. It is used by a single loop run and is not safe
// for concurrent use.
type Session interface {
	// Send appends inputs to the conversation and returns the model's response.
	Send(ctx context.Context, inputs ...Input) (*Response, error)
}

// SessionConfig holds the options a client receives when opening a session.
type SessionConfig struct {
	systemPrompt string
	tools        []ToolSpec
}

// SystemPrompt returns the system instruction for the session.
func (c SessionConfig) SystemPrompt() string { return c.systemPrompt }

// Tools returns the tool specs the model may call.
func (c SessionConfig) Tools() []ToolSpec { return c.tools }

// SessionOption configures a session.
type SessionOption func(*SessionConfig)

// WithSessionSystemPrompt sets the system instruction.
func WithSessionSystemPrompt(prompt string) SessionOption {
	return func(c *SessionConfig) {
		c.systemPrompt = prompt
	}
}

// WithSessionTools declares tools to the model.
func WithSessionTools(specs ...ToolSpec) SessionOption {
	return func(c *SessionConfig) {
		c.tools = append(c.tools, specs...)
	}
}

// NewSessionConfig applies options. LLM client implementations call it in NewSession.
func NewSessionConfig(options ...SessionOption) SessionConfig {
	var cfg SessionConfig
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

type restrictedValue struct{}

// Input is something sent to the model: a Text prompt or a ToolResult.
type Input interface {
	isInput() restrictedValue
	LogValue() slog.Value
}

// Part is one element of a model response: a Text or a ToolCall.
type Part interface {
	isPart() restrictedValue
	LogValue() slog.Value
}

// Text is free text. As an input it is a prompt; as a response part it is model output,
// which the loop treats as a reasoning trace unless the response carries no tool call.
type Text string

func (t Text) isInput() restrictedValue { return restrictedValue{} }
func (t Text) isPart() restrictedValue  { return restrictedValue{} }

func (t Text) LogValue() slog.Value {
	return slog.StringValue(string(t))
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

func (c ToolCall) isPart() restrictedValue { return restrictedValue{} }

func (c ToolCall) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", c.ID),
		slog.String("name", c.Name),
		slog.Any("args", c.Args),
	)
}

// ToolResult is the observation returned to the model for one ToolCall.
// Content is always text, including on failure.
type ToolResult struct {
	ID      string
	Name    string
	Content string
	IsError bool
}

func (r ToolResult) isInput() restrictedValue { return restrictedValue{} }

func (r ToolResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", r.ID),
		slog.String("name", r.Name),
		slog.String("content", r.Content),
		slog.Bool("is_error", r.IsError),
	)
}

// Response is a model response: ordered parts plus token usage when the provider reports it.
type Response struct {
	Parts       []Part
	InputToken  int
	OutputToken int
}

// FirstToolCall returns the first ToolCall part. Later tool calls in the same response are ignored.
func (r *Response) FirstToolCall() (*ToolCall, int) {
	var found *ToolCall
	count := 0
	for _, part := range r.Parts {
		if call, ok := part.(ToolCall); ok {
			if found == nil {
				c := call
				found = &c
			}
			count++
		}
	}
	return found, count
}

// Texts returns the text parts in order.
func (r *Response) Texts() []string {
	var texts []string
	for _, part := range r.Parts {
		if t, ok := part.(Text); ok {
			texts = append(texts, string(t))
		}
	}
	return texts
}

// Text concatenates all text parts in order.
func (r *Response) Text() string {
	return strings.Join(r.Texts(), "")
}

// SkippedToolMessage is the result sent for tool calls that were requested but not executed.
const SkippedToolMessage = "Skipped: only one tool call is executed per turn."

// CompleteToolResults returns inputs with a skipped ToolResult added for every call in pending
// that inputs does not answer. Providers that reject a conversation with unanswered tool calls
// use it before sending the next turn.
func CompleteToolResults(pending []ToolCall, inputs []Input) []Input {
	if len(pending) == 0 {
		return inputs
	}

	answered := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if r, ok := in.(ToolResult); ok {
			answered[r.ID] = struct{}{}
		}
	}

	completed := append([]Input(nil), inputs...)
	for _, call := range pending {
		if _, ok := answered[call.ID]; ok {
			continue
		}
		completed = append(completed, ToolResult{
			ID:      call.ID,
			Name:    call.Name,
			Content: SkippedToolMessage,
			IsError: true,
		})
	}
	return completed
}

// ToolCalls returns all ToolCall parts in order.
func (r *Response) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, part := range r.Parts {
		if call, ok := part.(ToolCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}
