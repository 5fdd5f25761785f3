package openai

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
	"github.com/sashabaranov/go-openai"
)

var (
	// openaiPromptScope is the logging scope for OpenAI prompts
	openaiPromptScope = ctxlog.NewScope("openai_prompt", ctxlog.EnabledBy("SENTINELL_LOGGING_OPENAI_PROMPT"))

	// openaiResponseScope is the logging scope for OpenAI responses
	openaiResponseScope = ctxlog.NewScope("openai_response", ctxlog.EnabledBy("SENTINELL_LOGGING_OPENAI_RESPONSE"))
)

const DefaultModel = "gpt-4o-mini"

// Client is a client for the OpenAI chat completion API.
type Client struct {
	client apiClient

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// baseURL is a custom endpoint for OpenAI compatible servers.
	baseURL string

	temperature float32
	maxTokens   int
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
// See default model in [DefaultModel].
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithBaseURL sets a custom API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 2.0
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.maxTokens = maxTokens
	}
}

// New creates a new client for the OpenAI API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("apiKey is required")
	}

	client := &Client{
		defaultModel: DefaultModel,
	}
	for _, opt := range options {
		opt(client)
	}

	config := openai.DefaultConfig(apiKey)
	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}
	client.client = openai.NewClientWithConfig(config)

	return client, nil
}

// NewSession creates a new chat session. The system prompt becomes the first message.
func (c *Client) NewSession(ctx context.Context, options ...sentinell.SessionOption) (sentinell.Session, error) {
	cfg := sentinell.NewSessionConfig(options...)

	ssn := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		temperature:  c.temperature,
		maxTokens:    c.maxTokens,
		tools:        convertTools(cfg.Tools()),
	}
	if cfg.SystemPrompt() != "" {
		ssn.messages = append(ssn.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.SystemPrompt(),
		})
	}

	return ssn, nil
}

// Session is a session for the OpenAI chat. It keeps the message history.
type Session struct {
	client       apiClient
	defaultModel string
	temperature  float32
	maxTokens    int
	tools        []openai.Tool

	messages []openai.ChatCompletionMessage
	pending  []sentinell.ToolCall
}

// Send appends inputs to the history and requests a completion.
func (s *Session) Send(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
	inputs = sentinell.CompleteToolResults(s.pending, inputs)
	messages, err := convertInputs(inputs...)
	if err != nil {
		return nil, err
	}
	s.messages = append(s.messages, messages...)

	req := openai.ChatCompletionRequest{
		Model:       s.defaultModel,
		Messages:    s.messages,
		Tools:       s.tools,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}

	promptLogger := ctxlog.From(ctx, openaiPromptScope)
	if promptLogger.Enabled(ctx, slog.LevelInfo) {
		promptLogger.Info("OpenAI prompt", "model", s.defaultModel, "messages", s.messages)
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion", goerr.V("model", s.defaultModel))
	}

	response, message, err := processResponse(resp)
	if err != nil {
		return nil, err
	}
	if message != nil {
		s.messages = append(s.messages, *message)
	}
	s.pending = response.ToolCalls()

	responseLogger := ctxlog.From(ctx, openaiResponseScope)
	if responseLogger.Enabled(ctx, slog.LevelInfo) {
		responseLogger.Info("OpenAI response",
			"model", s.defaultModel,
			"parts", response.Parts,
			"input_token", response.InputToken,
			"output_token", response.OutputToken,
		)
	}

	return response, nil
}

// processResponse converts the first choice and returns the assistant message to keep in history.
func processResponse(resp openai.ChatCompletionResponse) (*sentinell.Response, *openai.ChatCompletionMessage, error) {
	response := &sentinell.Response{
		InputToken:  resp.Usage.PromptTokens,
		OutputToken: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) == 0 {
		return response, nil, nil
	}

	message := resp.Choices[0].Message
	if message.Content != "" {
		response.Parts = append(response.Parts, sentinell.Text(message.Content))
	}

	for _, toolCall := range message.ToolCalls {
		var args map[string]any
		if toolCall.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
				return nil, nil, goerr.Wrap(err, "failed to unmarshal tool arguments",
					goerr.V("tool", toolCall.Function.Name),
					goerr.V("arguments", toolCall.Function.Arguments),
				)
			}
		}

		response.Parts = append(response.Parts, sentinell.ToolCall{
			ID:   toolCall.ID,
			Name: toolCall.Function.Name,
			Args: args,
		})
	}

	history := openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   message.Content,
		ToolCalls: message.ToolCalls,
	}
	return response, &history, nil
}
