package claude

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
)

const (
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultVertexModel is the Claude model name on Vertex AI.
	DefaultVertexModel = "claude-sonnet-4@20250514"
)

var (
	// claudePromptScope is the logging scope for Claude prompts
	claudePromptScope = ctxlog.NewScope("claude_prompt", ctxlog.EnabledBy("SENTINELL_LOGGING_CLAUDE_PROMPT"))

	// claudeResponseScope is the logging scope for Claude responses
	claudeResponseScope = ctxlog.NewScope("claude_response", ctxlog.EnabledBy("SENTINELL_LOGGING_CLAUDE_RESPONSE"))
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	Temperature float64

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int64
}

// Client is a client for the Claude Messages API, either direct or through Vertex AI.
type Client struct {
	client apiClient

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	params generationParameters
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 1.0
// Default: 0.7
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 4096
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

func newClient(model string, options []Option) *Client {
	client := &Client{
		defaultModel: model,
		params: generationParameters{
			Temperature: 0.7,
			MaxTokens:   4096,
		},
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

// New creates a new client for the Claude API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("apiKey is required")
	}

	client := newClient(DefaultModel, options)
	anthropicClient := anthropic.NewClient(option.WithAPIKey(apiKey))
	client.client = &realAPIClient{client: &anthropicClient}

	return client, nil
}

// NewWithVertex creates a client for Claude models served by Vertex AI. Credentials come from
// Google application default credentials.
func NewWithVertex(ctx context.Context, region, projectID string, options ...Option) (*Client, error) {
	if region == "" {
		return nil, goerr.New("region is required")
	}
	if projectID == "" {
		return nil, goerr.New("projectID is required")
	}

	client := newClient(DefaultVertexModel, options)
	anthropicClient := anthropic.NewClient(vertex.WithGoogleAuth(ctx, region, projectID))
	client.client = &realAPIClient{client: &anthropicClient}

	return client, nil
}

// NewSession creates a new session for the Claude API.
func (c *Client) NewSession(ctx context.Context, options ...sentinell.SessionOption) (sentinell.Session, error) {
	cfg := sentinell.NewSessionConfig(options...)

	return &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		params:       c.params,
		tools:        convertTools(cfg.Tools()),
		systemPrompt: cfg.SystemPrompt(),
	}, nil
}

// Session is a session for the Claude chat. It keeps the message history.
type Session struct {
	client       apiClient
	defaultModel string
	params       generationParameters
	tools        []anthropic.ToolUnionParam
	systemPrompt string

	messages []anthropic.MessageParam
	pending  []sentinell.ToolCall
}

// Send appends inputs as one user message and requests the next assistant message.
func (s *Session) Send(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
	inputs = sentinell.CompleteToolResults(s.pending, inputs)
	message, err := convertInputs(inputs...)
	if err != nil {
		return nil, err
	}
	s.messages = append(s.messages, message)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.defaultModel),
		MaxTokens:   s.params.MaxTokens,
		Temperature: anthropic.Float(s.params.Temperature),
		Messages:    s.messages,
		Tools:       s.tools,
	}
	if s.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.systemPrompt}}
	}

	promptLogger := ctxlog.From(ctx, claudePromptScope)
	if promptLogger.Enabled(ctx, slog.LevelInfo) {
		promptLogger.Info("Claude prompt",
			"model", s.defaultModel,
			"system_prompt", s.systemPrompt,
			"inputs", inputs,
		)
	}

	resp, err := s.client.MessagesNew(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create message", goerr.V("model", s.defaultModel))
	}

	response, err := processResponse(resp)
	if err != nil {
		return nil, err
	}
	s.messages = append(s.messages, resp.ToParam())
	s.pending = response.ToolCalls()

	responseLogger := ctxlog.From(ctx, claudeResponseScope)
	if responseLogger.Enabled(ctx, slog.LevelInfo) {
		responseLogger.Info("Claude response",
			"model", s.defaultModel,
			"parts", response.Parts,
			"input_token", response.InputToken,
			"output_token", response.OutputToken,
		)
	}

	return response, nil
}

// processResponse converts a Claude message
func processResponse(resp *anthropic.Message) (*sentinell.Response, error) {
	response := &sentinell.Response{
		InputToken:  int(resp.Usage.InputTokens),
		OutputToken: int(resp.Usage.OutputTokens),
	}

	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				response.Parts = append(response.Parts, sentinell.Text(v.Text))
			}
		case anthropic.ToolUseBlock:
			var args map[string]any
			if len(v.Input) > 0 {
				if err := json.Unmarshal(v.Input, &args); err != nil {
					return nil, goerr.Wrap(err, "failed to unmarshal tool input",
						goerr.V("tool", v.Name),
						goerr.V("input", string(v.Input)),
					)
				}
			}
			response.Parts = append(response.Parts, sentinell.ToolCall{
				ID:   v.ID,
				Name: v.Name,
				Args: args,
			})
		}
	}

	return response, nil
}
