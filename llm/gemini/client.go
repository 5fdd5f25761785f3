package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.5-flash-lite"
)

var (
	// geminiPromptScope is the logging scope for Gemini prompts
	geminiPromptScope = ctxlog.NewScope("gemini_prompt", ctxlog.EnabledBy("SENTINELL_LOGGING_GEMINI_PROMPT"))

	// geminiResponseScope is the logging scope for Gemini responses
	geminiResponseScope = ctxlog.NewScope("gemini_response", ctxlog.EnabledBy("SENTINELL_LOGGING_GEMINI_RESPONSE"))
)

// Client is a client for Gemini models on Vertex AI.
type Client struct {
	projectID string
	location  string

	// client is the underlying Vertex AI client.
	client *genai.Client

	// defaultModel is the model to use for chat sessions.
	// It can be overridden using WithModel option.
	defaultModel string

	// gcpOptions are additional options for Google Cloud Platform.
	gcpOptions []option.ClientOption

	temperature *float32
	maxTokens   *int32
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
// Default: "gemini-2.5-flash-lite"
func WithModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithGoogleCloudOptions sets additional Google Cloud options such as credentials.
func WithGoogleCloudOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.gcpOptions = append(c.gcpOptions, opts...)
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 2.0
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.temperature = &temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		c.maxTokens = &maxTokens
	}
}

// New creates a new client for Gemini on Vertex AI.
func New(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("projectID is required")
	}
	if location == "" {
		return nil, goerr.New("location is required")
	}

	client := &Client{
		projectID:    projectID,
		location:     location,
		defaultModel: DefaultModel,
	}
	for _, opt := range options {
		opt(client)
	}

	newClient, err := genai.NewClient(ctx, projectID, location, client.gcpOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Vertex AI client",
			goerr.V("project_id", projectID),
			goerr.V("location", location),
		)
	}
	client.client = newClient

	return client, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// NewSession starts a chat with the configured model. The session keeps the chat history.
func (c *Client) NewSession(ctx context.Context, options ...sentinell.SessionOption) (sentinell.Session, error) {
	cfg := sentinell.NewSessionConfig(options...)

	model := c.client.GenerativeModel(c.defaultModel)
	if c.temperature != nil {
		model.SetTemperature(*c.temperature)
	}
	if c.maxTokens != nil {
		model.SetMaxOutputTokens(*c.maxTokens)
	}
	if cfg.SystemPrompt() != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(cfg.SystemPrompt())},
		}
	}
	if tools := cfg.Tools(); len(tools) > 0 {
		model.Tools = []*genai.Tool{convertTools(tools)}
	}

	return &Session{
		chat:         model.StartChat(),
		model:        c.defaultModel,
		systemPrompt: cfg.SystemPrompt(),
	}, nil
}

// chatSession is satisfied by *genai.ChatSession, which appends each exchange to its history.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Session is a chat session with a Gemini model.
type Session struct {
	chat         chatSession
	model        string
	systemPrompt string
	pending      []sentinell.ToolCall
}

// Send sends inputs as one user turn and returns the model response.
func (s *Session) Send(ctx context.Context, inputs ...sentinell.Input) (*sentinell.Response, error) {
	inputs = sentinell.CompleteToolResults(s.pending, inputs)
	parts, err := convertInputs(inputs...)
	if err != nil {
		return nil, err
	}

	promptLogger := ctxlog.From(ctx, geminiPromptScope)
	if promptLogger.Enabled(ctx, slog.LevelInfo) {
		promptLogger.Info("Gemini prompt",
			"model", s.model,
			"system_prompt", s.systemPrompt,
			"inputs", inputs,
		)
	}

	resp, err := s.chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send message to Gemini", goerr.V("model", s.model))
	}

	response := processResponse(resp, time.Now())
	s.pending = response.ToolCalls()

	responseLogger := ctxlog.From(ctx, geminiResponseScope)
	if responseLogger.Enabled(ctx, slog.LevelInfo) {
		responseLogger.Info("Gemini response",
			"model", s.model,
			"parts", response.Parts,
			"input_token", response.InputToken,
			"output_token", response.OutputToken,
		)
	}

	return response, nil
}

// processResponse converts a Gemini response. Gemini does not assign ids to function calls,
// so ids are derived from the function name, a timestamp and the part position.
func processResponse(resp *genai.GenerateContentResponse, now time.Time) *sentinell.Response {
	response := &sentinell.Response{}
	if resp == nil {
		return response
	}

	if resp.UsageMetadata != nil {
		response.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		response.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for i, part := range candidate.Content.Parts {
			switch v := part.(type) {
			case genai.Text:
				if v != "" {
					response.Parts = append(response.Parts, sentinell.Text(v))
				}
			case genai.FunctionCall:
				response.Parts = append(response.Parts, sentinell.ToolCall{
					ID:   fmt.Sprintf("%s_%d_%d", v.Name, now.UnixNano(), i),
					Name: v.Name,
					Args: v.Args,
				})
			case *genai.FunctionCall:
				response.Parts = append(response.Parts, sentinell.ToolCall{
					ID:   fmt.Sprintf("%s_%d_%d", v.Name, now.UnixNano(), i),
					Name: v.Name,
					Args: v.Args,
				})
			}
		}

		// Only the first candidate is part of the chat history.
		break
	}

	return response
}
