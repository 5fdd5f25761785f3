package openai

import (
	"github.com/sashabaranov/go-openai"
)

var (
	ConvertTool     = convertTool
	ConvertInputs   = convertInputs
	ProcessResponse = processResponse
)

type APIClient = apiClient

// NewSessionWithAPIClient creates a session on a custom API client for testing.
func NewSessionWithAPIClient(client apiClient, model string, tools []openai.Tool) *Session {
	return &Session{client: client, defaultModel: model, tools: tools}
}
