package claude

var (
	ConvertTool     = convertTool
	ConvertInputs   = convertInputs
	ProcessResponse = processResponse
)

type APIClient = apiClient

// NewSessionWithAPIClient creates a session on a custom API client for testing.
func NewSessionWithAPIClient(client apiClient, model string) *Session {
	return &Session{
		client:       client,
		defaultModel: model,
		params:       generationParameters{Temperature: 0.7, MaxTokens: 1024},
	}
}
