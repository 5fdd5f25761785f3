package gemini

import (
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/m-mizutani/sentinell"
)

var (
	ConvertTool   = convertTool
	ConvertInputs = convertInputs
)

type ChatSession = chatSession

// NewSessionWithChat creates a session on a custom chat for testing.
func NewSessionWithChat(chat chatSession, model string) *Session {
	return &Session{chat: chat, model: model}
}

func ProcessResponse(resp *genai.GenerateContentResponse, now time.Time) *sentinell.Response {
	return processResponse(resp, now)
}
