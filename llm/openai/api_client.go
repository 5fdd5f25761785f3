package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// apiClient is the subset of the OpenAI API used by sessions
type apiClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ apiClient = (*openai.Client)(nil)
