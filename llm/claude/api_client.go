package claude

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
)

// apiClient is the subset of the Messages API used by sessions
type apiClient interface {
	MessagesNew(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// realAPIClient wraps the actual Claude client
type realAPIClient struct {
	client *anthropic.Client
}

func (r *realAPIClient) MessagesNew(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return r.client.Messages.New(ctx, params)
}
