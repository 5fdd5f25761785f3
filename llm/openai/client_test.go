package openai_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/llm/openai"
	goopenai "github.com/sashabaranov/go-openai"
)

type fakeAPI struct {
	requests  []goopenai.ChatCompletionRequest
	responses []goopenai.ChatCompletionResponse
}

func (f *fakeAPI) CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

var _ openai.APIClient = &fakeAPI{}

func TestSessionAnswersEveryToolCall(t *testing.T) {
	api := &fakeAPI{
		responses: []goopenai.ChatCompletionResponse{
			{Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{
				Role: goopenai.ChatMessageRoleAssistant,
				ToolCalls: []goopenai.ToolCall{
					{ID: "a", Type: goopenai.ToolTypeFunction, Function: goopenai.FunctionCall{Name: "first", Arguments: "{}"}},
					{ID: "b", Type: goopenai.ToolTypeFunction, Function: goopenai.FunctionCall{Name: "second", Arguments: "{}"}},
				},
			}}}},
			{Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleAssistant,
				Content: "done",
			}}}},
		},
	}
	ssn := openai.NewSessionWithAPIClient(api, "test-model", nil)
	ctx := context.Background()

	_, err := ssn.Send(ctx, sentinell.Text("go"))
	gt.NoError(t, err)

	resp, err := ssn.Send(ctx, sentinell.ToolResult{ID: "a", Name: "first", Content: "ok"})
	gt.NoError(t, err)
	gt.Equal(t, resp.Text(), "done")

	last := api.requests[1].Messages
	gt.A(t, last).Length(4)
	gt.Equal(t, last[2].ToolCallID, "a")
	gt.Equal(t, last[3].ToolCallID, "b")
	gt.Equal(t, last[3].Content, sentinell.SkippedToolMessage)
}

func TestOpenAILive(t *testing.T) {
	apiKey, ok := os.LookupEnv("TEST_OPENAI_API_KEY")
	if !ok {
		t.Skip("TEST_OPENAI_API_KEY is not set")
	}

	ctx := context.Background()
	client, err := openai.New(ctx, apiKey)
	gt.NoError(t, err)

	outcome, err := sentinell.NewLoop(client, nil).Run(ctx, "Reply with the single word: pong")
	gt.NoError(t, err)
	gt.S(t, outcome.Text).Contains("pong")
}
