package openai_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/llm/openai"
	goopenai "github.com/sashabaranov/go-openai"
)

func TestConvertTool(t *testing.T) {
	tool := openai.ConvertTool(sentinell.ToolSpec{
		Name:        "get_exchange_rate",
		Description: "Returns the USD exchange rate",
		Parameters: []*sentinell.Parameter{
			{Name: "currency_code", Type: sentinell.TypeString, Required: true},
		},
	})

	gt.Value(t, tool.Type).Equal(goopenai.ToolTypeFunction)
	gt.Value(t, tool.Function.Name).Equal("get_exchange_rate")
	params := tool.Function.Parameters.(map[string]any)
	gt.Value(t, params["type"]).Equal(any("object"))
	gt.Value(t, params["required"]).Equal(any([]any{"currency_code"}))
}

func TestConvertInputs(t *testing.T) {
	messages, err := openai.ConvertInputs(
		sentinell.Text("hello"),
		sentinell.ToolResult{ID: "call_1", Name: "search_news", Content: "result"},
	)
	gt.NoError(t, err)
	gt.A(t, messages).Length(2)
	gt.Value(t, messages[0].Role).Equal(goopenai.ChatMessageRoleUser)
	gt.Value(t, messages[1].Role).Equal(goopenai.ChatMessageRoleTool)
	gt.Value(t, messages[1].ToolCallID).Equal("call_1")
	gt.Value(t, messages[1].Content).Equal("result")
}

func TestProcessResponse(t *testing.T) {
	resp, history, err := openai.ProcessResponse(goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{
			{
				Message: goopenai.ChatCompletionMessage{
					Role: goopenai.ChatMessageRoleAssistant,
					ToolCalls: []goopenai.ToolCall{
						{
							ID:   "call_1",
							Type: goopenai.ToolTypeFunction,
							Function: goopenai.FunctionCall{
								Name:      "get_price_quote",
								Arguments: `{"part_name":"X","quantity":5}`,
							},
						},
					},
				},
			},
		},
		Usage: goopenai.Usage{PromptTokens: 10, CompletionTokens: 3},
	})
	gt.NoError(t, err)
	gt.Equal(t, resp.InputToken, 10)
	gt.Equal(t, resp.OutputToken, 3)

	call, _ := resp.FirstToolCall()
	gt.Equal(t, call.ID, "call_1")
	gt.Equal(t, call.Args["quantity"], any(5.0))
	gt.A(t, history.ToolCalls).Length(1)

	_, _, err = openai.ProcessResponse(goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{
			{Message: goopenai.ChatCompletionMessage{ToolCalls: []goopenai.ToolCall{
				{ID: "bad", Function: goopenai.FunctionCall{Name: "x", Arguments: "{"}},
			}}},
		},
	})
	gt.Error(t, err)
}
