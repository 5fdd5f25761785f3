package gemini_test

import (
	"testing"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/llm/gemini"
)

func TestConvertTool(t *testing.T) {
	decl := gemini.ConvertTool(sentinell.ToolSpec{
		Name:        "order_parts_from_supplier",
		Description: "Places an order",
		Parameters: []*sentinell.Parameter{
			{Name: "part_name", Type: sentinell.TypeString, Description: "Part", Required: true},
			{Name: "quantity", Type: sentinell.TypeInteger, Required: true},
			{Name: "urgent", Type: sentinell.TypeBoolean},
			{Name: "currency", Type: sentinell.TypeString, Enum: []string{"USD", "EUR"}},
		},
	})

	gt.Value(t, decl.Name).Equal("order_parts_from_supplier")
	gt.Value(t, decl.Description).Equal("Places an order")
	gt.Value(t, decl.Parameters.Type).Equal(genai.TypeObject)
	gt.Value(t, decl.Parameters.Required).Equal([]string{"part_name", "quantity"})
	gt.Value(t, decl.Parameters.Properties["part_name"].Type).Equal(genai.TypeString)
	gt.Value(t, decl.Parameters.Properties["part_name"].Description).Equal("Part")
	gt.Value(t, decl.Parameters.Properties["quantity"].Type).Equal(genai.TypeInteger)
	gt.Value(t, decl.Parameters.Properties["urgent"].Type).Equal(genai.TypeBoolean)
	gt.Value(t, decl.Parameters.Properties["currency"].Enum).Equal([]string{"USD", "EUR"})
}

func TestConvertInputs(t *testing.T) {
	parts, err := gemini.ConvertInputs(
		sentinell.Text("hello"),
		sentinell.ToolResult{ID: "1", Name: "search_news", Content: "nothing"},
		sentinell.ToolResult{ID: "2", Name: "order", Content: "Tool Error: x", IsError: true},
	)
	gt.NoError(t, err)
	gt.A(t, parts).Length(3)
	gt.Value(t, parts[0]).Equal(genai.Part(genai.Text("hello")))

	ok, isResp := parts[1].(genai.FunctionResponse)
	gt.True(t, isResp)
	gt.Value(t, ok.Name).Equal("search_news")
	gt.Value(t, ok.Response["content"]).Equal(any("nothing"))

	failed := parts[2].(genai.FunctionResponse)
	gt.Value(t, failed.Response["error_message"]).Equal(any("Tool Error: x"))
}

func TestProcessResponse(t *testing.T) {
	now := time.Unix(0, 100)
	resp := gemini.ProcessResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role: "model",
					Parts: []genai.Part{
						genai.Text("checking the news"),
						genai.FunctionCall{Name: "search_news", Args: map[string]any{"query": "taiwan"}},
					},
				},
			},
		},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 4},
	}, now)

	gt.Equal(t, resp.InputToken, 12)
	gt.Equal(t, resp.OutputToken, 4)
	gt.Equal(t, resp.Texts(), []string{"checking the news"})

	call, count := resp.FirstToolCall()
	gt.Equal(t, count, 1)
	gt.Equal(t, call.Name, "search_news")
	gt.Equal(t, call.ID, "search_news_100_1")
	gt.Equal(t, call.Args["query"], any("taiwan"))

	empty := gemini.ProcessResponse(&genai.GenerateContentResponse{}, now)
	gt.A(t, empty.Parts).Length(0)
}
