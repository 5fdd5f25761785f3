package claude

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
)

func convertTools(specs []sentinell.ToolSpec) []anthropic.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, convertTool(spec))
	}
	return tools
}

func convertTool(spec sentinell.ToolSpec) anthropic.ToolUnionParam {
	schema := spec.JSONSchema()

	tool := anthropic.ToolUnionParamOfTool(
		anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
			Required:   spec.RequiredNames(),
		},
		spec.Name,
	)
	if spec.Description != "" && tool.OfTool != nil {
		tool.OfTool.Description = anthropic.String(spec.Description)
	}
	return tool
}

// convertInputs builds one user message. Tool results come first as Claude requires them to
// directly follow the assistant's tool_use blocks.
func convertInputs(inputs ...sentinell.Input) (anthropic.MessageParam, error) {
	var results, texts []anthropic.ContentBlockParamUnion

	for _, in := range inputs {
		switch v := in.(type) {
		case sentinell.Text:
			texts = append(texts, anthropic.NewTextBlock(string(v)))
		case sentinell.ToolResult:
			results = append(results, anthropic.NewToolResultBlock(v.ID, v.Content, v.IsError))
		default:
			return anthropic.MessageParam{}, goerr.New("unsupported input type for Claude", goerr.V("input", in))
		}
	}

	return anthropic.NewUserMessage(append(results, texts...)...), nil
}
