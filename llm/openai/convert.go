package openai

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
	"github.com/sashabaranov/go-openai"
)

func convertTools(specs []sentinell.ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, convertTool(spec))
	}
	return tools
}

// convertTool converts a tool spec to an OpenAI function tool. The parameter schema is the
// same JSON Schema the registry validates against.
func convertTool(spec sentinell.ToolSpec) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.JSONSchema(),
		},
	}
}

func convertInputs(inputs ...sentinell.Input) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(inputs))

	for _, in := range inputs {
		switch v := in.(type) {
		case sentinell.Text:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: string(v),
			})
		case sentinell.ToolResult:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    v.Content,
				Name:       v.Name,
				ToolCallID: v.ID,
			})
		default:
			return nil, goerr.New("unsupported input type for OpenAI", goerr.V("input", in))
		}
	}

	return messages, nil
}
