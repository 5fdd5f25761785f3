package gemini

import (
	"cloud.google.com/go/vertexai/genai"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
)

func convertTools(specs []sentinell.ToolSpec) *genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decls = append(decls, convertTool(spec))
	}
	return &genai.Tool{FunctionDeclarations: decls}
}

func convertTool(spec sentinell.ToolSpec) *genai.FunctionDeclaration {
	parameters := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   spec.RequiredNames(),
	}

	for _, param := range spec.Parameters {
		parameters.Properties[param.Name] = convertParameterToSchema(param)
	}

	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  parameters,
	}
}

func convertParameterToSchema(param *sentinell.Parameter) *genai.Schema {
	schema := &genai.Schema{
		Type:        getGenaiType(param.Type),
		Description: param.Description,
	}
	if len(param.Enum) > 0 {
		schema.Enum = append([]string(nil), param.Enum...)
	}
	return schema
}

func getGenaiType(paramType sentinell.ParameterType) genai.Type {
	switch paramType {
	case sentinell.TypeString:
		return genai.TypeString
	case sentinell.TypeNumber:
		return genai.TypeNumber
	case sentinell.TypeInteger:
		return genai.TypeInteger
	case sentinell.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// convertInputs converts inputs to Gemini parts. Tool results are sent as function responses
// whose payload carries the observation text.
func convertInputs(inputs ...sentinell.Input) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(inputs))

	for _, in := range inputs {
		switch v := in.(type) {
		case sentinell.Text:
			parts = append(parts, genai.Text(v))
		case sentinell.ToolResult:
			key := "content"
			if v.IsError {
				key = "error_message"
			}
			parts = append(parts, genai.FunctionResponse{
				Name:     v.Name,
				Response: map[string]any{key: v.Content},
			})
		default:
			return nil, goerr.New("unsupported input type for Gemini", goerr.V("input", in))
		}
	}

	return parts, nil
}
