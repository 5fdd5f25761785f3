package sentinell

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// JSONSchema returns the JSON Schema (draft 2020-12 object schema) describing the arguments of the tool.
// LLM clients use it to declare the tool, and the registry compiles it to validate coerced arguments.
func (s *ToolSpec) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Parameters))
	for _, p := range s.Parameters {
		prop := map[string]any{
			"type": string(p.Type),
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			enum := make([]any, len(p.Enum))
			for i, v := range p.Enum {
				enum[i] = v
			}
			prop["enum"] = enum
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if required := s.RequiredNames(); len(required) > 0 {
		req := make([]any, len(required))
		for i, v := range required {
			req[i] = v
		}
		schema["required"] = req
	}
	return schema
}

type argValidator struct {
	schema *jsonschema.Schema
}

func compileArgValidator(spec *ToolSpec) (*argValidator, error) {
	doc, err := toJSONValue(spec.JSONSchema())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode tool schema", goerr.V("tool", spec.Name))
	}

	url := "sentinell://tools/" + spec.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, goerr.Wrap(ErrInvalidTool, "failed to add tool schema", goerr.V("tool", spec.Name), goerr.V("error", err.Error()))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidTool, "failed to compile tool schema", goerr.V("tool", spec.Name), goerr.V("error", err.Error()))
	}

	return &argValidator{schema: compiled}, nil
}

func (v *argValidator) validate(args Args) error {
	inst, err := toJSONValue(args)
	if err != nil {
		return goerr.Wrap(ErrInvalidArgument, "arguments are not JSON encodable")
	}
	if err := v.schema.Validate(inst); err != nil {
		return goerr.Wrap(ErrInvalidArgument, err.Error())
	}
	return nil
}

// toJSONValue round-trips v through encoding/json so that the validator sees plain JSON values.
func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal")
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
