package sentinell

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// ToolSpec is the specification of a tool.
// It describes the tool to the model and drives argument coercion in ToolInvoker.
type ToolSpec struct {
	// Name is the unique identifier of the tool in a ToolRegistry.
	Name string

	// Description is a human-readable description that helps the model decide when to call the tool.
	Description string

	// Parameters is the ordered list of accepted arguments.
	Parameters []*Parameter
}

// Parameter returns the parameter declared with name, or nil.
func (s *ToolSpec) Parameter(name string) *Parameter {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// RequiredNames returns the names of required parameters in declaration order.
func (s *ToolSpec) RequiredNames() []string {
	var names []string
	for _, p := range s.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Validate validates the tool specification.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s.Name))
	if s.Name == "" {
		return eb.Wrap(ErrInvalidTool, "name is required")
	}

	seen := make(map[string]struct{}, len(s.Parameters))
	for _, param := range s.Parameters {
		if param == nil {
			return eb.Wrap(ErrInvalidTool, "nil parameter")
		}
		if _, ok := seen[param.Name]; ok {
			return eb.Wrap(ErrInvalidTool, "duplicated parameter", goerr.V("parameter", param.Name))
		}
		seen[param.Name] = struct{}{}

		if err := param.Validate(); err != nil {
			return eb.Wrap(err, "invalid parameter")
		}
	}

	return nil
}

func (s ToolSpec) clone() ToolSpec {
	params := make([]*Parameter, len(s.Parameters))
	for i, p := range s.Parameters {
		cp := *p
		cp.Enum = append([]string(nil), p.Enum...)
		params[i] = &cp
	}
	return ToolSpec{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  params,
	}
}

// ParameterType is the primitive type of a parameter.
type ParameterType string

const (
	// TypeString represents a string parameter.
	TypeString ParameterType = "string"

	// TypeNumber represents a floating-point parameter.
	TypeNumber ParameterType = "number"

	// TypeInteger represents an integer parameter.
	TypeInteger ParameterType = "integer"

	// TypeBoolean represents a true/false parameter.
	TypeBoolean ParameterType = "boolean"
)

// Parameter is a parameter of a tool.
type Parameter struct {
	// Name is the argument key the model uses.
	Name string

	// Type is one of the ParameterType values.
	Type ParameterType

	// Description explains the purpose and expected format of the parameter.
	Description string

	// Required marks the parameter as mandatory.
	Required bool

	// Enum is the list of allowed values. Only valid for string parameters.
	Enum []string

	// Minimum and Maximum define the valid range for number and integer parameters.
	Minimum *float64
	Maximum *float64

	// Default is used when an optional argument is omitted.
	Default any
}

// Validate validates the parameter.
func (p *Parameter) Validate() error {
	eb := goerr.NewBuilder(goerr.V("parameter", p.Name))

	if p.Name == "" {
		return eb.Wrap(ErrInvalidTool, "parameter name is required")
	}

	switch p.Type {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean:
	case "":
		return eb.Wrap(ErrInvalidTool, "type is required")
	default:
		return eb.Wrap(ErrInvalidTool, "unsupported type", goerr.V("type", p.Type))
	}

	if len(p.Enum) > 0 && p.Type != TypeString {
		return eb.Wrap(ErrInvalidTool, "enum is only allowed for string type")
	}

	if p.Type == TypeNumber || p.Type == TypeInteger {
		if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
			return eb.Wrap(ErrInvalidTool, "minimum must be less than or equal to maximum")
		}
	} else if p.Minimum != nil || p.Maximum != nil {
		return eb.Wrap(ErrInvalidTool, "minimum and maximum are only allowed for numeric types")
	}

	if p.Default != nil {
		if _, err := coerce(p.Type, p.Default); err != nil {
			return eb.Wrap(ErrInvalidTool, "default value does not match type", goerr.V("default", p.Default))
		}
	}

	return nil
}

// Tool is a named, schema-described capability that the model can call.
type Tool interface {
	// Spec returns the specification of the tool. It is read once at registration.
	Spec() ToolSpec

	// Run executes the tool with coerced arguments. A returned error is not fatal:
	// ToolInvoker turns it into a textual observation for the model.
	Run(ctx context.Context, args Args) (string, error)
}

// ToolFunc is the handler signature used by NewTool.
type ToolFunc func(ctx context.Context, args Args) (string, error)

type funcTool struct {
	spec ToolSpec
	run  ToolFunc
}

func (x *funcTool) Spec() ToolSpec {
	return x.spec
}

func (x *funcTool) Run(ctx context.Context, args Args) (string, error) {
	return x.run(ctx, args)
}

// NewTool builds a Tool from a spec and a handler function.
// Usage:
//
//	tool := sentinell.NewTool(sentinell.ToolSpec{
//		Name: "echo",
//		Parameters: []*sentinell.Parameter{
//			{Name: "message", Type: sentinell.TypeString, Required: true},
//		},
//	}, func(ctx context.Context, args sentinell.Args) (string, error) {
//		return args.String("message"), nil
//	})
func NewTool(spec ToolSpec, run ToolFunc) Tool {
	return &funcTool{spec: spec, run: run}
}

// Args holds tool arguments after coercion. Values are string, int64, float64 or bool
// according to the declared ParameterType.
type Args map[string]any

// Has reports whether the argument is present.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns a string argument, or "" when absent.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Int returns an integer argument, or 0 when absent.
func (a Args) Int(name string) int64 {
	v, _ := a[name].(int64)
	return v
}

// Float returns a number argument, or 0 when absent.
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Bool returns a boolean argument, or false when absent.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}
