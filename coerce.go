package sentinell

import (
	"encoding/json"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cast"
)

// coerce converts a raw argument produced by the model into the Go type of t.
// Models frequently send integers as floats ("5.0") or strings ("5"), and booleans as strings.
func coerce(t ParameterType, v any) (any, error) {
	if v == nil {
		return nil, goerr.Wrap(ErrInvalidArgument, "value is null")
	}

	switch t {
	case TypeString:
		switch v.(type) {
		case map[string]any, []any:
			return nil, goerr.Wrap(ErrInvalidArgument, "expected string", goerr.V("value", v))
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidArgument, "expected string", goerr.V("value", v))
		}
		return s, nil

	case TypeInteger:
		switch x := v.(type) {
		case bool:
			return nil, goerr.Wrap(ErrInvalidArgument, "expected integer", goerr.V("value", v))
		case float64:
			if err := checkWholeFloat(x, v); err != nil {
				return nil, err
			}
		case float32:
			if err := checkWholeFloat(float64(x), v); err != nil {
				return nil, err
			}
		case json.Number:
			v = x.String()
		}
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidArgument, "expected integer", goerr.V("value", v))
		}
		return n, nil

	case TypeNumber:
		if _, ok := v.(bool); ok {
			return nil, goerr.Wrap(ErrInvalidArgument, "expected number", goerr.V("value", v))
		}
		if x, ok := v.(json.Number); ok {
			v = x.String()
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidArgument, "expected number", goerr.V("value", v))
		}
		return f, nil

	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := cast.ToBoolE(x)
			if err != nil {
				return nil, goerr.Wrap(ErrInvalidArgument, "expected boolean", goerr.V("value", v))
			}
			return b, nil
		}
		// numeric flags are accepted only as 0 or 1
		f, err := cast.ToFloat64E(v)
		if err != nil || (f != 0 && f != 1) {
			return nil, goerr.Wrap(ErrInvalidArgument, "expected boolean", goerr.V("value", v))
		}
		return f == 1, nil
	}

	return nil, goerr.Wrap(ErrInvalidArgument, "unsupported parameter type", goerr.V("type", t))
}

// coerceArgs applies the spec to raw arguments: declared parameters are coerced, defaults are
// filled in, missing required parameters fail and undeclared keys are dropped.
func coerceArgs(spec *ToolSpec, raw map[string]any) (Args, []string, error) {
	args := make(Args, len(spec.Parameters))
	var dropped []string

	for key := range raw {
		if spec.Parameter(key) == nil {
			dropped = append(dropped, key)
		}
	}

	for _, p := range spec.Parameters {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Default != nil {
				d, err := coerce(p.Type, p.Default)
				if err != nil {
					return nil, nil, goerr.Wrap(err, "invalid default value", goerr.V("argument", p.Name))
				}
				args[p.Name] = d
				continue
			}
			if p.Required {
				return nil, nil, goerr.Wrap(ErrInvalidArgument, "missing required argument '"+p.Name+"'", goerr.V("argument", p.Name))
			}
			continue
		}

		c, err := coerce(p.Type, v)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "invalid value for argument '"+p.Name+"'", goerr.V("argument", p.Name))
		}
		args[p.Name] = c
	}

	return args, dropped, nil
}

// float64 can not represent math.MaxInt64 exactly; 2^63 is the first value out of range.
const maxInt64Float = 9.223372036854775807e18

func checkWholeFloat(x float64, v any) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Trunc(x) != x {
		return goerr.Wrap(ErrInvalidArgument, "expected integer, got fraction", goerr.V("value", v))
	}
	if x >= maxInt64Float || x < -maxInt64Float {
		return goerr.Wrap(ErrInvalidArgument, "integer out of range", goerr.V("value", v))
	}
	return nil
}
