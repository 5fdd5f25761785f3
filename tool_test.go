package sentinell

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
)

func ptr[T any](v T) *T {
	return &v
}

func TestParameterValidation(t *testing.T) {
	t.Run("number constraints", func(t *testing.T) {
		t.Run("valid minimum and maximum", func(t *testing.T) {
			p := &Parameter{Name: "n", Type: TypeNumber, Minimum: ptr(1.0), Maximum: ptr(10.0)}
			gt.NoError(t, p.Validate())
		})

		t.Run("invalid minimum and maximum", func(t *testing.T) {
			p := &Parameter{Name: "n", Type: TypeInteger, Minimum: ptr(10.0), Maximum: ptr(1.0)}
			gt.True(t, errors.Is(p.Validate(), ErrInvalidTool))
		})

		t.Run("range on string", func(t *testing.T) {
			p := &Parameter{Name: "s", Type: TypeString, Minimum: ptr(1.0)}
			gt.Error(t, p.Validate())
		})
	})

	t.Run("enum only on string", func(t *testing.T) {
		gt.NoError(t, (&Parameter{Name: "s", Type: TypeString, Enum: []string{"a", "b"}}).Validate())
		gt.Error(t, (&Parameter{Name: "n", Type: TypeNumber, Enum: []string{"1"}}).Validate())
	})

	t.Run("type", func(t *testing.T) {
		gt.Error(t, (&Parameter{Name: "x"}).Validate())
		gt.Error(t, (&Parameter{Name: "x", Type: "object"}).Validate())
		gt.Error(t, (&Parameter{Type: TypeString}).Validate())
	})

	t.Run("default must match type", func(t *testing.T) {
		gt.NoError(t, (&Parameter{Name: "urgent", Type: TypeBoolean, Default: false}).Validate())
		gt.Error(t, (&Parameter{Name: "qty", Type: TypeInteger, Default: "many"}).Validate())
	})
}

func TestToolSpecValidation(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		spec := ToolSpec{
			Name: "get_price_quote",
			Parameters: []*Parameter{
				{Name: "part_name", Type: TypeString, Required: true},
				{Name: "quantity", Type: TypeInteger, Required: true},
			},
		}
		gt.NoError(t, spec.Validate())
		gt.Equal(t, spec.RequiredNames(), []string{"part_name", "quantity"})
		gt.Equal(t, spec.Parameter("quantity").Type, TypeInteger)
		gt.True(t, spec.Parameter("missing") == nil)
	})

	t.Run("empty name", func(t *testing.T) {
		gt.True(t, errors.Is((&ToolSpec{}).Validate(), ErrInvalidTool))
	})

	t.Run("duplicated parameter", func(t *testing.T) {
		spec := ToolSpec{
			Name: "dup",
			Parameters: []*Parameter{
				{Name: "a", Type: TypeString},
				{Name: "a", Type: TypeNumber},
			},
		}
		gt.True(t, errors.Is(spec.Validate(), ErrInvalidTool))
	})

	t.Run("clone does not share parameters", func(t *testing.T) {
		spec := ToolSpec{
			Name:       "c",
			Parameters: []*Parameter{{Name: "s", Type: TypeString, Enum: []string{"x"}}},
		}
		cp := spec.clone()
		cp.Parameters[0].Name = "changed"
		cp.Parameters[0].Enum[0] = "y"
		gt.Equal(t, spec.Parameters[0].Name, "s")
		gt.Equal(t, spec.Parameters[0].Enum[0], "x")
	})
}

func TestCoerce(t *testing.T) {
	testCases := []struct {
		name  string
		typ   ParameterType
		input any
		want  any
		fail  bool
	}{
		{name: "integer from float", typ: TypeInteger, input: 5.0, want: int64(5)},
		{name: "integer from string", typ: TypeInteger, input: "12", want: int64(12)},
		{name: "integer from json number", typ: TypeInteger, input: json.Number("7"), want: int64(7)},
		{name: "integer rejects fraction", typ: TypeInteger, input: 2.5, fail: true},
		{name: "integer rejects bool", typ: TypeInteger, input: true, fail: true},
		{name: "integer rejects text", typ: TypeInteger, input: "five", fail: true},
		{name: "number from int", typ: TypeNumber, input: 3, want: 3.0},
		{name: "number from string", typ: TypeNumber, input: "1.5", want: 1.5},
		{name: "number rejects bool", typ: TypeNumber, input: false, fail: true},
		{name: "boolean", typ: TypeBoolean, input: true, want: true},
		{name: "boolean from string", typ: TypeBoolean, input: "false", want: false},
		{name: "boolean from one", typ: TypeBoolean, input: 1.0, want: true},
		{name: "boolean rejects two", typ: TypeBoolean, input: 2, fail: true},
		{name: "boolean rejects text", typ: TypeBoolean, input: "maybe", fail: true},
		{name: "string from number", typ: TypeString, input: 42, want: "42"},
		{name: "string rejects object", typ: TypeString, input: map[string]any{"a": 1}, fail: true},
		{name: "null", typ: TypeString, input: nil, fail: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerce(tc.typ, tc.input)
			if tc.fail {
				gt.True(t, errors.Is(err, ErrInvalidArgument))
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tc.want)
		})
	}
}

func TestCoerceArgs(t *testing.T) {
	spec := &ToolSpec{
		Name: "order",
		Parameters: []*Parameter{
			{Name: "part_name", Type: TypeString, Required: true},
			{Name: "quantity", Type: TypeInteger, Required: true},
			{Name: "urgent", Type: TypeBoolean, Default: false},
		},
	}

	t.Run("defaults and dropped keys", func(t *testing.T) {
		args, dropped, err := coerceArgs(spec, map[string]any{
			"part_name": "X",
			"quantity":  "5",
			"color":     "red",
		})
		gt.NoError(t, err)
		gt.Equal(t, args.String("part_name"), "X")
		gt.Equal(t, args.Int("quantity"), int64(5))
		gt.True(t, args.Has("urgent"))
		gt.False(t, args.Bool("urgent"))
		gt.Equal(t, dropped, []string{"color"})
	})

	t.Run("missing required", func(t *testing.T) {
		_, _, err := coerceArgs(spec, map[string]any{"part_name": "X"})
		gt.True(t, errors.Is(err, ErrInvalidArgument))
		gt.S(t, err.Error()).Contains("missing required argument 'quantity'")
	})

	t.Run("malformed value", func(t *testing.T) {
		_, _, err := coerceArgs(spec, map[string]any{"part_name": "X", "quantity": "lots"})
		gt.True(t, errors.Is(err, ErrInvalidArgument))
		gt.S(t, err.Error()).Contains("'quantity'")
	})
}
