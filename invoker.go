package sentinell

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ToolInvoker executes tool calls against a ToolRegistry. Invoke never fails: every call yields
// exactly one ToolResult, and failures are described in its text so the model can react to them.
type ToolInvoker struct {
	registry *ToolRegistry
}

// NewToolInvoker creates an invoker bound to registry.
func NewToolInvoker(registry *ToolRegistry) *ToolInvoker {
	return &ToolInvoker{registry: registry}
}

// UnknownToolMessage is the observation returned for an unregistered tool name.
func UnknownToolMessage(name string) string {
	return fmt.Sprintf("Error: Unknown tool '%s'", name)
}

// ToolErrorMessage is the observation returned when a tool fails.
func ToolErrorMessage(err error) string {
	return "Tool Error: " + err.Error()
}

// Invoke runs call and returns its observation.
func (x *ToolInvoker) Invoke(ctx context.Context, call ToolCall) ToolResult {
	logger := LoggerFromContext(ctx).With("tool", call.Name, "call_id", call.ID)

	ctx, span := tracer.Start(ctx, "tool_exec",
		trace.WithAttributes(attribute.String("tool.name", call.Name)),
	)
	defer span.End()

	result := ToolResult{ID: call.ID, Name: call.Name}

	entry, ok := x.registry.lookup(call.Name)
	if !ok {
		logger.Warn("unknown tool requested", "args", call.Args)
		span.SetStatus(codes.Error, "unknown tool")
		result.Content = UnknownToolMessage(call.Name)
		result.IsError = true
		return result
	}

	args, dropped, err := coerceArgs(&entry.spec, call.Args)
	if err != nil {
		logger.Warn("tool arguments rejected", "error", err, "args", call.Args)
		return failed(span, result, err)
	}
	if len(dropped) > 0 {
		logger.Debug("dropped undeclared tool arguments", "keys", dropped)
	}
	if err := entry.validator.validate(args); err != nil {
		logger.Warn("tool arguments failed validation", "error", err, "args", args)
		return failed(span, result, err)
	}

	logger.Info("executing tool", "args", args)
	content, err := runTool(ctx, entry.tool, args)
	if err != nil {
		logger.Error("tool execution failed", "error", err)
		return failed(span, result, err)
	}

	logger.Debug("tool finished", "result", content)
	result.Content = content
	return result
}

func failed(span trace.Span, result ToolResult, err error) ToolResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	result.Content = ToolErrorMessage(err)
	result.IsError = true
	return result
}

func runTool(ctx context.Context, tool Tool, args Args) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerr.New(fmt.Sprintf("panic: %v", r), goerr.V("tool", tool.Spec().Name))
		}
	}()
	return tool.Run(ctx, args)
}
