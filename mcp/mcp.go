// Package mcp serves registered tools over the Model Context Protocol on stdio.
package mcp

import (
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// DefaultServerName is advertised to MCP clients.
	DefaultServerName = "sentinell"

	// DefaultServerVersion is advertised to MCP clients.
	DefaultServerVersion = "1.0.0"
)

// Server exposes the tools of a registry to MCP clients. Calls go through a ToolInvoker, so
// tool failures come back as error results instead of protocol errors.
type Server struct {
	mcpServer *server.MCPServer
	invoker   *sentinell.ToolInvoker
}

// Option configures a Server.
type Option func(*options)

type options struct {
	name    string
	version string
}

// WithName sets the advertised server name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithVersion sets the advertised server version.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// NewServer creates an MCP server for every tool in registry.
func NewServer(registry *sentinell.ToolRegistry, opts ...Option) (*Server, error) {
	o := options{name: DefaultServerName, version: DefaultServerVersion}
	for _, opt := range opts {
		opt(&o)
	}

	x := &Server{
		mcpServer: server.NewMCPServer(o.name, o.version, server.WithToolCapabilities(false)),
		invoker:   sentinell.NewToolInvoker(registry),
	}

	for _, spec := range registry.Specs() {
		schema, err := json.Marshal(spec.JSONSchema())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal tool schema", goerr.V("tool", spec.Name))
		}
		x.mcpServer.AddTool(mcpgo.NewToolWithRawSchema(spec.Name, spec.Description, schema), x.handler(spec.Name))
	}
	return x, nil
}

func (x *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		logger := sentinell.LoggerFromContext(ctx).With("mcp_tool", name)
		ctx = sentinell.ContextWithLogger(ctx, logger)

		result := x.invoker.Invoke(ctx, sentinell.ToolCall{
			ID:   uuid.NewString(),
			Name: name,
			Args: request.Params.Arguments,
		})

		out := mcpgo.NewToolResultText(result.Content)
		out.IsError = result.IsError
		return out, nil
	}
}

// HandleMessage processes one JSON-RPC message and returns the response.
func (x *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcpgo.JSONRPCMessage {
	return x.mcpServer.HandleMessage(ctx, message)
}

// Serve speaks MCP over in and out until ctx is cancelled or in is closed.
func (x *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := server.NewStdioServer(x.mcpServer).Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return goerr.Wrap(err, "mcp server stopped")
	}
	return nil
}
