package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/mcp"
	"github.com/m-mizutani/sentinell/tools/search"
	"github.com/m-mizutani/sentinell/tools/supplier"
)

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, srv *mcp.Server, id int, method string, params any) rpcResponse {
	t.Helper()
	p, err := json.Marshal(params)
	gt.NoError(t, err)
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":%q,"params":%s}`, id, method, p)

	raw, err := json.Marshal(srv.HandleMessage(context.Background(), json.RawMessage(msg)))
	gt.NoError(t, err)

	var resp rpcResponse
	gt.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func newServer(t *testing.T) *mcp.Server {
	t.Helper()
	registry, err := sentinell.NewToolRegistry(search.New(), supplier.NewQuoteTool())
	gt.NoError(t, err)
	srv, err := mcp.NewServer(registry)
	gt.NoError(t, err)

	resp := call(t, srv, 1, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0.0.1"},
	})
	gt.Nil(t, resp.Error)
	return srv
}

func TestListTools(t *testing.T) {
	srv := newServer(t)
	resp := call(t, srv, 2, "tools/list", map[string]any{})
	gt.Nil(t, resp.Error)

	var result struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	gt.NoError(t, json.Unmarshal(resp.Result, &result))
	gt.A(t, result.Tools).Length(2)

	byName := map[string]map[string]any{}
	for _, tool := range result.Tools {
		byName[tool.Name] = tool.InputSchema
	}
	gt.Equal[any](t, byName[search.ToolName]["required"], []any{"query"})
	gt.Equal[any](t, byName[supplier.QuoteToolName]["required"], []any{"part_name", "quantity"})
}

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func TestCallTool(t *testing.T) {
	srv := newServer(t)

	resp := call(t, srv, 3, "tools/call", map[string]any{
		"name":      supplier.QuoteToolName,
		"arguments": map[string]any{"part_name": "GPU", "quantity": 10, "urgent": true},
	})
	gt.Nil(t, resp.Error)

	var result toolResult
	gt.NoError(t, json.Unmarshal(resp.Result, &result))
	gt.False(t, result.IsError)
	gt.A(t, result.Content).Length(1)
	gt.Equal(t, result.Content[0].Text, `{"estimated_cost": 1000.0, "currency": "USD"}`)
}

func TestCallToolInvalidArguments(t *testing.T) {
	srv := newServer(t)

	resp := call(t, srv, 4, "tools/call", map[string]any{
		"name":      supplier.QuoteToolName,
		"arguments": map[string]any{"part_name": "GPU"},
	})
	gt.Nil(t, resp.Error)

	var result toolResult
	gt.NoError(t, json.Unmarshal(resp.Result, &result))
	gt.True(t, result.IsError)
	gt.S(t, result.Content[0].Text).Contains("Tool Error: ")
	gt.S(t, result.Content[0].Text).Contains("missing required argument 'quantity'")
}
