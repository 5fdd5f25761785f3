package main

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/a2a"
	"github.com/m-mizutani/sentinell/mcp"
	"github.com/m-mizutani/sentinell/server"
	"github.com/m-mizutani/sentinell/tools/currency"
	"github.com/m-mizutani/sentinell/tools/search"
	"github.com/m-mizutani/sentinell/tools/supplier"
	"github.com/urfave/cli/v3"
)

// newToolRegistry exposes the agent tools without a model in front of them.
func newToolRegistry(supplierURL string, threshold float64) (*sentinell.ToolRegistry, error) {
	client := a2a.NewClient(supplierURL)
	return sentinell.NewToolRegistry(
		search.New(),
		supplier.NewQuoteTool(),
		supplier.NewOrderTool(client, supplier.WithApprovalThreshold(threshold)),
		currency.New(client),
	)
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the agent tools over MCP on stdio",
		Flags: []cli.Flag{
			supplierURLFlag(fmt.Sprintf("http://127.0.0.1:%d", a2a.DefaultPort)),
			&cli.FloatFlag{
				Name:    "approval-threshold",
				Value:   supplier.DefaultApprovalThreshold,
				Sources: cli.EnvVars("SENTINELL_APPROVAL_THRESHOLD"),
				Usage:   "Order cost in USD that requires human approval (0 disables)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			registry, err := newToolRegistry(cmd.String("supplier-url"), cmd.Float("approval-threshold"))
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(registry, mcp.WithVersion(server.Version))
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("serving MCP on stdio", "tools", len(registry.Specs()))
			return srv.Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
