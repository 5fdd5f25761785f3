package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell/agent/procurement"
	"github.com/m-mizutani/sentinell/server"
	"github.com/urfave/cli/v3"
)

func scanCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:     "region",
			Aliases:  []string{"r"},
			Required: true,
			Usage:    "Region to assess",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the result as JSON",
		},
	}, llmFlags()...)
	flags = append(flags, agentFlags()...)

	return &cli.Command{
		Name:  "scan",
		Usage: "Assess supply chain risk for a region",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := newRuntime(ctx, cmd, localSupplierURL(8080))
			if err != nil {
				return err
			}
			defer rt.close()

			scan, err := rt.watchtower.ScanRegion(ctx, cmd.String("region"))
			if err != nil {
				return err
			}

			risk := server.ClassifyRisk(scan.Summary)
			if cmd.Bool("json") {
				return printJSON(server.ScanResponse{
					Region:       scan.Region,
					RiskLevel:    risk,
					Summary:      scan.Summary,
					Timestamp:    time.Now().Format(server.TimestampLayout),
					Intelligence: scan.Intelligence,
				})
			}

			fmt.Printf("Region: %s\nRisk level: %s\n\n%s\n", scan.Region, risk, scan.Summary)
			return nil
		},
	}
}

func purchaseCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:     "part",
			Aliases:  []string{"p"},
			Required: true,
			Usage:    "Part name to order",
		},
		&cli.Int64Flag{
			Name:     "quantity",
			Aliases:  []string{"q"},
			Required: true,
			Usage:    "Number of units",
		},
		&cli.StringFlag{
			Name:  "risk-level",
			Value: server.RiskLow,
			Usage: "Risk level of the sourcing region (CRITICAL ships urgently)",
		},
		&cli.BoolFlag{
			Name:  "approved",
			Usage: "Approve orders above the approval threshold",
		},
		supplierURLFlag(localSupplierURL(8080)),
	}, llmFlags()...)
	flags = append(flags, agentFlags()...)

	return &cli.Command{
		Name:  "purchase",
		Usage: "Place an order through the procurement agent",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req := procurement.Request{
				PartName:  cmd.String("part"),
				Quantity:  cmd.Int64("quantity"),
				RiskLevel: cmd.String("risk-level"),
				Approved:  cmd.Bool("approved"),
			}
			if err := req.Validate(); err != nil {
				return err
			}

			rt, err := newRuntime(ctx, cmd, cmd.String("supplier-url"))
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.procurement.CreateOrder(ctx, req)
			if err != nil {
				return err
			}

			fmt.Printf("Status: %s\n\n%s\n", server.ClassifyPurchase(result), result)
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to write JSON")
	}
	return nil
}
