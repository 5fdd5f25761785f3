package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "sentinell",
		Usage: "Autonomous supply chain resilience agents",
		Flags: loggerFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return setupLogger(ctx, cmd)
		},
		Commands: []*cli.Command{
			serveCommand(),
			supplierCommand(),
			scanCommand(),
			purchaseCommand(),
			mcpCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
