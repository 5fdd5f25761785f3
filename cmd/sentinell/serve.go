package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/sentinell/a2a"
	"github.com/m-mizutani/sentinell/server"
	"github.com/urfave/cli/v3"
)

func supplierFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:    "supplier-failure-rate",
			Value:   a2a.DefaultFailureRate,
			Sources: cli.EnvVars("SENTINELL_SUPPLIER_FAILURE_RATE"),
			Usage:   "Probability that the simulated supplier rejects an order",
		},
	}
}

func serveCommand() *cli.Command {
	var flags []cli.Flag
	flags = append(flags,
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Sources: cli.EnvVars("PORT"),
			Usage:   "HTTP listen port",
		},
		supplierURLFlag(""),
	)
	flags = append(flags, llmFlags()...)
	flags = append(flags, agentFlags()...)
	flags = append(flags, supplierFlags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API with the supplier service mounted under /supplier",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			port := cmd.Int("port")
			supplierURL := cmd.String("supplier-url")
			if supplierURL == "" {
				supplierURL = localSupplierURL(port)
			}

			options := []server.Option{
				server.WithLogger(ctxlog.From(ctx)),
				server.WithSupplier(a2a.NewSupplier(
					a2a.WithFailureRate(cmd.Float("supplier-failure-rate")),
					a2a.WithPort(port),
				)),
			}

			// The API still serves health and the supplier when the model is unavailable.
			rt, err := newRuntime(ctx, cmd, supplierURL)
			if err != nil {
				ctxlog.From(ctx).Error("agents unavailable", "error", err)
			} else {
				defer rt.close()
				options = append(options,
					server.WithScanner(rt.watchtower),
					server.WithPurchaser(rt.procurement),
					server.WithMetrics(rt.metrics),
				)
			}

			return server.New(options...).Run(ctx, fmt.Sprintf(":%d", port))
		},
	}
}

func supplierCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   a2a.DefaultPort,
			Sources: cli.EnvVars("SUPPLIER_PORT"),
			Usage:   "HTTP listen port",
		},
	}, supplierFlags()...)

	return &cli.Command{
		Name:  "supplier",
		Usage: "Run the simulated supplier service on its own",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			port := cmd.Int("port")
			logger := ctxlog.From(ctx)
			e := a2a.NewSupplier(
				a2a.WithFailureRate(cmd.Float("supplier-failure-rate")),
				a2a.WithPort(port),
			).NewServer(logger)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting supplier", "port", port)
				errCh <- e.Start(fmt.Sprintf(":%d", port))
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return e.Shutdown(context.Background())
			}
		},
	}
}
