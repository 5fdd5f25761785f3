package main

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/a2a"
	"github.com/m-mizutani/sentinell/agent/procurement"
	"github.com/m-mizutani/sentinell/agent/watchtower"
	"github.com/m-mizutani/sentinell/cache"
	"github.com/m-mizutani/sentinell/internal/metrics"
	"github.com/m-mizutani/sentinell/internal/telemetry"
	"github.com/m-mizutani/sentinell/llm/claude"
	"github.com/m-mizutani/sentinell/llm/gemini"
	"github.com/m-mizutani/sentinell/llm/openai"
	"github.com/m-mizutani/sentinell/server"
	"github.com/m-mizutani/sentinell/tools/supplier"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

func llmFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "llm-provider",
			Value:   "gemini",
			Sources: cli.EnvVars("SENTINELL_LLM_PROVIDER"),
			Usage:   "Model provider (gemini, openai, claude, claude-vertex)",
		},
		&cli.StringFlag{
			Name:    "gcp-project",
			Sources: cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Usage:   "Google Cloud project for Vertex AI",
		},
		&cli.StringFlag{
			Name:    "gcp-region",
			Value:   "us-central1",
			Sources: cli.EnvVars("GOOGLE_CLOUD_REGION"),
			Usage:   "Google Cloud region for Vertex AI",
		},
		&cli.StringFlag{
			Name:    "gcp-credentials",
			Sources: cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
			Usage:   "Service account key file for Vertex AI",
		},
		&cli.StringFlag{
			Name:    "gemini-model",
			Value:   gemini.DefaultModel,
			Sources: cli.EnvVars("MODEL_NAME"),
			Usage:   "Gemini model name",
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			Sources: cli.EnvVars("OPENAI_API_KEY"),
			Usage:   "OpenAI API key",
		},
		&cli.StringFlag{
			Name:    "openai-model",
			Value:   openai.DefaultModel,
			Sources: cli.EnvVars("OPENAI_MODEL"),
			Usage:   "OpenAI model name",
		},
		&cli.StringFlag{
			Name:    "anthropic-api-key",
			Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
			Usage:   "Anthropic API key",
		},
		&cli.StringFlag{
			Name:    "anthropic-model",
			Sources: cli.EnvVars("ANTHROPIC_MODEL"),
			Usage:   "Claude model name (default depends on provider)",
		},
	}
}

func agentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "max-turns",
			Value:   sentinell.DefaultMaxTurns,
			Sources: cli.EnvVars("SENTINELL_MAX_TURNS"),
			Usage:   "Model round trips per agent run",
		},
		&cli.IntFlag{
			Name:    "workers",
			Value:   sentinell.DefaultWorkers,
			Sources: cli.EnvVars("SENTINELL_WORKERS"),
			Usage:   "Worker pool size for parallel sub-tasks",
		},
		&cli.FloatFlag{
			Name:    "approval-threshold",
			Value:   supplier.DefaultApprovalThreshold,
			Sources: cli.EnvVars("SENTINELL_APPROVAL_THRESHOLD"),
			Usage:   "Order cost in USD that requires human approval (0 disables)",
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Sources: cli.EnvVars("REDIS_ADDR"),
			Usage:   "Redis address for the scan cache (disabled when empty)",
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Sources: cli.EnvVars("REDIS_PASSWORD"),
			Usage:   "Redis password",
		},
		&cli.DurationFlag{
			Name:    "scan-cache-ttl",
			Value:   watchtower.DefaultCacheTTL,
			Sources: cli.EnvVars("SENTINELL_SCAN_CACHE_TTL"),
			Usage:   "How long a region scan is reused",
		},
		&cli.BoolFlag{
			Name:    "trace",
			Sources: cli.EnvVars("SENTINELL_TRACE"),
			Usage:   "Export spans to stderr",
		},
	}
}

func supplierURLFlag(defaultURL string) cli.Flag {
	return &cli.StringFlag{
		Name:    "supplier-url",
		Value:   defaultURL,
		Sources: cli.EnvVars("SENTINELL_SUPPLIER_URL"),
		Usage:   "Base URL of the supplier service",
	}
}

func newLLMClient(ctx context.Context, cmd *cli.Command) (sentinell.LLMClient, func(), error) {
	provider := cmd.String("llm-provider")
	ctxlog.From(ctx).Info("using model provider", "provider", provider)

	switch provider {
	case "gemini":
		var gcpOptions []option.ClientOption
		if path := cmd.String("gcp-credentials"); path != "" {
			gcpOptions = append(gcpOptions, option.WithCredentialsFile(path))
		}
		client, err := gemini.New(ctx, cmd.String("gcp-project"), cmd.String("gcp-region"),
			gemini.WithModel(cmd.String("gemini-model")),
			gemini.WithGoogleCloudOptions(gcpOptions...),
		)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil

	case "openai":
		client, err := openai.New(ctx, cmd.String("openai-api-key"), openai.WithModel(cmd.String("openai-model")))
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil

	case "claude", "claude-vertex":
		var options []claude.Option
		if model := cmd.String("anthropic-model"); model != "" {
			options = append(options, claude.WithModel(model))
		}

		var client *claude.Client
		var err error
		if provider == "claude" {
			client, err = claude.New(ctx, cmd.String("anthropic-api-key"), options...)
		} else {
			client, err = claude.NewWithVertex(ctx, cmd.String("gcp-region"), cmd.String("gcp-project"), options...)
		}
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil

	default:
		return nil, nil, goerr.New("unknown llm provider", goerr.V("provider", provider))
	}
}

// runtime holds everything the agent commands share. close releases it in reverse order.
type runtime struct {
	metrics     *metrics.Metrics
	watchtower  *watchtower.Agent
	procurement *procurement.Agent
	closers     []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func newRuntime(ctx context.Context, cmd *cli.Command, supplierURL string) (*runtime, error) {
	rt := &runtime{metrics: metrics.New()}
	logger := ctxlog.From(ctx)

	if cmd.Bool("trace") {
		tel, err := telemetry.Setup(telemetry.Config{
			ServiceName:    "sentinell-backend",
			ServiceVersion: server.Version,
			Environment:    envOr("SENTINELL_ENV", "development"),
			Writer:         os.Stderr,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() {
			if err := tel.Shutdown(context.Background()); err != nil {
				logger.Warn("failed to flush spans", "error", err)
			}
		})
	}

	client, closeClient, err := newLLMClient(ctx, cmd)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeClient)

	watchOptions := []watchtower.Option{
		watchtower.WithWorkerPool(sentinell.NewWorkerPool(cmd.Int("workers"))),
		watchtower.WithMaxTurns(cmd.Int("max-turns")),
		watchtower.WithLoopOptions(rt.metrics.LoopOptions(watchtower.Name)...),
		watchtower.WithFanOutHook(func(ctx context.Context, report *sentinell.FanOutReport) {
			rt.metrics.ObserveFanOut(report)
		}),
	}
	if addr := cmd.String("redis-addr"); addr != "" {
		store, err := cache.NewRedisStore(ctx, addr, cmd.String("redis-password"), 0)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = store.Close() })
		watchOptions = append(watchOptions, watchtower.WithCache(store, cmd.Duration("scan-cache-ttl")))
		logger.Info("scan cache enabled", "redis", addr)
	}

	rt.watchtower, err = watchtower.New(client, watchOptions...)
	if err != nil {
		rt.close()
		return nil, goerr.Wrap(err, "failed to initialize watchtower agent")
	}

	supplierClient := a2a.NewClient(supplierURL)
	rt.procurement, err = procurement.New(client, supplierClient,
		procurement.WithMaxTurns(cmd.Int("max-turns")),
		procurement.WithApprovalThreshold(cmd.Float("approval-threshold")),
		procurement.WithExchangeRates(supplierClient),
		procurement.WithLoopOptions(rt.metrics.LoopOptions(procurement.Name)...),
	)
	if err != nil {
		rt.close()
		return nil, goerr.Wrap(err, "failed to initialize procurement agent")
	}

	logger.Info("agents initialized", "supplier_url", supplierURL)
	return rt, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func localSupplierURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/supplier", port)
}
