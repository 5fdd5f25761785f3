// Package watchtower implements the risk monitoring agent. A scan gathers political and weather
// intelligence in parallel and then lets a risk analyst model write the assessment.
package watchtower

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/cache"
	"github.com/m-mizutani/sentinell/tools/search"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Name identifies the agent in logs, spans and metrics.
	Name = "watchtower"

	// LabelPolitical and LabelWeather are the sub-task labels of the intelligence fan-out.
	LabelPolitical = "political"
	LabelWeather   = "weather"

	// MaxSummaryWords bounds each intelligence summary.
	MaxSummaryWords = 50

	// ExhaustedMessage is the summary when the analyst does not finish within its turn budget.
	ExhaustedMessage = "Error: Watchtower Agent timed out."

	// DefaultCacheTTL is how long a scan is reused when a cache is configured.
	DefaultCacheTTL = 5 * time.Minute
)

// SystemPrompt is the instruction of the risk analyst.
const SystemPrompt = `You are the Watchtower risk analyst for Sentinell.ai, an autonomous supply chain resilience system.

YOUR MISSION:
1. Read the intelligence reports gathered by the field teams.
2. Use the 'search_news' tool if you need more detail about an event.
3. Assess the impact on semiconductor and electronics supply chains for the region.
4. Write a short assessment that ends with a line "RISK LEVEL: <LOW|MEDIUM|HIGH|CRITICAL>".

Only use the words LOW, MEDIUM, HIGH or CRITICAL for the risk level.`

var tracer = otel.Tracer("github.com/m-mizutani/sentinell/agent/watchtower")

// Scan is the result of a region scan.
type Scan struct {
	Region  string `json:"region"`
	Summary string `json:"summary"`

	// Intelligence is the JSON encoded fan-out report of the sub-tasks.
	Intelligence json.RawMessage `json:"intelligence"`

	// Cached is true when the scan was served from the cache.
	Cached bool `json:"-"`
}

// AnalystPrompt builds the task given to the risk analyst.
func AnalystPrompt(region string, report *sentinell.FanOutReport) string {
	return fmt.Sprintf("Assess the current supply chain risk for %s.\n\nIntelligence gathered in parallel:\n%s", region, report.Text())
}

type config struct {
	pool        *sentinell.WorkerPool
	search      *search.Tool
	maxTurns    int
	store       cache.Store
	ttl         time.Duration
	loopOptions []sentinell.LoopOption
	fanOutHook  func(ctx context.Context, report *sentinell.FanOutReport)
}

// Option configures an Agent.
type Option func(*config)

// WithWorkerPool sets the pool that runs the intelligence sub-tasks.
func WithWorkerPool(pool *sentinell.WorkerPool) Option {
	return func(c *config) {
		c.pool = pool
	}
}

// WithSearch replaces the search tool used by sub-tasks and the analyst.
func WithSearch(tool *search.Tool) Option {
	return func(c *config) {
		c.search = tool
	}
}

// WithMaxTurns sets the turn budget of the analyst loop.
func WithMaxTurns(n int) Option {
	return func(c *config) {
		c.maxTurns = n
	}
}

// WithCache reuses scans of the same region for ttl. A ttl of 0 or below uses DefaultCacheTTL.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(c *config) {
		c.store = store
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLoopOptions passes extra options to the analyst loop.
func WithLoopOptions(options ...sentinell.LoopOption) Option {
	return func(c *config) {
		c.loopOptions = append(c.loopOptions, options...)
	}
}

// WithFanOutHook sets a callback invoked with every fan-out report.
func WithFanOutHook(hook func(ctx context.Context, report *sentinell.FanOutReport)) Option {
	return func(c *config) {
		c.fanOutHook = hook
	}
}

// Agent scans regions for supply chain risks. It is safe for concurrent use.
type Agent struct {
	supervisor *sentinell.Supervisor
	analyst    *sentinell.Loop
	search     *search.Tool
	compactor  *sentinell.Compactor
	store      cache.Store
	ttl        time.Duration
	fanOutHook func(ctx context.Context, report *sentinell.FanOutReport)
}

// New creates a watchtower agent. client serves both the summaries and the analyst.
func New(client sentinell.LLMClient, options ...Option) (*Agent, error) {
	cfg := config{
		maxTurns:   sentinell.DefaultMaxTurns,
		ttl:        DefaultCacheTTL,
		fanOutHook: func(context.Context, *sentinell.FanOutReport) {},
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.search == nil {
		cfg.search = search.New()
	}

	compactor, err := sentinell.NewCompactor(client)
	if err != nil {
		return nil, err
	}

	x := &Agent{
		search:     cfg.search,
		compactor:  compactor,
		store:      cfg.store,
		ttl:        cfg.ttl,
		fanOutHook: cfg.fanOutHook,
	}

	supervisor, err := sentinell.NewSupervisor(cfg.pool,
		x.intelligenceTask(LabelPolitical, "political instability strikes riots tariffs %s", "POLITICAL REPORT: "),
		x.intelligenceTask(LabelWeather, "weather disaster typhoon earthquake flood %s", "WEATHER REPORT: "),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create supervisor")
	}
	x.supervisor = supervisor

	registry, err := sentinell.NewToolRegistry(cfg.search)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register watchtower tools")
	}
	x.analyst = sentinell.NewLoop(client, registry, append([]sentinell.LoopOption{
		sentinell.WithLoopName(Name),
		sentinell.WithMaxTurns(cfg.maxTurns),
		sentinell.WithSystemPrompt(SystemPrompt),
		sentinell.WithExhaustedMessage(ExhaustedMessage),
	}, cfg.loopOptions...)...)

	return x, nil
}

func (x *Agent) intelligenceTask(label, queryFormat, prefix string) sentinell.SubTask {
	return sentinell.SubTask{
		Label: label,
		Run: func(ctx context.Context, region string) (string, error) {
			sentinell.LoggerFromContext(ctx).Info("checking risks", "label", label, "region", region)

			raw := x.search.Search(ctx, fmt.Sprintf(queryFormat, region))
			summary, err := x.compactor.Compact(ctx, raw, MaxSummaryWords)
			if err != nil {
				return "", goerr.Wrap(err, "failed to summarize intelligence", goerr.V("label", label))
			}
			return prefix + summary, nil
		},
	}
}

func cacheKey(region string) string {
	return "scan:" + strings.ToLower(strings.TrimSpace(region))
}

// ScanRegion gathers intelligence for region and returns the analyst's assessment. Sub-task
// failures are part of the intelligence; only a model access failure of the analyst fails the scan.
func (x *Agent) ScanRegion(ctx context.Context, region string) (*Scan, error) {
	if strings.TrimSpace(region) == "" {
		return nil, goerr.New("region is required")
	}

	ctx, span := tracer.Start(ctx, "agent_scan_execution", trace.WithAttributes(attribute.String("watchtower.region", region)))
	defer span.End()

	logger := sentinell.LoggerFromContext(ctx).With("agent", Name, "region", region)
	ctx = sentinell.ContextWithLogger(ctx, logger)

	if scan := x.lookup(ctx, region); scan != nil {
		span.SetAttributes(attribute.Bool("watchtower.cached", true))
		logger.Info("serving cached scan")
		return scan, nil
	}

	report, err := x.supervisor.Run(ctx, region)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, goerr.Wrap(err, "failed to gather intelligence")
	}
	x.fanOutHook(ctx, report)
	logger.Info("intelligence gathered", "execution_time", report.ExecutionTime())

	intelligence, err := json.Marshal(report)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode intelligence")
	}

	outcome, err := x.analyst.Run(ctx, AnalystPrompt(region, report))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, goerr.Wrap(err, "risk analysis failed", goerr.V("region", region))
	}

	scan := &Scan{
		Region:       region,
		Summary:      outcome.Text,
		Intelligence: intelligence,
	}
	if !outcome.Exhausted() {
		x.save(ctx, scan)
	}
	return scan, nil
}

func (x *Agent) lookup(ctx context.Context, region string) *Scan {
	if x.store == nil {
		return nil
	}
	raw, ok, err := x.store.Get(ctx, cacheKey(region))
	if err != nil {
		sentinell.LoggerFromContext(ctx).Warn("failed to read scan cache", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var scan Scan
	if err := json.Unmarshal(raw, &scan); err != nil {
		sentinell.LoggerFromContext(ctx).Warn("dropping broken cache entry", "error", err)
		return nil
	}
	scan.Region = region
	scan.Cached = true
	return &scan
}

func (x *Agent) save(ctx context.Context, scan *Scan) {
	if x.store == nil {
		return
	}
	raw, err := json.Marshal(scan)
	if err != nil {
		sentinell.LoggerFromContext(ctx).Warn("failed to encode scan for cache", "error", err)
		return
	}
	if err := x.store.Set(ctx, cacheKey(scan.Region), raw, x.ttl); err != nil {
		sentinell.LoggerFromContext(ctx).Warn("failed to write scan cache", "error", err)
	}
}
