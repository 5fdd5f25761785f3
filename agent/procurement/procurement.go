// Package procurement implements the buyer agent that places purchase orders with the supplier.
package procurement

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/tools/currency"
	"github.com/m-mizutani/sentinell/tools/supplier"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Name identifies the agent in logs, spans and metrics.
	Name = "procurement"

	// ExhaustedMessage is returned when the agent does not finish within its turn budget.
	ExhaustedMessage = "Error: Procurement Agent timed out."

	// RiskCritical is the risk level that makes an order urgent.
	RiskCritical = "CRITICAL"
)

// SystemPrompt is the instruction of the procurement manager.
const SystemPrompt = `You are the Procurement Manager for Sentinell.ai.

YOUR MISSION:
1. Receive a buying task (Part Name, Quantity, Urgency).
2. Use the 'order_parts_from_supplier' tool to execute the purchase.
3. Verify the confirmation message from the supplier.
4. Report the Order ID and Cost back to the user.

If the supplier rejects the order, report the failure clearly.
If the order is PAUSED for human approval, say that it is PAUSED and stop.
Use 'get_price_quote' to check a cost before ordering and 'get_exchange_rate' when a cost in another currency is requested.
Quote tool results verbatim when you report them.`

var tracer = otel.Tracer("github.com/m-mizutani/sentinell/agent/procurement")

// Request is one buying task.
type Request struct {
	PartName  string
	Quantity  int64
	RiskLevel string

	// Approved carries a human approval for orders above the approval threshold.
	Approved bool
}

// Urgent reports whether the order should ship urgently.
func (r Request) Urgent() bool {
	return strings.EqualFold(r.RiskLevel, RiskCritical)
}

// Validate checks the request fields.
func (r Request) Validate() error {
	if r.PartName == "" {
		return goerr.New("part_name is required")
	}
	if r.Quantity <= 0 {
		return goerr.New("quantity must be greater than 0", goerr.V("quantity", r.Quantity))
	}
	return nil
}

// Prompt builds the task given to the model.
func Prompt(req Request) string {
	prompt := fmt.Sprintf("Please purchase %d units of %s. Risk level is %s.", req.Quantity, req.PartName, req.RiskLevel)
	if req.Urgent() {
		prompt += " Mark the order as urgent."
	}
	return prompt
}

type config struct {
	maxTurns    int
	threshold   float64
	rates       currency.RateProvider
	loopOptions []sentinell.LoopOption
}

// Option configures an Agent.
type Option func(*config)

// WithMaxTurns sets the turn budget of the loop.
func WithMaxTurns(n int) Option {
	return func(c *config) {
		c.maxTurns = n
	}
}

// WithApprovalThreshold sets the order cost in USD that requires human approval.
func WithApprovalThreshold(usd float64) Option {
	return func(c *config) {
		c.threshold = usd
	}
}

// WithExchangeRates enables the get_exchange_rate tool.
func WithExchangeRates(rates currency.RateProvider) Option {
	return func(c *config) {
		c.rates = rates
	}
}

// WithLoopOptions passes extra options, such as metric hooks, to the loop.
func WithLoopOptions(options ...sentinell.LoopOption) Option {
	return func(c *config) {
		c.loopOptions = append(c.loopOptions, options...)
	}
}

// Agent runs procurement tasks. It is safe for concurrent use.
type Agent struct {
	loop *sentinell.Loop
}

// New creates a procurement agent that orders through placer.
func New(client sentinell.LLMClient, placer supplier.OrderPlacer, options ...Option) (*Agent, error) {
	cfg := config{
		maxTurns:  sentinell.DefaultMaxTurns,
		threshold: supplier.DefaultApprovalThreshold,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	tools := []sentinell.Tool{
		supplier.NewOrderTool(placer, supplier.WithApprovalThreshold(cfg.threshold)),
		supplier.NewQuoteTool(),
	}
	if cfg.rates != nil {
		tools = append(tools, currency.New(cfg.rates))
	}
	registry, err := sentinell.NewToolRegistry(tools...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register procurement tools")
	}

	loopOptions := append([]sentinell.LoopOption{
		sentinell.WithLoopName(Name),
		sentinell.WithMaxTurns(cfg.maxTurns),
		sentinell.WithSystemPrompt(SystemPrompt),
		sentinell.WithExhaustedMessage(ExhaustedMessage),
	}, cfg.loopOptions...)

	return &Agent{loop: sentinell.NewLoop(client, registry, loopOptions...)}, nil
}

// CreateOrder asks the model to buy the requested parts and returns its report. The report is
// the exhausted message when the turn budget runs out.
func (x *Agent) CreateOrder(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "agent_purchase_execution", trace.WithAttributes(
		attribute.String("procurement.part_name", req.PartName),
		attribute.Int64("procurement.quantity", req.Quantity),
		attribute.String("procurement.risk_level", req.RiskLevel),
		attribute.Bool("procurement.approved", req.Approved),
	))
	defer span.End()

	logger := sentinell.LoggerFromContext(ctx).With("agent", Name)
	ctx = sentinell.ContextWithLogger(ctx, logger)
	if req.Approved {
		ctx = supplier.WithApproval(ctx)
	}

	prompt := Prompt(req)
	logger.Info("starting procurement task", "prompt", prompt)

	outcome, err := x.loop.Run(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", goerr.Wrap(err, "procurement failed", goerr.V("part_name", req.PartName))
	}

	span.SetAttributes(attribute.String("procurement.outcome", outcome.Kind.String()))
	logger.Info("procurement task finished", "outcome", outcome.Kind.String(), "turns", outcome.Turns)
	return outcome.Text, nil
}
