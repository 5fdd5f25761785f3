// Package supplier provides the procurement tools that quote and place orders with the supplier.
package supplier

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/a2a"
)

const (
	// QuoteToolName is the name of the price quote tool.
	QuoteToolName = "get_price_quote"

	// OrderToolName is the name of the order tool.
	OrderToolName = "order_parts_from_supplier"

	// DefaultApprovalThreshold is the order cost in USD above which a human approval is required.
	DefaultApprovalThreshold = 10000.0

	// UnreachableMessage is returned when the supplier can not be connected.
	UnreachableMessage = "❌ Connection Failed: The internal Supplier Service is unreachable."
)

// OrderPlacer sends purchase orders. *a2a.Client implements it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order a2a.PurchaseOrder) (*a2a.OrderResponse, error)
}

var _ OrderPlacer = (*a2a.Client)(nil)

func orderParameters(urgentDesc string) []*sentinell.Parameter {
	one := 1.0
	return []*sentinell.Parameter{
		{
			Name:        "part_name",
			Type:        sentinell.TypeString,
			Description: "The SKU or name of the part (e.g., 'Logic-Core-CPU-X1').",
			Required:    true,
		},
		{
			Name:        "quantity",
			Type:        sentinell.TypeInteger,
			Description: "Number of units.",
			Required:    true,
			Minimum:     &one,
		},
		{
			Name:        "urgent",
			Type:        sentinell.TypeBoolean,
			Description: urgentDesc,
			Default:     false,
		},
	}
}

func orderFromArgs(args sentinell.Args) a2a.PurchaseOrder {
	return a2a.PurchaseOrder{
		PartName: args.String("part_name"),
		Quantity: args.Int("quantity"),
		Urgent:   args.Bool("urgent"),
	}
}

// QuoteTool estimates an order cost without placing it.
type QuoteTool struct{}

var _ sentinell.Tool = (*QuoteTool)(nil)

// NewQuoteTool creates a get_price_quote tool.
func NewQuoteTool() *QuoteTool {
	return &QuoteTool{}
}

// Spec implements sentinell.Tool.
func (x *QuoteTool) Spec() sentinell.ToolSpec {
	return sentinell.ToolSpec{
		Name:        QuoteToolName,
		Description: "Gets a price estimate from the supplier WITHOUT placing an order. Use this to check costs before committing to a purchase.",
		Parameters:  orderParameters("Shipping urgency."),
	}
}

// Run implements sentinell.Tool.
func (x *QuoteTool) Run(ctx context.Context, args sentinell.Args) (string, error) {
	order := orderFromArgs(args)
	cost := a2a.EstimateCost(order.Quantity, order.Urgent)
	ctxlog.From(ctx).Info("price quote requested", "part_name", order.PartName, "quantity", order.Quantity, "estimated_cost", cost)
	return fmt.Sprintf(`{"estimated_cost": %s, "currency": "USD"}`, a2a.FormatAmount(cost)), nil
}

// OrderTool places purchase orders with the supplier. Orders whose estimated cost exceeds the
// approval threshold are held unless the context carries an approval (see WithApproval).
type OrderTool struct {
	placer    OrderPlacer
	threshold float64
}

var _ sentinell.Tool = (*OrderTool)(nil)

// OrderOption configures an OrderTool.
type OrderOption func(*OrderTool)

// WithApprovalThreshold sets the cost in USD above which an order needs approval. A value of 0 or
// below disables the check.
func WithApprovalThreshold(usd float64) OrderOption {
	return func(t *OrderTool) {
		t.threshold = usd
	}
}

// NewOrderTool creates an order_parts_from_supplier tool.
func NewOrderTool(placer OrderPlacer, options ...OrderOption) *OrderTool {
	t := &OrderTool{
		placer:    placer,
		threshold: DefaultApprovalThreshold,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Spec implements sentinell.Tool.
func (x *OrderTool) Spec() sentinell.ToolSpec {
	return sentinell.ToolSpec{
		Name:        OrderToolName,
		Description: "Sends a purchase order to an external supplier via the A2A (Agent-to-Agent) protocol. Use this tool when you need to replenish stock for a critical item.",
		Parameters:  orderParameters("Set to true if the risk level is CRITICAL and speed is required."),
	}
}

// PausedMessage is returned when an order is held for human approval.
func PausedMessage(order a2a.PurchaseOrder, cost, threshold float64) string {
	return fmt.Sprintf("⏸️ PAUSED: Order of %d x %s (estimated $%s) exceeds the $%s limit and requires human approval. No order was sent.",
		order.Quantity, order.PartName, a2a.FormatAmount(cost), a2a.FormatAmount(threshold))
}

// Run implements sentinell.Tool. Supplier failures are reported as text, not as errors.
func (x *OrderTool) Run(ctx context.Context, args sentinell.Args) (string, error) {
	logger := ctxlog.From(ctx)
	order := orderFromArgs(args)
	logger.Info("placing order", "part_name", order.PartName, "quantity", order.Quantity, "urgent", order.Urgent)

	if cost := a2a.EstimateCost(order.Quantity, order.Urgent); x.threshold > 0 && cost > x.threshold && !IsApproved(ctx) {
		logger.Warn("order held for approval", "estimated_cost", cost, "threshold", x.threshold)
		return PausedMessage(order, cost, x.threshold), nil
	}

	resp, err := x.placer.PlaceOrder(ctx, order)
	if err != nil {
		logger.Error("order failed", "error", err)
		if errors.Is(err, a2a.ErrUnreachable) {
			return UnreachableMessage, nil
		}
		return "❌ Order Failed: " + err.Error(), nil
	}

	if resp.Confirmed() {
		result := fmt.Sprintf("✅ ORDER SUCCESS: %s. Cost: $%s. ETA: %s", resp.OrderID, a2a.FormatAmount(resp.TotalCost), resp.Message)
		logger.Info("order confirmed", "order_id", resp.OrderID, "total_cost", resp.TotalCost)
		return result, nil
	}

	logger.Warn("order rejected", "message", resp.Message)
	return fmt.Sprintf("❌ ORDER REJECTED: Supplier says '%s'", resp.Message), nil
}
