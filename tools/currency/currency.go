// Package currency provides the get_exchange_rate tool.
package currency

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/a2a"
)

// ToolName is the name the model uses to call the tool.
const ToolName = "get_exchange_rate"

// RateProvider returns USD exchange rates. *a2a.Client implements it.
type RateProvider interface {
	ExchangeRate(ctx context.Context, code string) (*a2a.ExchangeRate, error)
}

var _ RateProvider = (*a2a.Client)(nil)

// Tool looks up the USD exchange rate of a currency.
type Tool struct {
	rates RateProvider
}

var _ sentinell.Tool = (*Tool)(nil)

// New creates a get_exchange_rate tool.
func New(rates RateProvider) *Tool {
	return &Tool{rates: rates}
}

// Spec implements sentinell.Tool.
func (x *Tool) Spec() sentinell.ToolSpec {
	return sentinell.ToolSpec{
		Name:        ToolName,
		Description: "Check the current exchange rate for a currency against USD. Use this when a user asks about costs in foreign currencies (e.g., 'What is the cost in TWD?').",
		Parameters: []*sentinell.Parameter{
			{
				Name:        "currency_code",
				Type:        sentinell.TypeString,
				Description: "The 3-letter currency code (EUR, TWD, JPY, VND, GBP).",
				Required:    true,
			},
		},
	}
}

// Run implements sentinell.Tool. Lookup failures are reported as text.
func (x *Tool) Run(ctx context.Context, args sentinell.Args) (string, error) {
	code := args.String("currency_code")
	logger := ctxlog.From(ctx)
	logger.Info("checking exchange rate", "currency", code)

	rate, err := x.rates.ExchangeRate(ctx, code)
	switch {
	case err == nil:
		return fmt.Sprintf("1 USD = %s %s", a2a.FormatAmount(rate.Rate), code), nil
	case errors.Is(err, a2a.ErrUnsupportedCurrency), errors.Is(err, a2a.ErrUnexpectedStatus):
		return fmt.Sprintf("Error: Currency '%s' not supported.", code), nil
	default:
		logger.Error("currency service failed", "error", err)
		return fmt.Sprintf("Error connecting to currency service: %s", err.Error()), nil
	}
}
