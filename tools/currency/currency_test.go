package currency_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell"
	"github.com/m-mizutani/sentinell/a2a"
	"github.com/m-mizutani/sentinell/internal"
	"github.com/m-mizutani/sentinell/tools/currency"
)

type rateFunc func(ctx context.Context, code string) (*a2a.ExchangeRate, error)

func (f rateFunc) ExchangeRate(ctx context.Context, code string) (*a2a.ExchangeRate, error) {
	return f(ctx, code)
}

func run(t *testing.T, provider currency.RateProvider, code string) string {
	t.Helper()
	registry, err := sentinell.NewToolRegistry(currency.New(provider))
	gt.NoError(t, err)
	result := sentinell.NewToolInvoker(registry).Invoke(context.Background(), sentinell.ToolCall{
		ID:   "1",
		Name: currency.ToolName,
		Args: map[string]any{"currency_code": code},
	})
	gt.False(t, result.IsError)
	return result.Content
}

func TestExchangeRate(t *testing.T) {
	srv := httptest.NewServer(a2a.NewSupplier().NewServer(internal.TestLogger()))
	t.Cleanup(srv.Close)
	client := a2a.NewClient(srv.URL)

	gt.Equal(t, run(t, client, "TWD"), "1 USD = 31.5 TWD")
	gt.Equal(t, run(t, client, "VND"), "1 USD = 24500.0 VND")
	gt.Equal(t, run(t, client, "XYZ"), "Error: Currency 'XYZ' not supported.")
}

func TestExchangeRateServiceDown(t *testing.T) {
	provider := rateFunc(func(ctx context.Context, code string) (*a2a.ExchangeRate, error) {
		return nil, errors.New("connection refused")
	})
	got := run(t, provider, "EUR")
	gt.True(t, strings.HasPrefix(got, "Error connecting to currency service: "))
	gt.True(t, strings.Contains(got, "connection refused"))
}
