package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultTimeout bounds every request to the supplier.
const DefaultTimeout = 5 * time.Second

var (
	// ErrUnreachable is returned when the supplier can not be connected.
	ErrUnreachable = errors.New("supplier is unreachable")

	// ErrUnexpectedStatus is returned for a non-2xx answer.
	ErrUnexpectedStatus = errors.New("unexpected status from supplier")

	// ErrUnsupportedCurrency is returned when the supplier has no rate for a currency.
	ErrUnsupportedCurrency = errors.New("currency not supported")
)

// Client talks to the supplier over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(x *Client) {
		x.httpClient = c
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(x *Client) {
		x.httpClient.Timeout = d
	}
}

// NewClient creates a supplier client for baseURL, e.g. "http://localhost:8001".
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// BaseURL returns the supplier endpoint.
func (x *Client) BaseURL() string {
	return x.baseURL
}

// PlaceOrder sends order to the supplier. A rejected order is not an error; check OrderResponse.Status.
func (x *Client) PlaceOrder(ctx context.Context, order PurchaseOrder) (*OrderResponse, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal purchase order")
	}

	var resp OrderResponse
	if err := x.do(ctx, http.MethodPost, "/v1/order", body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to place order", goerr.V("part_name", order.PartName))
	}

	ctxlog.From(ctx).Debug("supplier answered order", "order_id", resp.OrderID, "status", resp.Status)
	return &resp, nil
}

// ExchangeRate returns the USD rate of code. An unknown currency yields ErrUnsupportedCurrency.
func (x *Client) ExchangeRate(ctx context.Context, code string) (*ExchangeRate, error) {
	var rate ExchangeRate
	err := x.do(ctx, http.MethodGet, "/v1/exchange_rate/"+url.PathEscape(code), nil, &rate)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, goerr.Wrap(ErrUnsupportedCurrency, "no exchange rate", goerr.V("currency", code))
		}
		return nil, goerr.Wrap(err, "failed to get exchange rate", goerr.V("currency", code))
	}
	return &rate, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrUnexpectedStatus, e.code, e.body)
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatus
}

func (x *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("path", path))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		if isDialError(err) {
			return goerr.Wrap(fmt.Errorf("%w: %w", ErrUnreachable, err), "failed to connect supplier", goerr.V("url", x.baseURL))
		}
		return goerr.Wrap(err, "request to supplier failed", goerr.V("url", x.baseURL))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerr.Wrap(err, "failed to read supplier response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.Wrap(&statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}, "supplier returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("path", path),
		)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerr.Wrap(err, "failed to decode supplier response", goerr.V("body", string(raw)))
	}
	return nil
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
