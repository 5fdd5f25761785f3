package a2a

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/sentinell/internal/httpx"
)

const (
	// DefaultFailureRate is the probability that the mock supplier rejects an order.
	DefaultFailureRate = 0.2

	// DefaultPort is the port of the standalone mock supplier.
	DefaultPort = 8001

	vendorName = "Global-Chips-Inc"
)

// DefaultExchangeRates are the rates served by the mock supplier, per USD.
var DefaultExchangeRates = map[string]float64{
	"EUR": 0.92,
	"TWD": 31.5,
	"JPY": 149.5,
	"VND": 24500,
	"GBP": 0.79,
}

// Supplier is a mock external vendor. It rejects a random share of orders to exercise the
// buyer's failure handling. It is safe for concurrent requests.
type Supplier struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
	rates       map[string]float64
	port        int
}

// SupplierOption configures a Supplier.
type SupplierOption func(*Supplier)

// WithFailureRate sets the rejection probability, clamped to [0, 1].
func WithFailureRate(rate float64) SupplierOption {
	return func(s *Supplier) {
		s.failureRate = min(max(rate, 0), 1)
	}
}

// WithSeed makes order ids and rejections reproducible.
func WithSeed(seed uint64) SupplierOption {
	return func(s *Supplier) {
		s.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithExchangeRates replaces the served exchange rates.
func WithExchangeRates(rates map[string]float64) SupplierOption {
	return func(s *Supplier) {
		s.rates = make(map[string]float64, len(rates))
		for k, v := range rates {
			s.rates[strings.ToUpper(k)] = v
		}
	}
}

// WithPort sets the port reported by the health endpoint.
func WithPort(port int) SupplierOption {
	return func(s *Supplier) {
		s.port = port
	}
}

// NewSupplier creates a mock supplier.
func NewSupplier(options ...SupplierOption) *Supplier {
	now := uint64(time.Now().UnixNano())
	s := &Supplier{
		rng:         rand.New(rand.NewPCG(now, now>>1)),
		failureRate: DefaultFailureRate,
		rates:       DefaultExchangeRates,
		port:        DefaultPort,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Register mounts the supplier routes on g.
func (s *Supplier) Register(g *echo.Group) {
	g.GET("/health", s.health)
	g.POST("/v1/order", s.receiveOrder)
	g.GET("/v1/exchange_rate/:code", s.exchangeRate)
}

// NewServer returns a standalone echo server for the supplier.
func (s *Supplier) NewServer(logger *slog.Logger) *echo.Echo {
	e := httpx.New(logger.With("service", "mock_supplier"))
	s.Register(e.Group(""))
	return e
}

func (s *Supplier) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "online",
		"vendor": vendorName,
		"port":   s.port,
	})
}

type orderRequest struct {
	PartName *string `json:"part_name"`
	Quantity *int64  `json:"quantity"`
	Urgent   bool    `json:"urgent"`
}

func (s *Supplier) receiveOrder(c echo.Context) error {
	logger := ctxlog.From(c.Request().Context())

	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid purchase order: "+err.Error())
	}
	if req.PartName == nil || *req.PartName == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "part_name is required")
	}
	if req.Quantity == nil || *req.Quantity <= 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "quantity must be greater than 0")
	}
	order := PurchaseOrder{PartName: *req.PartName, Quantity: *req.Quantity, Urgent: req.Urgent}

	logger.Info("received order request", "part_name", order.PartName, "quantity", order.Quantity, "urgent", order.Urgent)

	rejected, orderNumber := s.roll()
	if rejected {
		logger.Warn("order rejected by artificial stockout", "part_name", order.PartName)
		return c.JSON(http.StatusOK, OrderResponse{
			OrderID:   "N/A",
			Status:    StatusRejected,
			TotalCost: 0,
			Message:   fmt.Sprintf("We are currently out of stock for %s.", order.PartName),
		})
	}

	eta := "3 days"
	if order.Urgent {
		eta = "1 day"
	}
	resp := OrderResponse{
		OrderID:   fmt.Sprintf("PO-%d", orderNumber),
		Status:    StatusConfirmed,
		TotalCost: EstimateCost(order.Quantity, order.Urgent),
		Message:   fmt.Sprintf("Order confirmed. Estimated delivery: %s.", eta),
	}
	logger.Info("order accepted", "order_id", resp.OrderID, "total_cost", resp.TotalCost)

	return c.JSON(http.StatusOK, resp)
}

// roll decides rejection and draws a PO number in 10000..99999.
func (s *Supplier) roll() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() < s.failureRate {
		return true, 0
	}
	return false, 10000 + s.rng.IntN(90000)
}

func (s *Supplier) exchangeRate(c echo.Context) error {
	code := strings.ToUpper(c.Param("code"))
	rate, ok := s.rates[code]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("currency '%s' not supported", code))
	}
	return c.JSON(http.StatusOK, ExchangeRate{Base: "USD", Currency: code, Rate: rate})
}
