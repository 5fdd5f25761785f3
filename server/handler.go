package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/sentinell/agent/procurement"
)

// TimestampLayout matches ISO 8601 local time with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// ScanRequest is the body of POST /api/scan.
type ScanRequest struct {
	Region string `json:"region"`
}

// ScanResponse is the answer of POST /api/scan.
type ScanResponse struct {
	Region       string          `json:"region"`
	RiskLevel    string          `json:"risk_level"`
	Summary      string          `json:"summary"`
	Timestamp    string          `json:"timestamp"`
	Intelligence json.RawMessage `json:"intelligence,omitempty"`
}

// PurchaseRequest is the body of POST /api/purchase.
type PurchaseRequest struct {
	PartName  string `json:"part_name"`
	Quantity  int64  `json:"quantity"`
	RiskLevel string `json:"risk_level"`
	Approved  bool   `json:"approved"`
}

// PurchaseResponse is the answer of POST /api/purchase.
type PurchaseResponse struct {
	Status    string `json:"status"`
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

type handler struct {
	scanner   Scanner
	purchaser Purchaser
	now       func() time.Time
}

func (h *handler) Register(g *echo.Group) {
	g.POST("/scan", h.scan)
	g.POST("/purchase", h.purchase)
}

func (h *handler) scan(c echo.Context) error {
	if h.scanner == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Watchtower Agent not initialized")
	}

	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Region = strings.TrimSpace(req.Region)
	if req.Region == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "region is required")
	}

	ctx := c.Request().Context()
	logger := ctxlog.From(ctx)
	logger.Info("scan request received", "region", req.Region)

	scan, err := h.scanner.ScanRegion(ctx, req.Region)
	if err != nil {
		logger.Error("scan failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, ScanResponse{
		Region:       req.Region,
		RiskLevel:    ClassifyRisk(scan.Summary),
		Summary:      scan.Summary,
		Timestamp:    h.now().Format(TimestampLayout),
		Intelligence: scan.Intelligence,
	})
}

func (h *handler) purchase(c echo.Context) error {
	if h.purchaser == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Procurement Agent not initialized")
	}

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RiskLevel == "" {
		req.RiskLevel = RiskLow
	}

	task := procurement.Request{
		PartName:  strings.TrimSpace(req.PartName),
		Quantity:  req.Quantity,
		RiskLevel: req.RiskLevel,
		Approved:  req.Approved,
	}
	if err := task.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	logger := ctxlog.From(ctx)
	logger.Info("purchase request received", "part_name", task.PartName, "quantity", task.Quantity, "approved", task.Approved)

	report, err := h.purchaser.CreateOrder(ctx, task)
	if err != nil {
		logger.Error("purchase failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, PurchaseResponse{
		Status:    ClassifyPurchase(report),
		Summary:   report,
		Timestamp: h.now().Format(TimestampLayout),
	})
}
