// Package a2a implements the vendor boundary: the purchase order protocol spoken with the
// external supplier, a client for it and a mock supplier service.
package a2a

import (
	"strconv"
	"strings"
)

const (
	// StatusConfirmed is the order status of an accepted order.
	StatusConfirmed = "CONFIRMED"

	// StatusRejected is the order status of a rejected order.
	StatusRejected = "REJECTED"

	// BasePrice is the mock unit price in USD.
	BasePrice = 50.0

	// ShippingUrgent and ShippingStandard are the mock shipping fees in USD.
	ShippingUrgent   = 500.0
	ShippingStandard = 100.0
)

// PurchaseOrder is sent by the buyer. Quantity must be positive.
type PurchaseOrder struct {
	PartName string `json:"part_name"`
	Quantity int64  `json:"quantity"`
	Urgent   bool   `json:"urgent"`
}

// OrderResponse is the supplier's answer to a PurchaseOrder.
type OrderResponse struct {
	OrderID   string  `json:"order_id"`
	Status    string  `json:"status"`
	TotalCost float64 `json:"total_cost"`
	Message   string  `json:"message"`
}

// Confirmed reports whether the supplier accepted the order.
func (r *OrderResponse) Confirmed() bool {
	return r.Status == StatusConfirmed
}

// ExchangeRate is the USD rate of a currency.
type ExchangeRate struct {
	Base     string  `json:"base"`
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// EstimateCost returns the price of an order: unit price times quantity plus shipping.
func EstimateCost(quantity int64, urgent bool) float64 {
	shipping := ShippingStandard
	if urgent {
		shipping = ShippingUrgent
	}
	return float64(quantity)*BasePrice + shipping
}

// FormatAmount renders an amount the way the supplier prints it: integral values keep one
// decimal ("1000.0"), others use the shortest representation ("31.5").
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
