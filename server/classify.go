package server

import "strings"

// Risk levels reported by the scan endpoint.
const (
	RiskCritical = "CRITICAL"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
)

// Purchase statuses reported by the purchase endpoint.
const (
	StatusPausedForApproval = "PAUSED_FOR_APPROVAL"
	StatusCompleted         = "COMPLETED"
	StatusPendingOrFailed   = "PENDING/FAILED"
)

// ClassifyRisk derives the risk badge from a scan report. Matching ignores case and HIGH is
// reported as CRITICAL.
func ClassifyRisk(report string) string {
	upper := strings.ToUpper(report)
	switch {
	case strings.Contains(upper, "CRITICAL"), strings.Contains(upper, "HIGH"):
		return RiskCritical
	case strings.Contains(upper, "MEDIUM"):
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClassifyPurchase derives the purchase status from a procurement report. Matching is case
// sensitive and PAUSED takes precedence over ORDER SUCCESS.
func ClassifyPurchase(report string) string {
	switch {
	case strings.Contains(report, "PAUSED"):
		return StatusPausedForApproval
	case strings.Contains(report, "ORDER SUCCESS"):
		return StatusCompleted
	default:
		return StatusPendingOrFailed
	}
}
