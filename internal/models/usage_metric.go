package models

import "time"

// Metric types recorded by the usage tracker
const (
	// MetricAPICall records an outbound or inbound API invocation
	MetricAPICall = "api_call"
	// MetricPaymentProcessed records a completed payment
	MetricPaymentProcessed = "payment_processed"
	// MetricReportGenerated records a wallet report generation
	MetricReportGenerated = "report_generated"
	// MetricRecoveryAttempt records a recovery attempt
	MetricRecoveryAttempt = "recovery_attempt"
	// MetricRecoverySuccess records a successful recovery
	MetricRecoverySuccess = "recovery_success"
	// MetricErrorOccurred records an internal error event
	MetricErrorOccurred = "error_occurred"
)

// AnonymousUser is recorded when no authenticated identity is available.
// Identity failures never block metric tracking.
const AnonymousUser = "anonymous"

// UsageMetric is an append-only business analytics event. Metrics are never
// updated or deleted after insertion.
type UsageMetric struct {
	ID           string                 `json:"id" db:"id"`
	MetricType   string                 `json:"metricType" db:"metric_type"`
	Category     string                 `json:"category" db:"category"`
	CostCents    int64                  `json:"costCents" db:"cost_cents"`
	RevenueCents int64                  `json:"revenueCents" db:"revenue_cents"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	Timestamp    time.Time              `json:"timestamp" db:"timestamp"`
}
