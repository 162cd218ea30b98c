package service

import (
	"context"
	"strings"
	"time"

	"github.com/wallet-watchdog/internal/logging"
	"github.com/wallet-watchdog/internal/models"
)

// MetricService records append-only business analytics events. Tracking is
// fire-and-forget: failures are logged at the call site and never propagate
// to the operation being tracked. A missing identity degrades to "anonymous".
type MetricService struct {
	metricRepo MetricRepository
}

// NewMetricService creates a new metric service
func NewMetricService(metricRepo MetricRepository) *MetricService {
	return &MetricService{metricRepo: metricRepo}
}

// stripeFeePct and stripeFeeFixedCents model the payment provider's fee
// schedule (2.9% + $0.30) used to attribute costs to payment events.
const (
	stripeFeePct        = 0.029
	stripeFeeFixedCents = 30
)

func (m *MetricService) track(ctx context.Context, metric *models.UsageMetric) {
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now().UTC()
	}
	if err := m.metricRepo.Insert(ctx, metric); err != nil {
		logging.GetGlobalLogger().WithError(err).WithField("metricType", metric.MetricType).
			Warn("Failed to record usage metric")
	}
}

// TrackAPICall records an API invocation event
func (m *MetricService) TrackAPICall(ctx context.Context, userEmail, endpoint string, costCents int64, responseTime time.Duration, success bool) {
	m.track(ctx, &models.UsageMetric{
		MetricType:   models.MetricAPICall,
		Category:     categoryFromEndpoint(endpoint),
		CostCents:    costCents,
		RevenueCents: 0,
		Metadata: map[string]interface{}{
			"user":             identityOrAnonymous(userEmail),
			"endpoint":         endpoint,
			"response_time_ms": responseTime.Milliseconds(),
			"success":          success,
		},
	})
}

// TrackReportGenerated records a completed wallet report generation
func (m *MetricService) TrackReportGenerated(ctx context.Context, userEmail, address string, chain string) {
	m.track(ctx, &models.UsageMetric{
		MetricType:   models.MetricReportGenerated,
		Category:     "analysis",
		CostCents:    0,
		RevenueCents: 0,
		Metadata: map[string]interface{}{
			"user":    identityOrAnonymous(userEmail),
			"address": address,
			"chain":   chain,
		},
	})
}

// TrackPayment records a processed payment with provider fees as cost
func (m *MetricService) TrackPayment(ctx context.Context, userEmail string, amountCents int64, transactionID string, success bool) {
	m.track(ctx, &models.UsageMetric{
		MetricType:   models.MetricPaymentProcessed,
		Category:     "payment",
		CostCents:    int64(float64(amountCents)*stripeFeePct) + stripeFeeFixedCents,
		RevenueCents: amountCents,
		Metadata: map[string]interface{}{
			"user":           identityOrAnonymous(userEmail),
			"transaction_id": transactionID,
			"success":        success,
		},
	})
}

// TrackRecoveryAttempt records one wallet snapshot refresh attempt during a
// watchlist reanalysis pass
func (m *MetricService) TrackRecoveryAttempt(ctx context.Context, userEmail, entryID, address string) {
	m.track(ctx, &models.UsageMetric{
		MetricType:   models.MetricRecoveryAttempt,
		Category:     "monitoring",
		CostCents:    0,
		RevenueCents: 0,
		Metadata: map[string]interface{}{
			"user":     identityOrAnonymous(userEmail),
			"entry_id": entryID,
			"address":  address,
		},
	})
}

// TrackRecoverySuccess records a refreshed snapshot replacing a stale one
func (m *MetricService) TrackRecoverySuccess(ctx context.Context, userEmail, entryID, address string, newScore int) {
	m.track(ctx, &models.UsageMetric{
		MetricType:   models.MetricRecoverySuccess,
		Category:     "monitoring",
		CostCents:    0,
		RevenueCents: 0,
		Metadata: map[string]interface{}{
			"user":      identityOrAnonymous(userEmail),
			"entry_id":  entryID,
			"address":   address,
			"new_score": newScore,
			"success":   true,
		},
	})
}

// TrackError records an internal error event
func (m *MetricService) TrackError(ctx context.Context, userEmail, where string, err error) {
	m.track(ctx, &models.UsageMetric{
		MetricType:   models.MetricErrorOccurred,
		Category:     "system",
		CostCents:    0,
		RevenueCents: 0,
		Metadata: map[string]interface{}{
			"user":  identityOrAnonymous(userEmail),
			"where": where,
			"error": err.Error(),
		},
	})
}

func identityOrAnonymous(email string) string {
	if email == "" {
		return models.AnonymousUser
	}
	return email
}

func categoryFromEndpoint(endpoint string) string {
	switch {
	case endpoint == "":
		return "unknown"
	case strings.HasPrefix(endpoint, "/api/reports"):
		return "analysis"
	case strings.HasPrefix(endpoint, "/api/watchlist"):
		return "monitoring"
	case strings.HasPrefix(endpoint, "/api/checkout"), strings.HasPrefix(endpoint, "/api/subscription"):
		return "payment"
	default:
		return "general"
	}
}
