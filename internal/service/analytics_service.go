package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wallet-watchdog/internal/models"
)

// AnalyticsService computes business summaries over recorded usage metrics.
// Aggregation happens in memory over the fetched window, keeping the math
// pure and independent of the metric store.
type AnalyticsService struct {
	metricRepo MetricRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(metricRepo MetricRepository) *AnalyticsService {
	return &AnalyticsService{metricRepo: metricRepo}
}

// metricFetchLimit caps how many events one summary window may load
const metricFetchLimit = 100000

// BusinessSummary is the rollup of a metric window
type BusinessSummary struct {
	TotalRevenueCents  int64   `json:"totalRevenueCents"`
	TotalCostCents     int64   `json:"totalCostCents"`
	NetCents           int64   `json:"netCents"`
	MarginPct          float64 `json:"marginPct"`
	APICalls           int     `json:"apiCalls"`
	ReportsGenerated   int     `json:"reportsGenerated"`
	PaymentsProcessed  int     `json:"paymentsProcessed"`
	Errors             int     `json:"errors"`
	ErrorRatePct       float64 `json:"errorRatePct"`
	RecoveryAttempts   int     `json:"recoveryAttempts"`
	RecoverySuccesses  int     `json:"recoverySuccesses"`
	RecoverySuccessPct float64 `json:"recoverySuccessPct"`
	ActiveUsers        int     `json:"activeUsers"`
}

// DailyPoint is one calendar day in an analytics series
type DailyPoint struct {
	Date             string `json:"date"`
	RevenueCents     int64  `json:"revenueCents"`
	CostCents        int64  `json:"costCents"`
	APICalls         int    `json:"apiCalls"`
	ReportsGenerated int    `json:"reportsGenerated"`
	Recoveries       int    `json:"recoveries"`
}

// Summary rolls up all metrics recorded since the given time
func (s *AnalyticsService) Summary(ctx context.Context, since time.Time) (*BusinessSummary, error) {
	metrics, err := s.metricRepo.ListSince(ctx, since, metricFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	return Summarize(metrics), nil
}

// Daily returns a per-day series covering the last `days` calendar days plus
// today, oldest first. Today's point is partial.
func (s *AnalyticsService) Daily(ctx context.Context, days int, now time.Time) ([]DailyPoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := now.UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)
	metrics, err := s.metricRepo.ListSince(ctx, since, metricFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	return DailySeries(metrics, days, now), nil
}

// Summarize rolls up a metric slice into a business summary. Distinct users
// are counted from event metadata; anonymous events do not contribute.
func Summarize(metrics []*models.UsageMetric) *BusinessSummary {
	summary := &BusinessSummary{}
	users := make(map[string]bool)

	for _, m := range metrics {
		summary.TotalRevenueCents += m.RevenueCents
		summary.TotalCostCents += m.CostCents

		switch m.MetricType {
		case models.MetricAPICall:
			summary.APICalls++
		case models.MetricReportGenerated:
			summary.ReportsGenerated++
		case models.MetricPaymentProcessed:
			summary.PaymentsProcessed++
		case models.MetricErrorOccurred:
			summary.Errors++
		case models.MetricRecoveryAttempt:
			summary.RecoveryAttempts++
		case models.MetricRecoverySuccess:
			summary.RecoverySuccesses++
		}

		if user, ok := m.Metadata["user"].(string); ok && user != "" && user != models.AnonymousUser {
			users[user] = true
		}
	}

	summary.NetCents = summary.TotalRevenueCents - summary.TotalCostCents
	if summary.TotalRevenueCents > 0 {
		summary.MarginPct = float64(summary.NetCents) / float64(summary.TotalRevenueCents) * 100
	}
	if summary.APICalls > 0 {
		summary.ErrorRatePct = float64(summary.Errors) / float64(summary.APICalls) * 100
	}
	if summary.RecoveryAttempts > 0 {
		summary.RecoverySuccessPct = float64(summary.RecoverySuccesses) / float64(summary.RecoveryAttempts) * 100
	}
	summary.ActiveUsers = len(users)

	return summary
}

// DailySeries buckets metrics into UTC calendar days. The series always has
// days+1 points ending at today, with zero-valued points for empty days.
func DailySeries(metrics []*models.UsageMetric, days int, now time.Time) []DailyPoint {
	byDay := make(map[string]*DailyPoint)
	for _, m := range metrics {
		date := m.Timestamp.UTC().Format("2006-01-02")
		point, ok := byDay[date]
		if !ok {
			point = &DailyPoint{Date: date}
			byDay[date] = point
		}
		point.RevenueCents += m.RevenueCents
		point.CostCents += m.CostCents
		switch m.MetricType {
		case models.MetricAPICall:
			point.APICalls++
		case models.MetricReportGenerated:
			point.ReportsGenerated++
		case models.MetricRecoverySuccess:
			point.Recoveries++
		}
	}

	series := make([]DailyPoint, 0, days+1)
	for i := days; i >= 0; i-- {
		date := now.UTC().AddDate(0, 0, -i).Format("2006-01-02")
		if point, ok := byDay[date]; ok {
			series = append(series, *point)
			continue
		}
		series = append(series, DailyPoint{Date: date})
	}
	return series
}
