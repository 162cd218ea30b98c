package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallet-watchdog/internal/logging"
	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/oracle"
	"github.com/wallet-watchdog/internal/types"
)

// ReportService builds wallet health reports: it gates on plan limits,
// delegates analysis to the oracle, validates the response shape and
// persists the result.
type ReportService struct {
	oracle     oracle.Oracle
	reportRepo ReportRepository
	subSvc     *SubscriptionService
	metrics    *MetricService
}

// NewReportService creates a new report service
func NewReportService(
	o oracle.Oracle,
	reportRepo ReportRepository,
	subSvc *SubscriptionService,
	metrics *MetricService,
) *ReportService {
	return &ReportService{
		oracle:     o,
		reportRepo: reportRepo,
		subSvc:     subSvc,
		metrics:    metrics,
	}
}

// evmChains are chains whose addresses use the 0x hex format
var evmChains = map[types.ChainID]bool{
	types.ChainEthereum: true,
	types.ChainPolygon:  true,
	types.ChainArbitrum: true,
}

// ValidateAddress checks the basic shape of a wallet address for a chain.
// EVM chains get a hex format check; other chains only require a non-empty
// address. No checksum validation is performed.
func ValidateAddress(address string, chain types.ChainID) error {
	if address == "" {
		return &types.ServiceError{
			Code:    "INVALID_ADDRESS",
			Message: "wallet address is required",
		}
	}

	if evmChains[chain] && !common.IsHexAddress(address) {
		return &types.ServiceError{
			Code:    "INVALID_ADDRESS_FORMAT",
			Message: fmt.Sprintf("not a valid %s address: %s", chain, address),
		}
	}

	return nil
}

// BuildReport generates a wallet health report for the user. The oracle call
// is fire-once: a failed or malformed analysis surfaces as a single generic
// ANALYSIS_FAILED error with no partial report and no automatic retry.
func (s *ReportService) BuildReport(ctx context.Context, email, address string, chain types.ChainID) (*models.WalletReport, error) {
	address = strings.TrimSpace(address)

	if err := ValidateAddress(address, chain); err != nil {
		return nil, err
	}

	if !types.IsValidChain(chain) {
		return nil, &types.ServiceError{
			Code:    "INVALID_CHAIN",
			Message: fmt.Sprintf("unsupported blockchain: %s", chain),
			Details: map[string]interface{}{"supported": types.SupportedChains},
		}
	}

	sub, err := s.subSvc.GetOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	if !CanCreateReport(sub) {
		return nil, &types.ServiceError{
			Code:    "PLAN_LIMIT_EXCEEDED",
			Message: "monthly report limit reached",
			Details: map[string]interface{}{
				"plan":  sub.Plan,
				"used":  sub.ReportsUsedThisMonth,
				"limit": sub.ReportsLimit,
			},
		}
	}

	analysis, err := s.oracle.Analyze(ctx, address, chain)
	if err != nil {
		return nil, &types.ServiceError{
			Code:    "ANALYSIS_FAILED",
			Message: "unable to generate the report, the analysis model may be busy",
		}
	}

	report := reportFromAnalysis(email, address, chain, analysis, time.Now().UTC())

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	if err := s.subSvc.IncrementUsage(ctx, sub); err != nil {
		// The report exists at this point; a usage bump failure is logged
		// rather than failing the whole operation.
		logging.GetGlobalLogger().WithError(err).WithField("user", email).
			Warn("Failed to increment report usage")
	}

	s.metrics.TrackReportGenerated(ctx, email, address, string(chain))

	return report, nil
}

// GetReport fetches a single report scoped to the user
func (s *ReportService) GetReport(ctx context.Context, email, id string) (*models.WalletReport, error) {
	return s.reportRepo.GetByIDAndUser(ctx, id, email)
}

// ListReports fetches the user's most recent reports
func (s *ReportService) ListReports(ctx context.Context, email string, limit int) ([]*models.WalletReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.reportRepo.ListByUser(ctx, email, limit)
}

// reportFromAnalysis maps a validated oracle analysis into a report model.
// The 75-point baseline check is advisory: a mismatch between the breakdown
// sum and the overall score is noted on the report, never rejected.
func reportFromAnalysis(email, address string, chain types.ChainID, a *oracle.Analysis, now time.Time) *models.WalletReport {
	report := &models.WalletReport{
		CreatedBy:          email,
		WalletAddress:      address,
		Blockchain:         chain,
		OverallHealthScore: a.OverallHealthScore,
		HealthSummaryText:  a.HealthSummaryText,
		AISummary:          a.AISummary,
		BehaviorProfile: models.BehaviorProfile{
			Tag:     a.BehaviorProfile.Tag,
			Summary: a.BehaviorProfile.Summary,
			Details: a.BehaviorProfile.Details,
		},
		Recommendations: a.Recommendations,
		AnalysisDate:    now,
	}

	for _, f := range a.HealthScoreBreakdown {
		report.HealthScoreBreakdown = append(report.HealthScoreBreakdown, models.ScoreFactor{
			Category:    f.Category,
			ScoreImpact: f.ScoreImpact,
			Description: f.Description,
		})
	}

	for _, p := range a.ScoreTrend {
		report.ScoreTrend = append(report.ScoreTrend, models.TrendPoint{
			Date:  p.Date,
			Score: p.Score,
		})
	}

	if expected := report.ExpectedScore(); expected != report.OverallHealthScore {
		note := fmt.Sprintf("Score calculation shows %d, displaying %d", expected, report.OverallHealthScore)
		report.ScoreNote = &note
	}

	return report
}

// DeriveRiskLevel classifies a wallet's risk from its AI summary text.
// The summary vocabulary is part of the oracle prompt contract.
func DeriveRiskLevel(aiSummary string) types.RiskLevel {
	lower := strings.ToLower(aiSummary)
	switch {
	case strings.Contains(lower, "high-risk"):
		return types.RiskHigh
	case strings.Contains(lower, "medium risk"):
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}
