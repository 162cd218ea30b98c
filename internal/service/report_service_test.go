package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-watchdog/internal/oracle"
	"github.com/wallet-watchdog/internal/types"
)

const testAddress = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

func newTestReportService() (*ReportService, *mockOracle, *mockReportRepo, *mockSubscriptionRepo, *mockMetricRepo) {
	o := newMockOracle()
	reportRepo := newMockReportRepo()
	subRepo := newMockSubscriptionRepo()
	metricRepo := newMockMetricRepo()
	svc := NewReportService(o, reportRepo, NewSubscriptionService(subRepo), NewMetricService(metricRepo))
	return svc, o, reportRepo, subRepo, metricRepo
}

func TestBuildReport(t *testing.T) {
	svc, _, _, subRepo, metricRepo := newTestReportService()

	report, err := svc.BuildReport(context.Background(), "user@example.com", "  "+testAddress+"  ", types.ChainEthereum)
	require.NoError(t, err)

	assert.Equal(t, testAddress, report.WalletAddress, "address is trimmed before analysis")
	assert.Equal(t, "user@example.com", report.CreatedBy)
	assert.Equal(t, 78, report.OverallHealthScore)
	assert.Len(t, report.HealthScoreBreakdown, 3)
	assert.Len(t, report.ScoreTrend, 3)
	assert.NotEmpty(t, report.ID)

	sub := subRepo.subs["user@example.com"]
	require.NotNil(t, sub, "a free subscription is created on first use")
	assert.Equal(t, 1, sub.ReportsUsedThisMonth)

	require.Len(t, metricRepo.metrics, 1)
	assert.Equal(t, "report_generated", metricRepo.metrics[0].MetricType)
}

func TestBuildReport_ScoreNote(t *testing.T) {
	svc, o, _, _, _ := newTestReportService()

	// Breakdown sums to 75+8-5+4 = 82, reported score is 78
	report, err := svc.BuildReport(context.Background(), "user@example.com", testAddress, types.ChainEthereum)
	require.NoError(t, err)
	require.NotNil(t, report.ScoreNote)
	assert.Equal(t, "Score calculation shows 82, displaying 78", *report.ScoreNote)

	// A consistent breakdown carries no note
	o.analysis = func(address string, chain types.ChainID) *oracle.Analysis {
		a := defaultAnalysis()
		a.OverallHealthScore = 82
		return a
	}
	report, err = svc.BuildReport(context.Background(), "user@example.com", testAddress, types.ChainEthereum)
	require.NoError(t, err)
	assert.Nil(t, report.ScoreNote)
}

func TestBuildReport_PlanLimit(t *testing.T) {
	svc, _, _, _, _ := newTestReportService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.BuildReport(ctx, "user@example.com", testAddress, types.ChainEthereum)
		require.NoError(t, err)
	}

	_, err := svc.BuildReport(ctx, "user@example.com", testAddress, types.ChainEthereum)
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "PLAN_LIMIT_EXCEEDED", svcErr.Code)
}

func TestBuildReport_OracleFailure(t *testing.T) {
	svc, o, reportRepo, subRepo, _ := newTestReportService()
	o.failFor[testAddress] = true

	_, err := svc.BuildReport(context.Background(), "user@example.com", testAddress, types.ChainEthereum)
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "ANALYSIS_FAILED", svcErr.Code)
	assert.Equal(t, 1, o.calls, "a failed analysis is not retried")
	assert.Empty(t, reportRepo.reports, "no partial report is persisted")
	assert.Equal(t, 0, subRepo.subs["user@example.com"].ReportsUsedThisMonth, "failed reports do not consume quota")
}

func TestBuildReport_InvalidInput(t *testing.T) {
	svc, _, _, _, _ := newTestReportService()
	ctx := context.Background()

	_, err := svc.BuildReport(ctx, "user@example.com", "", types.ChainEthereum)
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_ADDRESS", svcErr.Code)

	_, err = svc.BuildReport(ctx, "user@example.com", "not-a-hex-address", types.ChainPolygon)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_ADDRESS_FORMAT", svcErr.Code)

	_, err = svc.BuildReport(ctx, "user@example.com", "some-address", types.ChainID("dogecoin"))
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_CHAIN", svcErr.Code)

	_, err = svc.BuildReport(ctx, "", testAddress, types.ChainEthereum)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "UNAUTHORIZED", svcErr.Code)
}

func TestValidateAddress_NonEVMChains(t *testing.T) {
	assert.NoError(t, ValidateAddress("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", types.ChainSolana))
	assert.NoError(t, ValidateAddress("bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh", types.ChainBitcoin))
	assert.Error(t, ValidateAddress("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", types.ChainEthereum))
}

func TestDeriveRiskLevel(t *testing.T) {
	assert.Equal(t, types.RiskHigh, DeriveRiskLevel("This is a high-risk wallet with leveraged positions."))
	assert.Equal(t, types.RiskMedium, DeriveRiskLevel("Shows medium risk due to concentration."))
	assert.Equal(t, types.RiskLow, DeriveRiskLevel("A healthy, conservative wallet."))
	assert.Equal(t, types.RiskLow, DeriveRiskLevel(""))
	assert.Equal(t, types.RiskHigh, DeriveRiskLevel("HIGH-RISK exposure detected"), "matching is case-insensitive")
}

func TestListReports_LimitClamping(t *testing.T) {
	svc, _, _, _, _ := newTestReportService()
	ctx := context.Background()

	_, err := svc.BuildReport(ctx, "user@example.com", testAddress, types.ChainEthereum)
	require.NoError(t, err)

	reports, err := svc.ListReports(ctx, "user@example.com", -1)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	reports, err = svc.ListReports(ctx, "other@example.com", 10)
	require.NoError(t, err)
	assert.Empty(t, reports, "reports are scoped per user")
}
