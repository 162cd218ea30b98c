package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/oracle"
	"github.com/wallet-watchdog/internal/types"
)

type watchlistFixture struct {
	svc           *WatchlistService
	oracle        *mockOracle
	watchlistRepo *mockWatchlistRepo
	reportRepo    *mockReportRepo
	subRepo       *mockSubscriptionRepo
	metricRepo    *mockMetricRepo
}

func newWatchlistFixture(t *testing.T, plan types.PlanID) *watchlistFixture {
	t.Helper()
	f := &watchlistFixture{
		oracle:        newMockOracle(),
		watchlistRepo: newMockWatchlistRepo(),
		reportRepo:    newMockReportRepo(),
		subRepo:       newMockSubscriptionRepo(),
		metricRepo:    newMockMetricRepo(),
	}
	subSvc := NewSubscriptionService(f.subRepo)
	f.svc = NewWatchlistService(f.oracle, f.watchlistRepo, f.reportRepo, subSvc, NewMetricService(f.metricRepo))

	sub := NewFreeSubscription("user@example.com", time.Now().UTC())
	require.NoError(t, ApplyUpgrade(sub, plan, time.Now().UTC()))
	require.NoError(t, f.subRepo.Create(context.Background(), sub))
	return f
}

func (f *watchlistFixture) seedReport(t *testing.T, address string, chain types.ChainID) *models.WalletReport {
	t.Helper()
	report := reportFromAnalysis("user@example.com", address, chain, defaultAnalysis(), time.Now().UTC())
	require.NoError(t, f.reportRepo.Create(context.Background(), report))
	return report
}

func TestWatchlistAdd(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanStarter)
	report := f.seedReport(t, testAddress, types.ChainEthereum)

	entry, err := f.svc.Add(context.Background(), "user@example.com", AddRequest{
		ReportID:     report.ID,
		Nickname:     "  Main wallet  ",
		OwnershipTag: types.TagMyWallet,
	})
	require.NoError(t, err)

	assert.Equal(t, testAddress, entry.WalletAddress)
	assert.Equal(t, "Main wallet", entry.Nickname)
	assert.Equal(t, types.TagMyWallet, entry.OwnershipTag)
	assert.Equal(t, types.RiskLow, entry.RiskLevel)
	assert.True(t, entry.IsActive)
	require.NotNil(t, entry.OverallScore)
	assert.Equal(t, 78, *entry.OverallScore)
}

func TestWatchlistAdd_Duplicate(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanStarter)
	report := f.seedReport(t, testAddress, types.ChainEthereum)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
	require.NoError(t, err)

	_, err = f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "DUPLICATE_ENTRY", svcErr.Code)
}

func TestWatchlistAdd_FreeTierBlocked(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanFree)
	report := f.seedReport(t, testAddress, types.ChainEthereum)

	_, err := f.svc.Add(context.Background(), "user@example.com", AddRequest{ReportID: report.ID})
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "PLAN_LIMIT_EXCEEDED", svcErr.Code)
}

func TestWatchlistAdd_ReportNotFound(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanStarter)

	_, err := f.svc.Add(context.Background(), "user@example.com", AddRequest{ReportID: "missing"})
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "REPORT_NOT_FOUND", svcErr.Code)
}

func TestWatchlistList_Filters(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanBuilder)
	ctx := context.Background()

	addresses := []struct {
		address string
		tag     types.OwnershipTag
		score   int
	}{
		{"0x1000000000000000000000000000000000000001", types.TagMyWallet, 85},
		{"0x1000000000000000000000000000000000000002", types.TagWhaleTracker, 72},
		{"0x1000000000000000000000000000000000000003", types.TagMyWallet, 60},
	}
	for _, a := range addresses {
		report := f.seedReport(t, a.address, types.ChainEthereum)
		entry, err := f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID, OwnershipTag: a.tag})
		require.NoError(t, err)
		score := a.score
		entry.OverallScore = &score
		require.NoError(t, f.watchlistRepo.Update(ctx, entry))
	}

	all, err := f.svc.List(ctx, "user@example.com", ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.svc.List(ctx, "user@example.com", ListFilter{OwnershipTag: types.TagMyWallet})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	good, err := f.svc.List(ctx, "user@example.com", ListFilter{Health: types.HealthGood})
	require.NoError(t, err)
	require.Len(t, good, 1)
	assert.Equal(t, 85, *good[0].OverallScore)

	poorMine, err := f.svc.List(ctx, "user@example.com", ListFilter{
		OwnershipTag: types.TagMyWallet,
		Health:       types.HealthPoor,
	})
	require.NoError(t, err)
	require.Len(t, poorMine, 1)
	assert.Equal(t, 60, *poorMine[0].OverallScore)

	everything, err := f.svc.List(ctx, "user@example.com", ListFilter{Health: types.HealthAll})
	require.NoError(t, err)
	assert.Len(t, everything, 3, "the all band disables health filtering")
}

func TestWatchlistUpdateTag(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanStarter)
	ctx := context.Background()
	report := f.seedReport(t, testAddress, types.ChainEthereum)
	entry, err := f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateTag(ctx, "user@example.com", entry.ID, types.TagSmartMoney))
	updated, _ := f.watchlistRepo.GetByIDAndUser(ctx, entry.ID, "user@example.com")
	assert.Equal(t, types.TagSmartMoney, updated.OwnershipTag)

	err = f.svc.UpdateTag(ctx, "user@example.com", entry.ID, types.OwnershipTag("bogus"))
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_TAG", svcErr.Code)

	err = f.svc.UpdateTag(ctx, "user@example.com", "missing", types.TagMyWallet)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "ENTRY_NOT_FOUND", svcErr.Code)
}

func TestWatchlistRemove(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanStarter)
	ctx := context.Background()
	report := f.seedReport(t, testAddress, types.ChainEthereum)
	entry, err := f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, "user@example.com", entry.ID))

	listed, err := f.svc.List(ctx, "user@example.com", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed, "removed entries drop out of listings")

	// Removal frees the slot: the same wallet can be re-added
	_, err = f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
	require.NoError(t, err)
}

func TestWatchlistReanalyze(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanBuilder)
	ctx := context.Background()

	goodAddr := "0x1000000000000000000000000000000000000001"
	badAddr := "0x1000000000000000000000000000000000000002"
	for _, addr := range []string{goodAddr, badAddr} {
		report := f.seedReport(t, addr, types.ChainEthereum)
		_, err := f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
		require.NoError(t, err)
	}

	f.oracle.failFor[badAddr] = true
	f.oracle.analysis = func(address string, chain types.ChainID) *oracle.Analysis {
		a := defaultAnalysis()
		a.OverallHealthScore = 85
		a.AISummary = "Now a high-risk wallet after recent leverage."
		return a
	}

	result, err := f.svc.Reanalyze(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Failed, "one failure does not abort the rest")
	assert.Len(t, result.Errors, 1)

	entries, _ := f.svc.List(ctx, "user@example.com", ListFilter{})
	for _, e := range entries {
		if e.WalletAddress == goodAddr {
			assert.Equal(t, 85, *e.OverallScore)
			assert.Equal(t, types.RiskHigh, e.RiskLevel, "risk is re-derived from the fresh summary")
		}
		if e.WalletAddress == badAddr {
			assert.Equal(t, 78, *e.OverallScore, "failed entries keep their previous snapshot")
		}
	}

	var attempts, successes int
	f.metricRepo.mu.Lock()
	for _, m := range f.metricRepo.metrics {
		switch m.MetricType {
		case models.MetricRecoveryAttempt:
			attempts++
		case models.MetricRecoverySuccess:
			successes++
		}
	}
	f.metricRepo.mu.Unlock()
	assert.Equal(t, 2, attempts, "every active entry counts as a recovery attempt")
	assert.Equal(t, 1, successes, "only refreshed entries count as recovered")
}

func TestWatchlistCompare(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanBuilder)
	ctx := context.Background()

	var ids []string
	for _, addr := range []string{
		"0x1000000000000000000000000000000000000001",
		"0x1000000000000000000000000000000000000002",
	} {
		report := f.seedReport(t, addr, types.ChainEthereum)
		entry, err := f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	rows, err := f.svc.Compare(ctx, "user@example.com", ids)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 78, rows[0].OverallScore)
	assert.Zero(t, rows[0].PortfolioValue, "unmeasured metrics compare as zero")

	var svcErr *types.ServiceError
	_, err = f.svc.Compare(ctx, "user@example.com", ids[:1])
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_COMPARISON", svcErr.Code)

	_, err = f.svc.Compare(ctx, "user@example.com", []string{ids[0], "missing"})
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "ENTRY_NOT_FOUND", svcErr.Code)
}

func TestWatchlistSummary(t *testing.T) {
	f := newWatchlistFixture(t, types.PlanStarter)
	ctx := context.Background()

	view, err := f.svc.Summary(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Zero(t, view.TotalWallets)

	report := f.seedReport(t, testAddress, types.ChainEthereum)
	_, err = f.svc.Add(ctx, "user@example.com", AddRequest{ReportID: report.ID})
	require.NoError(t, err)

	view, err = f.svc.Summary(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalWallets)
	assert.Equal(t, 78.0, view.AvgHealthScore)
}
