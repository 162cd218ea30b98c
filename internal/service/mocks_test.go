package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/oracle"
	"github.com/wallet-watchdog/internal/types"
)

// mockOracle returns canned analyses, failing for addresses listed in failFor
type mockOracle struct {
	mu       sync.Mutex
	calls    int
	failFor  map[string]bool
	analysis func(address string, chain types.ChainID) *oracle.Analysis
}

func newMockOracle() *mockOracle {
	return &mockOracle{failFor: map[string]bool{}}
}

func (m *mockOracle) Analyze(ctx context.Context, address string, chain types.ChainID) (*oracle.Analysis, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.failFor[address] {
		return nil, fmt.Errorf("%w: model unavailable", oracle.ErrAnalysisFailed)
	}
	if m.analysis != nil {
		return m.analysis(address, chain), nil
	}
	return defaultAnalysis(), nil
}

func defaultAnalysis() *oracle.Analysis {
	return &oracle.Analysis{
		OverallHealthScore: 78,
		HealthSummaryText:  "Solid overall health with minor concentration risk.",
		HealthScoreBreakdown: []oracle.ScoreFactor{
			{Category: "Diversification", ScoreImpact: 8, Description: "Holdings spread across sectors"},
			{Category: "Activity Pattern", ScoreImpact: -5, Description: "Bursty trading in recent weeks"},
			{Category: "Security Posture", ScoreImpact: 4, Description: "No interactions with flagged contracts"},
		},
		BehaviorProfile: oracle.BehaviorProfile{
			Tag:     "Steady Accumulator",
			Summary: "Buys on dips and rarely sells.",
			Details: []string{"Consistent weekly inflows", "Low protocol churn"},
		},
		AISummary:       "This wallet shows disciplined accumulation behavior.",
		Recommendations: []string{"Consider spreading stablecoin holdings", "Review approval allowances"},
		ScoreTrend: []oracle.TrendPoint{
			{Date: "2026-06-01", Score: 70},
			{Date: "2026-07-01", Score: 74},
			{Date: "2026-08-01", Score: 78},
		},
	}
}

type mockReportRepo struct {
	mu      sync.Mutex
	reports map[string]*models.WalletReport
	nextID  int
	failure error
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: map[string]*models.WalletReport{}}
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.WalletReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.nextID++
	report.ID = fmt.Sprintf("report-%d", m.nextID)
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) GetByIDAndUser(ctx context.Context, id, email string) (*models.WalletReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[id]
	if !ok || report.CreatedBy != email {
		return nil, nil
	}
	return report, nil
}

func (m *mockReportRepo) ListByUser(ctx context.Context, email string, limit int) ([]*models.WalletReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WalletReport
	for _, r := range m.reports {
		if r.CreatedBy == email && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockWatchlistRepo struct {
	mu      sync.Mutex
	entries map[string]*models.WatchedWallet
	nextID  int
	failure error
}

func newMockWatchlistRepo() *mockWatchlistRepo {
	return &mockWatchlistRepo{entries: map[string]*models.WatchedWallet{}}
}

func (m *mockWatchlistRepo) Create(ctx context.Context, entry *models.WatchedWallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.nextID++
	entry.ID = fmt.Sprintf("entry-%d", m.nextID)
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockWatchlistRepo) BulkCreate(ctx context.Context, entries []*models.WatchedWallet) error {
	for _, e := range entries {
		if err := m.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockWatchlistRepo) GetByIDAndUser(ctx context.Context, id, email string) (*models.WatchedWallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok || entry.CreatedBy != email {
		return nil, nil
	}
	return entry, nil
}

func (m *mockWatchlistRepo) ListActiveByUser(ctx context.Context, email string) ([]*models.WatchedWallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WatchedWallet
	for i := 1; i <= m.nextID; i++ {
		entry, ok := m.entries[fmt.Sprintf("entry-%d", i)]
		if ok && entry.CreatedBy == email && entry.IsActive {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *mockWatchlistRepo) CountActiveByUser(ctx context.Context, email string) (int, error) {
	entries, _ := m.ListActiveByUser(ctx, email)
	return len(entries), nil
}

func (m *mockWatchlistRepo) ExistsActive(ctx context.Context, email, address string, chain types.ChainID) (bool, error) {
	entries, _ := m.ListActiveByUser(ctx, email)
	for _, e := range entries {
		if e.WalletAddress == address && e.Blockchain == chain {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWatchlistRepo) Update(ctx context.Context, entry *models.WatchedWallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return fmt.Errorf("entry not found: %s", entry.ID)
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockWatchlistRepo) UpdateTag(ctx context.Context, id, email string, tag types.OwnershipTag) error {
	entry, err := m.GetByIDAndUser(ctx, id, email)
	if err != nil || entry == nil {
		return fmt.Errorf("entry not found: %s", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.OwnershipTag = tag
	return nil
}

func (m *mockWatchlistRepo) Deactivate(ctx context.Context, id, email string) error {
	entry, err := m.GetByIDAndUser(ctx, id, email)
	if err != nil || entry == nil {
		return fmt.Errorf("entry not found: %s", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.IsActive = false
	return nil
}

type mockSubscriptionRepo struct {
	mu      sync.Mutex
	subs    map[string]*models.UserSubscription
	creates int
	updates int
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{subs: map[string]*models.UserSubscription{}}
}

func (m *mockSubscriptionRepo) GetByUser(ctx context.Context, email string) (*models.UserSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[email], nil
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *models.UserSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	sub.ID = fmt.Sprintf("sub-%d", m.creates)
	m.subs[sub.CreatedBy] = sub
	return nil
}

func (m *mockSubscriptionRepo) Update(ctx context.Context, sub *models.UserSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	m.subs[sub.CreatedBy] = sub
	return nil
}

type mockMetricRepo struct {
	mu      sync.Mutex
	metrics []*models.UsageMetric
	failure error
}

func newMockMetricRepo() *mockMetricRepo {
	return &mockMetricRepo{}
}

func (m *mockMetricRepo) Insert(ctx context.Context, metric *models.UsageMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.metrics = append(m.metrics, metric)
	return nil
}

func (m *mockMetricRepo) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.UsageMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.UsageMetric
	for _, metric := range m.metrics {
		if !metric.Timestamp.Before(since) && len(out) < limit {
			out = append(out, metric)
		}
	}
	return out, nil
}
