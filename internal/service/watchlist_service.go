package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wallet-watchdog/internal/logging"
	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/oracle"
	"github.com/wallet-watchdog/internal/types"
)

// WatchlistService manages the user's monitored wallet list
type WatchlistService struct {
	oracle        oracle.Oracle
	watchlistRepo WatchlistRepository
	reportRepo    ReportRepository
	subSvc        *SubscriptionService
	metrics       *MetricService
}

// NewWatchlistService creates a new watchlist service
func NewWatchlistService(
	o oracle.Oracle,
	watchlistRepo WatchlistRepository,
	reportRepo ReportRepository,
	subSvc *SubscriptionService,
	metrics *MetricService,
) *WatchlistService {
	return &WatchlistService{
		oracle:        o,
		watchlistRepo: watchlistRepo,
		reportRepo:    reportRepo,
		subSvc:        subSvc,
		metrics:       metrics,
	}
}

// AddRequest carries the user-supplied fields for a new watchlist entry
type AddRequest struct {
	ReportID     string             `json:"reportId"`
	Nickname     string             `json:"nickname"`
	OwnershipTag types.OwnershipTag `json:"ownershipTag"`
}

// Add promotes an existing report into an active watchlist entry. The entry
// snapshots the report's analysis fields; risk is derived from the AI summary.
func (s *WatchlistService) Add(ctx context.Context, email string, req AddRequest) (*models.WatchedWallet, error) {
	report, err := s.reportRepo.GetByIDAndUser(ctx, req.ReportID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, &types.ServiceError{
			Code:    "REPORT_NOT_FOUND",
			Message: fmt.Sprintf("report not found: %s", req.ReportID),
		}
	}

	if err := s.checkSlot(ctx, email, 1); err != nil {
		return nil, err
	}

	exists, err := s.watchlistRepo.ExistsActive(ctx, email, report.WalletAddress, report.Blockchain)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if exists {
		return nil, &types.ServiceError{
			Code:    "DUPLICATE_ENTRY",
			Message: "wallet is already on the watchlist",
			Details: map[string]interface{}{
				"walletAddress": report.WalletAddress,
				"blockchain":    report.Blockchain,
			},
		}
	}

	entry := entryFromReport(email, report, time.Now().UTC())
	entry.Nickname = strings.TrimSpace(req.Nickname)
	if req.OwnershipTag != "" {
		entry.OwnershipTag = types.ParseOwnershipTag(string(req.OwnershipTag))
	}

	if err := s.watchlistRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create watchlist entry: %w", err)
	}

	return entry, nil
}

// ListFilter narrows the watchlist listing. Zero values mean no filtering.
type ListFilter struct {
	OwnershipTag types.OwnershipTag
	Health       types.HealthBand
}

// List returns the user's active entries, optionally filtered by ownership
// tag and health band. Filtering happens in memory over the active set.
func (s *WatchlistService) List(ctx context.Context, email string, filter ListFilter) ([]*models.WatchedWallet, error) {
	entries, err := s.watchlistRepo.ListActiveByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	filtered := make([]*models.WatchedWallet, 0, len(entries))
	for _, e := range entries {
		if filter.OwnershipTag != "" && e.OwnershipTag != filter.OwnershipTag {
			continue
		}
		if filter.Health != "" && filter.Health != types.HealthAll && e.HealthBand() != filter.Health {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

// Summary returns the fleet-level aggregate over the user's active entries
func (s *WatchlistService) Summary(ctx context.Context, email string) (*AggregateView, error) {
	entries, err := s.watchlistRepo.ListActiveByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	return Aggregate(entries), nil
}

// UpdateTag changes an entry's ownership tag
func (s *WatchlistService) UpdateTag(ctx context.Context, email, id string, tag types.OwnershipTag) error {
	if !types.IsValidOwnershipTag(tag) {
		return &types.ServiceError{
			Code:    "INVALID_TAG",
			Message: fmt.Sprintf("unknown ownership tag: %s", tag),
		}
	}
	entry, err := s.watchlistRepo.GetByIDAndUser(ctx, id, email)
	if err != nil {
		return fmt.Errorf("failed to load entry: %w", err)
	}
	if entry == nil {
		return entryNotFound(id)
	}
	return s.watchlistRepo.UpdateTag(ctx, id, email, tag)
}

// Remove soft-deletes an entry; the row stays for history but drops out of
// listings and slot counts.
func (s *WatchlistService) Remove(ctx context.Context, email, id string) error {
	entry, err := s.watchlistRepo.GetByIDAndUser(ctx, id, email)
	if err != nil {
		return fmt.Errorf("failed to load entry: %w", err)
	}
	if entry == nil {
		return entryNotFound(id)
	}
	return s.watchlistRepo.Deactivate(ctx, id, email)
}

// ReanalyzeResult summarizes a watchlist-wide refresh
type ReanalyzeResult struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Reanalyze re-runs the oracle for every active entry concurrently. All
// entries are attempted regardless of individual failures; failed entries
// keep their previous snapshot. Each refresh is recorded as a recovery
// attempt/success metric pair feeding the business analytics.
func (s *WatchlistService) Reanalyze(ctx context.Context, email string) (*ReanalyzeResult, error) {
	entries, err := s.watchlistRepo.ListActiveByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	result := &ReanalyzeResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, entry := range entries {
		wg.Add(1)
		go func(e *models.WatchedWallet) {
			defer wg.Done()
			s.metrics.TrackRecoveryAttempt(ctx, email, e.ID, e.WalletAddress)
			err := s.refreshEntry(ctx, e)
			if err == nil {
				s.metrics.TrackRecoverySuccess(ctx, email, e.ID, e.WalletAddress, *e.OverallScore)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.WalletAddress, err))
				return
			}
			result.Updated++
		}(entry)
	}
	wg.Wait()

	if result.Failed > 0 {
		logging.GetGlobalLogger().WithFields(map[string]interface{}{
			"user":    email,
			"updated": result.Updated,
			"failed":  result.Failed,
		}).Warn("Watchlist reanalysis completed with failures")
	}

	return result, nil
}

// refreshEntry runs a fresh analysis for one entry and persists the new
// snapshot
func (s *WatchlistService) refreshEntry(ctx context.Context, entry *models.WatchedWallet) error {
	analysis, err := s.oracle.Analyze(ctx, entry.WalletAddress, entry.Blockchain)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	score := analysis.OverallHealthScore
	entry.OverallScore = &score
	entry.AISummary = analysis.AISummary
	entry.RiskLevel = DeriveRiskLevel(analysis.AISummary)
	entry.BehaviorProfile = models.BehaviorProfile{
		Tag:     analysis.BehaviorProfile.Tag,
		Summary: analysis.BehaviorProfile.Summary,
		Details: analysis.BehaviorProfile.Details,
	}
	entry.HealthScoreBreakdown = nil
	for _, f := range analysis.HealthScoreBreakdown {
		entry.HealthScoreBreakdown = append(entry.HealthScoreBreakdown, models.ScoreFactor{
			Category:    f.Category,
			ScoreImpact: f.ScoreImpact,
			Description: f.Description,
		})
	}
	entry.Recommendations = analysis.Recommendations
	entry.ScoreTrend = nil
	for _, p := range analysis.ScoreTrend {
		entry.ScoreTrend = append(entry.ScoreTrend, models.TrendPoint{Date: p.Date, Score: p.Score})
	}
	entry.LastChecked = now
	entry.UpdatedAt = now

	return s.watchlistRepo.Update(ctx, entry)
}

// ComparisonEntry is one wallet's row in a side-by-side comparison
type ComparisonEntry struct {
	ID              string          `json:"id"`
	WalletAddress   string          `json:"walletAddress"`
	Blockchain      types.ChainID   `json:"blockchain"`
	Nickname        string          `json:"nickname"`
	OverallScore    int             `json:"overallScore"`
	RiskLevel       types.RiskLevel `json:"riskLevel"`
	PortfolioValue  float64         `json:"portfolioValue"`
	DailyChange     float64         `json:"dailyChange"`
	ProfitLoss30d   float64         `json:"profitLoss30d"`
	SmartMoneyScore float64         `json:"smartMoneyScore"`
}

// Compare returns side-by-side rows for the requested entries. Between 2 and
// 4 wallets can be compared at once; unknown IDs are an error.
func (s *WatchlistService) Compare(ctx context.Context, email string, ids []string) ([]ComparisonEntry, error) {
	if len(ids) < 2 || len(ids) > 4 {
		return nil, &types.ServiceError{
			Code:    "INVALID_COMPARISON",
			Message: "comparison requires between 2 and 4 wallets",
		}
	}

	rows := make([]ComparisonEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.watchlistRepo.GetByIDAndUser(ctx, id, email)
		if err != nil {
			return nil, fmt.Errorf("failed to load entry: %w", err)
		}
		if entry == nil {
			return nil, entryNotFound(id)
		}
		rows = append(rows, ComparisonEntry{
			ID:              entry.ID,
			WalletAddress:   entry.WalletAddress,
			Blockchain:      entry.Blockchain,
			Nickname:        entry.Nickname,
			OverallScore:    SafeInt(entry.OverallScore),
			RiskLevel:       entry.RiskLevel,
			PortfolioValue:  SafeFloat(entry.PortfolioValue),
			DailyChange:     SafeFloat(entry.DailyChange),
			ProfitLoss30d:   SafeFloat(entry.ProfitLoss30d),
			SmartMoneyScore: SafeFloat(entry.SmartMoneyScore),
		})
	}
	return rows, nil
}

// checkSlot verifies the user has room for n more active entries
func (s *WatchlistService) checkSlot(ctx context.Context, email string, n int) error {
	sub, err := s.subSvc.GetOrCreate(ctx, email)
	if err != nil {
		return err
	}

	count, err := s.watchlistRepo.CountActiveByUser(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to count watchlist entries: %w", err)
	}

	if !CanAddToWatchlist(sub, count+n-1) {
		return &types.ServiceError{
			Code:    "PLAN_LIMIT_EXCEEDED",
			Message: "watchlist limit reached for the current plan",
			Details: map[string]interface{}{
				"plan":  sub.Plan,
				"count": count,
				"limit": sub.WatchlistLimit,
			},
		}
	}
	return nil
}

// entryFromReport snapshots a report into a fresh active watchlist entry
func entryFromReport(email string, report *models.WalletReport, now time.Time) *models.WatchedWallet {
	score := report.OverallHealthScore
	return &models.WatchedWallet{
		CreatedBy:            email,
		WalletAddress:        report.WalletAddress,
		Blockchain:           report.Blockchain,
		OwnershipTag:         types.TagResearchTarget,
		RiskLevel:            DeriveRiskLevel(report.AISummary),
		OverallScore:         &score,
		AISummary:            report.AISummary,
		BehaviorProfile:      report.BehaviorProfile,
		HealthScoreBreakdown: report.HealthScoreBreakdown,
		Recommendations:      report.Recommendations,
		ScoreTrend:           report.ScoreTrend,
		IsActive:             true,
		LastChecked:          now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func entryNotFound(id string) error {
	return &types.ServiceError{
		Code:    "ENTRY_NOT_FOUND",
		Message: fmt.Sprintf("watchlist entry not found: %s", id),
	}
}
