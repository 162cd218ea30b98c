package models

import (
	"time"

	"github.com/wallet-watchdog/internal/types"
)

// WatchedWallet is a persisted, mutable projection of a wallet report plus
// monitoring metadata. Entries are never hard-deleted: removal flips IsActive.
type WatchedWallet struct {
	ID            string             `json:"id" db:"id"`
	CreatedBy     string             `json:"createdBy" db:"created_by"`
	WalletAddress string             `json:"walletAddress" db:"wallet_address"`
	Blockchain    types.ChainID      `json:"blockchain" db:"blockchain"`
	Nickname      string             `json:"nickname" db:"nickname"`
	OwnershipTag  types.OwnershipTag `json:"ownershipTag" db:"ownership_tag"`
	RiskLevel     types.RiskLevel    `json:"riskLevel" db:"risk_level"`

	// Snapshot of the latest report. OverallScore is nil for legacy entries
	// that predate report embedding.
	OverallScore         *int            `json:"overallScore,omitempty" db:"overall_score"`
	AISummary            string          `json:"aiSummary" db:"ai_summary"`
	BehaviorProfile      BehaviorProfile `json:"behaviorProfile" db:"behavior_profile"`
	HealthScoreBreakdown []ScoreFactor   `json:"healthScoreBreakdown" db:"health_score_breakdown"`
	Recommendations      []string        `json:"recommendations" db:"recommendations"`
	ScoreTrend           []TrendPoint    `json:"scoreTrend" db:"score_trend"`

	// Monitoring metrics. Pointers distinguish "not yet measured" from zero;
	// aggregation coerces missing values to 0.
	PortfolioValue   *float64 `json:"portfolioValue,omitempty" db:"portfolio_value"`
	DailyChange      *float64 `json:"dailyChange,omitempty" db:"daily_change"`
	DefiProtocols    *int     `json:"defiProtocols,omitempty" db:"defi_protocols"`
	ProfitLoss30d    *float64 `json:"profitLoss30d,omitempty" db:"profit_loss_30d"`
	GasFees30d       *float64 `json:"gasFees30d,omitempty" db:"gas_fees_30d"`
	SmartMoneyScore  *float64 `json:"smartMoneyScore,omitempty" db:"smart_money_score"`
	NFTActivityScore *float64 `json:"nftActivityScore,omitempty" db:"nft_activity_score"`

	IsActive    bool      `json:"isActive" db:"is_active"`
	LastChecked time.Time `json:"lastChecked" db:"last_checked"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// HealthBand buckets the entry's score for watchlist filtering: good >= 80,
// okay 70-79, poor < 70. Entries without a score land in poor.
func (w *WatchedWallet) HealthBand() types.HealthBand {
	score := 0
	if w.OverallScore != nil {
		score = *w.OverallScore
	}
	switch {
	case score >= 80:
		return types.HealthGood
	case score >= 70:
		return types.HealthOkay
	default:
		return types.HealthPoor
	}
}
