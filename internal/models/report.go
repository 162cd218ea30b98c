// Package models provides data models for the wallet watchdog system.
package models

import (
	"time"

	"github.com/wallet-watchdog/internal/types"
)

// ScoreFactor is a single entry in a report's health score breakdown.
// Impacts are bounded to [-15, 15] and never zero.
type ScoreFactor struct {
	Category    string `json:"category"`
	ScoreImpact int    `json:"scoreImpact"`
	Description string `json:"description"`
}

// BehaviorProfile summarizes a wallet's observed behavior pattern
type BehaviorProfile struct {
	Tag     string   `json:"tag"`
	Summary string   `json:"summary"`
	Details []string `json:"details"`
}

// TrendPoint is one historical score sample
type TrendPoint struct {
	Date  string `json:"date"` // ISO-8601 date
	Score int    `json:"score"`
}

// ScoreBaseline is the reference score a breakdown's impacts deviate from.
const ScoreBaseline = 75

// WalletReport is a single point-in-time AI-generated wallet analysis
type WalletReport struct {
	ID                   string          `json:"id" db:"id"`
	CreatedBy            string          `json:"createdBy" db:"created_by"`
	WalletAddress        string          `json:"walletAddress" db:"wallet_address"`
	Blockchain           types.ChainID   `json:"blockchain" db:"blockchain"`
	OverallHealthScore   int             `json:"overallHealthScore" db:"overall_health_score"`
	HealthSummaryText    string          `json:"healthSummaryText" db:"health_summary_text"`
	HealthScoreBreakdown []ScoreFactor   `json:"healthScoreBreakdown" db:"health_score_breakdown"`
	BehaviorProfile      BehaviorProfile `json:"behaviorProfile" db:"behavior_profile"`
	AISummary            string          `json:"aiSummary" db:"ai_summary"`
	Recommendations      []string        `json:"recommendations" db:"recommendations"`
	ScoreTrend           []TrendPoint    `json:"scoreTrend" db:"score_trend"`
	ScoreNote            *string         `json:"scoreNote,omitempty" db:"score_note"`
	AnalysisDate         time.Time       `json:"analysisDate" db:"analysis_date"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
}

// ExpectedScore returns the score implied by the breakdown: the baseline of
// 75 plus the sum of all factor impacts.
func (r *WalletReport) ExpectedScore() int {
	sum := ScoreBaseline
	for _, f := range r.HealthScoreBreakdown {
		sum += f.ScoreImpact
	}
	return sum
}
