// Package oracle provides the wallet analysis oracle: an external AI model
// that produces structured wallet health assessments. Responses are validated
// at this boundary and rejected wholesale when malformed; callers see a
// single generic analysis failure either way.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/wallet-watchdog/internal/types"
)

// ErrAnalysisFailed is the single failure condition surfaced to callers.
// The oracle call is fire-once: no retry, no partial result.
var ErrAnalysisFailed = errors.New("wallet analysis failed")

// Analysis is the raw oracle response shape. Field names follow the JSON
// contract the model is prompted with.
type Analysis struct {
	OverallHealthScore   int             `json:"overall_health_score"`
	HealthSummaryText    string          `json:"health_summary_text"`
	HealthScoreBreakdown []ScoreFactor   `json:"health_score_breakdown"`
	AISummary            string          `json:"ai_summary"`
	BehaviorProfile      BehaviorProfile `json:"behavior_profile"`
	ScoreTrend           []TrendPoint    `json:"score_trend"`
	Recommendations      []string        `json:"recommendations"`
}

// ScoreFactor is one breakdown entry in an oracle response
type ScoreFactor struct {
	Category    string `json:"category"`
	ScoreImpact int    `json:"score_impact"`
	Description string `json:"description"`
}

// BehaviorProfile is the behavior classification in an oracle response
type BehaviorProfile struct {
	Tag     string   `json:"tag"`
	Summary string   `json:"summary"`
	Details []string `json:"details"`
}

// TrendPoint is one historical score sample in an oracle response
type TrendPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// Oracle analyzes a wallet address and returns a structured assessment.
// Implementations are not deterministic: repeated calls with identical input
// may yield different scores and text.
type Oracle interface {
	Analyze(ctx context.Context, address string, chain types.ChainID) (*Analysis, error)
}

// Shape bounds for a valid oracle response
const (
	minBreakdownFactors = 3
	maxBreakdownFactors = 4
	maxFactorImpact     = 15
	minRecommendations  = 2
	maxRecommendations  = 3
	trendPoints         = 3
)

// Validate checks an oracle response against the required shape. Any
// violation fails the whole response; nothing is salvaged from a partially
// valid analysis.
func Validate(a *Analysis) error {
	if a == nil {
		return fmt.Errorf("empty analysis")
	}

	if a.OverallHealthScore <= 0 || a.OverallHealthScore > 100 {
		return fmt.Errorf("overall health score %d out of range", a.OverallHealthScore)
	}

	if a.HealthSummaryText == "" {
		return fmt.Errorf("missing health summary text")
	}

	if a.AISummary == "" {
		return fmt.Errorf("missing ai summary")
	}

	if n := len(a.HealthScoreBreakdown); n < minBreakdownFactors || n > maxBreakdownFactors {
		return fmt.Errorf("breakdown has %d factors, want %d-%d", n, minBreakdownFactors, maxBreakdownFactors)
	}

	for _, f := range a.HealthScoreBreakdown {
		if f.Category == "" {
			return fmt.Errorf("breakdown factor missing category")
		}
		if f.ScoreImpact == 0 {
			return fmt.Errorf("breakdown factor %q has zero impact", f.Category)
		}
		if f.ScoreImpact < -maxFactorImpact || f.ScoreImpact > maxFactorImpact {
			return fmt.Errorf("breakdown factor %q impact %d out of range", f.Category, f.ScoreImpact)
		}
	}

	if a.BehaviorProfile.Tag == "" || a.BehaviorProfile.Summary == "" {
		return fmt.Errorf("incomplete behavior profile")
	}

	if len(a.BehaviorProfile.Details) == 0 {
		return fmt.Errorf("behavior profile has no details")
	}

	if n := len(a.Recommendations); n < minRecommendations || n > maxRecommendations {
		return fmt.Errorf("got %d recommendations, want %d-%d", n, minRecommendations, maxRecommendations)
	}

	if len(a.ScoreTrend) != trendPoints {
		return fmt.Errorf("got %d trend points, want %d", len(a.ScoreTrend), trendPoints)
	}

	// Trend points must carry distinct scores
	seen := make(map[int]bool, trendPoints)
	for _, p := range a.ScoreTrend {
		if p.Date == "" {
			return fmt.Errorf("trend point missing date")
		}
		if seen[p.Score] {
			return fmt.Errorf("duplicate trend score %d", p.Score)
		}
		seen[p.Score] = true
	}

	return nil
}
