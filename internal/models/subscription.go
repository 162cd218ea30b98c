package models

import (
	"time"

	"github.com/wallet-watchdog/internal/types"
)

// UserSubscription tracks a user's plan and monthly report usage.
// A nil limit means unlimited. Created lazily on first access with the free
// plan; mutated on report generation (+1 usage) and on plan upgrade (usage
// reset, limits replaced).
type UserSubscription struct {
	ID                   string        `json:"id" db:"id"`
	CreatedBy            string        `json:"createdBy" db:"created_by"`
	Plan                 types.PlanID  `json:"plan" db:"plan"`
	ReportsUsedThisMonth int           `json:"reportsUsedThisMonth" db:"reports_used_this_month"`
	ReportsLimit         *int          `json:"reportsLimit" db:"reports_limit"`
	WatchlistLimit       *int          `json:"watchlistLimit" db:"watchlist_limit"`
	SubscriptionStart    time.Time     `json:"subscriptionStart" db:"subscription_start"`
	CreatedAt            time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time     `json:"updatedAt" db:"updated_at"`
}

// RemainingReports returns how many reports the user may still generate this
// month, or nil for unlimited plans.
func (s *UserSubscription) RemainingReports() *int {
	if s.ReportsLimit == nil {
		return nil
	}
	remaining := *s.ReportsLimit - s.ReportsUsedThisMonth
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
