// Package service implements the wallet watchdog business logic: report
// generation, watchlist management, plan limit enforcement and analytics
// aggregation.
package service

import (
	"time"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

// PlanConfig describes the limits and pricing of a subscription tier.
// A nil limit means unlimited.
type PlanConfig struct {
	Name           string
	PriceCents     int
	ReportsLimit   *int
	WatchlistLimit *int
}

func limitOf(n int) *int {
	return &n
}

// planTable is the authoritative plan catalog. The free tier is the only one
// with a report cap; paid tiers differ only in watchlist capacity.
var planTable = map[types.PlanID]PlanConfig{
	types.PlanFree:       {Name: "Free", PriceCents: 0, ReportsLimit: limitOf(3), WatchlistLimit: limitOf(0)},
	types.PlanStarter:    {Name: "Starter", PriceCents: 2999, ReportsLimit: nil, WatchlistLimit: limitOf(20)},
	types.PlanBuilder:    {Name: "Builder", PriceCents: 4999, ReportsLimit: nil, WatchlistLimit: limitOf(50)},
	types.PlanOperator:   {Name: "Operator", PriceCents: 7999, ReportsLimit: nil, WatchlistLimit: limitOf(100)},
	types.PlanPower:      {Name: "Power", PriceCents: 12999, ReportsLimit: nil, WatchlistLimit: limitOf(250)},
	types.PlanEnterprise: {Name: "Enterprise", PriceCents: 19999, ReportsLimit: nil, WatchlistLimit: limitOf(500)},
}

// PlanFor returns the catalog entry for a plan identifier
func PlanFor(id types.PlanID) (PlanConfig, bool) {
	cfg, ok := planTable[id]
	return cfg, ok
}

// CanCreateReport reports whether the subscription permits generating one
// more report this month.
func CanCreateReport(sub *models.UserSubscription) bool {
	if sub == nil {
		return false
	}
	if sub.ReportsLimit == nil {
		return true
	}
	return sub.ReportsUsedThisMonth < *sub.ReportsLimit
}

// CanAddToWatchlist reports whether the subscription permits one more
// watchlist entry given the current active count.
func CanAddToWatchlist(sub *models.UserSubscription, currentCount int) bool {
	if sub == nil {
		return false
	}
	if sub.WatchlistLimit == nil {
		return true
	}
	return currentCount < *sub.WatchlistLimit
}

// ApplyUpgrade switches the subscription to the named plan: limits are
// replaced, the monthly usage counter resets to zero and the subscription
// start is re-stamped. Re-applying the current plan is allowed and behaves
// the same way. There is no prorating and no downgrade restriction.
func ApplyUpgrade(sub *models.UserSubscription, planID types.PlanID, now time.Time) error {
	cfg, ok := PlanFor(planID)
	if !ok {
		return &types.ServiceError{
			Code:    "INVALID_PLAN",
			Message: "unknown plan: " + string(planID),
		}
	}

	sub.Plan = planID
	sub.ReportsUsedThisMonth = 0
	sub.SubscriptionStart = now
	sub.UpdatedAt = now

	// Copy limit values so the subscription never aliases the catalog
	if cfg.ReportsLimit != nil {
		sub.ReportsLimit = limitOf(*cfg.ReportsLimit)
	} else {
		sub.ReportsLimit = nil
	}
	if cfg.WatchlistLimit != nil {
		sub.WatchlistLimit = limitOf(*cfg.WatchlistLimit)
	} else {
		sub.WatchlistLimit = nil
	}

	return nil
}

// NewFreeSubscription builds the default subscription record created lazily
// on a user's first access.
func NewFreeSubscription(email string, now time.Time) *models.UserSubscription {
	free := planTable[types.PlanFree]
	return &models.UserSubscription{
		CreatedBy:            email,
		Plan:                 types.PlanFree,
		ReportsUsedThisMonth: 0,
		ReportsLimit:         limitOf(*free.ReportsLimit),
		WatchlistLimit:       limitOf(*free.WatchlistLimit),
		SubscriptionStart:    now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
