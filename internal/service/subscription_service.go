package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

// SubscriptionService manages user subscriptions and plan changes
type SubscriptionService struct {
	subRepo SubscriptionRepository
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subRepo SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{subRepo: subRepo}
}

// GetOrCreate returns the user's subscription, lazily creating a free-tier
// record on first access.
func (s *SubscriptionService) GetOrCreate(ctx context.Context, email string) (*models.UserSubscription, error) {
	if email == "" {
		return nil, &types.ServiceError{
			Code:    "UNAUTHORIZED",
			Message: "user email is required",
		}
	}

	sub, err := s.subRepo.GetByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub != nil {
		return sub, nil
	}

	sub = NewFreeSubscription(email, time.Now().UTC())
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return sub, nil
}

// Upgrade applies the named plan to the user's subscription and persists it.
// Re-applying the current plan is permitted.
func (s *SubscriptionService) Upgrade(ctx context.Context, email string, planID types.PlanID) (*models.UserSubscription, error) {
	sub, err := s.GetOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := ApplyUpgrade(sub, planID, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist upgrade: %w", err)
	}

	return sub, nil
}

// IncrementUsage bumps the monthly report counter for metered plans.
// Unlimited plans are left untouched.
func (s *SubscriptionService) IncrementUsage(ctx context.Context, sub *models.UserSubscription) error {
	if sub.ReportsLimit == nil {
		return nil
	}

	sub.ReportsUsedThisMonth++
	sub.UpdatedAt = time.Now().UTC()

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to persist usage: %w", err)
	}

	return nil
}
