package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wallet-watchdog/internal/models"
)

// SubscriptionRepository handles user subscription persistence. Each user
// has at most one row, keyed by email.
type SubscriptionRepository struct {
	db *PostgresDB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *PostgresDB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// GetByUser retrieves the user's subscription, returning (nil, nil) when
// none exists yet
func (r *SubscriptionRepository) GetByUser(ctx context.Context, email string) (*models.UserSubscription, error) {
	query := `
		SELECT id, created_by, plan, reports_used_this_month, reports_limit,
		       watchlist_limit, subscription_start, created_at, updated_at
		FROM user_subscriptions
		WHERE created_by = $1
	`

	var sub models.UserSubscription
	err := r.db.Pool().QueryRow(ctx, query, email).Scan(
		&sub.ID,
		&sub.CreatedBy,
		&sub.Plan,
		&sub.ReportsUsedThisMonth,
		&sub.ReportsLimit,
		&sub.WatchlistLimit,
		&sub.SubscriptionStart,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// Create inserts a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.UserSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	query := `
		INSERT INTO user_subscriptions (
			id, created_by, plan, reports_used_this_month, reports_limit,
			watchlist_limit, subscription_start, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		sub.ID,
		sub.CreatedBy,
		sub.Plan,
		sub.ReportsUsedThisMonth,
		sub.ReportsLimit,
		sub.WatchlistLimit,
		sub.SubscriptionStart,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// Update persists plan and usage changes
func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.UserSubscription) error {
	sub.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE user_subscriptions SET
			plan = $2, reports_used_this_month = $3, reports_limit = $4,
			watchlist_limit = $5, subscription_start = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		sub.ID,
		sub.Plan,
		sub.ReportsUsedThisMonth,
		sub.ReportsLimit,
		sub.WatchlistLimit,
		sub.SubscriptionStart,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription not found: %s", sub.ID)
	}

	return nil
}
