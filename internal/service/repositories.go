package service

import (
	"context"
	"time"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

// Repository interfaces for dependency injection

// ReportRepository interface for wallet report persistence
type ReportRepository interface {
	Create(ctx context.Context, report *models.WalletReport) error
	GetByIDAndUser(ctx context.Context, id, email string) (*models.WalletReport, error)
	ListByUser(ctx context.Context, email string, limit int) ([]*models.WalletReport, error)
}

// WatchlistRepository interface for watched wallet persistence
type WatchlistRepository interface {
	Create(ctx context.Context, entry *models.WatchedWallet) error
	BulkCreate(ctx context.Context, entries []*models.WatchedWallet) error
	GetByIDAndUser(ctx context.Context, id, email string) (*models.WatchedWallet, error)
	ListActiveByUser(ctx context.Context, email string) ([]*models.WatchedWallet, error)
	CountActiveByUser(ctx context.Context, email string) (int, error)
	ExistsActive(ctx context.Context, email, address string, chain types.ChainID) (bool, error)
	Update(ctx context.Context, entry *models.WatchedWallet) error
	UpdateTag(ctx context.Context, id, email string, tag types.OwnershipTag) error
	Deactivate(ctx context.Context, id, email string) error
}

// SubscriptionRepository interface for subscription persistence.
// GetByUser returns (nil, nil) when the user has no subscription yet.
type SubscriptionRepository interface {
	GetByUser(ctx context.Context, email string) (*models.UserSubscription, error)
	Create(ctx context.Context, sub *models.UserSubscription) error
	Update(ctx context.Context, sub *models.UserSubscription) error
}

// MetricRepository interface for append-only usage metric storage
type MetricRepository interface {
	Insert(ctx context.Context, metric *models.UsageMetric) error
	ListSince(ctx context.Context, since time.Time, limit int) ([]*models.UsageMetric, error)
}
