package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

// WatchlistRepository handles watched wallet persistence. Removal is a soft
// delete: rows stay in place with is_active = false.
type WatchlistRepository struct {
	db *PostgresDB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *PostgresDB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

const watchlistColumns = `
	id, created_by, wallet_address, blockchain, nickname, ownership_tag,
	risk_level, overall_score, ai_summary, behavior_profile,
	health_score_breakdown, recommendations, score_trend,
	portfolio_value, daily_change, defi_protocols, profit_loss_30d,
	gas_fees_30d, smart_money_score, nft_activity_score,
	is_active, last_checked, created_at, updated_at
`

// Create inserts a new watchlist entry
func (r *WatchlistRepository) Create(ctx context.Context, entry *models.WatchedWallet) error {
	return r.insert(ctx, entry)
}

// BulkCreate inserts multiple entries in one transaction
func (r *WatchlistRepository) BulkCreate(ctx context.Context, entries []*models.WatchedWallet) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // nolint:errcheck // no-op after commit
	}()

	for _, entry := range entries {
		if err := r.insertTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit bulk create: %w", err)
	}
	return nil
}

func (r *WatchlistRepository) insert(ctx context.Context, entry *models.WatchedWallet) error {
	return r.insertTx(ctx, r.db.Pool(), entry)
}

// pgxExecutor covers both the pool and an open transaction
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *WatchlistRepository) insertTx(ctx context.Context, exec pgxExecutor, entry *models.WatchedWallet) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	profile, err := json.Marshal(entry.BehaviorProfile)
	if err != nil {
		return fmt.Errorf("failed to marshal behavior profile: %w", err)
	}
	breakdown, err := json.Marshal(entry.HealthScoreBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	recommendations, err := json.Marshal(entry.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	trend, err := json.Marshal(entry.ScoreTrend)
	if err != nil {
		return fmt.Errorf("failed to marshal score trend: %w", err)
	}

	query := `
		INSERT INTO watched_wallets (
			id, created_by, wallet_address, blockchain, nickname, ownership_tag,
			risk_level, overall_score, ai_summary, behavior_profile,
			health_score_breakdown, recommendations, score_trend,
			portfolio_value, daily_change, defi_protocols, profit_loss_30d,
			gas_fees_30d, smart_money_score, nft_activity_score,
			is_active, last_checked, created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
	`

	_, err = exec.Exec(ctx, query,
		entry.ID,
		entry.CreatedBy,
		entry.WalletAddress,
		entry.Blockchain,
		entry.Nickname,
		entry.OwnershipTag,
		entry.RiskLevel,
		entry.OverallScore,
		entry.AISummary,
		profile,
		breakdown,
		recommendations,
		trend,
		entry.PortfolioValue,
		entry.DailyChange,
		entry.DefiProtocols,
		entry.ProfitLoss30d,
		entry.GasFees30d,
		entry.SmartMoneyScore,
		entry.NFTActivityScore,
		entry.IsActive,
		entry.LastChecked,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert watchlist entry: %w", err)
	}
	return nil
}

// GetByIDAndUser retrieves an entry by ID scoped to its owner. A missing
// entry returns (nil, nil).
func (r *WatchlistRepository) GetByIDAndUser(ctx context.Context, id, email string) (*models.WatchedWallet, error) {
	query := `SELECT ` + watchlistColumns + ` FROM watched_wallets WHERE id = $1 AND created_by = $2`

	entry, err := scanWatchedWallet(r.db.Pool().QueryRow(ctx, query, id, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}
	return entry, nil
}

// ListActiveByUser returns the user's active entries, oldest first
func (r *WatchlistRepository) ListActiveByUser(ctx context.Context, email string) ([]*models.WatchedWallet, error) {
	query := `
		SELECT ` + watchlistColumns + `
		FROM watched_wallets
		WHERE created_by = $1 AND is_active = true
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchedWallet
	for rows.Next() {
		entry, err := scanWatchedWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist: %w", err)
	}

	return entries, nil
}

// CountActiveByUser returns the user's active entry count
func (r *WatchlistRepository) CountActiveByUser(ctx context.Context, email string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM watched_wallets WHERE created_by = $1 AND is_active = true`
	if err := r.db.Pool().QueryRow(ctx, query, email).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count watchlist entries: %w", err)
	}
	return count, nil
}

// ExistsActive checks whether the user already watches an address on a chain
func (r *WatchlistRepository) ExistsActive(ctx context.Context, email, address string, chain types.ChainID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM watched_wallets
			WHERE created_by = $1 AND wallet_address = $2 AND blockchain = $3 AND is_active = true
		)
	`
	if err := r.db.Pool().QueryRow(ctx, query, email, address, chain).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check watchlist entry: %w", err)
	}
	return exists, nil
}

// Update replaces an entry's mutable fields
func (r *WatchlistRepository) Update(ctx context.Context, entry *models.WatchedWallet) error {
	entry.UpdatedAt = time.Now().UTC()

	profile, err := json.Marshal(entry.BehaviorProfile)
	if err != nil {
		return fmt.Errorf("failed to marshal behavior profile: %w", err)
	}
	breakdown, err := json.Marshal(entry.HealthScoreBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	recommendations, err := json.Marshal(entry.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	trend, err := json.Marshal(entry.ScoreTrend)
	if err != nil {
		return fmt.Errorf("failed to marshal score trend: %w", err)
	}

	query := `
		UPDATE watched_wallets SET
			nickname = $3, ownership_tag = $4, risk_level = $5, overall_score = $6,
			ai_summary = $7, behavior_profile = $8, health_score_breakdown = $9,
			recommendations = $10, score_trend = $11, portfolio_value = $12,
			daily_change = $13, defi_protocols = $14, profit_loss_30d = $15,
			gas_fees_30d = $16, smart_money_score = $17, nft_activity_score = $18,
			last_checked = $19, updated_at = $20
		WHERE id = $1 AND created_by = $2
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		entry.ID,
		entry.CreatedBy,
		entry.Nickname,
		entry.OwnershipTag,
		entry.RiskLevel,
		entry.OverallScore,
		entry.AISummary,
		profile,
		breakdown,
		recommendations,
		trend,
		entry.PortfolioValue,
		entry.DailyChange,
		entry.DefiProtocols,
		entry.ProfitLoss30d,
		entry.GasFees30d,
		entry.SmartMoneyScore,
		entry.NFTActivityScore,
		entry.LastChecked,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update watchlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("watchlist entry not found: %s", entry.ID)
	}
	return nil
}

// UpdateTag changes only the ownership tag
func (r *WatchlistRepository) UpdateTag(ctx context.Context, id, email string, tag types.OwnershipTag) error {
	query := `
		UPDATE watched_wallets SET ownership_tag = $3, updated_at = $4
		WHERE id = $1 AND created_by = $2
	`
	result, err := r.db.Pool().Exec(ctx, query, id, email, tag, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update ownership tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("watchlist entry not found: %s", id)
	}
	return nil
}

// Deactivate soft-deletes an entry
func (r *WatchlistRepository) Deactivate(ctx context.Context, id, email string) error {
	query := `
		UPDATE watched_wallets SET is_active = false, updated_at = $3
		WHERE id = $1 AND created_by = $2
	`
	result, err := r.db.Pool().Exec(ctx, query, id, email, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to deactivate watchlist entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("watchlist entry not found: %s", id)
	}
	return nil
}

func scanWatchedWallet(row pgx.Row) (*models.WatchedWallet, error) {
	var entry models.WatchedWallet
	var profile, breakdown, recommendations, trend []byte

	err := row.Scan(
		&entry.ID,
		&entry.CreatedBy,
		&entry.WalletAddress,
		&entry.Blockchain,
		&entry.Nickname,
		&entry.OwnershipTag,
		&entry.RiskLevel,
		&entry.OverallScore,
		&entry.AISummary,
		&profile,
		&breakdown,
		&recommendations,
		&trend,
		&entry.PortfolioValue,
		&entry.DailyChange,
		&entry.DefiProtocols,
		&entry.ProfitLoss30d,
		&entry.GasFees30d,
		&entry.SmartMoneyScore,
		&entry.NFTActivityScore,
		&entry.IsActive,
		&entry.LastChecked,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(profile, &entry.BehaviorProfile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal behavior profile: %w", err)
	}
	if err := json.Unmarshal(breakdown, &entry.HealthScoreBreakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score breakdown: %w", err)
	}
	if err := json.Unmarshal(recommendations, &entry.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal(trend, &entry.ScoreTrend); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score trend: %w", err)
	}

	return &entry, nil
}
