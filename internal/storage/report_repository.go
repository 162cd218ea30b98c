package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wallet-watchdog/internal/models"
)

// ReportRepository handles wallet report persistence. The analysis payload
// (breakdown, profile, recommendations, trend) is stored as JSONB columns.
type ReportRepository struct {
	db *PostgresDB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *PostgresDB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new wallet report
func (r *ReportRepository) Create(ctx context.Context, report *models.WalletReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	if report.AnalysisDate.IsZero() {
		report.AnalysisDate = now
	}

	breakdown, err := json.Marshal(report.HealthScoreBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	profile, err := json.Marshal(report.BehaviorProfile)
	if err != nil {
		return fmt.Errorf("failed to marshal behavior profile: %w", err)
	}
	recommendations, err := json.Marshal(report.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	trend, err := json.Marshal(report.ScoreTrend)
	if err != nil {
		return fmt.Errorf("failed to marshal score trend: %w", err)
	}

	query := `
		INSERT INTO wallet_reports (
			id, created_by, wallet_address, blockchain,
			overall_health_score, health_summary_text, health_score_breakdown,
			behavior_profile, ai_summary, recommendations, score_trend,
			score_note, analysis_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		report.ID,
		report.CreatedBy,
		report.WalletAddress,
		report.Blockchain,
		report.OverallHealthScore,
		report.HealthSummaryText,
		breakdown,
		profile,
		report.AISummary,
		recommendations,
		trend,
		report.ScoreNote,
		report.AnalysisDate,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

const reportColumns = `
	id, created_by, wallet_address, blockchain,
	overall_health_score, health_summary_text, health_score_breakdown,
	behavior_profile, ai_summary, recommendations, score_trend,
	score_note, analysis_date, created_at, updated_at
`

// GetByIDAndUser retrieves a report by ID scoped to its owner. A missing
// report returns (nil, nil).
func (r *ReportRepository) GetByIDAndUser(ctx context.Context, id, email string) (*models.WalletReport, error) {
	query := `SELECT ` + reportColumns + ` FROM wallet_reports WHERE id = $1 AND created_by = $2`

	report, err := scanReport(r.db.Pool().QueryRow(ctx, query, id, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// ListByUser returns the user's most recent reports, newest first
func (r *ReportRepository) ListByUser(ctx context.Context, email string, limit int) ([]*models.WalletReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM wallet_reports
		WHERE created_by = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.WalletReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

func scanReport(row pgx.Row) (*models.WalletReport, error) {
	var report models.WalletReport
	var breakdown, profile, recommendations, trend []byte

	err := row.Scan(
		&report.ID,
		&report.CreatedBy,
		&report.WalletAddress,
		&report.Blockchain,
		&report.OverallHealthScore,
		&report.HealthSummaryText,
		&breakdown,
		&profile,
		&report.AISummary,
		&recommendations,
		&trend,
		&report.ScoreNote,
		&report.AnalysisDate,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(breakdown, &report.HealthScoreBreakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score breakdown: %w", err)
	}
	if err := json.Unmarshal(profile, &report.BehaviorProfile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal behavior profile: %w", err)
	}
	if err := json.Unmarshal(recommendations, &report.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal(trend, &report.ScoreTrend); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score trend: %w", err)
	}

	return &report, nil
}
