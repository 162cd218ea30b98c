package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-watchdog/internal/models"
)

// MetricRepository stores usage metrics in ClickHouse. The table is
// append-only; metadata is stored as a JSON string column.
type MetricRepository struct {
	db *ClickHouseDB
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *ClickHouseDB) *MetricRepository {
	return &MetricRepository{db: db}
}

// Insert appends one usage metric
func (r *MetricRepository) Insert(ctx context.Context, metric *models.UsageMetric) error {
	if metric.ID == "" {
		metric.ID = uuid.New().String()
	}
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now().UTC()
	}

	metadata := "{}"
	if metric.Metadata != nil {
		data, err := json.Marshal(metric.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metric metadata: %w", err)
		}
		metadata = string(data)
	}

	query := `
		INSERT INTO usage_metrics (
			id, metric_type, category, cost_cents, revenue_cents, metadata, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.Conn().Exec(ctx, query,
		metric.ID,
		metric.MetricType,
		metric.Category,
		metric.CostCents,
		metric.RevenueCents,
		metadata,
		metric.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage metric: %w", err)
	}

	return nil
}

// ListSince returns metrics recorded at or after the given time, oldest
// first, capped at limit
func (r *MetricRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.UsageMetric, error) {
	query := `
		SELECT id, metric_type, category, cost_cents, revenue_cents, metadata, timestamp
		FROM usage_metrics
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*models.UsageMetric
	for rows.Next() {
		var metric models.UsageMetric
		var metadata string

		err := rows.Scan(
			&metric.ID,
			&metric.MetricType,
			&metric.Category,
			&metric.CostCents,
			&metric.RevenueCents,
			&metadata,
			&metric.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage metric: %w", err)
		}

		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &metric.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metric metadata: %w", err)
			}
		}

		metrics = append(metrics, &metric)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage metrics: %w", err)
	}

	return metrics, nil
}
