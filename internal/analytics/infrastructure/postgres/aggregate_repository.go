package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	analytics "energy-monitor/internal/analytics/domain"
	telemetry "energy-monitor/internal/telemetry/domain"
	telemetrypostgres "energy-monitor/internal/telemetry/infrastructure/postgres"
)

// AggregateRepository runs time-bucket aggregation and global statistics
// directly in Postgres; bucketing cannot be expressed as a filtered fetch.
type AggregateRepository struct {
	db *sql.DB
}

// NewAggregateRepository constructs a repository.
func NewAggregateRepository(db *sql.DB) (*AggregateRepository, error) {
	if db == nil {
		return nil, errors.New("aggregate repo: nil db")
	}
	return &AggregateRepository{db: db}, nil
}

// Aggregate groups filtered measurements into fixed windows of the given
// width. Bucket key is floor(epoch_ms / width) * width; ordering is
// ascending by bucket start.
func (r *AggregateRepository) Aggregate(ctx context.Context, filter telemetry.Filter, width analytics.BucketWidth) ([]analytics.Bucket, error) {
	if width <= 0 {
		return nil, analytics.ErrUnknownBucketWidth
	}

	where, args := telemetrypostgres.BuildFilterWhere(filter)
	widthArg := len(args) + 1
	args = append(args, int64(width))

	query := fmt.Sprintf(`
SELECT
	(FLOOR(EXTRACT(EPOCH FROM m.date) * 1000 / $%d) * $%d)::bigint AS bucket_ms,
	AVG(m.voltage), MIN(m.voltage), MAX(m.voltage),
	AVG(m.current), MIN(m.current), MAX(m.current),
	COUNT(*)%s%s
GROUP BY bucket_ms
ORDER BY bucket_ms ASC`, widthArg, widthArg, telemetrypostgres.MeasurementFrom, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]analytics.Bucket, 0)
	for rows.Next() {
		var bucketMS int64
		var b analytics.Bucket
		if err := rows.Scan(
			&bucketMS,
			&b.AvgVoltage, &b.MinVoltage, &b.MaxVoltage,
			&b.AvgCurrent, &b.MinCurrent, &b.MaxCurrent,
			&b.Count,
		); err != nil {
			return nil, err
		}
		b.Timestamp = time.UnixMilli(bucketMS).UTC()
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buckets, nil
}

// Statistics computes global min/avg/max over the filtered set. COALESCE
// keeps an empty set at zeros instead of NULL scan failures.
func (r *AggregateRepository) Statistics(ctx context.Context, filter telemetry.Filter) (analytics.Statistics, error) {
	where, args := telemetrypostgres.BuildFilterWhere(filter)

	query := `
SELECT
	COALESCE(AVG(m.voltage), 0), COALESCE(MAX(m.voltage), 0), COALESCE(MIN(m.voltage), 0),
	COALESCE(AVG(m.current), 0), COALESCE(MAX(m.current), 0), COALESCE(MIN(m.current), 0)` +
		telemetrypostgres.MeasurementFrom + where

	var stats analytics.Statistics
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.Voltage.Avg, &stats.Voltage.Max, &stats.Voltage.Min,
		&stats.Current.Avg, &stats.Current.Max, &stats.Current.Min,
	)
	if err != nil {
		return analytics.Statistics{}, err
	}
	return stats, nil
}
