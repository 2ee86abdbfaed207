package application

import (
	"context"
	"errors"

	analytics "energy-monitor/internal/analytics/domain"
	telemetry "energy-monitor/internal/telemetry/domain"
)

// AggregateReader is the persistence capability the analytics services
// need: windowed aggregation plus global statistics.
type AggregateReader interface {
	Aggregate(ctx context.Context, filter telemetry.Filter, width analytics.BucketWidth) ([]analytics.Bucket, error)
	Statistics(ctx context.Context, filter telemetry.Filter) (analytics.Statistics, error)
}

// AnalyticsService serves aggregation and statistics queries. Query
// failures propagate; they are never masked as empty results.
type AnalyticsService struct {
	reader AggregateReader
}

// NewAnalyticsService constructs a service.
func NewAnalyticsService(reader AggregateReader) (*AnalyticsService, error) {
	if reader == nil {
		return nil, errors.New("analytics service: nil reader")
	}
	return &AnalyticsService{reader: reader}, nil
}

// Aggregate buckets filtered measurements by the named aggregation type.
func (s *AnalyticsService) Aggregate(ctx context.Context, filter telemetry.Filter, aggregationType string) ([]analytics.Bucket, error) {
	width, err := analytics.ParseBucketWidth(aggregationType)
	if err != nil {
		return nil, err
	}
	return s.reader.Aggregate(ctx, filter, width)
}

// GetStatistics computes the global summary of the filtered set. Always a
// well-formed numeric result; an empty set yields zeros.
func (s *AnalyticsService) GetStatistics(ctx context.Context, filter telemetry.Filter) (analytics.Statistics, error) {
	return s.reader.Statistics(ctx, filter)
}
