package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"energy-monitor/internal/eventing"
	"energy-monitor/internal/telemetry/application/events"
	telemetry "energy-monitor/internal/telemetry/domain"
)

// ValidationError carries the offending fields of a rejected ingest.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("measurement service: invalid ingest data: %v", e.Fields)
}

// MeasurementService is the ingestion and query facade over the
// measurement repository. After a successful ingest it publishes a
// MeasurementReceived event; delivery is fire-and-forget and never fails
// the ingestion.
type MeasurementService struct {
	repo   telemetry.MeasurementRepository
	bus    eventing.EventBus
	logger zerolog.Logger
}

// NewMeasurementService constructs a service. The bus may be nil when no
// real-time fan-out is wired (tests, batch tools).
func NewMeasurementService(repo telemetry.MeasurementRepository, bus eventing.EventBus, logger zerolog.Logger) (*MeasurementService, error) {
	if repo == nil {
		return nil, errors.New("measurement service: nil repository")
	}
	return &MeasurementService{repo: repo, bus: bus, logger: logger}, nil
}

// Ingest validates and persists one reading, resolving the hierarchy
// lazily, then notifies subscribers.
func (s *MeasurementService) Ingest(ctx context.Context, data telemetry.IngestData) (*telemetry.Measurement, error) {
	if fields := data.Validate(); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	m, err := s.repo.CreateWithHierarchy(ctx, data)
	if err != nil {
		return nil, err
	}

	s.publishReceived(ctx, *m)
	return m, nil
}

// Create persists a reading for an already resolved sensor.
func (s *MeasurementService) Create(ctx context.Context, data telemetry.CreateMeasurementData) (*telemetry.Measurement, error) {
	if data.SensorID == "" || data.Voltage <= 0 || data.Current <= 0 || data.Date.IsZero() {
		return nil, errors.New("measurement service: invalid create data")
	}

	m, err := s.repo.Create(ctx, data)
	if err != nil {
		return nil, err
	}

	s.publishReceived(ctx, *m)
	return m, nil
}

// FindOne returns telemetry.ErrMeasurementNotFound for an unknown id.
func (s *MeasurementService) FindOne(ctx context.Context, id string) (*telemetry.Measurement, error) {
	if id == "" {
		return nil, telemetry.ErrMeasurementNotFound
	}
	return s.repo.FindOne(ctx, id)
}

// FindMany returns a filtered paginated listing.
func (s *MeasurementService) FindMany(ctx context.Context, filter telemetry.Filter) (*telemetry.PaginatedMeasurements, error) {
	return s.repo.FindMany(ctx, filter)
}

// FindBySensor lists by sensor row id.
func (s *MeasurementService) FindBySensor(ctx context.Context, sensorID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return s.repo.FindBySensor(ctx, sensorID, page)
}

// FindByArea lists by area id.
func (s *MeasurementService) FindByArea(ctx context.Context, areaID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return s.repo.FindByArea(ctx, areaID, page)
}

// FindByWorkCenter lists by work center id.
func (s *MeasurementService) FindByWorkCenter(ctx context.Context, workCenterID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return s.repo.FindByWorkCenter(ctx, workCenterID, page)
}

func (s *MeasurementService) publishReceived(ctx context.Context, m telemetry.Measurement) {
	if s.bus == nil {
		return
	}
	event := events.MeasurementReceived{
		EventID:     eventing.NewEventID(),
		Measurement: m,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("measurement_id", m.ID).Msg("measurement event publish failed")
	}
}

// CombineDateTime builds the measurement instant from the separate date and
// time strings of the ingestion contract, interpreted in UTC.
func CombineDateTime(date, clock string) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, errors.New("measurement service: empty date or time")
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", date+"T"+clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("measurement service: parse date/time: %w", err)
	}
	return t, nil
}
