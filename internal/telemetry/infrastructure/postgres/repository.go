package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	mdpostgres "energy-monitor/internal/masterdata/infrastructure/postgres"
	telemetry "energy-monitor/internal/telemetry/domain"
)

const measurementSelect = `
SELECT
	m.id, m.voltage, m.current, m.date, m.created_at, m.updated_at, m.sensor_id,
	s.sensor_id,
	a.id, a.name,
	wc.id, wc.name` + MeasurementFrom

// MeasurementRepository is a Postgres implementation for measurements.
type MeasurementRepository struct {
	db       *sql.DB
	resolver *mdpostgres.Resolver
}

// NewMeasurementRepository constructs a repository.
func NewMeasurementRepository(db *sql.DB, resolver *mdpostgres.Resolver) (*MeasurementRepository, error) {
	if db == nil {
		return nil, errors.New("measurement repo: nil db")
	}
	if resolver == nil {
		return nil, errors.New("measurement repo: nil resolver")
	}
	return &MeasurementRepository{db: db, resolver: resolver}, nil
}

// Create inserts a measurement for an already resolved sensor row id.
func (r *MeasurementRepository) Create(ctx context.Context, data telemetry.CreateMeasurementData) (*telemetry.Measurement, error) {
	const query = `
INSERT INTO ` + measurementTable + ` (id, voltage, current, date, sensor_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, voltage, current, date, created_at, updated_at, sensor_id`

	var m telemetry.Measurement
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), data.Voltage, data.Current, data.Date, data.SensorID).
		Scan(&m.ID, &m.Voltage, &m.Current, &m.Date, &m.CreatedAt, &m.UpdatedAt, &m.SensorID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateWithHierarchy resolves the work-center/area/sensor chain and inserts
// the measurement inside one transaction. A failure at any step leaves no
// partial hierarchy and no orphan measurement.
func (r *MeasurementRepository) CreateWithHierarchy(ctx context.Context, data telemetry.IngestData) (*telemetry.Measurement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	resolved, err := r.resolver.Resolve(ctx, tx, data.WorkCenter, data.Area, data.SensorID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	const query = `
INSERT INTO ` + measurementTable + ` (id, voltage, current, date, sensor_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, voltage, current, date, created_at, updated_at, sensor_id`

	var m telemetry.Measurement
	err = tx.QueryRowContext(ctx, query, uuid.NewString(), data.Voltage, data.Current, data.Date, resolved.SensorID).
		Scan(&m.ID, &m.Voltage, &m.Current, &m.Date, &m.CreatedAt, &m.UpdatedAt, &m.SensorID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	m.Sensor = &telemetry.SensorView{
		ID:       resolved.SensorID,
		SensorID: data.SensorID,
		Area: telemetry.AreaView{
			ID:   resolved.AreaID,
			Name: data.Area,
			WorkCenter: telemetry.WorkCenterView{
				ID:   resolved.WorkCenterID,
				Name: data.WorkCenter,
			},
		},
	}
	return &m, nil
}

// FindOne loads one measurement with its denormalized hierarchy.
func (r *MeasurementRepository) FindOne(ctx context.Context, id string) (*telemetry.Measurement, error) {
	query := measurementSelect + "\nWHERE m.id = $1"

	m, err := scanMeasurement(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, telemetry.ErrMeasurementNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FindMany returns a filtered, paginated listing.
func (r *MeasurementRepository) FindMany(ctx context.Context, filter telemetry.Filter) (*telemetry.PaginatedMeasurements, error) {
	page := filter.Page.Normalize()
	where, args := BuildFilterWhere(filter)

	countQuery := "SELECT COUNT(*)" + MeasurementFrom + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQuery := fmt.Sprintf(
		"%s%s\nORDER BY m.date ASC, m.id ASC\nLIMIT $%d OFFSET $%d",
		measurementSelect, where, len(args)+1, len(args)+2,
	)
	listArgs := append(args, page.Limit, page.Offset())

	rows, err := r.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := make([]telemetry.Measurement, 0, page.Limit)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &telemetry.PaginatedMeasurements{
		Data: data,
		Meta: telemetry.NewMeta(total, page),
	}, nil
}

// FindBySensor lists measurements of one sensor row id.
func (r *MeasurementRepository) FindBySensor(ctx context.Context, sensorID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return r.FindMany(ctx, telemetry.Filter{SensorID: sensorID, Page: page})
}

// FindByArea lists measurements of one area, joined through the sensor.
func (r *MeasurementRepository) FindByArea(ctx context.Context, areaID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return r.FindMany(ctx, telemetry.Filter{AreaID: areaID, Page: page})
}

// FindByWorkCenter lists measurements of one work center, joined through
// sensor and area.
func (r *MeasurementRepository) FindByWorkCenter(ctx context.Context, workCenterID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return r.FindMany(ctx, telemetry.Filter{WorkCenterID: workCenterID, Page: page})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (*telemetry.Measurement, error) {
	var m telemetry.Measurement
	var sensor telemetry.SensorView
	err := row.Scan(
		&m.ID, &m.Voltage, &m.Current, &m.Date, &m.CreatedAt, &m.UpdatedAt, &m.SensorID,
		&sensor.SensorID,
		&sensor.Area.ID, &sensor.Area.Name,
		&sensor.Area.WorkCenter.ID, &sensor.Area.WorkCenter.Name,
	)
	if err != nil {
		return nil, err
	}
	sensor.ID = m.SensorID
	m.Sensor = &sensor
	return &m, nil
}
