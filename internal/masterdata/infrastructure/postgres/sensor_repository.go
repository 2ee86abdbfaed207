package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"

	masterdata "energy-monitor/internal/masterdata/domain"
)

// SensorRepository is a Postgres implementation for sensors.
type SensorRepository struct {
	db Querier
}

// NewSensorRepository constructs a repository.
func NewSensorRepository(db Querier) *SensorRepository {
	return &SensorRepository{db: db}
}

// FindOrCreate upserts a sensor by (sensorID, areaID).
func (r *SensorRepository) FindOrCreate(ctx context.Context, sensorID, areaID string) (*masterdata.Sensor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sensor repo: nil db")
	}
	if sensorID == "" || areaID == "" {
		return nil, errors.New("sensor repo: empty sensor id or area id")
	}

	const query = `
INSERT INTO ` + sensorTable + ` (id, sensor_id, area_id)
VALUES ($1, $2, $3)
ON CONFLICT (sensor_id, area_id) DO UPDATE SET sensor_id = EXCLUDED.sensor_id
RETURNING id, sensor_id, area_id, created_at, updated_at`

	var sensor masterdata.Sensor
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), sensorID, areaID).
		Scan(&sensor.ID, &sensor.SensorID, &sensor.AreaID, &sensor.CreatedAt, &sensor.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sensor, nil
}
