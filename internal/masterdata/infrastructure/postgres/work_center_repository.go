package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	masterdata "energy-monitor/internal/masterdata/domain"
)

// WorkCenterRepository is a Postgres implementation for work centers. It
// runs on any Querier so the resolver can use it inside the ingestion
// transaction.
type WorkCenterRepository struct {
	db Querier
}

// NewWorkCenterRepository constructs a repository.
func NewWorkCenterRepository(db Querier) *WorkCenterRepository {
	return &WorkCenterRepository{db: db}
}

// FindOrCreate upserts a work center by name and returns the surviving row.
// DO UPDATE with a no-op assignment so RETURNING yields the surviving row
// on conflict as well.
func (r *WorkCenterRepository) FindOrCreate(ctx context.Context, name string) (*masterdata.WorkCenter, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("work center repo: nil db")
	}
	if name == "" {
		return nil, errors.New("work center repo: empty name")
	}

	const query = `
INSERT INTO ` + workCenterTable + ` (id, name)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, created_at, updated_at`

	var wc masterdata.WorkCenter
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), name).
		Scan(&wc.ID, &wc.Name, &wc.CreatedAt, &wc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &wc, nil
}

// FindAll returns every work center with nested areas and sensors.
func (r *WorkCenterRepository) FindAll(ctx context.Context) ([]masterdata.WorkCenter, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("work center repo: nil db")
	}

	const query = `
SELECT
	wc.id, wc.name, wc.created_at, wc.updated_at,
	a.id, a.name, a.created_at, a.updated_at,
	s.id, s.sensor_id, s.created_at, s.updated_at
FROM ` + workCenterTable + ` wc
LEFT JOIN ` + areaTable + ` a ON a.work_center_id = wc.id
LEFT JOIN ` + sensorTable + ` s ON s.area_id = a.id
ORDER BY wc.name ASC, a.name ASC, s.sensor_id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	centers := make([]masterdata.WorkCenter, 0)
	centerIdx := make(map[string]int)
	areaIdx := make(map[string]int)

	for rows.Next() {
		var wc masterdata.WorkCenter
		var areaID, areaName sql.NullString
		var areaCreated, areaUpdated sql.NullTime
		var sensorID, sensorExternal sql.NullString
		var sensorCreated, sensorUpdated sql.NullTime

		if err := rows.Scan(
			&wc.ID, &wc.Name, &wc.CreatedAt, &wc.UpdatedAt,
			&areaID, &areaName, &areaCreated, &areaUpdated,
			&sensorID, &sensorExternal, &sensorCreated, &sensorUpdated,
		); err != nil {
			return nil, err
		}

		ci, ok := centerIdx[wc.ID]
		if !ok {
			centers = append(centers, wc)
			ci = len(centers) - 1
			centerIdx[wc.ID] = ci
		}
		if !areaID.Valid {
			continue
		}

		ai, ok := areaIdx[areaID.String]
		if !ok {
			centers[ci].Areas = append(centers[ci].Areas, masterdata.Area{
				ID:           areaID.String,
				Name:         areaName.String,
				WorkCenterID: wc.ID,
				CreatedAt:    areaCreated.Time,
				UpdatedAt:    areaUpdated.Time,
			})
			ai = len(centers[ci].Areas) - 1
			areaIdx[areaID.String] = ai
		}
		if !sensorID.Valid {
			continue
		}

		centers[ci].Areas[ai].Sensors = append(centers[ci].Areas[ai].Sensors, masterdata.Sensor{
			ID:        sensorID.String,
			SensorID:  sensorExternal.String,
			AreaID:    areaID.String,
			CreatedAt: sensorCreated.Time,
			UpdatedAt: sensorUpdated.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return centers, nil
}
