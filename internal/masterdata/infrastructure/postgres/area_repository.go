package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"

	masterdata "energy-monitor/internal/masterdata/domain"
)

// AreaRepository is a Postgres implementation for areas.
type AreaRepository struct {
	db Querier
}

// NewAreaRepository constructs a repository.
func NewAreaRepository(db Querier) *AreaRepository {
	return &AreaRepository{db: db}
}

// FindOrCreate upserts an area by (name, workCenterID).
func (r *AreaRepository) FindOrCreate(ctx context.Context, name, workCenterID string) (*masterdata.Area, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("area repo: nil db")
	}
	if name == "" || workCenterID == "" {
		return nil, errors.New("area repo: empty name or work center id")
	}

	const query = `
INSERT INTO ` + areaTable + ` (id, name, work_center_id)
VALUES ($1, $2, $3)
ON CONFLICT (name, work_center_id) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, work_center_id, created_at, updated_at`

	var area masterdata.Area
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), name, workCenterID).
		Scan(&area.ID, &area.Name, &area.WorkCenterID, &area.CreatedAt, &area.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &area, nil
}
