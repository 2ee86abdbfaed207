package postgres

import (
	"context"
	"errors"

	masterdata "energy-monitor/internal/masterdata/domain"
)

const (
	workCenterTable = "work_centers"
	areaTable       = "areas"
	sensorTable     = "sensors"
)

// Resolver idempotently resolves the work-center -> area -> sensor chain.
// Each level is an atomic upsert keyed on its uniqueness constraint, so
// concurrent calls with identical names converge to one row instead of
// racing a read-then-write.
type Resolver struct{}

// NewResolver constructs a resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve upserts all three hierarchy levels on the given querier. Run it on
// the ingestion transaction so a mid-sequence failure leaves no partial
// hierarchy.
func (r *Resolver) Resolve(ctx context.Context, q Querier, workCenterName, areaName, sensorExternalID string) (masterdata.ResolvedHierarchy, error) {
	var resolved masterdata.ResolvedHierarchy
	if q == nil {
		return resolved, errors.New("resolver: nil querier")
	}
	if workCenterName == "" || areaName == "" || sensorExternalID == "" {
		return resolved, errors.New("resolver: empty hierarchy name")
	}

	workCenter, err := NewWorkCenterRepository(q).FindOrCreate(ctx, workCenterName)
	if err != nil {
		return resolved, err
	}
	area, err := NewAreaRepository(q).FindOrCreate(ctx, areaName, workCenter.ID)
	if err != nil {
		return resolved, err
	}
	sensor, err := NewSensorRepository(q).FindOrCreate(ctx, sensorExternalID, area.ID)
	if err != nil {
		return resolved, err
	}

	resolved.WorkCenterID = workCenter.ID
	resolved.AreaID = area.ID
	resolved.SensorID = sensor.ID
	return resolved, nil
}
