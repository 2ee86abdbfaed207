package masterdata

import (
	"context"
	"time"
)

// WorkCenter is the root of the location hierarchy. Names are unique.
type WorkCenter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Areas []Area `json:"areas,omitempty"`
}

// Area is a sub-location within a work center. Unique on (name, workCenterId).
type Area struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	WorkCenterID string    `json:"workCenterId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Sensors []Sensor `json:"sensors,omitempty"`
}

// Sensor is a measuring device scoped to one area. Unique on (sensorId, areaId).
// SensorID is the external device identifier; ID is the stable row identifier.
type Sensor struct {
	ID        string    `json:"id"`
	SensorID  string    `json:"sensorId"`
	AreaID    string    `json:"areaId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResolvedHierarchy carries the stable identifiers of a resolved chain.
type ResolvedHierarchy struct {
	WorkCenterID string
	AreaID       string
	SensorID     string
}

// WorkCenterRepository resolves and lists work centers.
type WorkCenterRepository interface {
	// FindOrCreate returns the work center with the given name, creating it
	// if absent. Concurrent calls with the same name converge to one row.
	FindOrCreate(ctx context.Context, name string) (*WorkCenter, error)
	// FindAll returns all work centers with nested areas and sensors.
	FindAll(ctx context.Context) ([]WorkCenter, error)
}

// AreaRepository resolves areas scoped to a work center.
type AreaRepository interface {
	FindOrCreate(ctx context.Context, name, workCenterID string) (*Area, error)
}

// SensorRepository resolves sensors scoped to an area.
type SensorRepository interface {
	FindOrCreate(ctx context.Context, sensorID, areaID string) (*Sensor, error)
}
