package telemetry

import (
	"context"
	"errors"
	"time"
)

// ErrMeasurementNotFound is returned by point lookups with no matching row.
// Distinct from an empty listing.
var ErrMeasurementNotFound = errors.New("telemetry: measurement not found")

// Measurement is one voltage/current reading at an instant, tied to a
// sensor. Immutable once created.
type Measurement struct {
	ID        string    `json:"id"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	SensorID  string    `json:"sensorId"`

	// Sensor is the denormalized hierarchy view attached by queries.
	Sensor *SensorView `json:"sensor,omitempty"`
}

// SensorView is the denormalized sensor attached to query results.
type SensorView struct {
	ID       string   `json:"id"`
	SensorID string   `json:"sensorId"`
	Area     AreaView `json:"area"`
}

// AreaView is the denormalized area inside a SensorView.
type AreaView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	WorkCenter WorkCenterView `json:"workCenter"`
}

// WorkCenterView is the denormalized work center inside an AreaView.
type WorkCenterView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateMeasurementData creates a measurement against an already resolved
// sensor row id.
type CreateMeasurementData struct {
	SensorID string
	Voltage  float64
	Current  float64
	Date     time.Time
}

// IngestData is the primary ingestion input: raw hierarchy names plus the
// reading. SensorID here is the external device identifier.
type IngestData struct {
	WorkCenter string
	Area       string
	SensorID   string
	Voltage    float64
	Current    float64
	Date       time.Time
}

// Validate returns the offending fields, empty when the data is well formed.
// Voltage and current are strictly positive physical quantities.
func (d IngestData) Validate() []string {
	var fields []string
	if d.WorkCenter == "" {
		fields = append(fields, "workCenter must not be empty")
	}
	if d.Area == "" {
		fields = append(fields, "area must not be empty")
	}
	if d.SensorID == "" {
		fields = append(fields, "sensorId must not be empty")
	}
	if d.Voltage <= 0 {
		fields = append(fields, "voltage must be positive")
	}
	if d.Current <= 0 {
		fields = append(fields, "current must be positive")
	}
	if d.Date.IsZero() {
		fields = append(fields, "date must be a valid instant")
	}
	return fields
}

// MeasurementRepository persists and queries measurements.
type MeasurementRepository interface {
	// Create inserts a measurement for a resolved sensor.
	Create(ctx context.Context, data CreateMeasurementData) (*Measurement, error)
	// CreateWithHierarchy resolves the work-center/area/sensor chain and
	// inserts the measurement, all in one transaction.
	CreateWithHierarchy(ctx context.Context, data IngestData) (*Measurement, error)
	// FindOne returns ErrMeasurementNotFound when the id has no row.
	FindOne(ctx context.Context, id string) (*Measurement, error)
	FindMany(ctx context.Context, filter Filter) (*PaginatedMeasurements, error)
	FindBySensor(ctx context.Context, sensorID string, page Page) (*PaginatedMeasurements, error)
	FindByArea(ctx context.Context, areaID string, page Page) (*PaginatedMeasurements, error)
	FindByWorkCenter(ctx context.Context, workCenterID string, page Page) (*PaginatedMeasurements, error)
}
