package events

import (
	"time"

	telemetry "energy-monitor/internal/telemetry/domain"
)

// MeasurementReceived is raised after a measurement is committed. Carries
// the denormalized measurement so subscribers can match hierarchy filters
// without a lookup.
type MeasurementReceived struct {
	EventID     string                `json:"event_id"`
	Measurement telemetry.Measurement `json:"measurement"`
	OccurredAt  time.Time             `json:"occurred_at"`
}
