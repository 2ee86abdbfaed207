package realtime

import (
	telemetry "energy-monitor/internal/telemetry/domain"
)

// Subscription narrows the measurements a client receives. Empty fields
// match everything at that level.
type Subscription struct {
	WorkCenterID string `json:"workCenterId,omitempty"`
	AreaID       string `json:"areaId,omitempty"`
	SensorID     string `json:"sensorId,omitempty"`
}

// Matches reports whether a measurement belongs to the subscribed scope.
func (s Subscription) Matches(m telemetry.Measurement) bool {
	if s.SensorID != "" && m.SensorID != s.SensorID {
		return false
	}
	if s.AreaID == "" && s.WorkCenterID == "" {
		return true
	}
	if m.Sensor == nil {
		return false
	}
	if s.AreaID != "" && m.Sensor.Area.ID != s.AreaID {
		return false
	}
	if s.WorkCenterID != "" && m.Sensor.Area.WorkCenter.ID != s.WorkCenterID {
		return false
	}
	return true
}
