package postgres

import (
	"fmt"
	"strings"

	telemetry "energy-monitor/internal/telemetry/domain"
)

const (
	measurementTable = "measurements"
	sensorTable      = "sensors"
	areaTable        = "areas"
	workCenterTable  = "work_centers"
)

// MeasurementFrom is the measurement FROM clause with the hierarchy joined
// through. Area and work-center filters go through this chain, not a
// denormalized copy.
const MeasurementFrom = `
FROM ` + measurementTable + ` m
JOIN ` + sensorTable + ` s ON s.id = m.sensor_id
JOIN ` + areaTable + ` a ON a.id = s.area_id
JOIN ` + workCenterTable + ` wc ON wc.id = a.work_center_id`

// BuildFilterWhere composes the WHERE clause and args for a measurement
// filter against MeasurementFrom. Returns an empty clause when the filter
// has no conditions.
func BuildFilterWhere(filter telemetry.Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	from, to := filter.DateRange()
	if from != nil {
		add("m.date >= $%d", *from)
	}
	if to != nil {
		add("m.date <= $%d", *to)
	}
	if filter.SensorID != "" {
		add("m.sensor_id = $%d", filter.SensorID)
	}
	if filter.AreaID != "" {
		add("a.id = $%d", filter.AreaID)
	}
	if filter.WorkCenterID != "" {
		add("wc.id = $%d", filter.WorkCenterID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, "\n\tAND "), args
}
