package telemetry

import "time"

// Filter narrows measurement queries. Dates select whole calendar days:
// the range is inclusive on both ends, a lone StartDate selects exactly
// that day, a lone EndDate selects everything up to that day's end.
type Filter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	SensorID     string
	AreaID       string
	WorkCenterID string
	Page         Page
}

// DateRange expands the filter dates into concrete inclusive bounds.
// Either bound may be nil when unconstrained.
func (f Filter) DateRange() (from, to *time.Time) {
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		start := StartOfDay(*f.StartDate)
		end := EndOfDay(*f.EndDate)
		return &start, &end
	case f.StartDate != nil:
		start := StartOfDay(*f.StartDate)
		end := EndOfDay(*f.StartDate)
		return &start, &end
	case f.EndDate != nil:
		end := EndOfDay(*f.EndDate)
		return nil, &end
	}
	return nil, nil
}

// StartOfDay truncates an instant to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of the day in UTC, so an
// inclusive <= bound still matches a measurement dated exactly at day end.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
