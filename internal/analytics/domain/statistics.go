package analytics

// MetricStats is the global (non-bucketed) summary of one field.
type MetricStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Statistics is the summary of a filtered measurement set. An empty set
// yields zeros for every field, never a failure.
type Statistics struct {
	Voltage MetricStats `json:"voltage"`
	Current MetricStats `json:"current"`
}

// StatisticsOf computes global statistics over samples. Zero value on an
// empty input.
func StatisticsOf(samples []Sample) Statistics {
	var stats Statistics
	if len(samples) == 0 {
		return stats
	}

	stats.Voltage.Min = samples[0].Voltage
	stats.Voltage.Max = samples[0].Voltage
	stats.Current.Min = samples[0].Current
	stats.Current.Max = samples[0].Current

	var voltageSum, currentSum float64
	for _, sample := range samples {
		voltageSum += sample.Voltage
		currentSum += sample.Current
		if sample.Voltage < stats.Voltage.Min {
			stats.Voltage.Min = sample.Voltage
		}
		if sample.Voltage > stats.Voltage.Max {
			stats.Voltage.Max = sample.Voltage
		}
		if sample.Current < stats.Current.Min {
			stats.Current.Min = sample.Current
		}
		if sample.Current > stats.Current.Max {
			stats.Current.Max = sample.Current
		}
	}
	stats.Voltage.Avg = voltageSum / float64(len(samples))
	stats.Current.Avg = currentSum / float64(len(samples))
	return stats
}
