package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// BucketWidth is a fixed aggregation window in milliseconds. Buckets are
// truncated toward the epoch, not calendar-aligned.
type BucketWidth int64

const (
	Bucket15Min BucketWidth = 15 * 60 * 1000
	BucketHour  BucketWidth = 60 * 60 * 1000
	BucketDay   BucketWidth = 24 * 60 * 60 * 1000
	BucketWeek  BucketWidth = 7 * 24 * 60 * 60 * 1000
)

// ErrUnknownBucketWidth is returned for an unsupported aggregation type.
var ErrUnknownBucketWidth = errors.New("analytics: unknown aggregation type")

// ParseBucketWidth maps an aggregation type name to its width.
func ParseBucketWidth(name string) (BucketWidth, error) {
	switch name {
	case "15min":
		return Bucket15Min, nil
	case "hour":
		return BucketHour, nil
	case "day":
		return BucketDay, nil
	case "week":
		return BucketWeek, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBucketWidth, name)
}

// String returns the aggregation type name.
func (w BucketWidth) String() string {
	switch w {
	case Bucket15Min:
		return "15min"
	case BucketHour:
		return "hour"
	case BucketDay:
		return "day"
	case BucketWeek:
		return "week"
	}
	return fmt.Sprintf("BucketWidth(%dms)", int64(w))
}

// Key returns the bucket key for an instant: floor(epoch_ms / width) * width.
func (w BucketWidth) Key(t time.Time) int64 {
	ms := t.UnixMilli()
	width := int64(w)
	key := ms / width * width
	if ms < 0 && ms%width != 0 {
		key -= width
	}
	return key
}

// Bucket is one aggregation window. Timestamp is the bucket start. Voltage
// and current extremes are selected independently per field.
type Bucket struct {
	Timestamp  time.Time `json:"timestamp"`
	AvgVoltage float64   `json:"avgVoltage"`
	MinVoltage float64   `json:"minVoltage"`
	MaxVoltage float64   `json:"maxVoltage"`
	AvgCurrent float64   `json:"avgCurrent"`
	MinCurrent float64   `json:"minCurrent"`
	MaxCurrent float64   `json:"maxCurrent"`
	Count      int64     `json:"count"`
}

// Sample is the minimal reading shape the pure-Go bucketing consumes.
type Sample struct {
	Date    time.Time
	Voltage float64
	Current float64
}

// BucketSamples groups samples into fixed windows and computes per-bucket
// summaries, ordered ascending by bucket start. Grouping is deterministic:
// any permutation of the input yields identical buckets.
func BucketSamples(samples []Sample, width BucketWidth) []Bucket {
	if width <= 0 {
		return nil
	}

	byKey := make(map[int64]*Bucket)
	for _, sample := range samples {
		key := width.Key(sample.Date)
		b := byKey[key]
		if b == nil {
			b = &Bucket{
				Timestamp:  time.UnixMilli(key).UTC(),
				MinVoltage: sample.Voltage,
				MaxVoltage: sample.Voltage,
				MinCurrent: sample.Current,
				MaxCurrent: sample.Current,
			}
			byKey[key] = b
		}
		if sample.Voltage < b.MinVoltage {
			b.MinVoltage = sample.Voltage
		}
		if sample.Voltage > b.MaxVoltage {
			b.MaxVoltage = sample.Voltage
		}
		if sample.Current < b.MinCurrent {
			b.MinCurrent = sample.Current
		}
		if sample.Current > b.MaxCurrent {
			b.MaxCurrent = sample.Current
		}
		// Averages accumulate as sums until the final pass.
		b.AvgVoltage += sample.Voltage
		b.AvgCurrent += sample.Current
		b.Count++
	}

	buckets := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		b.AvgVoltage /= float64(b.Count)
		b.AvgCurrent /= float64(b.Count)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Timestamp.Before(buckets[j].Timestamp)
	})
	return buckets
}

// MergeBuckets combines partial aggregates computed over disjoint subsets.
// Counts sum, extremes take min/max, averages are count-weighted, so merging
// commutes with a single pass over the union.
func MergeBuckets(partials ...[]Bucket) []Bucket {
	byKey := make(map[int64]*Bucket)
	for _, part := range partials {
		for _, b := range part {
			key := b.Timestamp.UnixMilli()
			existing := byKey[key]
			if existing == nil {
				merged := b
				byKey[key] = &merged
				continue
			}
			total := existing.Count + b.Count
			existing.AvgVoltage = (existing.AvgVoltage*float64(existing.Count) + b.AvgVoltage*float64(b.Count)) / float64(total)
			existing.AvgCurrent = (existing.AvgCurrent*float64(existing.Count) + b.AvgCurrent*float64(b.Count)) / float64(total)
			if b.MinVoltage < existing.MinVoltage {
				existing.MinVoltage = b.MinVoltage
			}
			if b.MaxVoltage > existing.MaxVoltage {
				existing.MaxVoltage = b.MaxVoltage
			}
			if b.MinCurrent < existing.MinCurrent {
				existing.MinCurrent = b.MinCurrent
			}
			if b.MaxCurrent > existing.MaxCurrent {
				existing.MaxCurrent = b.MaxCurrent
			}
			existing.Count = total
		}
	}

	merged := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		merged = append(merged, *b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}
