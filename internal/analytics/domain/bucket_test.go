package analytics

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func TestParseBucketWidth(t *testing.T) {
	cases := map[string]BucketWidth{
		"15min": Bucket15Min,
		"hour":  BucketHour,
		"day":   BucketDay,
		"week":  BucketWeek,
	}
	for name, want := range cases {
		got, err := ParseBucketWidth(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: expected %d, got %d", name, want, got)
		}
	}

	if _, err := ParseBucketWidth("month"); !errors.Is(err, ErrUnknownBucketWidth) {
		t.Fatalf("expected ErrUnknownBucketWidth, got %v", err)
	}
}

func TestBucketWidth_KeyFloors(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 44, 59, 0, time.UTC)
	key := Bucket15Min.Key(at)
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC).UnixMilli()
	if key != want {
		t.Fatalf("expected %d, got %d", want, key)
	}

	// An instant exactly on a boundary keys to itself.
	boundary := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	if got := BucketHour.Key(boundary); got != boundary.UnixMilli() {
		t.Fatalf("expected boundary key %d, got %d", boundary.UnixMilli(), got)
	}

	// Pre-epoch instants still floor downward.
	before := time.Date(1969, 12, 31, 23, 59, 0, 0, time.UTC)
	if got := BucketHour.Key(before); got != -int64(BucketHour) {
		t.Fatalf("expected %d for a pre-epoch instant, got %d", -int64(BucketHour), got)
	}
}

func TestBucketSamples_HourWindow(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Date: base.Add(5 * time.Minute), Voltage: 220, Current: 4},
		{Date: base.Add(40 * time.Minute), Voltage: 222, Current: 6},
		{Date: base.Add(70 * time.Minute), Voltage: 230, Current: 7},
	}

	buckets := BucketSamples(samples, BucketHour)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}

	first := buckets[0]
	if !first.Timestamp.Equal(base) {
		t.Fatalf("expected bucket start %v, got %v", base, first.Timestamp)
	}
	if first.Count != 2 || first.AvgVoltage != 221 || first.MinVoltage != 220 || first.MaxVoltage != 222 {
		t.Fatalf("unexpected first bucket: %+v", first)
	}
	if first.AvgCurrent != 5 || first.MinCurrent != 4 || first.MaxCurrent != 6 {
		t.Fatalf("unexpected first bucket currents: %+v", first)
	}
}

func TestBucketSamples_CountConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, 500)
	for i := range samples {
		samples[i] = Sample{
			Date:    base.Add(time.Duration(rng.Intn(72)) * time.Hour),
			Voltage: 200 + rng.Float64()*40,
			Current: 1 + rng.Float64()*9,
		}
	}

	for _, width := range []BucketWidth{Bucket15Min, BucketHour, BucketDay, BucketWeek} {
		buckets := BucketSamples(samples, width)
		var total int64
		for i, b := range buckets {
			total += b.Count
			if b.MinVoltage > b.AvgVoltage || b.AvgVoltage > b.MaxVoltage {
				t.Fatalf("%s: min <= avg <= max violated: %+v", width, b)
			}
			if b.MinCurrent > b.AvgCurrent || b.AvgCurrent > b.MaxCurrent {
				t.Fatalf("%s: current ordering violated: %+v", width, b)
			}
			if i > 0 && !buckets[i-1].Timestamp.Before(b.Timestamp) {
				t.Fatalf("%s: buckets not strictly ascending", width)
			}
		}
		if total != int64(len(samples)) {
			t.Fatalf("%s: expected %d samples across buckets, got %d", width, len(samples), total)
		}
	}
}

func TestBucketSamples_OrderIndependent(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, 50)
	for i := range samples {
		samples[i] = Sample{
			Date:    base.Add(time.Duration(i*37) * time.Minute),
			Voltage: 210 + float64(i%13),
			Current: 2 + float64(i%7),
		}
	}

	forward := BucketSamples(samples, Bucket15Min)

	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if !reflect.DeepEqual(forward, BucketSamples(shuffled, Bucket15Min)) {
		t.Fatal("bucketing must not depend on input order")
	}
}

func TestMergeBuckets_MatchesSinglePass(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, 120)
	for i := range samples {
		samples[i] = Sample{
			Date:    base.Add(time.Duration(i*11) * time.Minute),
			Voltage: 215 + float64(i%9),
			Current: 3 + float64(i%4),
		}
	}

	whole := BucketSamples(samples, BucketHour)
	left := BucketSamples(samples[:70], BucketHour)
	right := BucketSamples(samples[70:], BucketHour)

	merged := MergeBuckets(left, right)
	if len(merged) != len(whole) {
		t.Fatalf("expected %d buckets, got %d", len(whole), len(merged))
	}
	for i := range merged {
		if !merged[i].Timestamp.Equal(whole[i].Timestamp) || merged[i].Count != whole[i].Count {
			t.Fatalf("bucket %d differs: %+v vs %+v", i, merged[i], whole[i])
		}
		if diff := merged[i].AvgVoltage - whole[i].AvgVoltage; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("bucket %d avg voltage differs: %v vs %v", i, merged[i].AvgVoltage, whole[i].AvgVoltage)
		}
		if merged[i].MinVoltage != whole[i].MinVoltage || merged[i].MaxVoltage != whole[i].MaxVoltage {
			t.Fatalf("bucket %d extremes differ", i)
		}
	}

	// Merge order must not matter.
	if !reflect.DeepEqual(MergeBuckets(left, right), MergeBuckets(right, left)) {
		t.Fatal("merge must be commutative")
	}
}

func TestStatisticsOf(t *testing.T) {
	if got := StatisticsOf(nil); got != (Statistics{}) {
		t.Fatalf("expected zeroed statistics on empty input, got %+v", got)
	}

	samples := []Sample{
		{Voltage: 220, Current: 4},
		{Voltage: 222, Current: 6},
		{Voltage: 230, Current: 7},
	}
	stats := StatisticsOf(samples)
	if stats.Voltage.Avg != 224 || stats.Voltage.Min != 220 || stats.Voltage.Max != 230 {
		t.Fatalf("unexpected voltage stats: %+v", stats.Voltage)
	}
	if stats.Current.Min != 4 || stats.Current.Max != 7 {
		t.Fatalf("unexpected current stats: %+v", stats.Current)
	}
}
