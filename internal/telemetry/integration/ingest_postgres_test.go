package integration_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	analytics "energy-monitor/internal/analytics/domain"
	analyticsrepo "energy-monitor/internal/analytics/infrastructure/postgres"
	masterdatarepo "energy-monitor/internal/masterdata/infrastructure/postgres"
	telemetryrepo "energy-monitor/internal/telemetry/infrastructure/postgres"
	telemetry "energy-monitor/internal/telemetry/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestIngestAndAggregate_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "work_centers") ||
		!tableExists(db, "areas") ||
		!tableExists(db, "sensors") ||
		!tableExists(db, "measurements") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	workCenter := "it-plant"
	cleanupWorkCenter(ctx, db, workCenter)

	repo, err := telemetryrepo.NewMeasurementRepository(db, masterdatarepo.NewResolver())
	if err != nil {
		t.Fatalf("repository: %v", err)
	}

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	readings := []struct {
		offset  time.Duration
		voltage float64
		current float64
	}{
		{5 * time.Minute, 220, 4},
		{40 * time.Minute, 222, 6},
		{70 * time.Minute, 230, 7},
	}
	var first *telemetry.Measurement
	for _, reading := range readings {
		m, err := repo.CreateWithHierarchy(ctx, telemetry.IngestData{
			WorkCenter: workCenter,
			Area:       "it-area",
			SensorID:   "IT-S-001",
			Voltage:    reading.voltage,
			Current:    reading.current,
			Date:       base.Add(reading.offset),
		})
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if first == nil {
			first = m
		} else if m.SensorID != first.SensorID {
			t.Fatalf("hierarchy resolution not idempotent: %q vs %q", m.SensorID, first.SensorID)
		}
	}

	found, err := repo.FindOne(ctx, first.ID)
	if err != nil {
		t.Fatalf("find one: %v", err)
	}
	if found.Sensor == nil || found.Sensor.Area.WorkCenter.Name != workCenter {
		t.Fatalf("expected denormalized hierarchy, got %+v", found.Sensor)
	}

	page, err := repo.FindMany(ctx, telemetry.Filter{
		WorkCenterID: found.Sensor.Area.WorkCenter.ID,
		Page:         telemetry.Page{Page: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("find many: %v", err)
	}
	if page.Meta.Total != 3 {
		t.Fatalf("expected 3 readings, got %d", page.Meta.Total)
	}

	aggregates, err := analyticsrepo.NewAggregateRepository(db)
	if err != nil {
		t.Fatalf("aggregate repository: %v", err)
	}
	filter := telemetry.Filter{WorkCenterID: found.Sensor.Area.WorkCenter.ID}

	buckets, err := aggregates.Aggregate(ctx, filter, analytics.BucketHour)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 hour buckets, got %d", len(buckets))
	}
	if buckets[0].Count != 2 || buckets[0].AvgVoltage != 221 {
		t.Fatalf("unexpected first bucket: %+v", buckets[0])
	}

	stats, err := aggregates.Statistics(ctx, filter)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Voltage.Min != 220 || stats.Voltage.Max != 230 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}

func TestConcurrentIngestConverges_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "work_centers") ||
		!tableExists(db, "areas") ||
		!tableExists(db, "sensors") ||
		!tableExists(db, "measurements") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	workCenter := "it-plant-concurrent"
	cleanupWorkCenter(ctx, db, workCenter)

	repo, err := telemetryrepo.NewMeasurementRepository(db, masterdatarepo.NewResolver())
	if err != nil {
		t.Fatalf("repository: %v", err)
	}

	// All goroutines resolve the same names at once. The upserts must
	// converge to a single row per level with no duplicate-key failures.
	const writers = 8
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreateWithHierarchy(ctx, telemetry.IngestData{
				WorkCenter: workCenter,
				Area:       "it-area",
				SensorID:   "IT-S-100",
				Voltage:    220,
				Current:    5,
				Date:       base.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent ingest: %v", err)
	}

	counts := []struct {
		query string
		want  int
	}{
		{`SELECT count(*) FROM work_centers WHERE name = $1`, 1},
		{`SELECT count(*) FROM areas WHERE work_center_id IN
			(SELECT id FROM work_centers WHERE name = $1)`, 1},
		{`SELECT count(*) FROM sensors WHERE area_id IN
			(SELECT a.id FROM areas a
			 JOIN work_centers wc ON wc.id = a.work_center_id
			 WHERE wc.name = $1)`, 1},
		{`SELECT count(*) FROM measurements WHERE sensor_id IN
			(SELECT s.id FROM sensors s
			 JOIN areas a ON a.id = s.area_id
			 JOIN work_centers wc ON wc.id = a.work_center_id
			 WHERE wc.name = $1)`, writers},
	}
	for _, c := range counts {
		var got int
		if err := db.QueryRowContext(ctx, c.query, workCenter).Scan(&got); err != nil {
			t.Fatalf("count: %v", err)
		}
		if got != c.want {
			t.Fatalf("expected %d rows for %q, got %d", c.want, c.query, got)
		}
	}
}

func cleanupWorkCenter(ctx context.Context, db *sql.DB, workCenter string) {
	_, _ = db.ExecContext(ctx, `
DELETE FROM measurements WHERE sensor_id IN (
	SELECT s.id FROM sensors s
	JOIN areas a ON a.id = s.area_id
	JOIN work_centers wc ON wc.id = a.work_center_id
	WHERE wc.name = $1
)`, workCenter)
	_, _ = db.ExecContext(ctx, `
DELETE FROM sensors WHERE area_id IN (
	SELECT a.id FROM areas a
	JOIN work_centers wc ON wc.id = a.work_center_id
	WHERE wc.name = $1
)`, workCenter)
	_, _ = db.ExecContext(ctx, `
DELETE FROM areas WHERE work_center_id IN (SELECT id FROM work_centers WHERE name = $1)`, workCenter)
	_, _ = db.ExecContext(ctx, `DELETE FROM work_centers WHERE name = $1`, workCenter)
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
