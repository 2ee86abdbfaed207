package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	analyticsapp "energy-monitor/internal/analytics/application"
	analytics "energy-monitor/internal/analytics/domain"
	telemetry "energy-monitor/internal/telemetry/domain"
	"energy-monitor/internal/telemetry/infrastructure/memory"
)

func seedStore(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	readings := []struct {
		clock   string
		voltage float64
		current float64
	}{
		{"10:05:00", 220, 4},
		{"10:40:00", 222, 6},
		{"11:10:00", 230, 7},
	}
	for _, reading := range readings {
		date, err := time.Parse("2006-01-02 15:04:05", "2024-03-01 "+reading.clock)
		if err != nil {
			t.Fatalf("parse date: %v", err)
		}
		_, err = store.CreateWithHierarchy(ctx, telemetry.IngestData{
			WorkCenter: "Plant North",
			Area:       "Assembly",
			SensorID:   "S-001",
			Voltage:    reading.voltage,
			Current:    reading.current,
			Date:       date.UTC(),
		})
		if err != nil {
			t.Fatalf("seed measurement: %v", err)
		}
	}
}

func newAggregatedMux(t *testing.T) (*http.ServeMux, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	service, err := analyticsapp.NewAnalyticsService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	aggregated, err := NewAggregatedHandler(service, zerolog.Nop())
	if err != nil {
		t.Fatalf("new aggregated handler: %v", err)
	}
	stats, err := NewStatisticsHandler(service, zerolog.Nop())
	if err != nil {
		t.Fatalf("new statistics handler: %v", err)
	}
	exports, err := NewExportsHandler(store, service, zerolog.Nop())
	if err != nil {
		t.Fatalf("new exports handler: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/measurements/aggregated", aggregated)
	mux.Handle("/api/v1/statistics", stats)
	exports.Register(mux)
	return mux, store
}

func TestAggregatedHandler_HourBuckets(t *testing.T) {
	mux, store := newAggregatedMux(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/measurements/aggregated?aggregationType=hour", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var buckets []analytics.Bucket
	if err := json.Unmarshal(resp.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 hour buckets, got %d", len(buckets))
	}

	first := buckets[0]
	if first.Count != 2 {
		t.Fatalf("expected 2 readings in the 10:00 bucket, got %d", first.Count)
	}
	if first.AvgVoltage != 221 || first.MinVoltage != 220 || first.MaxVoltage != 222 {
		t.Fatalf("unexpected voltage aggregates: %+v", first)
	}
	if first.AvgCurrent != 5 || first.MinCurrent != 4 || first.MaxCurrent != 6 {
		t.Fatalf("unexpected current aggregates: %+v", first)
	}
	if !buckets[0].Timestamp.Before(buckets[1].Timestamp) {
		t.Fatal("expected buckets in ascending order")
	}
}

func TestAggregatedHandler_DefaultsToHour(t *testing.T) {
	mux, store := newAggregatedMux(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/measurements/aggregated", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var buckets []analytics.Bucket
	if err := json.Unmarshal(resp.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected hour bucketing by default, got %d buckets", len(buckets))
	}
}

func TestAggregatedHandler_UnknownType(t *testing.T) {
	mux, _ := newAggregatedMux(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/measurements/aggregated?aggregationType=month", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStatisticsHandler_EmptySetYieldsZeros(t *testing.T) {
	mux, _ := newAggregatedMux(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var stats analytics.Statistics
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.Voltage.Avg != 0 || stats.Current.Max != 0 {
		t.Fatalf("expected zeroed statistics, got %+v", stats)
	}
}

func TestStatisticsHandler_Summary(t *testing.T) {
	mux, store := newAggregatedMux(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var stats analytics.Statistics
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.Voltage.Min != 220 || stats.Voltage.Max != 230 {
		t.Fatalf("unexpected voltage stats: %+v", stats.Voltage)
	}
	if stats.Voltage.Avg != 224 {
		t.Fatalf("expected avg voltage 224, got %v", stats.Voltage.Avg)
	}
}

func TestExports_MeasurementsCSV(t *testing.T) {
	mux, store := newAggregatedMux(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/measurements.csv", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,date,voltage,current") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Plant North") {
		t.Fatalf("expected denormalized hierarchy in rows: %s", lines[1])
	}
}

func TestExports_AggregatedXLSX(t *testing.T) {
	mux, store := newAggregatedMux(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/aggregated.xlsx?aggregationType=day", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("expected a non-empty workbook")
	}
	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestExports_StatisticsPDF(t *testing.T) {
	mux, store := newAggregatedMux(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/statistics.pdf", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if !strings.HasPrefix(resp.Body.String(), "%PDF") {
		t.Fatal("expected a PDF payload")
	}
}
