package seed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	telemetry "energy-monitor/internal/telemetry/domain"
)

type recordingIngester struct {
	ingested []telemetry.IngestData
	failFor  string
}

func (r *recordingIngester) Ingest(ctx context.Context, data telemetry.IngestData) (*telemetry.Measurement, error) {
	if r.failFor != "" && data.SensorID == r.failFor {
		return nil, errors.New("simulated ingest failure")
	}
	r.ingested = append(r.ingested, data)
	return &telemetry.Measurement{ID: "m", SensorID: data.SensorID}, nil
}

func writeSeedFixture(t *testing.T, items []Item) string {
	t.Helper()
	dir := t.TempDir()

	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal items: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "measurements.json"), data, 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}

	manifest := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(manifest, []byte("files:\n  - measurements.json\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return manifest
}

func fixtureItems() []Item {
	return []Item{
		{WorkCenter: "Plant North", Area: "Assembly", SensorID: "S-001", Voltage: 220, Current: 5, Date: "2024-03-01", Time: "10:15:00"},
		{WorkCenter: "Plant North", Area: "Assembly", SensorID: "S-002", Voltage: 221, Current: 5.5, Date: "2024-03-01", Time: "10:30:00"},
		{WorkCenter: "Plant South", Area: "Packing", SensorID: "S-003", Voltage: 219, Current: 4.8, Date: "2024-03-01", Time: "10:45:00"},
	}
}

func TestSeeder_PopulateAll(t *testing.T) {
	manifest := writeSeedFixture(t, fixtureItems())
	ingester := &recordingIngester{}
	seeder, err := NewSeeder(manifest, ingester, zerolog.Nop())
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}

	report, err := seeder.Populate(context.Background())
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if report.TotalProcessed != 3 || report.TotalSucceeded != 3 {
		t.Fatalf("expected 3/3, got %d/%d", report.TotalSucceeded, report.TotalProcessed)
	}
	if len(ingester.ingested) != 3 {
		t.Fatalf("expected 3 ingested items, got %d", len(ingester.ingested))
	}

	first := ingester.ingested[0]
	if first.Date.UTC().Format("2006-01-02 15:04:05") != "2024-03-01 10:15:00" {
		t.Fatalf("expected combined UTC instant, got %v", first.Date)
	}
}

func TestSeeder_SkipsFailedItems(t *testing.T) {
	manifest := writeSeedFixture(t, fixtureItems())
	ingester := &recordingIngester{failFor: "S-002"}
	seeder, err := NewSeeder(manifest, ingester, zerolog.Nop())
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}

	report, err := seeder.Populate(context.Background())
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if report.TotalProcessed != 3 || report.TotalSucceeded != 2 {
		t.Fatalf("expected 2/3, got %d/%d", report.TotalSucceeded, report.TotalProcessed)
	}
}

func TestSeeder_SkipsMalformedDates(t *testing.T) {
	items := fixtureItems()
	items[1].Date = "not-a-date"
	manifest := writeSeedFixture(t, items)
	ingester := &recordingIngester{}
	seeder, err := NewSeeder(manifest, ingester, zerolog.Nop())
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}

	report, err := seeder.Populate(context.Background())
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if report.TotalProcessed != 3 || report.TotalSucceeded != 2 {
		t.Fatalf("expected 2/3, got %d/%d", report.TotalSucceeded, report.TotalProcessed)
	}
}

func TestSeeder_MissingManifest(t *testing.T) {
	seeder, err := NewSeeder(filepath.Join(t.TempDir(), "absent.yaml"), &recordingIngester{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}
	if _, err := seeder.Populate(context.Background()); err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
}

func TestHandler_Post(t *testing.T) {
	manifest := writeSeedFixture(t, fixtureItems())
	ingester := &recordingIngester{}
	seeder, err := NewSeeder(manifest, ingester, zerolog.Nop())
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}
	handler := NewHandler(seeder, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var report Report
	if err := json.Unmarshal(resp.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if report.TotalSucceeded != 3 {
		t.Fatalf("expected 3 succeeded, got %d", report.TotalSucceeded)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/seed", nil)
	getResp := httptest.NewRecorder()
	handler.ServeHTTP(getResp, get)
	if getResp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", getResp.Code)
	}
}
