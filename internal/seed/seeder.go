package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"energy-monitor/internal/observability/metrics"
	telemetryapp "energy-monitor/internal/telemetry/application"
	telemetry "energy-monitor/internal/telemetry/domain"
)

// Manifest lists the data files to load, relative to the manifest itself.
type Manifest struct {
	Files []string `yaml:"files"`
}

// Item is one measurement row in a seed data file. Date and Time follow the
// ingestion contract and are combined in UTC.
type Item struct {
	WorkCenter string  `json:"workCenter"`
	Area       string  `json:"area"`
	SensorID   string  `json:"sensorId"`
	Voltage    float64 `json:"voltage"`
	Current    float64 `json:"current"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
}

// Report summarizes a populate run.
type Report struct {
	TotalProcessed int `json:"totalProcessed"`
	TotalSucceeded int `json:"totalSucceeded"`
}

// Ingester accepts measurements for persistence.
type Ingester interface {
	Ingest(ctx context.Context, data telemetry.IngestData) (*telemetry.Measurement, error)
}

// Seeder loads demo measurements from manifest-listed data files.
type Seeder struct {
	manifestPath string
	ingester     Ingester
	logger       zerolog.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(manifestPath string, ingester Ingester, logger zerolog.Logger) (*Seeder, error) {
	if manifestPath == "" {
		return nil, fmt.Errorf("seed: empty manifest path")
	}
	if ingester == nil {
		return nil, fmt.Errorf("seed: nil ingester")
	}
	return &Seeder{manifestPath: manifestPath, ingester: ingester, logger: logger}, nil
}

// Populate runs every item through ingestion. A bad item is logged and
// skipped so one malformed row cannot abort the whole run.
func (s *Seeder) Populate(ctx context.Context) (*Report, error) {
	manifest, err := loadManifest(s.manifestPath)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	base := filepath.Dir(s.manifestPath)
	for _, file := range manifest.Files {
		items, err := loadItems(filepath.Join(base, file))
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			report.TotalProcessed++
			if err := s.ingest(ctx, item); err != nil {
				metrics.IncSeedItem(err)
				s.logger.Warn().Err(err).
					Str("file", file).
					Str("sensorId", item.SensorID).
					Msg("seed item skipped")
				continue
			}
			metrics.IncSeedItem(nil)
			report.TotalSucceeded++
		}
	}

	s.logger.Info().
		Int("processed", report.TotalProcessed).
		Int("succeeded", report.TotalSucceeded).
		Msg("seed run finished")
	return report, nil
}

func (s *Seeder) ingest(ctx context.Context, item Item) error {
	date, err := telemetryapp.CombineDateTime(item.Date, item.Time)
	if err != nil {
		return err
	}
	_, err = s.ingester.Ingest(ctx, telemetry.IngestData{
		WorkCenter: item.WorkCenter,
		Area:       item.Area,
		SensorID:   item.SensorID,
		Voltage:    item.Voltage,
		Current:    item.Current,
		Date:       date,
	})
	return err
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("seed: parse manifest: %w", err)
	}
	if len(manifest.Files) == 0 {
		return nil, fmt.Errorf("seed: manifest lists no files")
	}
	return &manifest, nil
}

func loadItems(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read data file: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("seed: parse data file %s: %w", filepath.Base(path), err)
	}
	return items, nil
}
