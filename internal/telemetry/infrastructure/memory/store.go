package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	analytics "energy-monitor/internal/analytics/domain"
	masterdata "energy-monitor/internal/masterdata/domain"
	telemetry "energy-monitor/internal/telemetry/domain"
)

type areaKey struct {
	name         string
	workCenterID string
}

type sensorKey struct {
	sensorID string
	areaID   string
}

// Store is an in-memory implementation of the measurement repository, the
// hierarchy repositories and the aggregate reader, for tests and demos.
type Store struct {
	mu sync.RWMutex

	workCentersByName map[string]*masterdata.WorkCenter
	areasByKey        map[areaKey]*masterdata.Area
	sensorsByKey      map[sensorKey]*masterdata.Sensor
	sensorsByID       map[string]*masterdata.Sensor
	areasByID         map[string]*masterdata.Area
	workCentersByID   map[string]*masterdata.WorkCenter

	measurements []telemetry.Measurement

	now func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		workCentersByName: make(map[string]*masterdata.WorkCenter),
		areasByKey:        make(map[areaKey]*masterdata.Area),
		sensorsByKey:      make(map[sensorKey]*masterdata.Sensor),
		sensorsByID:       make(map[string]*masterdata.Sensor),
		areasByID:         make(map[string]*masterdata.Area),
		workCentersByID:   make(map[string]*masterdata.WorkCenter),
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// FindOrCreate resolves a work center by name.
func (s *Store) FindOrCreate(ctx context.Context, name string) (*masterdata.WorkCenter, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	wc := s.findOrCreateWorkCenter(name)
	clone := *wc
	return &clone, nil
}

// FindAll returns the work-center tree.
func (s *Store) FindAll(ctx context.Context) ([]masterdata.WorkCenter, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	centers := make([]masterdata.WorkCenter, 0, len(s.workCentersByName))
	for _, wc := range s.workCentersByName {
		node := *wc
		for _, area := range s.areasByKey {
			if area.WorkCenterID != wc.ID {
				continue
			}
			areaNode := *area
			for _, sensor := range s.sensorsByKey {
				if sensor.AreaID == area.ID {
					areaNode.Sensors = append(areaNode.Sensors, *sensor)
				}
			}
			sort.Slice(areaNode.Sensors, func(i, j int) bool {
				return areaNode.Sensors[i].SensorID < areaNode.Sensors[j].SensorID
			})
			node.Areas = append(node.Areas, areaNode)
		}
		sort.Slice(node.Areas, func(i, j int) bool { return node.Areas[i].Name < node.Areas[j].Name })
		centers = append(centers, node)
	}
	sort.Slice(centers, func(i, j int) bool { return centers[i].Name < centers[j].Name })
	return centers, nil
}

// Create inserts a measurement for an already resolved sensor row id.
func (s *Store) Create(ctx context.Context, data telemetry.CreateMeasurementData) (*telemetry.Measurement, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	sensor, ok := s.sensorsByID[data.SensorID]
	if !ok {
		return nil, telemetry.ErrMeasurementNotFound
	}
	m := s.insertMeasurement(data, sensor)
	return &m, nil
}

// CreateWithHierarchy resolves the chain and inserts the measurement.
func (s *Store) CreateWithHierarchy(ctx context.Context, data telemetry.IngestData) (*telemetry.Measurement, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	wc := s.findOrCreateWorkCenter(data.WorkCenter)
	area := s.findOrCreateArea(data.Area, wc.ID)
	sensor := s.findOrCreateSensor(data.SensorID, area.ID)

	m := s.insertMeasurement(telemetry.CreateMeasurementData{
		SensorID: sensor.ID,
		Voltage:  data.Voltage,
		Current:  data.Current,
		Date:     data.Date,
	}, sensor)
	return &m, nil
}

// FindOne loads one measurement by id.
func (s *Store) FindOne(ctx context.Context, id string) (*telemetry.Measurement, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.measurements {
		if s.measurements[i].ID == id {
			clone := s.measurements[i]
			return &clone, nil
		}
	}
	return nil, telemetry.ErrMeasurementNotFound
}

// FindMany returns a filtered paginated listing ordered by date.
func (s *Store) FindMany(ctx context.Context, filter telemetry.Filter) (*telemetry.PaginatedMeasurements, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(filter)
	page := filter.Page.Normalize()

	start := page.Offset()
	end := start + page.Limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return &telemetry.PaginatedMeasurements{
		Data: append([]telemetry.Measurement(nil), matched[start:end]...),
		Meta: telemetry.NewMeta(len(matched), page),
	}, nil
}

// FindBySensor lists measurements of one sensor row id.
func (s *Store) FindBySensor(ctx context.Context, sensorID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return s.FindMany(ctx, telemetry.Filter{SensorID: sensorID, Page: page})
}

// FindByArea lists measurements of one area.
func (s *Store) FindByArea(ctx context.Context, areaID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return s.FindMany(ctx, telemetry.Filter{AreaID: areaID, Page: page})
}

// FindByWorkCenter lists measurements of one work center.
func (s *Store) FindByWorkCenter(ctx context.Context, workCenterID string, page telemetry.Page) (*telemetry.PaginatedMeasurements, error) {
	return s.FindMany(ctx, telemetry.Filter{WorkCenterID: workCenterID, Page: page})
}

// Aggregate buckets the filtered measurements in memory.
func (s *Store) Aggregate(ctx context.Context, filter telemetry.Filter, width analytics.BucketWidth) ([]analytics.Bucket, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	return analytics.BucketSamples(s.samples(filter), width), nil
}

// Statistics computes the global summary of the filtered measurements.
func (s *Store) Statistics(ctx context.Context, filter telemetry.Filter) (analytics.Statistics, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	return analytics.StatisticsOf(s.samples(filter)), nil
}

func (s *Store) findOrCreateWorkCenter(name string) *masterdata.WorkCenter {
	if wc, ok := s.workCentersByName[name]; ok {
		return wc
	}
	now := s.now()
	wc := &masterdata.WorkCenter{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	s.workCentersByName[name] = wc
	s.workCentersByID[wc.ID] = wc
	return wc
}

func (s *Store) findOrCreateArea(name, workCenterID string) *masterdata.Area {
	key := areaKey{name: name, workCenterID: workCenterID}
	if area, ok := s.areasByKey[key]; ok {
		return area
	}
	now := s.now()
	area := &masterdata.Area{ID: uuid.NewString(), Name: name, WorkCenterID: workCenterID, CreatedAt: now, UpdatedAt: now}
	s.areasByKey[key] = area
	s.areasByID[area.ID] = area
	return area
}

func (s *Store) findOrCreateSensor(sensorID, areaID string) *masterdata.Sensor {
	key := sensorKey{sensorID: sensorID, areaID: areaID}
	if sensor, ok := s.sensorsByKey[key]; ok {
		return sensor
	}
	now := s.now()
	sensor := &masterdata.Sensor{ID: uuid.NewString(), SensorID: sensorID, AreaID: areaID, CreatedAt: now, UpdatedAt: now}
	s.sensorsByKey[key] = sensor
	s.sensorsByID[sensor.ID] = sensor
	return sensor
}

func (s *Store) insertMeasurement(data telemetry.CreateMeasurementData, sensor *masterdata.Sensor) telemetry.Measurement {
	now := s.now()
	area := s.areasByID[sensor.AreaID]
	wc := s.workCentersByID[area.WorkCenterID]

	m := telemetry.Measurement{
		ID:        uuid.NewString(),
		Voltage:   data.Voltage,
		Current:   data.Current,
		Date:      data.Date,
		CreatedAt: now,
		UpdatedAt: now,
		SensorID:  sensor.ID,
		Sensor: &telemetry.SensorView{
			ID:       sensor.ID,
			SensorID: sensor.SensorID,
			Area: telemetry.AreaView{
				ID:   area.ID,
				Name: area.Name,
				WorkCenter: telemetry.WorkCenterView{
					ID:   wc.ID,
					Name: wc.Name,
				},
			},
		},
	}
	s.measurements = append(s.measurements, m)
	return m
}

func (s *Store) matching(filter telemetry.Filter) []telemetry.Measurement {
	from, to := filter.DateRange()

	matched := make([]telemetry.Measurement, 0, len(s.measurements))
	for _, m := range s.measurements {
		if from != nil && m.Date.Before(*from) {
			continue
		}
		if to != nil && m.Date.After(*to) {
			continue
		}
		if filter.SensorID != "" && m.SensorID != filter.SensorID {
			continue
		}
		if filter.AreaID != "" && m.Sensor.Area.ID != filter.AreaID {
			continue
		}
		if filter.WorkCenterID != "" && m.Sensor.Area.WorkCenter.ID != filter.WorkCenterID {
			continue
		}
		matched = append(matched, m)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	return matched
}

func (s *Store) samples(filter telemetry.Filter) []analytics.Sample {
	matched := s.matching(filter)
	samples := make([]analytics.Sample, 0, len(matched))
	for _, m := range matched {
		samples = append(samples, analytics.Sample{Date: m.Date, Voltage: m.Voltage, Current: m.Current})
	}
	return samples
}
