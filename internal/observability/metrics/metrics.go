package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energymon_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	queryLatency *prometheus.HistogramVec

	wsClients       prometheus.Gauge
	wsBroadcasts    prometheus.Counter
	wsDroppedFrames prometheus.Counter

	seedItems *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges. A nil db
// skips the pool gauges (unit tests).
func Init(db *sql.DB) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Read endpoint latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "result"},
		)
		wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "ws_clients",
			Help: "Currently connected websocket clients",
		})
		wsBroadcasts = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "ws_broadcasts_total",
			Help: "Measurements broadcast to websocket clients",
		})
		wsDroppedFrames = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "ws_dropped_frames_total",
			Help: "Frames dropped because a client buffer was full",
		})
		seedItems = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "seed_items_total",
				Help: "Seed importer items by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			queryLatency,
			wsClients,
			wsBroadcasts,
			wsDroppedFrames,
			seedItems,
		)
		if db != nil {
			registerDBGauges(db)
		}
	})
}

func registerDBGauges(db *sql.DB) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "db_open_connections",
			Help: "Open connections in the database pool",
		},
		func() float64 { return float64(db.Stats().OpenConnections) },
	))
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "db_in_use_connections",
			Help: "Pool connections currently in use",
		},
		func() float64 { return float64(db.Stats().InUse) },
	))
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "db_idle_connections",
			Help: "Idle connections in the database pool",
		},
		func() float64 { return float64(db.Stats().Idle) },
	))
}

// ObserveIngest records one ingest request outcome.
func ObserveIngest(err error, started time.Time) {
	if ingestRequests == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	ingestRequests.WithLabelValues(result).Inc()
	ingestLatency.WithLabelValues(result).Observe(time.Since(started).Seconds())
}

// IncIngestError counts an ingest failure by reason.
func IncIngestError(reason string) {
	if ingestErrors == nil {
		return
	}
	ingestErrors.WithLabelValues(reason).Inc()
}

// ObserveQuery records one read endpoint outcome.
func ObserveQuery(endpoint string, err error, started time.Time) {
	if queryLatency == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	queryLatency.WithLabelValues(endpoint, result).Observe(time.Since(started).Seconds())
}

// WSClientConnected tracks a new websocket connection.
func WSClientConnected() {
	if wsClients != nil {
		wsClients.Inc()
	}
}

// WSClientDisconnected tracks a closed websocket connection.
func WSClientDisconnected() {
	if wsClients != nil {
		wsClients.Dec()
	}
}

// IncBroadcast counts one fan-out of a measurement.
func IncBroadcast() {
	if wsBroadcasts != nil {
		wsBroadcasts.Inc()
	}
}

// IncDroppedFrame counts a frame dropped on a slow client.
func IncDroppedFrame() {
	if wsDroppedFrames != nil {
		wsDroppedFrames.Inc()
	}
}

// IncSeedItem counts one seed importer item outcome.
func IncSeedItem(err error) {
	if seedItems == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	seedItems.WithLabelValues(result).Inc()
}
