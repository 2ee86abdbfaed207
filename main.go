package main

import (
	"bufio"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	analyticsapp "energy-monitor/internal/analytics/application"
	analyticsrepo "energy-monitor/internal/analytics/infrastructure/postgres"
	analyticshttp "energy-monitor/internal/analytics/interfaces/http"
	"energy-monitor/internal/audit"
	"energy-monitor/internal/auth"
	authrepo "energy-monitor/internal/auth/infrastructure/postgres"
	authhttp "energy-monitor/internal/auth/interfaces/http"
	"energy-monitor/internal/config"
	"energy-monitor/internal/eventing"
	masterdatarepo "energy-monitor/internal/masterdata/infrastructure/postgres"
	masterdatahttp "energy-monitor/internal/masterdata/interfaces/http"
	"energy-monitor/internal/observability/metrics"
	"energy-monitor/internal/realtime"
	"energy-monitor/internal/seed"
	telemetryapp "energy-monitor/internal/telemetry/application"
	telemetryrepo "energy-monitor/internal/telemetry/infrastructure/postgres"
	telemetryhttp "energy-monitor/internal/telemetry/interfaces/http"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := config.Load(); err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	secret := []byte(config.JWTSecret())

	db, err := sql.Open("pgx", config.DatabaseURL())
	if err != nil {
		logger.Fatal().Err(err).Msg("db open error")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("db ping error")
	}

	metrics.Init(db)
	auditRepo := audit.NewRepository(db)
	bus := eventing.NewInMemoryBus()

	resolver := masterdatarepo.NewResolver()
	workCenterRepo := masterdatarepo.NewWorkCenterRepository(db)

	measurementRepo, err := telemetryrepo.NewMeasurementRepository(db, resolver)
	if err != nil {
		logger.Fatal().Err(err).Msg("measurement repository error")
	}
	measurementService, err := telemetryapp.NewMeasurementService(measurementRepo, bus, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("measurement service error")
	}

	aggregateRepo, err := analyticsrepo.NewAggregateRepository(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("aggregate repository error")
	}
	analyticsService, err := analyticsapp.NewAnalyticsService(aggregateRepo)
	if err != nil {
		logger.Fatal().Err(err).Msg("analytics service error")
	}

	authService, err := auth.NewService(
		authrepo.NewUserRepository(db),
		authrepo.NewAPIKeyRepository(db),
		secret,
		config.TokenTTL(),
		config.BcryptCost(),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth service error")
	}

	hub := realtime.NewHub(secret, config.WSSendBuffer(), logger)
	if err := realtime.SubscribeHub(bus, hub); err != nil {
		logger.Fatal().Err(err).Msg("realtime wiring error")
	}

	seeder, err := seed.NewSeeder(config.SeedManifest(), measurementService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seeder error")
	}

	measurementsHandler, err := telemetryhttp.NewHandler(measurementService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("measurements handler error")
	}
	aggregatedHandler, err := analyticshttp.NewAggregatedHandler(analyticsService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("aggregated handler error")
	}
	statisticsHandler, err := analyticshttp.NewStatisticsHandler(analyticsService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("statistics handler error")
	}
	exportsHandler, err := analyticshttp.NewExportsHandler(measurementService, analyticsService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("exports handler error")
	}
	workCentersHandler, err := masterdatahttp.NewWorkCentersHandler(workCenterRepo, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("work centers handler error")
	}
	authHandler, err := authhttp.NewHandler(authService, auditRepo, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth handler error")
	}

	// /ws is exempt as an exact path only; the hub checks the token itself.
	policy := auth.NewDefaultPolicy(
		[]string{"/api/v1/auth/sign-up", "/api/v1/auth/sign-in", "/healthz", "/metrics", "/ws"},
		[]string{"/api/v1/measurements"},
		nil,
	)
	authMiddleware := auth.NewMiddleware(secret, policy, authService)

	mux := http.NewServeMux()
	measurementsHandler.Register(mux)
	// Longer patterns win over the /api/v1/measurements/ prefix route.
	mux.Handle("/api/v1/measurements/aggregated", aggregatedHandler)
	mux.Handle("/api/v1/statistics", statisticsHandler)
	exportsHandler.Register(mux)
	mux.Handle("/api/v1/work-centers", workCentersHandler)
	authHandler.Register(mux)
	mux.Handle("/api/v1/seed", seed.NewHandler(seeder, logger))
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := loggingMiddleware(corsMiddleware(authMiddleware.Wrap(mux), config.FrontendURL()), logger)
	server := &http.Server{Addr: config.HTTPAddr(), Handler: handler}
	logger.Info().Str("addr", config.HTTPAddr()).Msg("http listening")
	logger.Fatal().Err(server.ListenAndServe()).Msg("http server stopped")
}

func loggingMiddleware(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func corsMiddleware(next http.Handler, frontendURL string) http.Handler {
	if frontendURL == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", frontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, x-api-key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack keeps WebSocket upgrades working through the logging wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
