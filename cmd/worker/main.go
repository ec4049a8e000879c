package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/repository/postgres"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging/redis"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/worker"
)

// pinger is satisfied by *sqlx.DB
type pinger interface {
	PingContext(ctx context.Context) error
}

func setupHealthCheck(addr string, db pinger, registry *promclient.Registry, appLogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("Worker failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	appLogger := logger.NewLogger(cfg.Log.ToLoggerConfig()).WithFields(map[string]interface{}{
		"component": "outbox-worker",
	})
	log.Logger = *appLogger.Zerolog()

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("the outbox worker requires the %s driver", config.DriverPostgres)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database.ToPostgresConfig())
	if err != nil {
		return err
	}
	defer db.Close()
	store := postgres.NewStore(db)

	broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), appLogger)
	if err != nil {
		return err
	}
	defer broker.Close()

	registry := promclient.NewRegistry()
	m := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	processor, err := worker.NewOutboxProcessor(store, broker, cfg.Outbox.ToWorkerConfig(), appLogger, m)
	if err != nil {
		return err
	}
	cleanup := worker.NewOutboxCleanupWorker(store.Outbox(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, appLogger)

	health := setupHealthCheck(fmt.Sprintf(":%d", cfg.Metrics.Port), db, registry, appLogger)

	go cleanup.Start(ctx)
	appLogger.Info("Outbox worker started", "batch_size", cfg.Outbox.BatchSize, "poll_interval", cfg.Outbox.PollInterval.String())
	processor.Start(ctx)

	appLogger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return health.Shutdown(shutdownCtx)
}
