package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/email"
	appointmenthandler "github.com/jwalitptl/booking-api/internal/handler/appointment"
	doctorhandler "github.com/jwalitptl/booking-api/internal/handler/doctor"
	"github.com/jwalitptl/booking-api/internal/handler/health"
	notificationhandler "github.com/jwalitptl/booking-api/internal/handler/notification"
	profilehandler "github.com/jwalitptl/booking-api/internal/handler/profile"
	"github.com/jwalitptl/booking-api/internal/handler/prometheus"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/router"
	"github.com/jwalitptl/booking-api/internal/service/appointment"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	"github.com/jwalitptl/booking-api/internal/service/profile"
	"github.com/jwalitptl/booking-api/internal/service/projection"
	"github.com/jwalitptl/booking-api/internal/service/reference"
	"github.com/jwalitptl/booking-api/internal/service/slot"
	"github.com/jwalitptl/booking-api/pkg/auth"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/push"
	"github.com/jwalitptl/booking-api/pkg/security"
	"github.com/jwalitptl/booking-api/pkg/worker"
)

func serveCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load demo data before serving (useful with the memory driver)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, seed bool) error {
	appLogger := logger.NewLogger(cfg.Log.ToLoggerConfig())
	log.Logger = *appLogger.Zerolog()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := auth.NewJWTProvider(cfg.JWT.ToAuthConfig())
	if err != nil {
		return err
	}
	if seed {
		if _, err := seedStore(ctx, store, tokens, defaultSeedOptions()); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
	}

	if err := middleware.RegisterValidators(); err != nil {
		return err
	}

	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	pool := worker.NewPool(cfg.Notifications.ToPoolConfig(), appLogger, m)
	pool.Start()

	// no outbox worker can reach an in-process store
	if cfg.Database.Driver == config.DriverMemory {
		if err := startLocalOutbox(ctx, store, cfg.Outbox, appLogger, m); err != nil {
			return err
		}
	}

	notifications := notification.NewService(store, buildSender(cfg, appLogger), pool, notification.Config{
		RetryAttempts: cfg.Notifications.RetryAttempts,
		RetryDelay:    cfg.Notifications.RetryDelay,
	}, appLogger, m)
	slots := slot.NewAllocator(store, m)
	appointments := appointment.NewService(store, slots, notifications, appointment.Config{
		ReleaseSlotOnDecline: cfg.Booking.ReleaseSlotOnDecline,
	}, appLogger, m)
	views := projection.NewService(store, appLogger)
	refs := reference.NewService(store, reference.Config{
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	profiles := profile.NewService(store, security.NewBcryptHasher(0), refs, appLogger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORS.AllowedOrigins
	cors.MaxAge = cfg.CORS.MaxAge
	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTS = cfg.Server.HSTS
	securityCfg.MaxBodyBytes = cfg.Server.MaxBodyBytes

	r := router.NewRouter(middleware.NewAuthMiddleware(tokens), router.Handlers{
		Health:  health.NewHandler(map[string]health.Pinger{"database": store}),
		Metrics: prometheus.New(cfg.Metrics.Namespace, registry),
		Public: []router.Handler{
			appointmenthandler.NewHandler(appointments, views),
			doctorhandler.NewHandler(refs, slots),
		},
		Protected: []router.Handler{
			appointmenthandler.NewCommandHandler(appointments),
			notificationhandler.NewHandler(notifications),
			profilehandler.NewHandler(profiles),
		},
	}, router.RouterConfig{
		RateLimit:  cfg.RateLimit.ToMiddlewareConfig(),
		CORSConfig: cors,
		Security:   securityCfg,
		Timeout:    middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
		Mode:       serverMode(cfg.Server.Mode),
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Server forced to shutdown")
	}
	// Drain queued deliveries before the store goes away
	if err := pool.Stop(shutdownCtx); err != nil {
		appLogger.Error(err, "Worker pool did not drain")
	}

	appLogger.Info("Server exited properly")
	return nil
}

// startLocalOutbox publishes outbox events to the log and trims them
// after retention, until ctx is done
func startLocalOutbox(ctx context.Context, store repository.Store, cfg config.OutboxConfig, appLogger *logger.Logger, m *metrics.Metrics) error {
	outboxLogger := appLogger.WithFields(map[string]interface{}{"component": "local-outbox"})
	processor, err := worker.NewOutboxProcessor(store, messaging.NewLogBroker(outboxLogger), cfg.ToWorkerConfig(), outboxLogger, m)
	if err != nil {
		return fmt.Errorf("failed to create outbox processor: %w", err)
	}
	cleanup := worker.NewOutboxCleanupWorker(store.Outbox(), cfg.Retention, cfg.CleanupInterval, outboxLogger)

	go processor.Start(ctx)
	go cleanup.Start(ctx)
	return nil
}

// buildSender chains every configured channel behind its own breaker.
// Without any channel deliveries are only logged.
func buildSender(cfg *config.Config, appLogger *logger.Logger) push.Sender {
	var senders []push.Sender
	if cfg.Push.FCM.Enabled() {
		fcm, err := push.NewFCMSender(context.Background(), cfg.Push.FCM.ToSenderConfig())
		if err != nil {
			appLogger.Error(err, "FCM channel disabled")
		} else {
			senders = append(senders, push.NewBreakerSender("fcm", fcm, appLogger))
		}
	}
	if cfg.Push.SMTP.Enabled() {
		mailer := email.NewSMTPService(cfg.Push.SMTP.ToEmailConfig())
		senders = append(senders, push.NewBreakerSender("smtp", push.NewMailSender(mailer), appLogger))
	}
	if len(senders) == 0 {
		appLogger.Warn("No push channel configured, deliveries will only be logged")
		return push.NewLogSender(appLogger)
	}
	return push.NewMultiSender(senders...)
}

func serverMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	}
	return gin.ReleaseMode
}
