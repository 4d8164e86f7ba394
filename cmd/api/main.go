package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curaflow/appointment-platform/internal/accounts"
	"github.com/curaflow/appointment-platform/internal/api/router"
	"github.com/curaflow/appointment-platform/internal/app/bootstrap"
	"github.com/curaflow/appointment-platform/internal/appointments"
	"github.com/curaflow/appointment-platform/internal/availability"
	appconfig "github.com/curaflow/appointment-platform/internal/config"
	"github.com/curaflow/appointment-platform/internal/observability/metrics"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting appointment-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	composer := bootstrap.BuildComposer(cfg, logger)
	lookup := accounts.NewLookup(pool)

	availabilitySvc := availability.NewService(
		availability.NewPostgresRepository(pool),
		lookup,
		composer,
		logger,
	)

	schedulingMetrics := metrics.NewSchedulingMetrics(prometheus.DefaultRegisterer)

	svc := appointments.NewService(appointments.ServiceDeps{
		Repo:         appointments.NewPostgresRepository(pool),
		Availability: availabilitySvc,
		Accounts:     lookup,
		Rooms:        bootstrap.BuildRoomProvider(cfg, redisClient, logger),
		Composer:     composer,
		Metrics:      schedulingMetrics,
		Logger:       logger,
		EarlyStart:   cfg.TeleconsultEarlyStart,
	})

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(svc, logger),
		MetricsHandler:      promhttp.Handler(),
		AuthSecret:          cfg.AuthJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
