package http

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taskapp/internal/adapter/http/routes"
	"taskapp/internal/adapter/telemetry"
	"taskapp/pkg/config"
	"taskapp/pkg/logger"
)

// StartServer serves the API until ctx is cancelled or SIGINT/SIGTERM arrives,
// then drains in-flight requests within the configured shutdown timeout.
func StartServer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.NewContainer(ctx, cfg, log.Zap())

	if err != nil {
		return err
	}

	container, err := NewContainer(ctx, cfg, log, tel)

	if err != nil {
		return err
	}

	defer container.Close()

	deps := routes.Dependencies{
		Resolver:    container.Resolver,
		RateLimiter: container.RateLimiter,
		Metrics:     tel.AppMetrics,
		Logger:      log,
		Config:      cfg,
	}

	if !tel.Enabled() {
		deps.MetricsHandler = tel.MetricsHandler()
	}

	router := routes.SetupRouter(routes.HandlersConfig{
		TaskHandler:   container.TaskHandler,
		HealthHandler: container.HealthHandler,
	}, deps)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Logger.Info("Server starting",
		zap.String("addr", srv.Addr),
		zap.String("environment", cfg.App.Environment),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.String("rate_limit_backend", cfg.RateLimit.Backend),
		zap.Bool("https_enforced", cfg.EnforceHTTPS))

	serveErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Logger.Error("Server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
		log.Logger.Info("Shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Logger.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	return nil
}
