package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"

	"taskapp/internal/core/port"
	"taskapp/internal/core/telemetry"
	"taskapp/pkg/config"
)

// Container owns the telemetry providers for one process. With telemetry
// disabled only the Prometheus registry and AppMetrics are live.
type Container struct {
	TracerProvider     *sdktrace.TracerProvider
	MeterProvider      *sdkmetric.MeterProvider
	PrometheusRegistry *prometheus.Registry
	MetricsServer      *http.Server
	AppMetrics         *AppMetrics

	enabled bool
	logger  *zap.Logger
}

func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	registry := prometheus.NewRegistry()

	c := &Container{
		PrometheusRegistry: registry,
		AppMetrics:         NewAppMetrics(registry),
		enabled:            cfg.Telemetry.Enabled,
		logger:             logger,
	}

	if !cfg.Telemetry.Enabled {
		return c, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.App.Name),
		semconv.ServiceVersionKey.String(cfg.App.Version),
		semconv.DeploymentEnvironmentKey.String(cfg.App.Environment),
	)

	c.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	otel.SetMeterProvider(c.MeterProvider)

	otlpExporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.Telemetry.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)

	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	c.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(otlpExporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(c.TracerProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, fmt.Errorf("start runtime metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.MetricsHandler())

	c.MetricsServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := c.MetricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start metrics server", zap.Error(err))
		}
	}()

	c.AppMetrics.StartSystemMetrics(ctx)

	return c, nil
}

func (c *Container) Enabled() bool {
	return c.enabled
}

// Probe returns the port.Telemetry the core should report through.
func (c *Container) Probe() port.Telemetry {
	if !c.enabled {
		return telemetry.NewNoOpProbe()
	}

	return telemetry.NewOTELProbe(c.logger, c.AppMetrics)
}

// MetricsHandler serves the registry. The API router mounts it when the
// standalone metrics server is not running.
func (c *Container) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.PrometheusRegistry, promhttp.HandlerOpts{})
}

func (c *Container) Shutdown(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	if err := c.TracerProvider.Shutdown(ctx); err != nil {
		return err
	}

	if err := c.MeterProvider.Shutdown(ctx); err != nil {
		return err
	}

	return c.MetricsServer.Shutdown(ctx)
}
