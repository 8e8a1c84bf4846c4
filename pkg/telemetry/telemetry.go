// Package telemetry wires OpenTelemetry metrics to a Prometheus registry and,
// optionally, an HTTP /metrics endpoint.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

type Config struct {
	Enabled     bool
	ServiceName string
	// PrometheusAddr is the listen address of the /metrics endpoint. Empty disables it.
	PrometheusAddr string
}

type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Meter         metric.Meter
	Registry      *prometheus.Registry
	// MetricsAddr is the address /metrics is actually served on, if any.
	MetricsAddr string
}

type ShutdownFunc func(ctx context.Context) error

// New sets up the meter provider. When telemetry is disabled the returned
// Meter is a noop and shutdown does nothing.
func New(config Config) (*Telemetry, ShutdownFunc, error) {
	if !config.Enabled {
		return &Telemetry{Meter: noop.NewMeterProvider().Meter("")},
			func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create resource: %w", err)
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	tel := &Telemetry{
		MeterProvider: provider,
		Meter:         provider.Meter(config.ServiceName),
		Registry:      registry,
	}

	var server *http.Server
	if config.PrometheusAddr != "" {
		ln, err := net.Listen("tcp", config.PrometheusAddr)
		if err != nil {
			_ = provider.Shutdown(context.Background())
			return nil, nil, fmt.Errorf("listen for metrics: %w", err)
		}
		tel.MetricsAddr = ln.Addr().String()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				otel.Handle(fmt.Errorf("metrics server failed: %w", err))
			}
		}()
	}

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		var errs []error
		if server != nil {
			errs = append(errs, server.Shutdown(ctx))
		}
		errs = append(errs, provider.Shutdown(ctx))
		return errors.Join(errs...)
	}

	return tel, shutdown, nil
}
