package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zero-day-ai/lakelore/internal/types"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics bundles a meter provider with the HTTP handler that exposes it.
type Metrics struct {
	provider metric.MeterProvider
	sdk      *sdkmetric.MeterProvider
	handler  http.Handler
}

// InitMetrics creates the metrics pipeline described by cfg.
//
// When enabled, instruments created from MeterProvider are collected by an
// OpenTelemetry Prometheus exporter registered on a private registry, and
// Handler serves that registry in the Prometheus text format. When disabled,
// MeterProvider is a noop and Handler answers 404.
func InitMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{
			provider: noop.NewMeterProvider(),
			handler:  http.NotFoundHandler(),
		}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, types.WrapError(ErrMetricsRegistration, "failed to create prometheus exporter", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	return &Metrics{
		provider: provider,
		sdk:      provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// MeterProvider returns the provider instruments should be created from.
func (m *Metrics) MeterProvider() metric.MeterProvider {
	return m.provider
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Enabled reports whether metrics are actually collected.
func (m *Metrics) Enabled() bool {
	return m.sdk != nil
}

// Shutdown flushes and stops the meter provider. It is a no-op when metrics
// are disabled.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.sdk == nil {
		return nil
	}
	if err := m.sdk.Shutdown(ctx); err != nil {
		return types.WrapError(ErrShutdownFailed, "failed to shutdown meter provider", err)
	}
	return nil
}
