// Package observability provides the logging, tracing, metrics and health
// infrastructure shared by the lakelore CLI and HTTP server.
//
// # Logging
//
// NewLogger builds a *slog.Logger from a LoggingConfig. Records pass through
// a RedactingHandler that masks credential-like attributes before they reach
// the JSON or text handler:
//
//	logger, err := observability.NewLogger(cfg.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	logger.Info("connecting", "uri", uri, "password", pw) // password=[REDACTED]
//
// # Tracing
//
// InitTracing installs an OpenTelemetry tracer provider exporting over OTLP
// gRPC. When tracing is disabled a plain SDK provider without an exporter is
// returned, so instrumented code can always create spans:
//
//	tp, err := observability.InitTracing(ctx, cfg.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer observability.ShutdownTracing(ctx, tp)
//
// # Metrics
//
// InitMetrics creates a meter provider backed by the Prometheus exporter.
// Metrics.Handler serves the scrape endpoint. When metrics are disabled the
// provider is a noop and the handler answers 404.
//
// # Health
//
// HealthMonitor aggregates HealthChecker components, logging state
// transitions such as healthy to unhealthy and back.
package observability
