package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zero-day-ai/lakelore/cmd/lakelore/internal"
	"github.com/zero-day-ai/lakelore/internal/config"
	"github.com/zero-day-ai/lakelore/internal/observability"
	"github.com/zero-day-ai/lakelore/internal/store"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	instrumentationName = "github.com/zero-day-ai/lakelore"
	shutdownTimeout     = 10 * time.Second
)

// app holds the components built from configuration for one command run.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracing *sdktrace.TracerProvider
	metrics *observability.Metrics
	store   *store.Store
}

// newApp wires logging, tracing, metrics and the store from the loaded
// configuration. Logs go to logOut so command output stays parseable.
func (c *cli) newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	if c.cfg == nil {
		return nil, internal.NewCLIError(internal.ExitConfigError, "configuration not loaded")
	}
	cfg := c.cfg

	logger, err := observability.NewLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to create logger", err)
	}

	tp, err := observability.InitTracing(ctx, cfg.Tracing, observability.WithServiceVersion(version))
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to initialize tracing", err)
	}

	metrics, err := observability.InitMetrics(cfg.Metrics)
	if err != nil {
		_ = observability.ShutdownTracing(ctx, tp)
		return nil, internal.WrapError(internal.ExitConfigError, "failed to initialize metrics", err)
	}

	client, err := c.newGraphClient(cfg.Neo4j.GraphClientConfig())
	if err != nil {
		_ = metrics.Shutdown(ctx)
		_ = observability.ShutdownTracing(ctx, tp)
		return nil, internal.WrapError(internal.ExitConnectionError, "failed to create database client", err)
	}

	opts := []store.Option{
		store.WithLogger(logger),
		store.WithTracer(tp.Tracer(instrumentationName)),
		store.WithMeter(metrics.MeterProvider().Meter(instrumentationName)),
		store.WithConnectTimeout(cfg.Neo4j.ConnectionTimeout),
	}
	if cfg.Cache.StrictErrors {
		opts = append(opts, store.WithStrictErrors())
	}
	if cfg.Cache.AutoRefreshAfter > 0 {
		opts = append(opts, store.WithAutoRefresh(cfg.Cache.AutoRefreshAfter))
	}

	logger.Debug("application initialized",
		"neo4j_uri", cfg.Neo4j.URI,
		"database", cfg.Neo4j.Database,
		"tracing", cfg.Tracing.Enabled,
		"metrics", cfg.Metrics.Enabled,
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		tracing: tp,
		metrics: metrics,
		store:   store.New(client, opts...),
	}, nil
}

// Close releases the store and flushes telemetry. It uses its own deadline
// so cleanup still runs after the command context is cancelled.
func (a *app) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := a.metrics.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	if err := observability.ShutdownTracing(ctx, a.tracing); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}

// withApp builds an app, runs fn and closes the app. A close failure is
// logged rather than returned so it never masks fn's result.
func (c *cli) withApp(ctx context.Context, logOut io.Writer, fn func(*app) error) error {
	a, err := c.newApp(ctx, logOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil {
			a.logger.Warn("shutdown incomplete", "error", cerr)
		}
	}()
	return fn(a)
}
