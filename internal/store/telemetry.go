package store

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zero-day-ai/lakelore/internal/store"

// Span names.
const (
	SpanGraphConnect = "lakelore.graph.connect"
	SpanGraphQuery   = "lakelore.graph.query"
	SpanCachePreload = "lakelore.cache.preload"
)

// Metric names.
const (
	MetricGraphQueries       = "lakelore.graph.queries"
	MetricGraphQueryDuration = "lakelore.graph.query.duration"
	MetricCacheHits          = "lakelore.cache.hits"
	MetricCacheMisses        = "lakelore.cache.misses"
	MetricCachePreloads      = "lakelore.cache.preloads"
)

const maxStatementLength = 120

type instruments struct {
	queries       metric.Int64Counter
	queryDuration metric.Float64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	preloads      metric.Int64Counter
}

// newInstruments creates the store's metric instruments. An instrument the
// meter refuses is replaced by a noop so recording never fails.
func newInstruments(meter metric.Meter, logger *slog.Logger) *instruments {
	inst := &instruments{}
	var err error

	if inst.queries, err = meter.Int64Counter(MetricGraphQueries,
		metric.WithDescription("Graph queries executed")); err != nil {
		logger.Warn("failed to create metric", "metric", MetricGraphQueries, "error", err)
		inst.queries = noop.Int64Counter{}
	}
	if inst.queryDuration, err = meter.Float64Histogram(MetricGraphQueryDuration,
		metric.WithDescription("Graph query latency"), metric.WithUnit("ms")); err != nil {
		logger.Warn("failed to create metric", "metric", MetricGraphQueryDuration, "error", err)
		inst.queryDuration = noop.Float64Histogram{}
	}
	if inst.hits, err = meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Retrievals served from cache")); err != nil {
		logger.Warn("failed to create metric", "metric", MetricCacheHits, "error", err)
		inst.hits = noop.Int64Counter{}
	}
	if inst.misses, err = meter.Int64Counter(MetricCacheMisses,
		metric.WithDescription("Retrievals that queried the graph")); err != nil {
		logger.Warn("failed to create metric", "metric", MetricCacheMisses, "error", err)
		inst.misses = noop.Int64Counter{}
	}
	if inst.preloads, err = meter.Int64Counter(MetricCachePreloads,
		metric.WithDescription("Preload batches by outcome")); err != nil {
		logger.Warn("failed to create metric", "metric", MetricCachePreloads, "error", err)
		inst.preloads = noop.Int64Counter{}
	}

	return inst
}

func (i *instruments) recordHit(ctx context.Context, op Operation) {
	i.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", string(op))))
}

func (i *instruments) recordMiss(ctx context.Context, op Operation) {
	i.misses.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", string(op))))
}

func (i *instruments) recordPreload(ctx context.Context, outcome string) {
	i.preloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// finishSpan sets the span status from err.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// summarizeStatement collapses whitespace and truncates a Cypher statement
// to at most maxStatementLength bytes, on a rune boundary, for use as a span
// attribute.
func summarizeStatement(cypher string) string {
	s := strings.Join(strings.Fields(cypher), " ")
	if len(s) <= maxStatementLength {
		return s
	}
	cut := maxStatementLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
