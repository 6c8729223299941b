package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/zero-day-ai/lakelore/internal/graph"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// QueryExecutor runs read statements through short-lived sessions on the
// connection manager's handle.
type QueryExecutor struct {
	conn   *ConnectionManager
	client graph.GraphClient
	logger *slog.Logger
	tracer trace.Tracer
	inst   *instruments
}

// NewQueryExecutor creates an executor bound to conn.
func NewQueryExecutor(conn *ConnectionManager, client graph.GraphClient, logger *slog.Logger, tracer trace.Tracer, inst *instruments) *QueryExecutor {
	return &QueryExecutor{
		conn:   conn,
		client: client,
		logger: logger,
		tracer: tracer,
		inst:   inst,
	}
}

// Run executes cypher with params and returns the normalized records in
// result order. The session opened for the query is closed on every path.
// Database failures are returned as query errors carrying the statement and
// its parameters.
func (e *QueryExecutor) Run(ctx context.Context, cypher string, params map[string]any) (records []map[string]any, err error) {
	ctx, span := e.tracer.Start(ctx, SpanGraphQuery,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "neo4j"),
			attribute.String("db.statement", summarizeStatement(cypher)),
		),
	)
	start := time.Now()

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		attrs := metric.WithAttributes(attribute.String("outcome", outcome))
		e.inst.queries.Add(ctx, 1, attrs)
		e.inst.queryDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)

		span.SetAttributes(attribute.Int("db.record_count", len(records)))
		finishSpan(span, err)
		span.End()
	}()

	if err := e.conn.EnsureConnected(ctx); err != nil {
		return nil, err
	}

	session, err := e.client.NewSession(ctx)
	if err != nil {
		return nil, NewConnectionError("failed to open session", err).WithQuery(cypher).WithParams(params)
	}
	defer func() {
		if closeErr := session.Close(context.WithoutCancel(ctx)); closeErr != nil {
			e.logger.WarnContext(ctx, "failed to close session", "error", closeErr)
		}
	}()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		e.logger.ErrorContext(ctx, "query execution failed",
			"query", summarizeStatement(cypher),
			"params", params,
			"error", err,
		)
		return nil, NewQueryError("query execution failed", err).WithQuery(cypher).WithParams(params)
	}

	records = make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, graph.NormalizeRecord(record))
	}
	return records, nil
}
