package store

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/lakelore/internal/graph"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestQueryExecutor_Run(t *testing.T) {
	ctx := context.Background()
	mock := graph.NewMockGraphClient()
	mock.OnQueryRecords("RETURN $n",
		map[string]any{"n": map[string]any{"low": 1, "high": 1}, "xs": []any{big.NewInt(2)}},
		map[string]any{"n": int64(7), "xs": []any{}},
	)
	s := New(mock)

	records, err := s.Query(ctx, "RETURN $n AS n", map[string]any{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"n": int64(4294967297), "xs": []any{int64(2)}},
		{"n": int64(7), "xs": []any{}},
	}, records)

	assert.Equal(t, StateConnected, s.ConnectionState(), "connects on demand")
	opened, closed := mock.SessionCounts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestQueryExecutor_QueryError(t *testing.T) {
	ctx := context.Background()
	mock := graph.NewMockGraphClient()
	cause := errors.New("Neo.ClientError.Statement.SyntaxError")
	mock.OnQueryError("BROKEN", cause)
	s := New(mock)

	params := map[string]any{"lakeName": "West Lake"}
	records, err := s.Query(ctx, "BROKEN QUERY", params)
	assert.Nil(t, records)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, ErrCodeQueryFailed, storeErr.Code)
	assert.Equal(t, "BROKEN QUERY", storeErr.Query)
	assert.Equal(t, params, storeErr.Params)
	assert.False(t, storeErr.Retryable)

	params["lakeName"] = "changed"
	assert.Equal(t, "West Lake", storeErr.Params["lakeName"], "params are copied")

	opened, closed := mock.SessionCounts()
	assert.Equal(t, opened, closed)
}

func TestQueryExecutor_CancelledContext(t *testing.T) {
	mock := graph.NewMockGraphClient()
	s := New(mock)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Query(ctx, "RETURN 1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	opened, closed := mock.SessionCounts()
	assert.Equal(t, opened, closed)
}

func TestQueryExecutor_ConnectionFailure(t *testing.T) {
	mock := graph.NewMockGraphClient()
	mock.SetConnectError(errors.New("no route to host"))
	s := New(mock)

	_, err := s.Query(context.Background(), "RETURN 1", nil)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))

	opened, _ := mock.SessionCounts()
	assert.Equal(t, 0, opened)
}

func TestQueryExecutor_SessionFailure(t *testing.T) {
	ctx := context.Background()
	mock := graph.NewMockGraphClient()
	s := New(mock)
	_, err := s.Connect(ctx)
	require.NoError(t, err)
	mock.SetSessionError(errors.New("pool exhausted"))

	_, err = s.Query(ctx, "RETURN 1", nil)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
}

func TestQueryExecutor_Tracing(t *testing.T) {
	ctx := context.Background()
	exporter, tracer := newTestTracer()
	mock := graph.NewMockGraphClient()
	mock.OnQueryRecords("RETURN", map[string]any{"n": int64(1)})
	mock.OnQueryError("FAIL", errors.New("boom"))
	s := New(mock, WithTracer(tracer))

	_, err := s.Query(ctx, "RETURN   1\n AS n", nil)
	require.NoError(t, err)
	_, err = s.Query(ctx, "FAIL", nil)
	require.Error(t, err)

	var querySpans []string
	var statuses []codes.Code
	for _, span := range exporter.GetSpans() {
		if span.Name != SpanGraphQuery {
			continue
		}
		for _, attr := range span.Attributes {
			if attr.Key == attribute.Key("db.statement") {
				querySpans = append(querySpans, attr.Value.AsString())
			}
		}
		statuses = append(statuses, span.Status.Code)
	}

	assert.Equal(t, []string{"RETURN 1 AS n", "FAIL"}, querySpans)
	assert.Equal(t, []codes.Code{codes.Ok, codes.Error}, statuses)

	var connectSpans int
	for _, span := range exporter.GetSpans() {
		if span.Name == SpanGraphConnect {
			connectSpans++
		}
	}
	assert.Equal(t, 1, connectSpans)
}

func TestQueryExecutor_Metrics(t *testing.T) {
	ctx := context.Background()
	reader, meter := newTestMeter()
	mock := graph.NewMockGraphClient()
	mock.OnQueryError("FAIL", errors.New("boom"))
	s := New(mock, WithMeter(meter))

	_, _ = s.Query(ctx, "RETURN 1", nil)
	_, _ = s.Query(ctx, "RETURN 2", nil)
	_, _ = s.Query(ctx, "FAIL", nil)

	assert.Equal(t, int64(2), counterTotal(t, reader, MetricGraphQueries, outcomeAttr("success")))
	assert.Equal(t, int64(1), counterTotal(t, reader, MetricGraphQueries, outcomeAttr("error")))
}

func TestSummarizeStatement(t *testing.T) {
	assert.Equal(t, "MATCH (l:Lake) RETURN l", summarizeStatement("\n  MATCH (l:Lake)\n\tRETURN l  "))

	long := summarizeStatement("RETURN " + strings.Repeat("x", 200))
	assert.Len(t, long, maxStatementLength+3)

	// 7 ASCII bytes then 3-byte runes: byte 120 falls inside a rune.
	cjk := summarizeStatement("MATCH (" + strings.Repeat("湖", 60))
	assert.True(t, utf8.ValidString(cjk))
	assert.Equal(t, "MATCH ("+strings.Repeat("湖", 37)+"...", cjk)
}
