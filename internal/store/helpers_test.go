package store

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/lakelore/internal/graph"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// seedFixture answers every store query with a small lake graph. West Lake
// has two gazetteers and one poem; Tai Lake and Dongting Lake share a total
// of two mentions.
func seedFixture(m *graph.MockGraphClient) {
	m.OnQueryRecords(queryLakeCount, map[string]any{"count": int64(4)})
	m.OnQueryRecords(queryGazetteerCount, map[string]any{"count": int64(3)})
	m.OnQueryRecords(queryPoemCount, map[string]any{"count": map[string]any{"low": 3, "high": 0}})
	m.OnQueryRecords(queryLocationCount, map[string]any{"count": big.NewInt(3)})

	m.OnQueryRecords(queryLakeStats,
		map[string]any{"lake_name": "West Lake", "gazetteer_count": int64(2), "poem_count": int64(1), "total_mentions": int64(3)},
		map[string]any{"lake_name": "Tai Lake", "gazetteer_count": int64(1), "poem_count": int64(1), "total_mentions": int64(2)},
		map[string]any{"lake_name": "Dongting Lake", "gazetteer_count": int64(0), "poem_count": int64(2), "total_mentions": int64(2)},
		map[string]any{"lake_name": "Slender West Lake", "gazetteer_count": int64(0), "poem_count": int64(0), "total_mentions": int64(0)},
	)

	m.OnQueryRecords(queryAllLakes,
		map[string]any{"name": "West Lake", "location": "Hangzhou", "gazetteer_count": int64(2), "poem_count": int64(1), "total_mentions": int64(3)},
		map[string]any{"name": "Tai Lake", "location": "Suzhou", "gazetteer_count": int64(1), "poem_count": int64(1), "total_mentions": int64(2)},
		map[string]any{"name": "Dongting Lake", "location": "Yueyang", "gazetteer_count": int64(0), "poem_count": int64(2), "total_mentions": int64(2)},
		map[string]any{"name": "Slender West Lake", "location": nil, "gazetteer_count": int64(0), "poem_count": int64(0), "total_mentions": int64(0)},
	)

	m.OnQueryRecords(queryAllGazetteers,
		map[string]any{"source": "Hangzhou Prefecture Gazetteer", "content": "West Lake lies west of the city.", "lakes": []any{"West Lake", "Tai Lake"}, "lake_count": int64(2)},
		map[string]any{"source": "Lin'an Gazetteer", "content": "The lake is thirty li around.", "lakes": []any{"West Lake"}, "lake_count": int64(1)},
		map[string]any{"source": "Orphan Record", "content": "No lakes.", "lakes": []any{}, "lake_count": int64(0)},
	)

	m.OnQueryRecords(queryAllPoems,
		map[string]any{"name": "Drinking at the Lake", "full_text": "Water shimmers on a sunny day.", "lakes": []any{"West Lake", "Dongting Lake"}, "lake_count": int64(2)},
		map[string]any{"name": "Gazing at Dongting", "full_text": "Lake light and autumn moon.", "lakes": []any{"Dongting Lake", "Tai Lake"}, "lake_count": int64(2)},
	)

	m.OnQueryRecords(queryLocationDistribution,
		map[string]any{"location": "Hangzhou", "lake_count": int64(1)},
		map[string]any{"location": "Suzhou", "lake_count": int64(1)},
		map[string]any{"location": "Yueyang", "lake_count": int64(1)},
	)

	m.OnQueryFunc(queryLakeDetails, func(_ string, params map[string]any) (graph.QueryResult, error) {
		switch params["lakeName"] {
		case "West Lake":
			return graph.QueryResult{Records: []map[string]any{{
				"lake_name": "West Lake",
				"location":  "Hangzhou",
				"gazetteers": []any{
					map[string]any{"source": "Hangzhou Prefecture Gazetteer", "content": "West Lake lies west of the city."},
					map[string]any{"source": "Lin'an Gazetteer", "content": "The lake is thirty li around."},
				},
				"poems": []any{
					map[string]any{"name": "Drinking at the Lake", "full_text": "Water shimmers on a sunny day."},
				},
			}}}, nil
		case "Slender West Lake":
			return graph.QueryResult{Records: []map[string]any{{
				"lake_name":  "Slender West Lake",
				"location":   nil,
				"gazetteers": []any{map[string]any{"source": nil, "content": nil}},
				"poems":      []any{map[string]any{"name": nil, "full_text": nil}},
			}}}, nil
		default:
			return graph.QueryResult{Records: []map[string]any{}}, nil
		}
	})
}

// newTestStore returns a store over a mock seeded with the fixture.
func newTestStore(t *testing.T, opts ...Option) (*Store, *graph.MockGraphClient) {
	t.Helper()
	mock := graph.NewMockGraphClient()
	seedFixture(mock)
	return New(mock, opts...), mock
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMeter() (*sdkmetric.ManualReader, metric.Meter) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, provider.Meter("test")
}

func newTestTracer() (*tracetest.InMemoryExporter, trace.Tracer) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return exporter, provider.Tracer("test")
}

func opAttr(op Operation) attribute.KeyValue {
	return attribute.String("operation", string(op))
}

func outcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String("outcome", outcome)
}

// counterTotal sums the data points of an int64 counter whose attribute
// matches attr.
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string, attr attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attr.Key); ok && v.Emit() == attr.Value.Emit() {
					total += dp.Value
				}
			}
		}
	}
	return total
}
