package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/zero-day-ai/lakelore/internal/graph"
	"github.com/zero-day-ai/lakelore/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// DefaultConnectTimeout bounds a single connect attempt.
const DefaultConnectTimeout = 30 * time.Second

// Store is the data-access and caching context for one graph database.
// It is safe for concurrent use.
type Store struct {
	client graph.GraphClient
	logger *slog.Logger
	tracer trace.Tracer
	inst   *instruments
	now    func() time.Time

	strictErrors     bool
	autoRefreshAfter time.Duration

	conn  *ConnectionManager
	exec  *QueryExecutor
	coord *InitializationCoordinator
	cache *cache

	flight singleflight.Group
}

type options struct {
	logger           *slog.Logger
	tracer           trace.Tracer
	meter            metric.Meter
	now              func() time.Time
	strictErrors     bool
	autoRefreshAfter time.Duration
	connectTimeout   time.Duration
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer sets the tracer. The default uses the global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithMeter sets the meter. The default uses the global meter provider.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithStrictErrors makes every retrieval operation return its errors
// instead of degrading.
func WithStrictErrors() Option {
	return func(o *options) {
		o.strictErrors = true
	}
}

// WithAutoRefresh refreshes an initialized cache older than maxAge before
// serving a retrieval. Zero disables it.
func WithAutoRefresh(maxAge time.Duration) Option {
	return func(o *options) {
		o.autoRefreshAfter = maxAge
	}
}

// WithConnectTimeout bounds each connect attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = d
	}
}

// WithClock sets the time source used for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a Store over client. Nothing connects until the first
// operation or an explicit Connect.
func New(client graph.GraphClient, opts ...Option) *Store {
	o := options{
		now:            time.Now,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}
	if o.meter == nil {
		o.meter = otel.Meter(instrumentationName)
	}
	if o.connectTimeout <= 0 {
		o.connectTimeout = DefaultConnectTimeout
	}

	logger := o.logger.With("component", "store")
	inst := newInstruments(o.meter, logger)

	s := &Store{
		client:           client,
		logger:           logger,
		tracer:           o.tracer,
		inst:             inst,
		now:              o.now,
		strictErrors:     o.strictErrors,
		autoRefreshAfter: o.autoRefreshAfter,
		cache:            newCache(),
	}
	s.conn = NewConnectionManager(client, logger, o.tracer, o.connectTimeout)
	s.exec = NewQueryExecutor(s.conn, client, logger, o.tracer, inst)
	s.coord = NewInitializationCoordinator(s.conn, s.PreloadAllData, logger)
	return s
}

// Connect connects to the database if not already connected or connecting.
func (s *Store) Connect(ctx context.Context) (bool, error) {
	return s.conn.Connect(ctx)
}

// Disconnect releases the connection. Cached data is kept.
func (s *Store) Disconnect(ctx context.Context) {
	s.conn.Disconnect(ctx)
}

// Close releases the connection and returns any close failure.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.close(ctx)
}

// ConnectionState returns the state of the underlying connection.
func (s *Store) ConnectionState() ConnectionState {
	return s.conn.State()
}

// LastConnectionError returns why the most recent connect attempt failed.
func (s *Store) LastConnectionError() error {
	return s.conn.LastError()
}

// Health reports the database connection health.
func (s *Store) Health(ctx context.Context) types.HealthStatus {
	return s.conn.Health(ctx)
}

// EnsureInitialized connects and preloads once; see InitializationCoordinator.
func (s *Store) EnsureInitialized(ctx context.Context) (bool, error) {
	return s.coord.EnsureInitialized(ctx)
}

// InitState returns the initialization state.
func (s *Store) InitState() InitState {
	return s.coord.State()
}

// LastPreloadError returns the error of the most recent initialization
// preload, or nil.
func (s *Store) LastPreloadError() error {
	return s.coord.LastPreloadError()
}

// Query runs an arbitrary read statement through the store's executor.
func (s *Store) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return s.exec.Run(ctx, cypher, params)
}
