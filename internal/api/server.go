package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/zero-day-ai/lakelore/internal/observability"
	"github.com/zero-day-ai/lakelore/internal/store"
)

const shutdownTimeout = 10 * time.Second

// DataStore is the subset of *store.Store the HTTP API reads from.
type DataStore interface {
	GetOverallStats(ctx context.Context, useCache bool) (store.OverallStats, error)
	GetLakeStats(ctx context.Context, useCache bool) ([]store.LakeStat, error)
	GetAllLakes(ctx context.Context, useCache bool) ([]store.LakeSummary, error)
	GetLakeDetails(ctx context.Context, name string, useCache bool) (*store.LakeDetail, error)
	GetAllGazetteers(ctx context.Context, useCache bool) ([]store.GazetteerSummary, error)
	GetAllPoems(ctx context.Context, useCache bool) ([]store.PoemSummary, error)
	GetLocationDistribution(ctx context.Context, useCache bool) ([]store.LocationCount, error)
	GetCacheInfo() store.CacheInfo
	IsCacheExpired(maxAge time.Duration) bool
	RefreshData(ctx context.Context) (bool, error)
	ClearCache()
}

var _ DataStore = (*store.Store)(nil)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address       string
	AllowedOrigin string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Server serves the read API over HTTP.
type Server struct {
	store   DataStore
	health  *observability.HealthMonitor
	metrics http.Handler
	logger  *slog.Logger
	config  ServerConfig
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for access and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHealthMonitor backs GET /health with monitor.
func WithHealthMonitor(monitor *observability.HealthMonitor) Option {
	return func(s *Server) {
		s.health = monitor
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server reading from ds.
func NewServer(ds DataStore, cfg ServerConfig, opts ...Option) *Server {
	s := &Server{
		store:  ds,
		logger: slog.New(slog.DiscardHandler),
		config: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = observability.NewHealthMonitor(s.logger, nil)
	}
	s.logger = s.logger.With("component", "api")
	return s
}

// Handler returns the fully wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", serveCached(s.store.GetOverallStats))
	mux.HandleFunc("GET /api/lake-stats", serveCached(s.store.GetLakeStats))
	mux.HandleFunc("GET /api/lakes", serveCached(s.store.GetAllLakes))
	mux.HandleFunc("GET /api/lakes/{name}", s.handleLakeDetails)
	mux.HandleFunc("GET /api/gazetteers", serveCached(s.store.GetAllGazetteers))
	mux.HandleFunc("GET /api/poems", serveCached(s.store.GetAllPoems))
	mux.HandleFunc("GET /api/locations", serveCached(s.store.GetLocationDistribution))
	mux.HandleFunc("GET /api/cache", s.handleCacheInfo)
	mux.HandleFunc("POST /api/cache/refresh", s.handleCacheRefresh)
	mux.HandleFunc("DELETE /api/cache", s.handleCacheClear)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return Chain(mux,
		RequestID(),
		AccessLog(s.logger),
		Recover(s.logger),
		Cors(s.config.AllowedOrigin),
	)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
