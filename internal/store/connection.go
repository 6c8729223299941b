package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zero-day-ai/lakelore/internal/graph"
	"github.com/zero-day-ai/lakelore/internal/types"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ConnectionState is the lifecycle state of a ConnectionManager.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String returns the string representation of ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

// ConnectionManager owns the single graph handle of a Store and moves it
// through Disconnected, Connecting and Connected.
//
// Concurrent callers never start a second attempt: EnsureConnected joins
// the attempt in flight. The attempt itself runs detached from the caller's
// cancellation and is bounded by the connect timeout, so a caller that gives
// up does not abort the connection for everyone else.
type ConnectionManager struct {
	client         graph.GraphClient
	logger         *slog.Logger
	tracer         trace.Tracer
	connectTimeout time.Duration

	mu         sync.Mutex
	state      ConnectionState
	lastErr    error
	generation uint64

	flight singleflight.Group
}

// NewConnectionManager creates a disconnected manager for client.
func NewConnectionManager(client graph.GraphClient, logger *slog.Logger, tracer trace.Tracer, connectTimeout time.Duration) *ConnectionManager {
	return &ConnectionManager{
		client:         client,
		logger:         logger,
		tracer:         tracer,
		connectTimeout: connectTimeout,
	}
}

// Connect attempts to connect when disconnected. When already connected or
// connecting it returns the current connected status without starting a new
// attempt. A failed attempt returns false and a connection error; the reason
// is also available from LastError.
func (m *ConnectionManager) Connect(ctx context.Context) (bool, error) {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return true, nil
	case StateConnecting:
		m.mu.Unlock()
		return false, nil
	}
	m.mu.Unlock()

	if err := m.await(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureConnected returns nil once the manager is connected, joining an
// attempt in flight or starting one when none is running.
func (m *ConnectionManager) EnsureConnected(ctx context.Context) error {
	if m.IsConnected() {
		return nil
	}
	return m.await(ctx)
}

// await waits for the shared connect attempt. The caller's ctx only bounds
// the wait.
func (m *ConnectionManager) await(ctx context.Context) error {
	ch := m.flight.DoChan("connect", func() (any, error) {
		return nil, m.dial(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return NewConnectionError("gave up waiting for connection", ctx.Err())
	}
}

func (m *ConnectionManager) dial(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.lastErr = nil
	gen := m.generation
	m.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, SpanGraphConnect)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	start := time.Now()
	err := m.client.Connect(ctx)

	m.mu.Lock()
	if gen != m.generation {
		// Disconnect ran while connecting; the new handle must not survive.
		m.mu.Unlock()
		if err == nil {
			_ = m.client.Close(context.WithoutCancel(ctx))
		}
		err = NewConnectionError("connection attempt superseded by disconnect", err)
		finishSpan(span, err)
		return err
	}
	if err != nil {
		connErr := NewConnectionError("failed to connect to graph database", err)
		m.state = StateDisconnected
		m.lastErr = connErr
		m.mu.Unlock()

		m.logger.ErrorContext(ctx, "graph connection failed", "error", err)
		finishSpan(span, connErr)
		return connErr
	}
	m.state = StateConnected
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "connected to graph database", "duration", time.Since(start))
	finishSpan(span, nil)
	return nil
}

// Disconnect releases the handle and resets to Disconnected regardless of
// the prior state. Close failures are logged, not returned.
func (m *ConnectionManager) Disconnect(ctx context.Context) {
	if err := m.close(ctx); err != nil {
		m.logger.WarnContext(ctx, "error disconnecting from graph database", "error", err)
	}
}

func (m *ConnectionManager) close(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	m.state = StateDisconnected
	m.mu.Unlock()

	return m.client.Close(ctx)
}

// State returns the current connection state.
func (m *ConnectionManager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether a verified handle is held.
func (m *ConnectionManager) IsConnected() bool {
	return m.State() == StateConnected
}

// LastError returns the reason the most recent attempt failed, or nil.
func (m *ConnectionManager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Health reports the database health as seen through the held handle.
func (m *ConnectionManager) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	state, lastErr := m.state, m.lastErr
	m.mu.Unlock()

	switch state {
	case StateConnected:
		return m.client.Health(ctx)
	case StateConnecting:
		return types.Degraded("connection attempt in progress")
	default:
		if lastErr != nil {
			return types.Unhealthy(fmt.Sprintf("not connected: %v", lastErr))
		}
		return types.Unhealthy("not connected")
	}
}
