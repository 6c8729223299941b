package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// InitState is the state of an InitializationCoordinator.
type InitState int

const (
	InitNotStarted InitState = iota
	InitInProgress
	InitComplete
	InitFailed
)

// String returns the string representation of InitState.
func (s InitState) String() string {
	switch s {
	case InitNotStarted:
		return "not_started"
	case InitInProgress:
		return "in_progress"
	case InitComplete:
		return "complete"
	case InitFailed:
		return "failed"
	default:
		return fmt.Sprintf("InitState(%d)", int(s))
	}
}

// PreloadFunc loads every dataset into the cache.
type PreloadFunc func(ctx context.Context) (bool, error)

// InitializationCoordinator runs connect-then-preload once for any number of
// concurrent callers. Waiters block on the attempt in flight and all receive
// its outcome.
//
// A connect failure leaves the coordinator Failed so the next call retries.
// A preload failure is recorded but does not fail initialization; the
// retrieval operations fill their slots on demand instead.
type InitializationCoordinator struct {
	conn    *ConnectionManager
	preload PreloadFunc
	logger  *slog.Logger

	mu             sync.Mutex
	state          InitState
	lastErr        error
	lastPreloadErr error
	generation     uint64

	flight singleflight.Group
}

// NewInitializationCoordinator creates a coordinator that connects through
// conn and then runs preload.
func NewInitializationCoordinator(conn *ConnectionManager, preload PreloadFunc, logger *slog.Logger) *InitializationCoordinator {
	return &InitializationCoordinator{
		conn:    conn,
		preload: preload,
		logger:  logger,
	}
}

// EnsureInitialized returns true once initialization has completed. The
// caller's ctx bounds only its own wait; the shared attempt keeps running.
func (c *InitializationCoordinator) EnsureInitialized(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state == InitComplete {
		c.mu.Unlock()
		return true, nil
	}
	key := fmt.Sprintf("init-%d", c.generation)
	c.mu.Unlock()

	ch := c.flight.DoChan(key, func() (any, error) {
		return c.initialize(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok, res.Err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *InitializationCoordinator) initialize(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state == InitComplete {
		c.mu.Unlock()
		return true, nil
	}
	c.state = InitInProgress
	gen := c.generation
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "initializing graph store")

	if err := c.conn.EnsureConnected(ctx); err != nil {
		c.logger.ErrorContext(ctx, "initialization failed", "error", err)
		c.finish(gen, InitFailed, err)
		return false, err
	}

	if _, err := c.preload(ctx); err != nil {
		c.logger.WarnContext(ctx, "preload failed, datasets will load on demand", "error", err)
		c.mu.Lock()
		c.lastPreloadErr = err
		c.mu.Unlock()
	} else {
		c.mu.Lock()
		c.lastPreloadErr = nil
		c.mu.Unlock()
	}

	c.finish(gen, InitComplete, nil)
	c.logger.InfoContext(ctx, "initialization complete")
	return true, nil
}

// finish records the outcome unless Reset ran in the meantime.
func (c *InitializationCoordinator) finish(gen uint64, state InitState, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.state = state
	c.lastErr = err
}

// Reset returns the coordinator to NotStarted. An attempt still in flight
// completes for its waiters but no longer marks the coordinator Complete,
// and later callers start a new attempt instead of joining it.
func (c *InitializationCoordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state = InitNotStarted
	c.lastErr = nil
}

// State returns the current state.
func (c *InitializationCoordinator) State() InitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error of the most recent failed initialization.
func (c *InitializationCoordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LastPreloadError returns the error of the most recent preload, or nil if
// it succeeded.
func (c *InitializationCoordinator) LastPreloadError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPreloadErr
}
