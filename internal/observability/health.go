package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zero-day-ai/lakelore/internal/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MetricHealthStatus is the gauge recording 1 for healthy components and 0 otherwise.
const MetricHealthStatus = "lakelore.health.status"

// HealthChecker defines the interface that components must implement to be monitored.
type HealthChecker interface {
	// Health returns the current health status of the component.
	Health(ctx context.Context) types.HealthStatus
}

// componentState tracks the last observed status of a component to detect
// transitions.
type componentState struct {
	checker       HealthChecker
	lastStatus    types.HealthStatus
	lastCheckedAt time.Time
}

// HealthMonitor coordinates health checking across registered components.
// It logs state changes and records a per-component gauge.
//
// The monitor is safe for concurrent use.
type HealthMonitor struct {
	logger     *slog.Logger
	gauge      metric.Int64Gauge
	components map[string]*componentState
	mu         sync.RWMutex
}

// NewHealthMonitor creates a new health monitor. A nil logger discards logs
// and a nil meter disables the gauge.
func NewHealthMonitor(logger *slog.Logger, meter metric.Meter) *HealthMonitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}

	gauge, err := meter.Int64Gauge(MetricHealthStatus,
		metric.WithDescription("Component health, 1 when healthy"))
	if err != nil {
		logger.Warn("failed to create health gauge", "error", err)
		gauge, _ = noop.NewMeterProvider().Meter("").Int64Gauge(MetricHealthStatus)
	}

	return &HealthMonitor{
		logger:     logger,
		gauge:      gauge,
		components: make(map[string]*componentState),
	}
}

// Register adds a component to the monitor, replacing any component with the
// same name.
func (h *HealthMonitor) Register(name string, checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.components[name] = &componentState{
		checker: checker,
		// Start unhealthy so the first healthy check is logged as a recovery.
		lastStatus: types.NewHealthStatus(types.HealthStateUnhealthy, "not yet checked"),
	}
}

// Unregister removes a component from the monitor.
func (h *HealthMonitor) Unregister(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.components, name)
}

// Check performs a health check on a single component.
func (h *HealthMonitor) Check(ctx context.Context, name string) (types.HealthStatus, error) {
	h.mu.RLock()
	state, exists := h.components[name]
	h.mu.RUnlock()

	if !exists {
		return types.HealthStatus{}, fmt.Errorf("component %q is not registered", name)
	}

	status := state.checker.Health(ctx)
	h.updateComponentState(ctx, name, state, status)

	return status, nil
}

// CheckAll performs health checks on all registered components.
func (h *HealthMonitor) CheckAll(ctx context.Context) map[string]types.HealthStatus {
	h.mu.RLock()
	snapshot := make(map[string]*componentState, len(h.components))
	for name, state := range h.components {
		snapshot[name] = state
	}
	h.mu.RUnlock()

	results := make(map[string]types.HealthStatus, len(snapshot))
	for name, state := range snapshot {
		status := state.checker.Health(ctx)
		results[name] = status
		h.updateComponentState(ctx, name, state, status)
	}

	return results
}

// Overall reduces component statuses to the worst state among them.
// An empty map is healthy.
func Overall(statuses map[string]types.HealthStatus) types.HealthState {
	states := make([]types.HealthState, 0, len(statuses))
	for _, status := range statuses {
		states = append(states, status.State)
	}
	return types.Worst(states...)
}

func (h *HealthMonitor) updateComponentState(ctx context.Context, name string, state *componentState, newStatus types.HealthStatus) {
	h.mu.Lock()
	previousState := state.lastStatus.State
	currentState := newStatus.State
	state.lastStatus = newStatus
	state.lastCheckedAt = time.Now()
	h.mu.Unlock()

	var value int64
	if newStatus.IsHealthy() {
		value = 1
	}
	h.gauge.Record(ctx, value, metric.WithAttributes(
		attribute.String("component", name),
		attribute.String("state", string(currentState)),
	))

	if previousState != currentState {
		h.logStateChange(ctx, name, previousState, currentState, newStatus.Message)
	}
}

// logStateChange logs degradations at error level, recoveries at info and
// any other transition at warn.
func (h *HealthMonitor) logStateChange(ctx context.Context, component string, previousState, currentState types.HealthState, message string) {
	logArgs := []any{
		"component", component,
		"previous_state", string(previousState),
		"current_state", string(currentState),
		"message", message,
	}

	switch {
	case previousState == types.HealthStateHealthy && currentState.WorseThan(previousState):
		h.logger.ErrorContext(ctx, "component health degraded", logArgs...)
		return
	case currentState == types.HealthStateHealthy:
		h.logger.InfoContext(ctx, "component health recovered", logArgs...)
		return
	}

	h.logger.WarnContext(ctx, "component health state changed", logArgs...)
}
