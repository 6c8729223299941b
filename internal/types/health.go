package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// HealthState is the health of one component. States are ordered by
// severity: healthy < degraded < unhealthy.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// ParseHealthState parses a state name.
func ParseHealthState(s string) (HealthState, error) {
	state := HealthState(s)
	if state.severity() < 0 {
		return "", fmt.Errorf("invalid health state: %q", s)
	}
	return state, nil
}

func (s HealthState) String() string {
	return string(s)
}

func (s HealthState) severity() int {
	switch s {
	case HealthStateHealthy:
		return 0
	case HealthStateDegraded:
		return 1
	case HealthStateUnhealthy:
		return 2
	default:
		return -1
	}
}

// WorseThan reports whether s is more severe than other.
func (s HealthState) WorseThan(other HealthState) bool {
	return s.severity() > other.severity()
}

// Worst returns the most severe of states, or healthy when there are none.
func Worst(states ...HealthState) HealthState {
	worst := HealthStateHealthy
	for _, s := range states {
		if s.WorseThan(worst) {
			worst = s
		}
	}
	return worst
}

func (s *HealthState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	state, err := ParseHealthState(str)
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// HealthStatus is the result of one health check.
type HealthStatus struct {
	State     HealthState `json:"state" yaml:"state"`
	Message   string      `json:"message,omitempty" yaml:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at" yaml:"checked_at"`
}

// NewHealthStatus stamps a status with the current time.
func NewHealthStatus(state HealthState, message string) HealthStatus {
	return HealthStatus{State: state, Message: message, CheckedAt: time.Now()}
}

func Healthy(message string) HealthStatus   { return NewHealthStatus(HealthStateHealthy, message) }
func Degraded(message string) HealthStatus  { return NewHealthStatus(HealthStateDegraded, message) }
func Unhealthy(message string) HealthStatus { return NewHealthStatus(HealthStateUnhealthy, message) }

func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}

func (h HealthStatus) IsUnhealthy() bool {
	return h.State == HealthStateUnhealthy
}
