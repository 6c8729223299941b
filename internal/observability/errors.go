package observability

import (
	"fmt"

	"github.com/zero-day-ai/lakelore/internal/types"
)

// Telemetry error codes
const (
	ErrInvalidConfig       types.ErrorCode = "OBSERVABILITY_INVALID_CONFIG"
	ErrExporterConnection  types.ErrorCode = "OBSERVABILITY_EXPORTER_CONNECTION"
	ErrMetricsRegistration types.ErrorCode = "OBSERVABILITY_METRICS_REGISTRATION"
	ErrShutdownFailed      types.ErrorCode = "OBSERVABILITY_SHUTDOWN_FAILED"
)

// exporterError reports a failure to reach a telemetry backend. Network
// failures are often transient, so it is retryable.
func exporterError(endpoint string, cause error) *types.LoreError {
	err := types.WrapError(ErrExporterConnection, fmt.Sprintf("failed to connect to exporter at %s", endpoint), cause)
	err.Retryable = true
	return err
}
