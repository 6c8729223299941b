package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  TracingConfig
		wantErr string
	}{
		{
			name:   "disabled is always valid",
			config: TracingConfig{Enabled: false, SampleRate: 7},
		},
		{
			name:   "enabled with endpoint",
			config: TracingConfig{Enabled: true, Endpoint: "localhost:4317", SampleRate: 0.5},
		},
		{
			name:    "missing endpoint",
			config:  TracingConfig{Enabled: true, SampleRate: 1},
			wantErr: "endpoint is required",
		},
		{
			name:    "sample rate above one",
			config:  TracingConfig{Enabled: true, Endpoint: "localhost:4317", SampleRate: 1.5},
			wantErr: "invalid sample rate",
		},
		{
			name:    "negative sample rate",
			config:  TracingConfig{Enabled: true, Endpoint: "localhost:4317", SampleRate: -0.1},
			wantErr: "invalid sample rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggingConfig
		wantErr string
	}{
		{name: "json info", config: LoggingConfig{Level: "info", Format: "json"}},
		{name: "text debug uppercase", config: LoggingConfig{Level: "DEBUG", Format: "TEXT"}},
		{name: "bad level", config: LoggingConfig{Level: "fatal", Format: "json"}, wantErr: "invalid log level"},
		{name: "bad format", config: LoggingConfig{Level: "info", Format: "xml"}, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
