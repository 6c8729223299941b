package config

import (
	"time"

	"github.com/zero-day-ai/lakelore/internal/observability"
)

// DefaultConfig returns a Config with sensible default values. The Neo4j
// password has no default and must come from the file or the environment.
func DefaultConfig() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:               "bolt://localhost:7687",
			Username:          "neo4j",
			Password:          "",
			Database:          "neo4j",
			MaxConnections:    50,
			ConnectionTimeout: 30 * time.Second,
			ConnectRetries:    3,
		},
		Cache: CacheConfig{
			AutoRefreshAfter: 0,
			StrictErrors:     false,
		},
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Endpoint:    "",
			SampleRate:  1.0,
			ServiceName: "lakelore",
		},
		Metrics: observability.MetricsConfig{
			Enabled: false,
		},
		Server: ServerConfig{
			Address:       ":8080",
			AllowedOrigin: "*",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  60 * time.Second,
		},
	}
}

// setDefaults registers every default with v so environment overrides
// apply even to keys absent from the config file.
func setDefaults(v defaultSetter) {
	d := DefaultConfig()

	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.username", d.Neo4j.Username)
	v.SetDefault("neo4j.password", d.Neo4j.Password)
	v.SetDefault("neo4j.database", d.Neo4j.Database)
	v.SetDefault("neo4j.max_connections", d.Neo4j.MaxConnections)
	v.SetDefault("neo4j.connection_timeout", d.Neo4j.ConnectionTimeout)
	v.SetDefault("neo4j.connect_retries", d.Neo4j.ConnectRetries)

	v.SetDefault("cache.auto_refresh_after", d.Cache.AutoRefreshAfter)
	v.SetDefault("cache.strict_errors", d.Cache.StrictErrors)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.insecure", d.Tracing.Insecure)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.allowed_origin", d.Server.AllowedOrigin)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
}

type defaultSetter interface {
	SetDefault(key string, value any)
}
