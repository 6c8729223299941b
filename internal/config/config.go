package config

import (
	"time"

	"github.com/zero-day-ai/lakelore/internal/graph"
	"github.com/zero-day-ai/lakelore/internal/observability"
)

// Config represents the complete lakelore configuration.
type Config struct {
	Neo4j   Neo4jConfig                 `mapstructure:"neo4j" yaml:"neo4j"`
	Cache   CacheConfig                 `mapstructure:"cache" yaml:"cache"`
	Logging observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Server  ServerConfig                `mapstructure:"server" yaml:"server"`
}

// Neo4jConfig holds the graph database connection settings. Credentials are
// read once when the configuration is loaded.
type Neo4jConfig struct {
	URI               string        `mapstructure:"uri" yaml:"uri" validate:"required"`
	Username          string        `mapstructure:"username" yaml:"username" validate:"required"`
	Password          string        `mapstructure:"password" yaml:"password" validate:"required"`
	Database          string        `mapstructure:"database" yaml:"database"`
	MaxConnections    int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=0"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" validate:"min=1s"`
	ConnectRetries    int           `mapstructure:"connect_retries" yaml:"connect_retries" validate:"min=1,max=10"`
}

// GraphClientConfig converts the connection settings for the graph client.
func (c Neo4jConfig) GraphClientConfig() graph.GraphClientConfig {
	return graph.GraphClientConfig{
		URI:                     c.URI,
		Username:                c.Username,
		Password:                c.Password,
		Database:                c.Database,
		MaxConnectionPoolSize:   c.MaxConnections,
		ConnectionTimeout:       c.ConnectionTimeout,
		MaxTransactionRetryTime: c.ConnectionTimeout,
		ConnectRetries:          c.ConnectRetries,
	}
}

// CacheConfig controls the store's cache behaviour.
type CacheConfig struct {
	// AutoRefreshAfter triggers a refresh on read once the cache is older
	// than this. Zero disables auto-refresh.
	AutoRefreshAfter time.Duration `mapstructure:"auto_refresh_after" yaml:"auto_refresh_after" validate:"min=0"`

	// StrictErrors propagates every retrieval failure instead of degrading
	// statistics to empty values.
	StrictErrors bool `mapstructure:"strict_errors" yaml:"strict_errors"`
}

// ServerConfig holds the HTTP read API settings.
type ServerConfig struct {
	Address       string        `mapstructure:"address" yaml:"address" validate:"required"`
	AllowedOrigin string        `mapstructure:"allowed_origin" yaml:"allowed_origin"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=1s"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=1s"`
}
