package graph

import (
	"context"
	"time"

	"github.com/zero-day-ai/lakelore/internal/types"
)

// GraphClient provides read access to a graph database through a single
// shared driver handle. Implementations must be thread-safe.
type GraphClient interface {
	// Connect creates the driver handle and verifies the database is reachable.
	// A failed verification leaves the client without a handle.
	Connect(ctx context.Context) error

	// Close releases the driver handle. Closing a client that was never
	// connected is a no-op.
	Close(ctx context.Context) error

	// Health returns the current health status of the database connection.
	Health(ctx context.Context) types.HealthStatus

	// NewSession opens a short-lived read session against the shared handle.
	// Callers must Close the session when the query is done.
	NewSession(ctx context.Context) (Session, error)
}

// Session is a short-lived execution context scoped to one query.
type Session interface {
	// Run executes a Cypher query with bound parameters.
	Run(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)

	// Close releases the session.
	Close(ctx context.Context) error
}

// QueryResult represents the result of a Cypher query execution.
type QueryResult struct {
	// Records contains the result rows as maps of column name to value.
	Records []map[string]any

	// Columns contains the names of the columns in the result set.
	Columns []string

	// Summary contains metadata about the query execution.
	Summary QuerySummary
}

// QuerySummary provides metadata about query execution.
type QuerySummary struct {
	ExecutionTime time.Duration
	Database      string
}

// GraphClientConfig contains configuration options for graph database clients.
type GraphClientConfig struct {
	// URI is the connection URI, e.g. "neo4j+s://<id>.databases.neo4j.io".
	URI string

	Username string
	Password string

	// Database name to open sessions against. Empty uses the server default.
	Database string

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int

	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout time.Duration

	// MaxTransactionRetryTime is the maximum time to retry failed transactions.
	MaxTransactionRetryTime time.Duration

	// ConnectRetries is the number of connect attempts made by Connect.
	ConnectRetries int
}

// DefaultConfig returns a GraphClientConfig with sensible defaults.
func DefaultConfig() GraphClientConfig {
	return GraphClientConfig{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		Database:                "neo4j",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
		ConnectRetries:          3,
	}
}

// Validate checks if the configuration is valid.
func (c GraphClientConfig) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxTransactionRetryTime must be positive")
	}
	if c.ConnectRetries < 1 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectRetries must be at least 1")
	}
	return nil
}
