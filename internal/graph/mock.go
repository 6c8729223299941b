package graph

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zero-day-ai/lakelore/internal/types"
)

// MockCall represents a recorded method call on the mock graph client.
type MockCall struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

// QueryResponder produces the result for a query routed to it.
type QueryResponder func(cypher string, params map[string]any) (QueryResult, error)

type mockRoute struct {
	match     string
	responder QueryResponder
}

// MockGraphClient is a mock implementation of GraphClient for testing.
// Queries are answered by the most recently registered route whose match
// string is contained in the Cypher text, so parallel callers get stable
// answers regardless of scheduling.
type MockGraphClient struct {
	mu sync.RWMutex

	connected      bool
	healthStatus   types.HealthStatus
	calls          []MockCall
	routes         []mockRoute
	sessionsOpened int
	sessionsClosed int

	connectGate  chan struct{}
	connectError error
	closeError   error
	sessionError error
	queryError   error
}

// NewMockGraphClient creates a new mock graph client for testing.
func NewMockGraphClient() *MockGraphClient {
	return &MockGraphClient{
		healthStatus: types.NewHealthStatus(types.HealthStateHealthy, "mock graph client"),
		calls:        make([]MockCall, 0),
	}
}

func (m *MockGraphClient) record(method string, args ...interface{}) {
	m.calls = append(m.calls, MockCall{
		Method:    method,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// Connect records the call and simulates connection. When a connect gate is
// set, Connect blocks until the gate is closed or ctx is done.
func (m *MockGraphClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.record("Connect")
	gate := m.connectGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return types.WrapError(ErrCodeGraphConnectionFailed, "connection attempt cancelled", ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectError != nil {
		m.connected = false
		return m.connectError
	}

	m.connected = true
	return nil
}

// Close records the call and simulates disconnection.
func (m *MockGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Close")

	if m.closeError != nil {
		return m.closeError
	}

	m.connected = false
	return nil
}

// Health records the call and returns the configured health status.
func (m *MockGraphClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Health")

	if !m.connected {
		return types.Unhealthy("not connected")
	}
	return m.healthStatus
}

// NewSession records the call and returns a session bound to the mock.
func (m *MockGraphClient) NewSession(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("NewSession")

	if !m.connected {
		return nil, types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	}
	if m.sessionError != nil {
		return nil, m.sessionError
	}

	m.sessionsOpened++
	return &mockSession{client: m}, nil
}

type mockSession struct {
	client *MockGraphClient
	closed bool
}

// Run records the query and answers it from the registered routes.
func (s *mockSession) Run(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	m := s.client

	m.mu.Lock()
	m.record("Query", cypher, params)
	queryErr := m.queryError
	var responder QueryResponder
	for i := len(m.routes) - 1; i >= 0; i-- {
		if strings.Contains(cypher, m.routes[i].match) {
			responder = m.routes[i].responder
			break
		}
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return QueryResult{}, err
	}
	if queryErr != nil {
		return QueryResult{}, queryErr
	}
	if responder != nil {
		return responder(cypher, params)
	}

	return QueryResult{
		Records: []map[string]any{},
		Columns: []string{},
	}, nil
}

// Close marks the session closed. Closing twice counts once.
func (s *mockSession) Close(ctx context.Context) error {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.client.sessionsClosed++
	}
	return nil
}

// OnQuery answers every query containing match with result.
func (m *MockGraphClient) OnQuery(match string, result QueryResult) {
	m.OnQueryFunc(match, func(string, map[string]any) (QueryResult, error) {
		return result, nil
	})
}

// OnQueryRecords answers every query containing match with the given records.
func (m *MockGraphClient) OnQueryRecords(match string, records ...map[string]any) {
	m.OnQuery(match, QueryResult{Records: records})
}

// OnQueryError fails every query containing match with err.
func (m *MockGraphClient) OnQueryError(match string, err error) {
	m.OnQueryFunc(match, func(string, map[string]any) (QueryResult, error) {
		return QueryResult{}, err
	})
}

// OnQueryFunc routes every query containing match to responder.
func (m *MockGraphClient) OnQueryFunc(match string, responder QueryResponder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, mockRoute{match: match, responder: responder})
}

// SetConnectGate makes Connect block until gate is closed.
func (m *MockGraphClient) SetConnectGate(gate chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectGate = gate
}

// SetConnectError configures Connect() to return an error.
func (m *MockGraphClient) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetCloseError configures Close() to return an error.
func (m *MockGraphClient) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeError = err
}

// SetSessionError configures NewSession() to return an error.
func (m *MockGraphClient) SetSessionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionError = err
}

// SetQueryError makes every query fail with err, regardless of routes.
func (m *MockGraphClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
}

// SetHealthStatus configures what Health() should return while connected.
func (m *MockGraphClient) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthStatus = status
}

// GetCalls returns all recorded method calls.
func (m *MockGraphClient) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// GetCallsByMethod returns all calls to a specific method.
func (m *MockGraphClient) GetCallsByMethod(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, 0)
	for _, call := range m.calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// ConnectCount returns the number of Connect calls.
func (m *MockGraphClient) ConnectCount() int {
	return len(m.GetCallsByMethod("Connect"))
}

// QueryCount returns the number of queries whose text contains match.
// An empty match counts every query.
func (m *MockGraphClient) QueryCount(match string) int {
	n := 0
	for _, call := range m.GetCallsByMethod("Query") {
		if cypher, ok := call.Args[0].(string); ok && strings.Contains(cypher, match) {
			n++
		}
	}
	return n
}

// SessionCounts returns how many sessions were opened and closed.
func (m *MockGraphClient) SessionCounts() (opened, closed int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionsOpened, m.sessionsClosed
}

// IsConnected returns whether the mock is in connected state.
func (m *MockGraphClient) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// ResetCalls clears recorded calls but keeps routes and state.
func (m *MockGraphClient) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make([]MockCall, 0)
}
