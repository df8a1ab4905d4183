package testutils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/internal/api/handlers"
	"github.com/PxPatel/crossing-engine/internal/api/routes"
	"github.com/PxPatel/crossing-engine/internal/identity"
	"github.com/PxPatel/crossing-engine/internal/matching"
	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/storage/file"
	"github.com/PxPatel/crossing-engine/internal/storage/memory"
	"github.com/PxPatel/crossing-engine/internal/types"
	"github.com/PxPatel/crossing-engine/internal/validation"
)

// TestServer wraps a test HTTP server with the matching engine
type TestServer struct {
	Server           *httptest.Server
	Engine           *matching.Engine
	Orders           *memory.InMemoryOrderStore
	Executions       storage.ExecutionStore
	ExecutionLogPath string
	t                testing.TB
}

// NewTestServer creates a new test server with a fresh engine
func NewTestServer(t testing.TB) *TestServer {
	// Create temporary execution log file
	tmpDir := t.TempDir()
	executionLogPath := filepath.Join(tmpDir, "test_executions.log")

	executionLog, err := file.NewExecutionLog(executionLogPath)
	require.NoError(t, err)

	orders := memory.NewInMemoryOrderStore(0)
	executions := storage.NewCompositeExecutionStore(memory.NewInMemoryExecutionStore(100), executionLog)
	ids := identity.NewProvider(identity.RealClock{})

	engine := matching.NewEngine(orders,
		matching.WithExecutionStore(executions),
		matching.WithIdentity(ids),
	)

	validator, err := validation.NewValidator(validation.DefaultUniverse)
	require.NoError(t, err)

	// Create handler and server
	engineHolder := handlers.NewEngineHolder(engine, ids, validator, handlers.Limits{
		DefaultExecutions: 100,
		MaxExecutions:     1000,
	})
	handler := routes.SetupRoutes(engineHolder, []string{"*"})
	server := httptest.NewServer(handler)

	return &TestServer{
		Server:           server,
		Engine:           engine,
		Orders:           orders,
		Executions:       executions,
		ExecutionLogPath: executionLogPath,
		t:                t,
	}
}

// Close cleans up the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Executions.Close()
	// Cleanup is automatic via t.TempDir()
}

// URL returns the base URL for the test server
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// Get makes a GET request to the test server
func (ts *TestServer) Get(path string) *http.Response {
	return ts.GetWithHeaders(path, nil)
}

// GetWithHeaders makes a GET request with extra headers
func (ts *TestServer) GetWithHeaders(path string, headers map[string]string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, ts.URL()+path, nil)
	require.NoError(ts.t, err, "Failed to create GET request")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err, "GET request failed")
	return resp
}

// Post makes a POST request with JSON body
func (ts *TestServer) Post(path string, body interface{}) *http.Response {
	jsonBody, err := json.Marshal(body)
	require.NoError(ts.t, err, "Failed to marshal request body")

	resp, err := http.Post(ts.URL()+path, "application/json", bytes.NewBuffer(jsonBody))
	require.NoError(ts.t, err, "POST request failed")
	return resp
}

// PostRaw makes a POST request with an unencoded body
func (ts *TestServer) PostRaw(path, body string) *http.Response {
	resp, err := http.Post(ts.URL()+path, "application/json", bytes.NewBufferString(body))
	require.NoError(ts.t, err, "POST request failed")
	return resp
}

// Delete makes a DELETE request
func (ts *TestServer) Delete(path string) *http.Response {
	return ts.DeleteWithHeaders(path, nil)
}

// DeleteWithHeaders makes a DELETE request with extra headers
func (ts *TestServer) DeleteWithHeaders(path string, headers map[string]string) *http.Response {
	req, err := http.NewRequest(http.MethodDelete, ts.URL()+path, nil)
	require.NoError(ts.t, err, "Failed to create DELETE request")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err, "DELETE request failed")
	return resp
}

// DecodeJSON decodes JSON response into target
func DecodeJSON(t testing.TB, resp *http.Response, target interface{}) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")

	err = json.Unmarshal(body, target)
	require.NoError(t, err, "Failed to decode JSON response: %s", string(body))
}

// ReadExecutionLog reads the execution log file and returns executions
func (ts *TestServer) ReadExecutionLog() []types.Execution {
	f, err := os.Open(ts.ExecutionLogPath)
	if err != nil {
		return []types.Execution{}
	}
	defer f.Close()

	var executions []types.Execution
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var execution types.Execution
		if err := json.Unmarshal(scanner.Bytes(), &execution); err != nil {
			ts.t.Fatalf("Failed to decode execution: %v", err)
		}
		executions = append(executions, execution)
	}
	return executions
}

// OpenOrderQuantities returns resting quantity by order id
func (ts *TestServer) OpenOrderQuantities() map[string]int {
	orders, err := ts.Orders.QueryAll(context.Background())
	require.NoError(ts.t, err)

	result := make(map[string]int, len(orders))
	for _, order := range orders {
		result[order.ID] = order.Quantity
	}
	return result
}
