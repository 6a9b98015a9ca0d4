// Package server provides the JSON-RPC analysis daemon for addons-analyzer.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultDialTimeout is the default timeout for connecting to the daemon.
	DefaultDialTimeout = 5 * time.Second
)

// Client handles communication with the daemon using concrete types.
type Client struct {
	socketPath  string
	dialTimeout time.Duration
}

// NewClient creates a new client instance with default timeout.
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	return &Client{
		socketPath:  socketPath,
		dialTimeout: DefaultDialTimeout,
	}
}

// NewClientWithTimeout creates a new client instance with custom timeout.
func NewClientWithTimeout(socketPath string, timeout time.Duration) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	return &Client{
		socketPath:  socketPath,
		dialTimeout: timeout,
	}
}

// DefaultSocketPath returns the default socket path.
func DefaultSocketPath() string {
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return filepath.Join(runtime, "addons-analyzer.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("addons-analyzer-%d.sock", os.Getuid()))
}

// Call executes a method on the daemon and returns the result.
func (c *Client) Call(method string, params MethodParams) (string, map[string]string, error) {
	// Check if socket exists
	if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
		return "", nil, fmt.Errorf("daemon not running (socket not found: %s)", c.socketPath)
	}

	// Connect to daemon
	d := &net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(context.Background(), "unix", c.socketPath)
	if err != nil {
		return "", nil, fmt.Errorf("connect to daemon: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Analysis can outlast the dial timeout on large repositories.
	deadline := time.Now().Add(c.dialTimeout + 60*time.Second)
	if params.Timeout > 0 {
		deadline = time.Now().Add(c.dialTimeout + time.Duration(params.Timeout)*time.Second)
	}
	if deadlineErr := conn.SetDeadline(deadline); deadlineErr != nil {
		return "", nil, fmt.Errorf("set deadline: %w", deadlineErr)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", nil, fmt.Errorf("marshal params: %w", err)
	}

	req := Request{
		JSONRPC: jsonRPCVersion,
		ID:      RequestID{value: "1"},
		Method:  method,
		Params:  paramsJSON,
	}

	// Send request
	encoder := json.NewEncoder(conn)
	if encErr := encoder.Encode(req); encErr != nil {
		return "", nil, fmt.Errorf("send request: %w", encErr)
	}

	// Read response
	decoder := json.NewDecoder(conn)
	var resp Response
	if decErr := decoder.Decode(&resp); decErr != nil {
		return "", nil, fmt.Errorf("read response: %w", decErr)
	}

	// Check for error
	if resp.Error != nil {
		return "", nil, fmt.Errorf("daemon error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	// Extract result
	if resp.Result == nil {
		return "", nil, fmt.Errorf("no result in response")
	}

	return resp.Result.Output, resp.Result.Meta, nil
}

// TryCallWithFallback attempts to call the daemon, falling back to direct
// analysis in-process.
func TryCallWithFallback(method string, params MethodParams, directFunc func() (string, error)) (string, error) {
	// Check if daemon mode is disabled
	if os.Getenv("ADDONS_ANALYZER_NO_SERVER") == "1" {
		fmt.Fprintf(os.Stderr, "[addons-analyzer] daemon disabled, analyzing directly for %s\n", method)
		return directFunc()
	}

	// Try custom socket path if specified
	socketPath := os.Getenv("ADDONS_ANALYZER_SOCKET")
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}

	client := NewClient(socketPath)

	// Try daemon first
	result, meta, err := client.Call(method, params)
	if err == nil {
		if meta != nil && meta["via"] == "daemon" {
			fmt.Fprintf(os.Stderr, "[addons-analyzer] using daemon for %s\n", method)
		}
		return result, nil
	}

	// Show fallback in stderr with error details for debugging
	fmt.Fprintf(os.Stderr, "[addons-analyzer] daemon unavailable, analyzing directly for %s (error: %v)\n", method, err)

	// Fallback to direct analysis
	return directFunc()
}
