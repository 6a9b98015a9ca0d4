package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// Dependencies holds all dependencies for the daemon.
type Dependencies struct {
	Analyze     AnalyzeRunner
	Modules     ModulesRunner
	Models      ModelsRunner
	LockManager LockManager
	Logger      Logger
}

// LockManager manages per-repository analysis locks.
type LockManager interface {
	Acquire(key, holder string) bool
	Release(key string)
	Active() int
}

// Logger provides logging functionality.
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// Server answers analysis requests over a unix socket so repeated CLI
// invocations reuse the warm file cache.
type Server struct {
	socketPath string
	listener   net.Listener

	// Graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Dependencies
	deps *Dependencies

	// Stats
	stats *Stats
}

// Stats tracks daemon statistics.
type Stats struct {
	mu           sync.RWMutex
	requestCount int64
	errorCount   int64
	activeConns  int32
	startTime    time.Time
}

// New creates a daemon with injected dependencies.
func New(socketPath string, deps *Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		socketPath: socketPath,
		ctx:        ctx,
		cancel:     cancel,
		deps:       deps,
		stats:      &Stats{startTime: time.Now()},
	}
}

// Run starts the daemon and blocks until shutdown.
func (s *Server) Run() error {
	// Ensure socket directory exists
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	// Remove old socket if exists
	os.Remove(s.socketPath)

	// Listen on socket
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions (owner only)
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		s.deps.Logger.Println("Shutting down daemon...")
		s.Shutdown()
	}()

	s.deps.Logger.Printf("Daemon listening on %s", s.socketPath)

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil // Clean shutdown
			default:
				s.deps.Logger.Printf("Accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection processes a client connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Track connection stats
	s.stats.mu.Lock()
	s.stats.activeConns++
	s.stats.mu.Unlock()

	defer func() {
		s.stats.mu.Lock()
		s.stats.activeConns--
		s.stats.mu.Unlock()
	}()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		// Check for shutdown
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		// Set read deadline
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		// Read request
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err.Error() == "EOF" || os.IsTimeout(err) {
				return
			}
			// Send parse error
			encoder.Encode(NewErrorResponse(RequestID{}, ParseError, "Parse error"))
			return
		}

		// Update stats
		s.stats.mu.Lock()
		s.stats.requestCount++
		s.stats.mu.Unlock()

		// Process request
		resp := s.processRequest(req)

		// Send response
		if err := encoder.Encode(resp); err != nil {
			return
		}
	}
}

// processRequest handles a single request.
func (s *Server) processRequest(req Request) Response {
	s.deps.Logger.Printf("[DAEMON] Processing %s request (ID: %s)", req.Method, req.ID.value)

	// Validate JSON-RPC version
	if req.JSONRPC != jsonRPCVersion {
		return NewErrorResponse(req.ID, InvalidRequest, "Invalid Request")
	}

	// Route to handler based on method
	var resp Response
	start := time.Now()

	switch req.Method {
	case "analyze":
		resp = s.handleAnalysis(req, s.deps.Analyze, "analyze", 60*time.Second)
	case "modules":
		resp = s.handleAnalysis(req, s.deps.Modules, "modules", 30*time.Second)
	case "models":
		resp = s.handleAnalysis(req, s.deps.Models, "models", 60*time.Second)
	case "stats":
		resp = s.handleStats(req)
	default:
		resp = NewErrorResponse(req.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}

	// Log completion
	duration := time.Since(start)
	if resp.Error != nil {
		s.deps.Logger.Printf("[DAEMON] %s failed in %v: %s", req.Method, duration, resp.Error.Message)
	} else {
		s.deps.Logger.Printf("[DAEMON] %s completed in %v", req.Method, duration)
	}

	return resp
}

// handleAnalysis runs one analysis method. Concurrent requests for the same
// repository are rejected instead of queued so a slow walk cannot pile up
// identical work behind it.
func (s *Server) handleAnalysis(req Request, runner Runner, method string, defaultTimeout time.Duration) Response {
	// Parse params
	var params MethodParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return NewErrorResponse(req.ID, InvalidParams, fmt.Sprintf("Invalid params: %v", err))
		}
	}

	if params.Path != "" {
		lockKey := fmt.Sprintf("%s:%s", params.Path, method)
		if !s.deps.LockManager.Acquire(lockKey, "daemon") {
			return NewErrorResponse(req.ID, InternalError, "Repository busy")
		}
		defer s.deps.LockManager.Release(lockKey)
	}

	// Create context with timeout
	timeout := defaultTimeout
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	output, err := runner.Run(ctx, params)
	if err != nil {
		s.stats.mu.Lock()
		s.stats.errorCount++
		s.stats.mu.Unlock()
		return NewErrorResponse(req.ID, InternalError, err.Error())
	}

	return NewSuccessResponseWithMeta(req.ID, output, map[string]string{"via": "daemon"})
}

// handleStats returns daemon statistics. The output is a plain-text fallback;
// the meta map carries the individual values so clients can render them.
func (s *Server) handleStats(req Request) Response {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	uptime := time.Since(s.stats.startTime).Round(time.Second)
	meta := map[string]string{
		"Uptime":             uptime.String(),
		"Requests":           fmt.Sprintf("%d", s.stats.requestCount),
		"Errors":             fmt.Sprintf("%d", s.stats.errorCount),
		"Active Connections": fmt.Sprintf("%d", s.stats.activeConns),
		"Active Locks":       fmt.Sprintf("%d", s.deps.LockManager.Active()),
		"Socket":             s.socketPath,
	}

	stats := fmt.Sprintf("Daemon Stats:\n"+
		"  Uptime: %v\n"+
		"  Requests: %d\n"+
		"  Errors: %d\n"+
		"  Active Connections: %d\n"+
		"  Active Locks: %d\n"+
		"  Socket: %s",
		uptime, s.stats.requestCount, s.stats.errorCount,
		s.stats.activeConns, s.deps.LockManager.Active(), s.socketPath)

	return NewSuccessResponseWithMeta(req.ID, stats, meta)
}

// Shutdown gracefully shuts down the daemon.
func (s *Server) Shutdown() {
	s.cancel() // Signal shutdown

	// Close listener
	if s.listener != nil {
		s.listener.Close()
	}

	// Wait for active connections
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.deps.Logger.Println("Clean shutdown completed")
	case <-time.After(5 * time.Second):
		s.deps.Logger.Println("Forced shutdown after timeout")
	}

	// Cleanup
	os.Remove(s.socketPath)
}
