package server

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonRPCVersion is the only protocol version the daemon speaks.
const jsonRPCVersion = "2.0"

// RequestID represents a JSON-RPC request ID (can be string or number).
type RequestID struct {
	value string
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler. String and number IDs are both
// stored as their string form; null becomes the empty ID.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	switch {
	case raw == "null":
		id.value = ""
		return nil
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id.value = s
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("request id must be a string or number: %w", err)
		}
		id.value = n.String()
		return nil
	}
}

// Request represents a JSON-RPC 2.0 request with concrete types.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response with concrete types.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      RequestID `json:"id"`
	Result  *Result   `json:"result,omitempty"`
	Error   *Error    `json:"error,omitempty"`
}

// Result represents a successful response.
type Result struct {
	Output string            `json:"output"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// MethodParams contains parameters for analysis method calls.
type MethodParams struct {
	// Path is the addons repository (or single module) to analyze.
	Path string `json:"path"`
	// Format selects the output encoding: json, yaml or table.
	Format string `json:"format,omitempty"`
	// Languages overrides the configured language buckets.
	Languages []string `json:"languages,omitempty"`
	// Recursive enables nested module discovery.
	Recursive bool `json:"recursive,omitempty"`
	// Timeout bounds the analysis, in seconds.
	Timeout int `json:"timeout,omitempty"`
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id RequestID, code int, message string) Response {
	return Response{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
}

// NewSuccessResponse creates a success response.
func NewSuccessResponse(id RequestID, output string) Response {
	return Response{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Result: &Result{
			Output: output,
		},
	}
}

// NewSuccessResponseWithMeta creates a success response with metadata.
func NewSuccessResponseWithMeta(id RequestID, output string, meta map[string]string) Response {
	return Response{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Result: &Result{
			Output: output,
			Meta:   meta,
		},
	}
}
