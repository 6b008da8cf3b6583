package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/medscan/internal/extract"
	"github.com/ironsheep/medscan/internal/imaging"
	"github.com/ironsheep/medscan/internal/logger"
	"github.com/ironsheep/medscan/internal/records"
	"github.com/ironsheep/medscan/internal/scan"
)

// ServerName is reported in the initialize handshake.
const ServerName = "medscan-mcp"

const (
	jsonrpcVersion  = "2.0"
	protocolVersion = "2024-11-05"

	// maxMessageSize bounds one request line; tool arguments carry paths, not pixels.
	maxMessageSize = 1 << 20
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// Version is reported in the initialize handshake. Set by main.
var Version = "0.1.0"

// Server answers MCP requests with the scan pipeline and, when configured, the record store.
type Server struct {
	pipeline  *scan.Pipeline
	enhancer  *imaging.Enhancer
	extractor *extract.Extractor

	// store is optional; the review tools fail without it.
	store *records.Store
}

// MCPRequest is one JSON-RPC message from the client. ID is nil for notifications.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse carries either Result or Error.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError is the JSON-RPC error object.
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server around a scan pipeline. store may be nil.
func New(pipeline *scan.Pipeline, store *records.Store) *Server {
	enhancer := pipeline.Enhancer
	if enhancer == nil {
		enhancer = imaging.NewEnhancer(imaging.DefaultContrast, 0)
	}
	return &Server{
		pipeline:  pipeline,
		enhancer:  enhancer,
		extractor: pipeline.Extractor,
		store:     store,
	}
}

// Run serves MCP over the process's stdio until stdin closes.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC message per line from r and writes each reply as
// a line on w. Blank lines are skipped; notifications get no reply.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	out := json.NewEncoder(w)

	for lines.Scan() {
		msg := lines.Bytes()
		if len(msg) == 0 {
			continue
		}

		resp := s.dispatch(msg)
		if resp == nil {
			continue
		}
		if err := out.Encode(resp); err != nil {
			logger.WithError(err).Error("failed to write reply")
		}
	}

	if err := lines.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}

// dispatch decodes one message and hands it to handleRequest.
func (s *Server) dispatch(msg []byte) *MCPResponse {
	var req MCPRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.WithError(err).Warn("unparseable request")
		return failure(nil, codeParseError, "Parse error", err.Error())
	}
	return s.handleRequest(&req)
}

func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	logger.WithFields(logrus.Fields{"method": req.Method, "id": req.ID}).Debug("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return reply(req.ID, map[string]interface{}{})
	}
	return failure(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return reply(req.ID, map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": Version,
		},
	})
}

func reply(id interface{}, result interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

// failure builds an error reply. data carries the underlying Go error text.
func failure(id interface{}, code int, message, data string) *MCPResponse {
	mcpErr := &MCPError{Code: code, Message: message}
	if data != "" {
		mcpErr.Data = data
	}
	return &MCPResponse{JSONRPC: jsonrpcVersion, ID: id, Error: mcpErr}
}
