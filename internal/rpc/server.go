package rpc

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Server handles HTTP JSON-RPC requests.
// Format: {"method": "method_name", "params": [{...}]}
type Server struct {
	registry *MethodRegistry
	timeout  time.Duration
}

// NewServer creates an RPC server bound to node.
func NewServer(node *Node, timeout time.Duration) *Server {
	server := &Server{
		registry: NewMethodRegistry(),
		timeout:  timeout,
	}
	registerAllMethods(server.registry, node)
	return server
}

// Registry exposes the method registry so the websocket server can
// share it.
func (s *Server) Registry() *MethodRegistry {
	return s.registry
}

// Request is a JSON-RPC request with params as a one-element array.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, RpcErrorInternal("Failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, NewRpcError(RpcUNKNOWN, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeError(w, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing method field"))
		return
	}

	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := &RpcContext{
		Context:  r.Context(),
		ClientIP: clientIP(r),
	}

	handler, exists := s.registry.Get(request.Method)
	if !exists {
		s.writeError(w, RpcErrorMethodNotFound(request.Method))
		return
	}

	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		s.writeError(w, rpcErr)
		return
	}
	s.writeResult(w, result)
}

func (s *Server) writeResult(w http.ResponseWriter, result any) {
	response := map[string]any{"result": result}
	if resultMap, ok := result.(map[string]any); ok {
		resultMap["status"] = "success"
	} else {
		response["result"] = map[string]any{
			"status": "success",
			"data":   result,
		}
	}
	s.write(w, response)
}

func (s *Server) writeError(w http.ResponseWriter, rpcErr *RpcError) {
	s.write(w, map[string]any{
		"result": map[string]any{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		},
	})
}

func (s *Server) write(w http.ResponseWriter, response map[string]any) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
