package rpc

import (
	"context"
	"encoding/json"
)

// RpcContext contains request-specific information
type RpcContext struct {
	Context  context.Context
	ClientIP string
}

// MethodHandler is implemented by all RPC methods
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (any, *RpcError)
}

// MethodFunc adapts a function to MethodHandler
type MethodFunc func(ctx *RpcContext, params json.RawMessage) (any, *RpcError)

func (f MethodFunc) Handle(ctx *RpcContext, params json.RawMessage) (any, *RpcError) {
	return f(ctx, params)
}

// MethodRegistry maps method names to handlers
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	return methods
}

// Stream names clients can subscribe to over websocket.
type SubscriptionType string

const (
	// SubTransactions delivers every applied transaction
	SubTransactions SubscriptionType = "transactions"

	// SubServer delivers sequence advances
	SubServer SubscriptionType = "server"
)

// SubscriptionRequest is the params of subscribe and unsubscribe.
type SubscriptionRequest struct {
	Streams []SubscriptionType `json:"streams,omitempty"`
}

// WebSocketResponse is the reply to a websocket command.
type WebSocketResponse struct {
	Type   string    `json:"type"`
	ID     any       `json:"id,omitempty"`
	Status string    `json:"status,omitempty"`
	Result any       `json:"result,omitempty"`
	Error  *RpcError `json:"error,omitempty"`
}
