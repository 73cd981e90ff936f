package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketServer handles websocket connections for commands and
// real-time subscriptions.
type WebSocketServer struct {
	upgrader  websocket.Upgrader
	registry  *MethodRegistry
	publisher *Publisher

	connections map[string]*wsConnection
	mu          sync.RWMutex

	pingInterval time.Duration
}

type wsConnection struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWebSocketServer creates a websocket server sharing the HTTP
// server's method registry.
func NewWebSocketServer(registry *MethodRegistry, publisher *Publisher, pingInterval time.Duration) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:     registry,
		publisher:    publisher,
		connections:  make(map[string]*wsConnection),
		pingInterval: pingInterval,
	}
}

// ServeHTTP upgrades the connection and starts its read and write
// loops.
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	wsConn := &wsConnection{
		id:     fmt.Sprintf("conn_%d", time.Now().UnixNano()),
		conn:   conn,
		send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}

	ws.mu.Lock()
	ws.connections[wsConn.id] = wsConn
	ws.mu.Unlock()
	ws.publisher.AddSubscriber(wsConn.id, wsConn.send)

	go ws.readLoop(wsConn)
	go ws.writeLoop(wsConn)
}

func (ws *WebSocketServer) readLoop(wsConn *wsConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(512 * 1024)
	wsConn.conn.SetReadDeadline(time.Now().Add(2 * ws.pingInterval))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(2 * ws.pingInterval))
		return nil
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

func (ws *WebSocketServer) writeLoop(wsConn *wsConnection) {
	ticker := time.NewTicker(ws.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case message := <-wsConn.send:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket send failed: %v", err)
				return
			}
		}
	}
}

// handleMessage dispatches one websocket command. Commands carry their
// fields at the top level next to "command" and "id".
func (ws *WebSocketServer) handleMessage(wsConn *wsConnection, message []byte) {
	var cmdMap map[string]any
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, RpcErrorInvalidParams("Invalid JSON: "+err.Error()), nil)
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing command field"), nil)
		return
	}
	id := cmdMap["id"]

	delete(cmdMap, "command")
	delete(cmdMap, "id")
	var params json.RawMessage
	if len(cmdMap) > 0 {
		params, _ = json.Marshal(cmdMap)
	}

	switch command {
	case "subscribe":
		ws.handleSubscription(wsConn, params, id, true)
		return
	case "unsubscribe":
		ws.handleSubscription(wsConn, params, id, false)
		return
	}

	handler, exists := ws.registry.Get(command)
	if !exists {
		ws.sendError(wsConn, RpcErrorMethodNotFound(command), id)
		return
	}

	rpcCtx := &RpcContext{
		Context:  wsConn.ctx,
		ClientIP: wsConn.conn.RemoteAddr().String(),
	}
	result, rpcErr := handler.Handle(rpcCtx, params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, id)
		return
	}
	ws.sendResponse(wsConn, WebSocketResponse{
		Type:   "response",
		ID:     id,
		Status: "success",
		Result: result,
	})
}

func (ws *WebSocketServer) handleSubscription(wsConn *wsConnection, params json.RawMessage, id any, subscribe bool) {
	var request SubscriptionRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request); err != nil {
			ws.sendError(wsConn, RpcErrorInvalidParams("Invalid subscription parameters"), id)
			return
		}
	}
	for _, stream := range request.Streams {
		if stream != SubTransactions && stream != SubServer {
			ws.sendError(wsConn, RpcErrorInvalidParams("Unknown stream: "+string(stream)), id)
			return
		}
	}

	if subscribe {
		ws.publisher.Subscribe(wsConn.id, request.Streams)
	} else {
		ws.publisher.Unsubscribe(wsConn.id, request.Streams)
	}

	ws.sendResponse(wsConn, WebSocketResponse{
		Type:   "response",
		ID:     id,
		Status: "success",
		Result: map[string]any{"subscribed": subscribe},
	})
}

func (ws *WebSocketServer) sendResponse(wsConn *wsConnection, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket response: %v", err)
		return
	}
	ws.enqueue(wsConn, data)
}

// sendError sends an error with flat fields at the top level.
func (ws *WebSocketServer) sendError(wsConn *wsConnection, rpcErr *RpcError, id any) {
	response := map[string]any{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket error response: %v", err)
		return
	}
	ws.enqueue(wsConn, data)
}

func (ws *WebSocketServer) enqueue(wsConn *wsConnection, data []byte) {
	select {
	case wsConn.send <- data:
	case <-wsConn.ctx.Done():
	default:
		log.Printf("WebSocket send channel full, closing connection %s", wsConn.id)
		ws.closeConnection(wsConn)
	}
}

// Shutdown closes every active connection.
func (ws *WebSocketServer) Shutdown() {
	ws.mu.RLock()
	conns := make([]*wsConnection, 0, len(ws.connections))
	for _, wsConn := range ws.connections {
		conns = append(conns, wsConn)
	}
	ws.mu.RUnlock()

	for _, wsConn := range conns {
		ws.closeConnection(wsConn)
	}
}

func (ws *WebSocketServer) closeConnection(wsConn *wsConnection) {
	wsConn.cancel()

	ws.mu.Lock()
	delete(ws.connections, wsConn.id)
	ws.mu.Unlock()

	ws.publisher.RemoveSubscriber(wsConn.id)
	wsConn.conn.Close()
}
