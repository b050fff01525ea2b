package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/report"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST routes only
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// WSMessage is a message sent over WebSocket connections.
//
// Server to client types: progress, analysis_complete, analysis_result,
// analysis_error, pong. Client to server types: analyze, ping.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WSHub fans messages out to connected clients. The Run goroutine owns the
// client set and is the only writer to, and closer of, client send channels.
// Broadcasts and direct messages share one queue, so a client sees them in
// the order they were queued.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	outbox     chan outbound
	register   chan *WSClient
	unregister chan *WSClient
	quit       chan struct{}
	stopOnce   sync.Once
}

// outbound is a queued message; a nil to means every client.
type outbound struct {
	to  *WSClient
	msg WSMessage
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		outbox:     make(chan outbound, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub event loop. It returns after Stop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.drop(client)
		case out := <-h.outbox:
			h.deliver(out)
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *WSHub) deliver(out outbound) {
	h.mu.RLock()
	var slow []*WSClient
	for client := range h.clients {
		if out.to != nil && client != out.to {
			continue
		}
		select {
		case client.send <- out.msg:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.drop(c)
	}
}

func (h *WSHub) drop(client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Stop ends Run and closes every client.
func (h *WSHub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Broadcast sends a message to all connected clients. Messages are dropped
// when the hub is saturated.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.outbox <- outbound{msg: msg}:
	default:
	}
}

// Send queues a message for one client behind everything already queued.
// It is a no-op once the client has left or the hub has stopped.
func (h *WSHub) Send(client *WSClient, msg WSMessage) {
	select {
	case h.outbox <- outbound{to: client, msg: msg}:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// handleWebSocket upgrades the connection and streams progress events.
// Clients may also start an analysis over the socket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}
	s.wsHub.Register(client)

	go wsWritePump(conn, client)
	go s.wsReadPump(conn, client)
}

// wsReadPump reads client messages until the connection closes.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		var msg struct {
			Type string         `json:"type"`
			Data AnalyzeRequest `json:"data"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ping":
			client.hub.Send(client, WSMessage{Type: "pong"})
		case "analyze":
			go s.wsAnalyze(ctx, client, msg.Data)
		}
	}
}

// wsAnalyze runs one analysis for a socket client. Progress reaches every
// client through the hub; the result goes to the requester only, queued
// after the run's progress events.
func (s *Server) wsAnalyze(ctx context.Context, client *WSClient, req AnalyzeRequest) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	res, err := s.svc.RunDetailed(ctx, pipeline.Request{Company: req.Company, Articles: req.Articles})
	if err != nil {
		client.hub.Send(client, WSMessage{Type: "analysis_error", Data: map[string]string{
			"company": req.Company,
			"error":   err.Error(),
		}})
		return
	}
	client.hub.Send(client, WSMessage{Type: "analysis_result", Data: map[string]any{
		"run_id": res.RunID,
		"report": report.NewPayload(res.Report),
	}})
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
