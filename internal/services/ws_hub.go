package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lovance/backend/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server-to-client and client-to-server frame types.
const (
	MsgPairStatus          = "pair_status"
	MsgPartnerStatus       = "partner_status"
	MsgPartnerConnected    = "partner_connected"
	MsgPartnerDisconnected = "partner_disconnected"
	MsgContentNew          = "content_new"
	MsgContentRead         = "content_read"
	MsgWidgetUpdate        = "widget_update"
	MsgPing                = "ping"
	MsgPong                = "pong"
	MsgMarkRead            = "mark_read"
	MsgError               = "error"
)

// WSMessage represents a WebSocket frame in either direction.
type WSMessage struct {
	Type      string      `json:"type"`
	ContentID string      `json:"content_id,omitempty"`
	Online    *bool       `json:"online,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// wsConn serializes writes to one websocket connection. Event fan-out
// means several goroutines (HTTP handlers publishing on the bus, the read
// loop answering pings) converge on a single socket, and gorilla permits
// only one concurrent writer.
type wsConn struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (c *wsConn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per user.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsConn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsConn),
	}
}

// Register registers a connection for a user, replacing any existing one.
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if existing, ok := h.connections[userID]; ok {
		existing.conn.Close()
	} else {
		metrics.WSConnections.Inc()
	}
	h.connections[userID] = &wsConn{conn: conn}
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the connection for a user. A no-op when the stored
// connection is not conn (the user already reconnected).
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.connections[userID]
	if !ok || current.conn != conn {
		return
	}
	current.conn.Close()
	delete(h.connections, userID)
	metrics.WSConnections.Dec()
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// Send sends a frame to a specific user.
func (h *WSHub) Send(userID string, message WSMessage) error {
	h.mu.RLock()
	current, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := current.write(data); err != nil {
		h.Unregister(userID, current.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user has an open connection.
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// NotifyPartnerStatus tells a partner the user went online or offline.
func (h *WSHub) NotifyPartnerStatus(partnerID string, online bool) {
	if partnerID == "" {
		return
	}
	message := WSMessage{
		Type:   MsgPartnerStatus,
		Online: &online,
	}
	if err := h.Send(partnerID, message); err != nil {
		log.Debug().Err(err).Str("user_id", partnerID).Msg("Partner status not delivered")
	}
}

// Close closes all connections. Used at shutdown.
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, current := range h.connections {
		current.conn.Close()
		delete(h.connections, userID)
		metrics.WSConnections.Dec()
	}
}
