package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lovance/backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients connect from app-local origins
	},
}

// WebSocketHandler handles realtime connections
type WebSocketHandler struct {
	hub            *services.WSHub
	userService    *services.UserService
	partnerService *services.PartnerService
	contentService *services.ContentService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	partnerService *services.PartnerService,
	contentService *services.ContentService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		userService:    userService,
		partnerService: partnerService,
		contentService: contentService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}
	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)

	ctx := r.Context()
	partnerID := h.sendPairStatus(ctx, userID)
	if partnerID != "" {
		h.hub.NotifyPartnerStatus(partnerID, true)
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	defer func() {
		h.hub.Unregister(userID, conn)
		if partnerID != "" {
			h.hub.NotifyPartnerStatus(partnerID, false)
		}
	}()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(userID, err.Error())
		}
	}
}

// sendPairStatus sends the initial pair_status frame and returns the
// partner ID when the user is paired.
func (h *WebSocketHandler) sendPairStatus(ctx context.Context, userID string) string {
	partnership, err := h.partnerService.Partnership(ctx, userID)

	var msg services.WSMessage
	partnerID := ""
	if err == nil {
		partnerID = partnership.PartnerOf(userID)
		online := h.hub.IsOnline(partnerID)
		msg = services.WSMessage{
			Type: services.MsgPairStatus,
			Data: map[string]interface{}{
				"has_partner":    true,
				"partnership_id": partnership.ID,
				"partner_id":     partnerID,
				"partner_online": online,
			},
		}
	} else {
		msg = services.WSMessage{
			Type: services.MsgPairStatus,
			Data: map[string]interface{}{
				"has_partner": false,
			},
		}
	}

	if err := h.hub.Send(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send pair_status message")
	}
	return partnerID
}

// handleMessage processes an incoming client frame.
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case services.MsgPing:
		return h.hub.Send(userID, services.WSMessage{Type: services.MsgPong})
	case services.MsgMarkRead:
		if msg.ContentID == "" {
			return h.hub.Send(userID, services.WSMessage{
				Type:    services.MsgError,
				Message: "content_id is required",
			})
		}
		return h.contentService.MarkRead(ctx, userID, msg.ContentID)
	default:
		return h.hub.Send(userID, services.WSMessage{
			Type:    services.MsgError,
			Message: "Unknown message type",
		})
	}
}

// sendError sends an error frame through the hub so the write shares the
// connection's write lock.
func (h *WebSocketHandler) sendError(userID, message string) {
	err := h.hub.Send(userID, services.WSMessage{
		Type:    services.MsgError,
		Message: message,
	})
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("Error frame not delivered")
	}
}
