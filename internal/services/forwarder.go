package services

import (
	"context"

	"github.com/lovance/backend/internal/events"

	"github.com/rs/zerolog"
)

// WSForwarder relays content and pairing events to the affected users'
// realtime connections. Delivery is best effort.
type WSForwarder struct {
	hub    *WSHub
	logger zerolog.Logger
}

// NewWSForwarder creates a new realtime event forwarder
func NewWSForwarder(hub *WSHub, logger zerolog.Logger) *WSForwarder {
	return &WSForwarder{hub: hub, logger: logger}
}

// EventTypes lists the events the forwarder relays.
func (f *WSForwarder) EventTypes() []string {
	return []string{
		events.TypeContentCreated,
		events.TypeContentRead,
		events.TypePartnerConnected,
		events.TypePartnerDisconnected,
	}
}

// Handle forwards an event as WS frames.
func (f *WSForwarder) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ContentCreated:
		f.send(e.ReceiverID, WSMessage{Type: MsgContentNew, Data: e.Content})
	case events.ContentRead:
		f.send(e.SenderID, WSMessage{Type: MsgContentRead, ContentID: e.ContentID})
	case events.PartnerConnected:
		msg := WSMessage{Type: MsgPartnerConnected, Data: e.Partnership}
		f.send(e.Partnership.UserAID, msg)
		f.send(e.Partnership.UserBID, msg)
	case events.PartnerDisconnected:
		msg := WSMessage{Type: MsgPartnerDisconnected}
		f.send(e.UserAID, msg)
		f.send(e.UserBID, msg)
	}
	return nil
}

func (f *WSForwarder) send(userID string, msg WSMessage) {
	if userID == "" || !f.hub.IsOnline(userID) {
		return
	}
	if err := f.hub.Send(userID, msg); err != nil {
		f.logger.Debug().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Frame not delivered")
	}
}
