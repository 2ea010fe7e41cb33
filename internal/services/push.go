package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/config"
	"github.com/lovance/backend/internal/events"
	"github.com/lovance/backend/internal/metrics"
	"github.com/lovance/backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsClient is the slice of apns2.Client the relay uses.
type APNsClient interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

// PushRelay delivers content and pairing notifications to partner devices,
// the in-process replacement for the hosted platform's trigger function.
// Delivery is best effort: failures are logged, never surfaced to senders.
type PushRelay struct {
	devices DeviceStore
	client  APNsClient
	topic   string
	logger  zerolog.Logger
}

// NewPushRelay builds the relay from APNs configuration. An empty key file
// disables push entirely.
func NewPushRelay(cfg config.APNsConfig, devices DeviceStore, logger zerolog.Logger) (*PushRelay, error) {
	relay := &PushRelay{
		devices: devices,
		topic:   cfg.Topic,
		logger:  logger,
	}

	if cfg.KeyFile == "" {
		logger.Warn().Msg("APNs key not configured, push delivery disabled")
		return relay, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	relay.client = client

	return relay, nil
}

// NewPushRelayWithClient wires an explicit client. Useful for tests.
func NewPushRelayWithClient(client APNsClient, devices DeviceStore, topic string, logger zerolog.Logger) *PushRelay {
	return &PushRelay{devices: devices, client: client, topic: topic, logger: logger}
}

// EventTypes lists the events the relay pushes for.
func (r *PushRelay) EventTypes() []string {
	return []string{
		events.TypeContentCreated,
		events.TypePartnerConnected,
		events.TypePartnerDisconnected,
	}
}

// Handle pushes a notification for the event to every affected device.
func (r *PushRelay) Handle(ctx context.Context, event events.Event) error {
	if r.client == nil {
		return nil
	}

	switch e := event.(type) {
	case events.ContentCreated:
		r.pushToUser(ctx, e.ReceiverID, contentPayload(e.Content))
	case events.PartnerConnected:
		// Both sides get the alert, each titled with the other's name.
		r.pushToUser(ctx, e.Partner.ID, connectedPayload(e.Initiator.Name))
		r.pushToUser(ctx, e.Initiator.ID, connectedPayload(e.Partner.Name))
	case events.PartnerDisconnected:
		p := payload.NewPayload().
			AlertTitle("Lovance").
			AlertBody("Your partner disconnected").
			Custom("type", "partner_disconnected")
		r.pushToUser(ctx, e.UserAID, p)
		r.pushToUser(ctx, e.UserBID, p)
	}
	return nil
}

// connectedPayload builds the pairing alert, titled with the other
// partner's name.
func connectedPayload(partnerName string) *payload.Payload {
	return payload.NewPayload().
		AlertTitle(partnerName).
		AlertBody("connected with you").
		Sound("default").
		Custom("type", "partner_connected")
}

// contentPayload builds the alert and data map for a new shared item.
func contentPayload(c *models.Content) *payload.Payload {
	var body string
	switch c.Type {
	case models.ContentTypePhoto:
		body = "sent you a photo"
	case models.ContentTypeNote:
		body = deref(c.NoteText)
	case models.ContentTypeDrawing:
		body = "sent you a drawing"
	case models.ContentTypeStatus:
		body = deref(c.StatusEmoji)
		if text := deref(c.StatusText); text != "" {
			body += " " + text
		}
	}

	p := payload.NewPayload().
		AlertTitle(c.SenderName).
		AlertBody(body).
		Sound("default").
		Custom("contentType", string(c.Type)).
		Custom("contentId", c.ID).
		Custom("senderId", c.SenderID).
		Custom("senderName", c.SenderName).
		Custom("widgetUpdate", true).
		Custom("timestamp", c.CreatedAt.UnixMilli())

	if c.NoteText != nil {
		p = p.Custom("noteText", *c.NoteText)
	}
	if c.StatusEmoji != nil {
		p = p.Custom("statusEmoji", *c.StatusEmoji)
	}
	if c.StatusText != nil {
		p = p.Custom("statusText", *c.StatusText)
	}
	if c.Caption != nil {
		p = p.Custom("caption", *c.Caption)
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pushToUser delivers a payload to every registered device of a user.
// Tokens the platform reports as gone are removed from the store.
func (r *PushRelay) pushToUser(ctx context.Context, userID string, p *payload.Payload) {
	devices, err := r.devices.ListByUser(ctx, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list devices for push")
		return
	}

	for _, device := range devices {
		if device.Platform != "ios" {
			// Only APNs delivery is wired; other platforms are skipped.
			continue
		}

		notification := &apns2.Notification{
			DeviceToken: device.Token,
			Topic:       r.topic,
			Payload:     p,
			Expiration:  time.Now().Add(24 * time.Hour),
		}

		res, err := r.client.Push(notification)
		if err != nil {
			metrics.PushSent.WithLabelValues("failed").Inc()
			r.logger.Error().Err(err).Str("user_id", userID).Msg("Push failed")
			continue
		}

		switch {
		case res.Sent():
			metrics.PushSent.WithLabelValues("sent").Inc()
		case res.StatusCode == 410 || res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken:
			metrics.PushSent.WithLabelValues("dropped").Inc()
			if err := r.devices.DeleteToken(ctx, device.Token); err != nil {
				r.logger.Error().Err(err).Msg("Failed to drop dead push token")
			} else {
				r.logger.Info().Str("user_id", userID).Msg("Dropped dead push token")
			}
		default:
			metrics.PushSent.WithLabelValues("failed").Inc()
			r.logger.Warn().
				Str("user_id", userID).
				Str("reason", res.Reason).
				Int("status", res.StatusCode).
				Msg("Push rejected")
		}
	}
}
