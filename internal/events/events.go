// Package events provides the in-process pub/sub bus that replaces the
// hosted platform's database triggers: content and pairing changes fan out
// to push delivery, widget projection, and realtime forwarding.
package events

import "github.com/lovance/backend/internal/models"

// Event type names.
const (
	TypeContentCreated      = "content.created"
	TypeContentRead         = "content.read"
	TypeContentDeleted      = "content.deleted"
	TypePartnerConnected    = "partner.connected"
	TypePartnerDisconnected = "partner.disconnected"
)

// Event is a domain event dispatched on the bus.
type Event interface {
	EventType() string
}

// ContentCreated fires after a content row is inserted.
type ContentCreated struct {
	Content    *models.Content
	ReceiverID string
}

func (ContentCreated) EventType() string { return TypeContentCreated }

// ContentRead fires the first time the receiver marks an item read.
type ContentRead struct {
	ContentID string
	SenderID  string
	ReaderID  string
}

func (ContentRead) EventType() string { return TypeContentRead }

// ContentDeleted fires after the sender deletes an item.
type ContentDeleted struct {
	ContentID string
	UserAID   string
	UserBID   string
}

func (ContentDeleted) EventType() string { return TypeContentDeleted }

// PartnerConnected fires after two users are linked.
type PartnerConnected struct {
	Partnership *models.Partnership
	Initiator   *models.User
	Partner     *models.User
}

func (PartnerConnected) EventType() string { return TypePartnerConnected }

// PartnerDisconnected fires after a partnership is dissolved.
type PartnerDisconnected struct {
	PartnershipID string
	UserAID       string
	UserBID       string
}

func (PartnerDisconnected) EventType() string { return TypePartnerDisconnected }
