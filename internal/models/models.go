package models

import "time"

// User represents a user account. Accounts are anonymous: a user is
// identified by a signed token and paired with a partner via a short code.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Code            string     `json:"code"`
	PartnerID       *string    `json:"partner_id,omitempty"`
	Anniversary     *time.Time `json:"anniversary,omitempty"`
	ProfileImageURL *string    `json:"profile_image_url,omitempty"`
	Onboarded       bool       `json:"onboarded"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Partnership links two users. UserAID is always the lexicographically
// smaller of the two IDs so a couple maps to exactly one row.
type Partnership struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PartnerOf returns the other member of the partnership.
func (p *Partnership) PartnerOf(userID string) string {
	if p.UserAID == userID {
		return p.UserBID
	}
	return p.UserAID
}

// Has reports whether userID is a member of the partnership.
func (p *Partnership) Has(userID string) bool {
	return p.UserAID == userID || p.UserBID == userID
}

// ContentType enumerates the kinds of items partners exchange.
type ContentType string

const (
	ContentTypePhoto   ContentType = "photo"
	ContentTypeNote    ContentType = "note"
	ContentTypeDrawing ContentType = "drawing"
	ContentTypeStatus  ContentType = "status"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypePhoto, ContentTypeNote, ContentTypeDrawing, ContentTypeStatus:
		return true
	}
	return false
}

// Content is a single shared item. Which payload fields are set depends
// on Type: photo carries ImageURL, note carries NoteText, drawing carries
// DrawingData (plus an optional rasterized ImageURL), status carries
// StatusEmoji and optionally StatusText.
type Content struct {
	ID            string      `json:"id"`
	PartnershipID string      `json:"partnership_id"`
	SenderID      string      `json:"sender_id"`
	SenderName    string      `json:"sender_name"`
	Type          ContentType `json:"content_type"`
	ImageURL      *string     `json:"image_url,omitempty"`
	NoteText      *string     `json:"note_text,omitempty"`
	DrawingData   *string     `json:"drawing_data,omitempty"`
	StatusEmoji   *string     `json:"status_emoji,omitempty"`
	StatusText    *string     `json:"status_text,omitempty"`
	Caption       *string     `json:"caption,omitempty"`
	Read          bool        `json:"read"`
	ReadAt        *time.Time  `json:"read_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Device is a registered push target for a user.
type Device struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Token      string    `json:"token"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// WidgetData is the reduced projection of the latest content item that the
// home-screen widget renders. Nil payload fields are omitted from the wire.
type WidgetData struct {
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	SenderID    string      `json:"sender_id"`
	SenderName  string      `json:"sender_name"`
	ImageURL    *string     `json:"image_url,omitempty"`
	NoteText    *string     `json:"note_text,omitempty"`
	StatusEmoji *string     `json:"status_emoji,omitempty"`
	StatusText  *string     `json:"status_text,omitempty"`
	Caption     *string     `json:"caption,omitempty"`
	UnreadCount int         `json:"unread_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// StreakData tracks consecutive calendar days (UTC) on which the couple
// shared at least one item. LastDay is formatted 2006-01-02.
type StreakData struct {
	Current int    `json:"current"`
	Longest int    `json:"longest"`
	LastDay string `json:"last_day,omitempty"`
}

// WidgetSnapshot is the full payload served to the widget process and
// cached per user. Widget is nil when the couple has no content yet.
type WidgetSnapshot struct {
	Widget       *WidgetData `json:"widget,omitempty"`
	Streak       StreakData  `json:"streak"`
	DaysTogether int         `json:"days_together"`
}

// MemoryRollup is the per-month aggregate for the memories screen.
// It is computed on demand from content rows, never persisted.
type MemoryRollup struct {
	Month        string   `json:"month"`
	PhotoURLs    []string `json:"photo_urls"`
	NoteCount    int      `json:"note_count"`
	StatusCount  int      `json:"status_count"`
	DrawingCount int      `json:"drawing_count"`
}
