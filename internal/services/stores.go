package services

import (
	"context"
	"errors"
	"time"

	"github.com/lovance/backend/internal/events"
	"github.com/lovance/backend/internal/models"
)

// Sentinel errors returned by services. Handlers map these to HTTP status.
var (
	ErrNoPartner       = errors.New("no partner connected")
	ErrSelfPair        = errors.New("cannot connect with yourself")
	ErrAlreadyPaired   = errors.New("already connected to a partner")
	ErrCodeNotFound    = errors.New("partner code not found")
	ErrForbidden       = errors.New("not allowed")
	ErrInvalidContent  = errors.New("invalid content payload")
	ErrInvalidPlatform = errors.New("unknown platform")
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByCode(ctx context.Context, code string) (*models.User, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateProfile(ctx context.Context, userID string, name *string, anniversary *time.Time, onboarded *bool) error
	SetProfileImage(ctx context.Context, userID, url string) error
}

// PartnershipStore is the persistence surface for partnerships.
type PartnershipStore interface {
	Connect(ctx context.Context, userAID, userBID string) (*models.Partnership, error)
	GetByID(ctx context.Context, id string) (*models.Partnership, error)
	GetByUserID(ctx context.Context, userID string) (*models.Partnership, error)
	Dissolve(ctx context.Context, id string) error
}

// ContentStore is the persistence surface for shared content.
type ContentStore interface {
	Create(ctx context.Context, c *models.Content) error
	GetByID(ctx context.Context, id string) (*models.Content, error)
	ListByPartnership(ctx context.Context, partnershipID string, limit, offset int) ([]*models.Content, int, error)
	Latest(ctx context.Context, partnershipID string) (*models.Content, error)
	MarkRead(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context, partnershipID, userID string) (int, error)
	MonthRollup(ctx context.Context, partnershipID string, from, to time.Time) (*models.MemoryRollup, error)
	Months(ctx context.Context, partnershipID string, limit int) ([]string, error)
	ActivityDays(ctx context.Context, partnershipID string) ([]time.Time, error)
}

// DeviceStore is the persistence surface for push devices.
type DeviceStore interface {
	Upsert(ctx context.Context, d *models.Device) error
	ListByUser(ctx context.Context, userID string) ([]*models.Device, error)
	DeleteByToken(ctx context.Context, userID, token string) error
	DeleteToken(ctx context.Context, token string) error
	PurgeUnused(ctx context.Context, before time.Time) (int64, error)
}

// SnapshotCache mirrors widget snapshots per user.
type SnapshotCache interface {
	GetWidget(ctx context.Context, userID string) (*models.WidgetSnapshot, error)
	SetWidget(ctx context.Context, userID string, snap *models.WidgetSnapshot, ttl time.Duration) error
	DeleteWidget(ctx context.Context, userID string) error
}

// MediaStore issues presigned upload URLs for the media bucket.
type MediaStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PublicURL(key string) string
	UploadExpirySeconds() int
}

// Publisher dispatches domain events.
type Publisher interface {
	Publish(ctx context.Context, evs ...events.Event)
}
