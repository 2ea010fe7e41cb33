package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/events"
	"github.com/lovance/backend/internal/metrics"
	"github.com/lovance/backend/internal/models"
	"github.com/lovance/backend/internal/repository"
	"github.com/lovance/backend/internal/storage"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	maxMemoryMonths = 24
)

// ContentService handles the shared content exchange between partners.
type ContentService struct {
	content      ContentStore
	partnerships PartnershipStore
	users        UserStore
	media        MediaStore
	bus          Publisher
}

// NewContentService creates a new content service
func NewContentService(content ContentStore, partnerships PartnershipStore, users UserStore, media MediaStore, bus Publisher) *ContentService {
	return &ContentService{
		content:      content,
		partnerships: partnerships,
		users:        users,
		media:        media,
		bus:          bus,
	}
}

func (s *ContentService) partnershipOf(ctx context.Context, userID string) (*models.Partnership, error) {
	partnership, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPartner
		}
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}
	return partnership, nil
}

// MediaUpload holds a presigned image upload.
type MediaUpload struct {
	MediaID   string `json:"media_id"`
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	ExpiresIn int    `json:"expires_in"`
}

// UploadURL presigns a PUT for a new shared image. Requires a partner.
func (s *ContentService) UploadURL(ctx context.Context, userID, contentType string) (*MediaUpload, error) {
	if _, err := s.partnershipOf(ctx, userID); err != nil {
		return nil, err
	}

	mediaID := uuid.New().String()
	key := storage.ImageKey(mediaID)

	uploadURL, err := s.media.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &MediaUpload{
		MediaID:   mediaID,
		UploadURL: uploadURL,
		PublicURL: s.media.PublicURL(key),
		ExpiresIn: s.media.UploadExpirySeconds(),
	}, nil
}

// CreateContentParams is the payload for a new shared item.
type CreateContentParams struct {
	Type        models.ContentType `json:"content_type"`
	ImageURL    *string            `json:"image_url,omitempty"`
	NoteText    *string            `json:"note_text,omitempty"`
	DrawingData *string            `json:"drawing_data,omitempty"`
	StatusEmoji *string            `json:"status_emoji,omitempty"`
	StatusText  *string            `json:"status_text,omitempty"`
	Caption     *string            `json:"caption,omitempty"`
}

func validateContent(p CreateContentParams) error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown content_type %q", ErrInvalidContent, p.Type)
	}
	switch p.Type {
	case models.ContentTypePhoto:
		if p.ImageURL == nil || *p.ImageURL == "" {
			return fmt.Errorf("%w: image_url is required for photos", ErrInvalidContent)
		}
	case models.ContentTypeNote:
		if p.NoteText == nil || *p.NoteText == "" {
			return fmt.Errorf("%w: note_text is required for notes", ErrInvalidContent)
		}
	case models.ContentTypeDrawing:
		if p.DrawingData == nil || *p.DrawingData == "" {
			return fmt.Errorf("%w: drawing_data is required for drawings", ErrInvalidContent)
		}
	case models.ContentTypeStatus:
		if p.StatusEmoji == nil || *p.StatusEmoji == "" {
			return fmt.Errorf("%w: status_emoji is required for statuses", ErrInvalidContent)
		}
	}
	return nil
}

// Create validates and stores a new item, then publishes ContentCreated so
// push, widget, and realtime fan-out happen off the request path's
// error budget (best effort).
func (s *ContentService) Create(ctx context.Context, userID string, p CreateContentParams) (*models.Content, error) {
	if err := validateContent(p); err != nil {
		return nil, err
	}

	partnership, err := s.partnershipOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	sender, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}

	content := &models.Content{
		ID:            uuid.New().String(),
		PartnershipID: partnership.ID,
		SenderID:      userID,
		SenderName:    sender.Name,
		Type:          p.Type,
		ImageURL:      p.ImageURL,
		NoteText:      p.NoteText,
		DrawingData:   p.DrawingData,
		StatusEmoji:   p.StatusEmoji,
		StatusText:    p.StatusText,
		Caption:       p.Caption,
		CreatedAt:     time.Now(),
	}

	if err := s.content.Create(ctx, content); err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}

	metrics.ContentCreated.WithLabelValues(string(p.Type)).Inc()

	s.bus.Publish(ctx, events.ContentCreated{
		Content:    content,
		ReceiverID: partnership.PartnerOf(userID),
	})

	return content, nil
}

// List returns a newest-first page of the couple's content plus the total.
func (s *ContentService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Content, int, error) {
	partnership, err := s.partnershipOf(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return s.content.ListByPartnership(ctx, partnership.ID, limit, offset)
}

// Latest returns the most recent shared item.
func (s *ContentService) Latest(ctx context.Context, userID string) (*models.Content, error) {
	partnership, err := s.partnershipOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.content.Latest(ctx, partnership.ID)
}

// MarkRead flags an item as read. Only the receiver may read; repeated
// calls are no-ops and do not re-fire the event.
func (s *ContentService) MarkRead(ctx context.Context, userID, contentID string) error {
	content, err := s.content.GetByID(ctx, contentID)
	if err != nil {
		return err
	}
	if content.SenderID == userID {
		return fmt.Errorf("%w: sender cannot mark own content read", ErrForbidden)
	}

	partnership, err := s.partnershipOf(ctx, userID)
	if err != nil {
		return err
	}
	if content.PartnershipID != partnership.ID {
		return ErrForbidden
	}

	changed, err := s.content.MarkRead(ctx, contentID)
	if err != nil {
		return err
	}
	if changed {
		s.bus.Publish(ctx, events.ContentRead{
			ContentID: contentID,
			SenderID:  content.SenderID,
			ReaderID:  userID,
		})
	}
	return nil
}

// Delete removes an item. Only the sender may delete.
func (s *ContentService) Delete(ctx context.Context, userID, contentID string) error {
	content, err := s.content.GetByID(ctx, contentID)
	if err != nil {
		return err
	}
	if content.SenderID != userID {
		return fmt.Errorf("%w: only the sender can delete content", ErrForbidden)
	}

	if err := s.content.Delete(ctx, contentID); err != nil {
		return err
	}

	partnership, err := s.partnerships.GetByID(ctx, content.PartnershipID)
	if err == nil {
		s.bus.Publish(ctx, events.ContentDeleted{
			ContentID: contentID,
			UserAID:   partnership.UserAID,
			UserBID:   partnership.UserBID,
		})
	}
	return nil
}

// MonthRollup computes the memories aggregate for a month (YYYY-MM).
// An empty month defaults to the current UTC month.
func (s *ContentService) MonthRollup(ctx context.Context, userID, month string) (*models.MemoryRollup, error) {
	partnership, err := s.partnershipOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	var from time.Time
	if month == "" {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		from, err = time.ParseInLocation("2006-01", month, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: month must be formatted YYYY-MM", ErrInvalidContent)
		}
	}
	to := from.AddDate(0, 1, 0)

	return s.content.MonthRollup(ctx, partnership.ID, from, to)
}

// Months lists the months with content, newest first.
func (s *ContentService) Months(ctx context.Context, userID string) ([]string, error) {
	partnership, err := s.partnershipOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.content.Months(ctx, partnership.ID, maxMemoryMonths)
}
