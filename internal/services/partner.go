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
)

// Presence reports whether a user currently holds a realtime connection.
type Presence interface {
	IsOnline(userID string) bool
}

// PartnerService handles the pairing workflow.
type PartnerService struct {
	partnerships PartnershipStore
	users        UserStore
	bus          Publisher
	presence     Presence
}

// NewPartnerService creates a new partner service
func NewPartnerService(partnerships PartnershipStore, users UserStore, bus Publisher, presence Presence) *PartnerService {
	return &PartnerService{
		partnerships: partnerships,
		users:        users,
		bus:          bus,
		presence:     presence,
	}
}

// Connect pairs the user with the owner of partnerCode. Both users'
// partner_id and the partnership row are written in one transaction.
func (s *PartnerService) Connect(ctx context.Context, userID, partnerCode string) (*models.Partnership, error) {
	if len(partnerCode) != codeLength {
		return nil, fmt.Errorf("%w: code must be %d characters", ErrCodeNotFound, codeLength)
	}

	partner, err := s.users.GetByCode(ctx, partnerCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to look up partner code: %w", err)
	}

	if partner.ID == userID {
		return nil, ErrSelfPair
	}

	partnership, err := s.partnerships.Connect(ctx, userID, partner.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyPaired) {
			return nil, ErrAlreadyPaired
		}
		return nil, fmt.Errorf("failed to connect partners: %w", err)
	}

	metrics.PartnersConnected.Inc()

	initiator, err := s.users.GetByID(ctx, userID)
	if err != nil {
		// Pairing succeeded; the event just misses the initiator profile.
		initiator = &models.User{ID: userID}
	}
	s.bus.Publish(ctx, events.PartnerConnected{
		Partnership: partnership,
		Initiator:   initiator,
		Partner:     partner,
	})

	return partnership, nil
}

// PartnerInfo is the partner profile plus connection metadata.
type PartnerInfo struct {
	Partner      *models.User `json:"partner"`
	ConnectedAt  time.Time    `json:"connected_at"`
	DaysTogether int          `json:"days_together"`
	Online       bool         `json:"online"`
}

// Partner returns the user's partner profile, or ErrNoPartner.
func (s *PartnerService) Partner(ctx context.Context, userID string) (*PartnerInfo, error) {
	partnership, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPartner
		}
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}

	partnerID := partnership.PartnerOf(userID)
	partner, err := s.users.GetByID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return &PartnerInfo{
		Partner:      partner,
		ConnectedAt:  partnership.CreatedAt,
		DaysTogether: DaysTogether(partner.Anniversary, partnership.CreatedAt),
		Online:       s.presence.IsOnline(partnerID),
	}, nil
}

// Partnership returns the raw partnership row for a user.
func (s *PartnerService) Partnership(ctx context.Context, userID string) (*models.Partnership, error) {
	partnership, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPartner
		}
		return nil, err
	}
	return partnership, nil
}

// Disconnect dissolves the user's partnership. Content history is kept.
func (s *PartnerService) Disconnect(ctx context.Context, userID string) error {
	partnership, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoPartner
		}
		return fmt.Errorf("failed to get partnership: %w", err)
	}

	if err := s.partnerships.Dissolve(ctx, partnership.ID); err != nil {
		return fmt.Errorf("failed to dissolve partnership: %w", err)
	}

	s.bus.Publish(ctx, events.PartnerDisconnected{
		PartnershipID: partnership.ID,
		UserAID:       partnership.UserAID,
		UserBID:       partnership.UserBID,
	})

	return nil
}

// DaysTogether counts whole days since the anniversary when one is set,
// otherwise since the connection time.
func DaysTogether(anniversary *time.Time, connectedAt time.Time) int {
	since := connectedAt
	if anniversary != nil {
		since = *anniversary
	}
	days := int(time.Since(since).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
