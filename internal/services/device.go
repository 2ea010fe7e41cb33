package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/models"

	"github.com/google/uuid"
)

// DeviceService handles push token registration.
type DeviceService struct {
	devices DeviceStore
}

// NewDeviceService creates a new device service
func NewDeviceService(devices DeviceStore) *DeviceService {
	return &DeviceService{devices: devices}
}

// Register upserts a push token for a user, refreshing last_used_at.
func (s *DeviceService) Register(ctx context.Context, userID, deviceToken, platform string) (*models.Device, error) {
	if platform != "ios" && platform != "android" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlatform, platform)
	}

	now := time.Now()
	device := &models.Device{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      deviceToken,
		Platform:   platform,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := s.devices.Upsert(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// Remove deletes a push token owned by the user. Called at logout.
func (s *DeviceService) Remove(ctx context.Context, userID, deviceToken string) error {
	return s.devices.DeleteByToken(ctx, userID, deviceToken)
}
