package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DeviceRepository handles database operations for push devices
type DeviceRepository struct {
	db *pgxpool.Pool
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a device token, refreshing last_used_at and re-owning
// the token if it moved to another user.
func (r *DeviceRepository) Upsert(ctx context.Context, d *models.Device) error {
	query := `
		INSERT INTO devices (id, user_id, token, platform, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			last_used_at = EXCLUDED.last_used_at
	`
	_, err := r.db.Exec(ctx, query, d.ID, d.UserID, d.Token, d.Platform, d.CreatedAt, d.LastUsedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// ListByUser retrieves all devices registered for a user
func (r *DeviceRepository) ListByUser(ctx context.Context, userID string) ([]*models.Device, error) {
	query := `
		SELECT id, user_id, token, platform, created_at, last_used_at
		FROM devices
		WHERE user_id = $1
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &d.Platform, &d.CreatedAt, &d.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

// DeleteByToken removes a device registration owned by the given user
func (r *DeviceRepository) DeleteByToken(ctx context.Context, userID, token string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM devices WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteToken removes a device registration regardless of owner. Used when
// the push service reports the token as gone.
func (r *DeviceRepository) DeleteToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM devices WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// PurgeUnused deletes devices whose last_used_at is older than before.
// Returns the number of rows removed.
func (r *DeviceRepository) PurgeUnused(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM devices WHERE last_used_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge devices: %w", err)
	}
	return result.RowsAffected(), nil
}
