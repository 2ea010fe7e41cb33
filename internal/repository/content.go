package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContentRepository handles database operations for shared content
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

const contentColumns = `id, partnership_id, sender_id, sender_name, content_type,
	image_url, note_text, drawing_data, status_emoji, status_text, caption,
	read, read_at, created_at`

func scanContent(row pgx.Row) (*models.Content, error) {
	var c models.Content
	err := row.Scan(
		&c.ID, &c.PartnershipID, &c.SenderID, &c.SenderName, &c.Type,
		&c.ImageURL, &c.NoteText, &c.DrawingData, &c.StatusEmoji, &c.StatusText, &c.Caption,
		&c.Read, &c.ReadAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create creates a new content row
func (r *ContentRepository) Create(ctx context.Context, c *models.Content) error {
	query := `
		INSERT INTO content (id, partnership_id, sender_id, sender_name, content_type,
			image_url, note_text, drawing_data, status_emoji, status_text, caption,
			read, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.PartnershipID, c.SenderID, c.SenderName, c.Type,
		c.ImageURL, c.NoteText, c.DrawingData, c.StatusEmoji, c.StatusText, c.Caption,
		c.Read, c.ReadAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create content: %w", err)
	}
	return nil
}

// GetByID retrieves a content item by ID
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`
	c, err := scanContent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return c, nil
}

// ListByPartnership retrieves content newest-first with pagination
func (r *ContentRepository) ListByPartnership(ctx context.Context, partnershipID string, limit, offset int) ([]*models.Content, int, error) {
	countQuery := `SELECT COUNT(*) FROM content WHERE partnership_id = $1`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, partnershipID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count content: %w", err)
	}

	query := `
		SELECT ` + contentColumns + `
		FROM content
		WHERE partnership_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, partnershipID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	var items []*models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan content: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating content: %w", err)
	}

	return items, total, nil
}

// Latest retrieves the most recent content item for a partnership
func (r *ContentRepository) Latest(ctx context.Context, partnershipID string) (*models.Content, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM content
		WHERE partnership_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	c, err := scanContent(r.db.QueryRow(ctx, query, partnershipID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest content: %w", err)
	}
	return c, nil
}

// MarkRead flags a content item as read. Returns false when the item was
// already read, so callers can keep the operation idempotent.
func (r *ContentRepository) MarkRead(ctx context.Context, id string) (bool, error) {
	query := `UPDATE content SET read = TRUE, read_at = $1 WHERE id = $2 AND NOT read`
	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark content read: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete deletes a content item by ID
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadCount counts items the given user has not read yet
func (r *ContentRepository) UnreadCount(ctx context.Context, partnershipID, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM content WHERE partnership_id = $1 AND sender_id <> $2 AND NOT read`
	var count int
	if err := r.db.QueryRow(ctx, query, partnershipID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread content: %w", err)
	}
	return count, nil
}

// MonthRollup aggregates a month of content into the memories projection.
func (r *ContentRepository) MonthRollup(ctx context.Context, partnershipID string, from, to time.Time) (*models.MemoryRollup, error) {
	rollup := &models.MemoryRollup{
		Month:     from.Format("2006-01"),
		PhotoURLs: []string{},
	}

	query := `
		SELECT image_url
		FROM content
		WHERE partnership_id = $1 AND content_type = 'photo'
			AND created_at >= $2 AND created_at < $3 AND image_url IS NOT NULL
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, partnershipID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list month photos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan photo url: %w", err)
		}
		rollup.PhotoURLs = append(rollup.PhotoURLs, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating month photos: %w", err)
	}

	countQuery := `
		SELECT
			COUNT(*) FILTER (WHERE content_type = 'note'),
			COUNT(*) FILTER (WHERE content_type = 'status'),
			COUNT(*) FILTER (WHERE content_type = 'drawing')
		FROM content
		WHERE partnership_id = $1 AND created_at >= $2 AND created_at < $3
	`
	err = r.db.QueryRow(ctx, countQuery, partnershipID, from, to).
		Scan(&rollup.NoteCount, &rollup.StatusCount, &rollup.DrawingCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count month content: %w", err)
	}

	return rollup, nil
}

// Months lists the months (newest first, formatted YYYY-MM) in which the
// partnership has content.
func (r *ContentRepository) Months(ctx context.Context, partnershipID string, limit int) ([]string, error) {
	query := `
		SELECT to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month
		FROM content
		WHERE partnership_id = $1
		GROUP BY month
		ORDER BY month DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, partnershipID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan month: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating months: %w", err)
	}
	return months, nil
}

// ActivityDays lists the distinct UTC calendar days with at least one item,
// newest first. Used for streak computation.
func (r *ContentRepository) ActivityDays(ctx context.Context, partnershipID string) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day
		FROM content
		WHERE partnership_id = $1
		ORDER BY day DESC
	`
	rows, err := r.db.Query(ctx, query, partnershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan activity day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity days: %w", err)
	}
	return days, nil
}
