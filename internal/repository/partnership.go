package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyPaired is returned when either side of a connect attempt
// already has a partner.
var ErrAlreadyPaired = errors.New("user already has a partner")

// PartnershipRepository handles database operations for partnerships
type PartnershipRepository struct {
	db *pgxpool.Pool
}

// NewPartnershipRepository creates a new partnership repository
func NewPartnershipRepository(db *pgxpool.Pool) *PartnershipRepository {
	return &PartnershipRepository{db: db}
}

// Connect atomically links two users: inserts the partnership row and sets
// partner_id on both users. The updates are guarded with partner_id IS NULL
// so a concurrent connect on either side fails the whole transaction.
func (r *PartnershipRepository) Connect(ctx context.Context, userAID, userBID string) (*models.Partnership, error) {
	// user_a_id is the lexicographically smaller ID so a couple maps to one row
	if userAID > userBID {
		userAID, userBID = userBID, userAID
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	partnership := &models.Partnership{
		ID:        uuid.New().String(),
		UserAID:   userAID,
		UserBID:   userBID,
		CreatedAt: time.Now(),
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO partnerships (id, user_a_id, user_b_id, created_at) VALUES ($1, $2, $3, $4)`,
		partnership.ID, partnership.UserAID, partnership.UserBID, partnership.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create partnership: %w", err)
	}

	for _, pair := range [][2]string{{userAID, userBID}, {userBID, userAID}} {
		result, err := tx.Exec(ctx,
			`UPDATE users SET partner_id = $1 WHERE id = $2 AND partner_id IS NULL`,
			pair[1], pair[0],
		)
		if err != nil {
			return nil, fmt.Errorf("failed to set partner: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil, ErrAlreadyPaired
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit connect: %w", err)
	}
	return partnership, nil
}

// GetByID retrieves a partnership by ID
func (r *PartnershipRepository) GetByID(ctx context.Context, id string) (*models.Partnership, error) {
	query := `SELECT id, user_a_id, user_b_id, created_at FROM partnerships WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByUserID retrieves the partnership a user belongs to
func (r *PartnershipRepository) GetByUserID(ctx context.Context, userID string) (*models.Partnership, error) {
	query := `
		SELECT id, user_a_id, user_b_id, created_at
		FROM partnerships
		WHERE user_a_id = $1 OR user_b_id = $1
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

func (r *PartnershipRepository) scanOne(row pgx.Row) (*models.Partnership, error) {
	var p models.Partnership
	err := row.Scan(&p.ID, &p.UserAID, &p.UserBID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}
	return &p, nil
}

// Dissolve atomically deletes the partnership and clears partner_id on both
// users. Content rows keep their partnership_id for history.
func (r *PartnershipRepository) Dissolve(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE users SET partner_id = NULL WHERE id IN (SELECT user_a_id FROM partnerships WHERE id = $1
			UNION SELECT user_b_id FROM partnerships WHERE id = $1)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear partners: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM partnerships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete partnership: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dissolve: %w", err)
	}
	return nil
}
