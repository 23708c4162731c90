package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/sozyola/pkg/models"
)

// UnlockRepository handles database operations for content unlock grants
type UnlockRepository struct{}

// NewUnlockRepository creates a new repository instance
func NewUnlockRepository() *UnlockRepository {
	return &UnlockRepository{}
}

// GetForUser returns all unlock grants for a user.
func (r *UnlockRepository) GetForUser(ctx context.Context, userID string) ([]models.ContentUnlock, error) {
	var unlocks []models.ContentUnlock
	query := `
		SELECT id, user_id, book_id, unit_id, unlocked_at, unlocked_by, notes
		FROM content_unlocks
		WHERE user_id = $1
		ORDER BY unlocked_at ASC
	`
	if err := DB.SelectContext(ctx, &unlocks, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get content unlocks: %v", err)
	}
	return unlocks, nil
}

// Grant creates an unlock row for a unit. Granting the same unit twice is
// a no-op thanks to the unique (user_id, book_id, unit_id) constraint.
// The client never calls this; it exists for admin tooling.
func (r *UnlockRepository) Grant(ctx context.Context, userID string, bookID, unitID int, grantedBy, notes string) (*models.ContentUnlock, error) {
	unlock := &models.ContentUnlock{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		UnitID:     unitID,
		UnlockedAt: time.Now().UTC(),
		UnlockedBy: grantedBy,
		Notes:      notes,
	}

	query := `
		INSERT INTO content_unlocks (id, user_id, book_id, unit_id, unlocked_at, unlocked_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, book_id, unit_id) DO NOTHING
	`
	_, err := DB.ExecContext(ctx, query,
		unlock.ID,
		unlock.UserID,
		unlock.BookID,
		unlock.UnitID,
		unlock.UnlockedAt,
		unlock.UnlockedBy,
		unlock.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to grant unlock: %v", err)
	}
	return unlock, nil
}
