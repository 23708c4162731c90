package sync

import (
	"context"

	"github.com/example/sozyola/internal/database"
	"github.com/example/sozyola/pkg/models"
)

// Gateway is the remote side of reconciliation: one progress row per
// user with upsert semantics, plus the read-only unlock list.
// Implementations report a missing row with database.ErrNotFound.
type Gateway interface {
	GetByUser(ctx context.Context, userID string) (*models.ProgressRecord, error)
	Upsert(ctx context.Context, userID string, record *models.ProgressRecord) error
	GetUnlocks(ctx context.Context, userID string) ([]models.ContentUnlock, error)
}

// DatabaseGateway adapts the progress and unlock repositories to the
// Gateway interface.
type DatabaseGateway struct {
	progress *database.ProgressRepository
	unlocks  *database.UnlockRepository
}

// NewDatabaseGateway creates a gateway over the shared database
// connection.
func NewDatabaseGateway() *DatabaseGateway {
	return &DatabaseGateway{
		progress: database.NewProgressRepository(),
		unlocks:  database.NewUnlockRepository(),
	}
}

func (g *DatabaseGateway) GetByUser(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	return g.progress.GetByUser(ctx, userID)
}

func (g *DatabaseGateway) Upsert(ctx context.Context, userID string, record *models.ProgressRecord) error {
	return g.progress.Upsert(ctx, userID, record)
}

func (g *DatabaseGateway) GetUnlocks(ctx context.Context, userID string) ([]models.ContentUnlock, error) {
	return g.unlocks.GetForUser(ctx, userID)
}
