package sync

import (
	"context"
	"errors"
	"log"
	"time"

	"go.uber.org/atomic"

	"github.com/example/sozyola/internal/database"
	"github.com/example/sozyola/internal/progress"
)

// Reconciler decides, per cycle, whether the local or the remote copy of
// the progress record wins. Conflict resolution is last-write-wins on
// UpdatedAt with whole-record granularity: the loser is replaced
// entirely, fields are never merged. Errors end the cycle without
// touching local state; the next scheduled trigger retries.
type Reconciler struct {
	manager  *progress.Manager
	gateway  Gateway
	inFlight atomic.Bool
	now      func() time.Time
}

// NewReconciler creates a reconciler over the given manager and gateway.
func NewReconciler(manager *progress.Manager, gateway Gateway) *Reconciler {
	return &Reconciler{
		manager: manager,
		gateway: gateway,
		now:     time.Now,
	}
}

// Reconcile runs one sync cycle for the user. At most one cycle runs at
// a time per process; a trigger that fires while one is in flight is
// dropped, not queued, since the next trigger picks up any drift.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) {
	if !r.inFlight.CAS(false, true) {
		return
	}
	defer r.inFlight.Store(false)

	local := r.manager.Snapshot()

	remote, err := r.gateway.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		// First sync for this user: bootstrap the remote row
		local.UpdatedAt = r.now()
		if err := r.gateway.Upsert(ctx, userID, local); err != nil {
			log.Printf("Sync: bootstrap push failed: %v", err)
			return
		}

	case err != nil:
		log.Printf("Sync: remote fetch failed: %v", err)
		return

	case remote.UpdatedAt.After(local.UpdatedAt):
		// Remote wins: replace the local record wholesale. Local changes
		// made since local.UpdatedAt are lost, by design.
		r.manager.ReplaceRecord(remote)

	case local.UpdatedAt.After(remote.UpdatedAt):
		local.UpdatedAt = r.now()
		if err := r.gateway.Upsert(ctx, userID, local); err != nil {
			log.Printf("Sync: push failed: %v", err)
			return
		}

	default:
		// Equal timestamps: already in sync
	}

	r.refreshUnlocks(ctx, userID)
}

// refreshUnlocks updates the cached unlock list. Failures only cost
// freshness of the cache, so they are logged and ignored.
func (r *Reconciler) refreshUnlocks(ctx context.Context, userID string) {
	unlocks, err := r.gateway.GetUnlocks(ctx, userID)
	if err != nil {
		log.Printf("Sync: unlock fetch failed: %v", err)
		return
	}
	r.manager.SetUnlocks(unlocks)
}
