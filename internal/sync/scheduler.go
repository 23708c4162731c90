package sync

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler owns the two sync triggers: a repeating interval while a
// user is signed in, and a single debounce timer armed after each local
// mutation. Start and Stop are the whole lifecycle; Stop cancels both
// timers and forgets the user id so nothing can fire for a stale
// session.
type Scheduler struct {
	reconciler *Reconciler
	cfg        *Config

	mu       sync.Mutex
	cron     *gocron.Scheduler
	debounce *time.Timer
	userID   string
}

// NewScheduler creates a scheduler for the given reconciler. A nil cfg
// uses the defaults.
func NewScheduler(reconciler *Reconciler, cfg *Config) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		reconciler: reconciler,
		cfg:        cfg,
	}
}

// Start begins syncing for a user: one immediate initial reconciliation
// plus the repeating interval. Starting while already started switches
// to the new user after stopping the old session's timers.
func (s *Scheduler) Start(userID string) {
	s.stop()

	s.mu.Lock()
	s.userID = userID
	cron := gocron.NewScheduler(time.UTC)
	// gocron runs duration-interval jobs immediately at start by default;
	// the initial sync below is the only startup run this session gets
	cron.Every(s.cfg.Interval).WaitForSchedule().Do(func() {
		s.run(userID)
	})
	cron.StartAsync()
	s.cron = cron
	s.mu.Unlock()

	// Initial sync, once per session
	go s.run(userID)
}

// Stop cancels the interval and any pending debounce and clears the
// session. Safe to call when not started.
func (s *Scheduler) Stop() {
	s.stop()
}

func (s *Scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.userID = ""
}

// Kick schedules a reconciliation shortly after the last local
// mutation, coalescing bursts of mutations into one sync. Without a
// signed-in user this is a no-op (local-only mode).
func (s *Scheduler) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return
	}
	userID := s.userID
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.cfg.Debounce, func() {
		s.run(userID)
	})
}

// run executes one reconciliation if the session is still the one the
// trigger was armed for. A timer that fires after Stop, or after a
// switch to another user, does nothing.
func (s *Scheduler) run(userID string) {
	s.mu.Lock()
	current := s.userID
	s.mu.Unlock()
	if current != userID {
		return
	}
	s.reconciler.Reconcile(context.Background(), userID)
}
