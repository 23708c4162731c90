package progress

import (
	"log"
	"sync"
	"time"

	"github.com/example/sozyola/internal/localstore"
	"github.com/example/sozyola/pkg/models"
)

// SyncNotifier is told about local mutations so it can schedule a
// debounced sync. A nil notifier means local-only mode.
type SyncNotifier interface {
	Kick()
}

// Manager owns the in-memory progress record and is the only component
// allowed to mutate it. Every mutation stamps UpdatedAt, persists the
// whole record locally and kicks the sync notifier. All access is
// serialized behind one mutex.
type Manager struct {
	mu       sync.Mutex
	record   *models.ProgressRecord
	unlocks  []models.ContentUnlock
	store    *localstore.Store
	notifier SyncNotifier
	now      func() time.Time
}

// NewManager loads the persisted record (or the default) and the cached
// unlock list from the local store.
func NewManager(store *localstore.Store) *Manager {
	return &Manager{
		record:  store.Load(),
		unlocks: store.LoadUnlocks(),
		store:   store,
		now:     time.Now,
	}
}

// SetNotifier attaches the sync scheduler. Pass nil to detach (sign-out).
func (m *Manager) SetNotifier(n SyncNotifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

// mutate applies fn to the record under the lock. When fn reports a
// change the record is re-stamped, persisted and the notifier kicked.
// Persistence failure is logged, never surfaced: the in-memory copy
// stays authoritative for the session.
func (m *Manager) mutate(fn func(rec *models.ProgressRecord) bool) {
	m.mu.Lock()
	if !fn(m.record) {
		m.mu.Unlock()
		return
	}
	m.record.UpdatedAt = m.now()
	snapshot := m.record.Clone()
	notifier := m.notifier
	m.mu.Unlock()

	if err := m.store.Save(snapshot); err != nil {
		log.Printf("Failed to persist progress: %v", err)
	}
	if notifier != nil {
		notifier.Kick()
	}
}

// UpdateStreak recomputes the study streak for the current day: +1 after
// studying yesterday, reset to 1 after any other gap, no-op if today was
// already counted.
func (m *Manager) UpdateStreak() {
	m.mutate(func(rec *models.ProgressRecord) bool {
		today := m.now().Format(models.DateLayout)
		if rec.Streak.LastStudyDate == today {
			return false
		}
		count := 1
		yesterday := m.now().AddDate(0, 0, -1).Format(models.DateLayout)
		if rec.Streak.LastStudyDate == yesterday {
			count = rec.Streak.Count + 1
		}
		rec.Streak = models.Streak{Count: count, LastStudyDate: today}
		return true
	})
}

// SaveResult stores the result for a unit. Only the latest attempt is
// kept.
func (m *Manager) SaveResult(bookID, unitID int, result models.QuizResult) {
	m.mutate(func(rec *models.ProgressRecord) bool {
		rec.Results[models.ResultKey(bookID, unitID)] = result
		return true
	})
}

// GetResult returns the most recent result for a unit, if any.
func (m *Manager) GetResult(bookID, unitID int) (models.QuizResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.record.Results[models.ResultKey(bookID, unitID)]
	return result, ok
}

// AddWordsLearned bumps the lifetime counter and today's goal counter,
// rolling the goal over to a fresh day when needed.
func (m *Manager) AddWordsLearned(count int) {
	if count <= 0 {
		return
	}
	m.mutate(func(rec *models.ProgressRecord) bool {
		today := m.now().Format(models.DateLayout)
		rec.WordsLearned += count
		if rec.DailyGoal.Date == today {
			rec.DailyGoal.WordsToday += count
		} else {
			rec.DailyGoal.WordsToday = count
			rec.DailyGoal.Date = today
		}
		return true
	})
}

// ToggleFavorite adds or removes a favorite word. Matching is
// case-insensitive, so toggling "Apple" removes a stored "apple".
func (m *Manager) ToggleFavorite(bookID, unitID int, word string) {
	key := models.FavoriteKey(bookID, unitID, word)
	m.mutate(func(rec *models.ProgressRecord) bool {
		for i, fav := range rec.Favorites {
			if fav == key {
				rec.Favorites = append(rec.Favorites[:i], rec.Favorites[i+1:]...)
				return true
			}
		}
		rec.Favorites = append(rec.Favorites, key)
		return true
	})
}

// IsFavorite reports whether a word is marked as favorite.
func (m *Manager) IsFavorite(bookID, unitID int, word string) bool {
	key := models.FavoriteKey(bookID, unitID, word)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fav := range m.record.Favorites {
		if fav == key {
			return true
		}
	}
	return false
}

// SetLastStudied records the unit the user just opened for study.
func (m *Manager) SetLastStudied(bookID, unitID int) {
	m.mutate(func(rec *models.ProgressRecord) bool {
		rec.LastStudied = &models.LastStudied{
			BookID:    bookID,
			UnitID:    unitID,
			Timestamp: m.now(),
		}
		return true
	})
}

// SetDailyGoalTarget changes the words-per-day target.
func (m *Manager) SetDailyGoalTarget(target int) {
	if target <= 0 {
		return
	}
	m.mutate(func(rec *models.ProgressRecord) bool {
		rec.DailyGoal.Target = target
		return true
	})
}

// SetUserProfile stores the self-reported name and role.
func (m *Manager) SetUserProfile(name, role string) {
	m.mutate(func(rec *models.ProgressRecord) bool {
		rec.User = &models.UserProfile{Name: name, Role: role}
		return true
	})
}

// SetLanguage stores the interface language preference.
func (m *Manager) SetLanguage(lang string) {
	m.mutate(func(rec *models.ProgressRecord) bool {
		rec.Language = lang
		return true
	})
}

// AddUsageTime adds minutes to today's usage entry, keeping only the
// most recent 30 days.
func (m *Manager) AddUsageTime(minutes int) {
	if minutes <= 0 {
		return
	}
	m.mutate(func(rec *models.ProgressRecord) bool {
		today := m.now().Format(models.DateLayout)
		for i := range rec.DailyUsageTime {
			if rec.DailyUsageTime[i].Date == today {
				rec.DailyUsageTime[i].Minutes += minutes
				return true
			}
		}
		rec.DailyUsageTime = append(rec.DailyUsageTime, models.DailyUsageTime{Date: today, Minutes: minutes})
		if len(rec.DailyUsageTime) > 30 {
			rec.DailyUsageTime = rec.DailyUsageTime[len(rec.DailyUsageTime)-30:]
		}
		return true
	})
}

// ResetProgress replaces the record with the default and clears the
// persisted copy. Irreversible; the UI confirms before calling.
func (m *Manager) ResetProgress() {
	m.mu.Lock()
	today := m.now().Format(models.DateLayout)
	m.record = models.DefaultProgress(today)
	m.record.UpdatedAt = m.now()
	snapshot := m.record.Clone()
	notifier := m.notifier
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		log.Printf("Failed to clear persisted progress: %v", err)
	}
	if err := m.store.Save(snapshot); err != nil {
		log.Printf("Failed to persist progress: %v", err)
	}
	if notifier != nil {
		notifier.Kick()
	}
}

// IsUnitUnlocked reports whether a unit is accessible: the free preview
// range is always open, anything beyond needs an unlock grant.
func (m *Manager) IsUnitUnlocked(bookID, unitID int) bool {
	if unitID <= models.FreePreviewUnits {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.record.UnlockedUnits[bookID] {
		if id == unitID {
			return true
		}
	}
	for _, unlock := range m.unlocks {
		if unlock.BookID == bookID && unlock.UnitID == unitID {
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of the current record.
func (m *Manager) Snapshot() *models.ProgressRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record.Clone()
}

// ReplaceRecord swaps in a record fetched from the remote store and
// persists it. The reconciler uses this for remote-wins pulls; fields
// are never merged piecemeal.
func (m *Manager) ReplaceRecord(record *models.ProgressRecord) {
	m.mu.Lock()
	m.record = record.Clone()
	snapshot := m.record.Clone()
	m.mu.Unlock()

	if err := m.store.Save(snapshot); err != nil {
		log.Printf("Failed to persist pulled progress: %v", err)
	}
}

// SetUnlocks replaces the cached unlock list and persists it for
// offline reads.
func (m *Manager) SetUnlocks(unlocks []models.ContentUnlock) {
	m.mu.Lock()
	m.unlocks = append([]models.ContentUnlock(nil), unlocks...)
	m.mu.Unlock()

	if err := m.store.SaveUnlocks(unlocks); err != nil {
		log.Printf("Failed to cache unlocks: %v", err)
	}
}

// Unlocks returns a copy of the cached unlock list.
func (m *Manager) Unlocks() []models.ContentUnlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ContentUnlock(nil), m.unlocks...)
}
