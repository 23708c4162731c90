package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/sozyola/pkg/models"
)

const (
	progressFile = "progress.json"
	unlocksFile  = "unlocks.json"
)

// Store persists the progress record and the cached unlock list as JSON
// files in a data directory. A missing or corrupt file is treated the same
// as no file at all: callers get a default record, never an error.
type Store struct {
	dir string
	now func() time.Time
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Load reads the persisted progress record. If no usable copy exists it
// returns a fresh default record. Daily-goal rollover is applied before
// returning, so callers always see today's counter.
func (s *Store) Load() *models.ProgressRecord {
	today := s.now().Format(models.DateLayout)

	data, err := os.ReadFile(filepath.Join(s.dir, progressFile))
	if err != nil {
		return models.DefaultProgress(today)
	}

	record := models.DefaultProgress(today)
	if err := json.Unmarshal(data, record); err != nil {
		// Corrupt state is indistinguishable from absent state
		return models.DefaultProgress(today)
	}
	if record.UnlockedUnits == nil {
		record.UnlockedUnits = map[int][]int{}
	}
	if record.Results == nil {
		record.Results = map[string]models.QuizResult{}
	}
	if record.Favorites == nil {
		record.Favorites = []string{}
	}
	if record.DailyGoal.Target <= 0 {
		record.DailyGoal.Target = models.DefaultDailyGoalTarget
	}

	// Rollover: a stale date means a new calendar day has started
	if record.DailyGoal.Date != today {
		record.DailyGoal.WordsToday = 0
		record.DailyGoal.Date = today
	}
	return record
}

// Save writes the full record. Persistence failure is returned so the
// caller can log it; the in-memory copy stays authoritative either way.
func (s *Store) Save(record *models.ProgressRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, progressFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write progress: %v", err)
	}
	return nil
}

// SaveUnlocks caches the last-fetched unlock list for offline reads.
func (s *Store) SaveUnlocks(unlocks []models.ContentUnlock) error {
	data, err := json.Marshal(unlocks)
	if err != nil {
		return fmt.Errorf("failed to encode unlocks: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, unlocksFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write unlocks: %v", err)
	}
	return nil
}

// LoadUnlocks returns the cached unlock list, or an empty list when no
// usable cache exists.
func (s *Store) LoadUnlocks() []models.ContentUnlock {
	data, err := os.ReadFile(filepath.Join(s.dir, unlocksFile))
	if err != nil {
		return nil
	}
	var unlocks []models.ContentUnlock
	if err := json.Unmarshal(data, &unlocks); err != nil {
		return nil
	}
	return unlocks
}

// Clear removes both persisted files. Used on progress reset and on
// sign-out so the next user starts from a clean slate.
func (s *Store) Clear() error {
	var firstErr error
	for _, name := range []string{progressFile, unlocksFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
