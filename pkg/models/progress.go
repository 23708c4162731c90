package models

import (
	"fmt"
	"strings"
	"time"
)

// FreePreviewUnits is the highest unit id that is open in every book without
// a ContentUnlock grant.
const FreePreviewUnits = 3

// DefaultDailyGoalTarget is the words-per-day target for a fresh record.
const DefaultDailyGoalTarget = 20

// DateLayout is the calendar-day format used by streaks and daily goals.
const DateLayout = "2006-01-02"

// QuizResult holds the most recent attempt for one unit
type QuizResult struct {
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Date       time.Time `json:"date"`
}

// Streak tracks consecutive study days
type Streak struct {
	Count         int    `json:"count"`
	LastStudyDate string `json:"lastStudyDate"` // YYYY-MM-DD, empty if never studied
}

// DailyGoal tracks words studied against a per-day target
type DailyGoal struct {
	Target     int    `json:"target"`
	WordsToday int    `json:"wordsToday"`
	Date       string `json:"date"` // YYYY-MM-DD
}

// LastStudied records the most recently opened study unit
type LastStudied struct {
	BookID    int       `json:"bookId"`
	UnitID    int       `json:"unitId"`
	Timestamp time.Time `json:"timestamp"`
}

// UserProfile is the self-reported profile stored alongside progress
type UserProfile struct {
	Name string `json:"name"`
	Role string `json:"role"` // e.g. "student", "teacher", "self_learner"
}

// DailyUsageTime is minutes spent in the app on one day
type DailyUsageTime struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Minutes int    `json:"minutes"`
}

// ProgressRecord is the complete per-user progress state. It is replaced
// wholesale on every store write; UpdatedAt is the only conflict signal
// used when reconciling against the remote copy.
type ProgressRecord struct {
	UnlockedUnits  map[int][]int         `json:"unlockedUnits"` // book id -> unlocked unit ids
	Results        map[string]QuizResult `json:"results"`       // key: "bookId-unitId"
	Streak         Streak                `json:"streak"`
	User           *UserProfile          `json:"user,omitempty"`
	LastStudied    *LastStudied          `json:"lastStudied,omitempty"`
	DailyGoal      DailyGoal             `json:"dailyGoal"`
	Favorites      []string              `json:"favorites"` // keys: "bookId-unitId-word" (word lowercased)
	WordsLearned   int                   `json:"wordsLearned"`
	Language       string                `json:"language,omitempty"` // "en", "uz" or "ru"
	DailyUsageTime []DailyUsageTime      `json:"dailyUsageTime,omitempty"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// DefaultProgress returns the record used when no persisted copy exists.
// The daily goal date is set to the given day so rollover starts clean.
func DefaultProgress(today string) *ProgressRecord {
	return &ProgressRecord{
		UnlockedUnits: map[int][]int{},
		Results:       map[string]QuizResult{},
		Streak:        Streak{Count: 0, LastStudyDate: ""},
		DailyGoal:     DailyGoal{Target: DefaultDailyGoalTarget, WordsToday: 0, Date: today},
		Favorites:     []string{},
		WordsLearned:  0,
	}
}

// ResultKey builds the composite key used by the Results map.
func ResultKey(bookID, unitID int) string {
	return fmt.Sprintf("%d-%d", bookID, unitID)
}

// FavoriteKey builds the composite key used by the Favorites list.
// Words are matched case-insensitively.
func FavoriteKey(bookID, unitID int, word string) string {
	return fmt.Sprintf("%d-%d-%s", bookID, unitID, strings.ToLower(word))
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing the internal maps and slices.
func (p *ProgressRecord) Clone() *ProgressRecord {
	c := *p
	c.UnlockedUnits = make(map[int][]int, len(p.UnlockedUnits))
	for book, units := range p.UnlockedUnits {
		c.UnlockedUnits[book] = append([]int(nil), units...)
	}
	c.Results = make(map[string]QuizResult, len(p.Results))
	for k, v := range p.Results {
		c.Results[k] = v
	}
	c.Favorites = append([]string(nil), p.Favorites...)
	c.DailyUsageTime = append([]DailyUsageTime(nil), p.DailyUsageTime...)
	if p.User != nil {
		user := *p.User
		c.User = &user
	}
	if p.LastStudied != nil {
		last := *p.LastStudied
		c.LastStudied = &last
	}
	return &c
}
