package models

import "time"

// ContentUnlock grants a user access to one unit beyond the free preview
// range. Rows are created out-of-band (admin tooling); the client only
// reads them to gate access.
type ContentUnlock struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	BookID     int       `json:"book_id" db:"book_id"`
	UnitID     int       `json:"unit_id" db:"unit_id"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
	UnlockedBy string    `json:"unlocked_by" db:"unlocked_by"`
	Notes      string    `json:"notes" db:"notes"`
}

// LeaderboardEntry is one row of the words-learned ranking
type LeaderboardEntry struct {
	UserID       string `json:"user_id" db:"user_id"`
	WordsLearned int    `json:"words_learned" db:"words_learned"`
	StreakCount  int    `json:"streak_count" db:"streak_count"`
	Rank         int    `json:"rank"`
}
