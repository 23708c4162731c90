package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/sozyola/pkg/models"
)

// ErrNotFound signals that a user has no progress row yet. It is an
// expected outcome (first sync bootstrap), not a failure.
var ErrNotFound = errors.New("progress not found")

// ProgressRepository handles database operations for user progress rows
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// progressRow is the wire shape of a user_progress row. The nested parts
// of the record are stored as JSON columns; all conversion between this
// shape and models.ProgressRecord lives in toRecord/rowFromRecord.
type progressRow struct {
	UserID         string         `db:"user_id"`
	UnlockedUnits  string         `db:"unlocked_units"`
	Results        string         `db:"results"`
	Streak         string         `db:"streak"`
	DailyGoal      string         `db:"daily_goal"`
	LastStudied    sql.NullString `db:"last_studied"`
	UserProfile    sql.NullString `db:"user_profile"`
	Favorites      string         `db:"favorites"`
	WordsLearned   int            `db:"words_learned"`
	DailyUsageTime sql.NullString `db:"daily_usage_time"`
	Language       sql.NullString `db:"language"`
	UpdatedAt      time.Time      `db:"updated_at"`
	CreatedAt      sql.NullTime   `db:"created_at"`
}

// toRecord converts a remote row into the canonical record shape.
func (row *progressRow) toRecord() (*models.ProgressRecord, error) {
	record := &models.ProgressRecord{
		UnlockedUnits: map[int][]int{},
		Results:       map[string]models.QuizResult{},
		Favorites:     []string{},
		WordsLearned:  row.WordsLearned,
		UpdatedAt:     row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.UnlockedUnits), &record.UnlockedUnits); err != nil {
		return nil, fmt.Errorf("failed to parse unlocked_units: %v", err)
	}
	if err := json.Unmarshal([]byte(row.Results), &record.Results); err != nil {
		return nil, fmt.Errorf("failed to parse results: %v", err)
	}
	if err := json.Unmarshal([]byte(row.Streak), &record.Streak); err != nil {
		return nil, fmt.Errorf("failed to parse streak: %v", err)
	}
	if err := json.Unmarshal([]byte(row.DailyGoal), &record.DailyGoal); err != nil {
		return nil, fmt.Errorf("failed to parse daily_goal: %v", err)
	}
	if err := json.Unmarshal([]byte(row.Favorites), &record.Favorites); err != nil {
		return nil, fmt.Errorf("failed to parse favorites: %v", err)
	}
	if row.LastStudied.Valid && row.LastStudied.String != "" {
		record.LastStudied = &models.LastStudied{}
		if err := json.Unmarshal([]byte(row.LastStudied.String), record.LastStudied); err != nil {
			return nil, fmt.Errorf("failed to parse last_studied: %v", err)
		}
	}
	if row.UserProfile.Valid && row.UserProfile.String != "" {
		record.User = &models.UserProfile{}
		if err := json.Unmarshal([]byte(row.UserProfile.String), record.User); err != nil {
			return nil, fmt.Errorf("failed to parse user_profile: %v", err)
		}
	}
	if row.DailyUsageTime.Valid && row.DailyUsageTime.String != "" {
		if err := json.Unmarshal([]byte(row.DailyUsageTime.String), &record.DailyUsageTime); err != nil {
			return nil, fmt.Errorf("failed to parse daily_usage_time: %v", err)
		}
	}
	if row.Language.Valid {
		record.Language = row.Language.String
	}
	return record, nil
}

// rowFromRecord converts the canonical record shape into the remote row.
func rowFromRecord(userID string, record *models.ProgressRecord) (*progressRow, error) {
	row := &progressRow{
		UserID:       userID,
		WordsLearned: record.WordsLearned,
		UpdatedAt:    record.UpdatedAt.UTC(),
	}

	var err error
	encode := func(name string, v interface{}) string {
		if err != nil {
			return ""
		}
		data, e := json.Marshal(v)
		if e != nil {
			err = fmt.Errorf("failed to encode %s: %v", name, e)
			return ""
		}
		return string(data)
	}

	row.UnlockedUnits = encode("unlocked_units", record.UnlockedUnits)
	row.Results = encode("results", record.Results)
	row.Streak = encode("streak", record.Streak)
	row.DailyGoal = encode("daily_goal", record.DailyGoal)
	row.Favorites = encode("favorites", record.Favorites)
	if record.LastStudied != nil {
		row.LastStudied = sql.NullString{String: encode("last_studied", record.LastStudied), Valid: true}
	}
	if record.User != nil {
		row.UserProfile = sql.NullString{String: encode("user_profile", record.User), Valid: true}
	}
	if len(record.DailyUsageTime) > 0 {
		row.DailyUsageTime = sql.NullString{String: encode("daily_usage_time", record.DailyUsageTime), Valid: true}
	}
	if record.Language != "" {
		row.Language = sql.NullString{String: record.Language, Valid: true}
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// GetByUser fetches the single progress row for a user. Zero rows is
// reported as ErrNotFound.
func (r *ProgressRepository) GetByUser(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	var row progressRow
	query := `
		SELECT user_id, unlocked_units, results, streak, daily_goal, last_studied,
		       user_profile, favorites, words_learned, daily_usage_time, language,
		       updated_at, created_at
		FROM user_progress
		WHERE user_id = $1
	`
	err := DB.GetContext(ctx, &row, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %v", err)
	}
	return row.toRecord()
}

// Upsert inserts or replaces the progress row for a user. The write is
// idempotent: pushing the same record twice leaves the same stored state.
func (r *ProgressRepository) Upsert(ctx context.Context, userID string, record *models.ProgressRecord) error {
	row, err := rowFromRecord(userID, record)
	if err != nil {
		return err
	}

	// ON CONFLICT upsert works on both postgres and sqlite as long as no
	// RETURNING clause is attached
	query := `
		INSERT INTO user_progress (
			user_id, unlocked_units, results, streak, daily_goal, last_studied,
			user_profile, favorites, words_learned, daily_usage_time, language, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			unlocked_units = EXCLUDED.unlocked_units,
			results = EXCLUDED.results,
			streak = EXCLUDED.streak,
			daily_goal = EXCLUDED.daily_goal,
			last_studied = EXCLUDED.last_studied,
			user_profile = EXCLUDED.user_profile,
			favorites = EXCLUDED.favorites,
			words_learned = EXCLUDED.words_learned,
			daily_usage_time = EXCLUDED.daily_usage_time,
			language = EXCLUDED.language,
			updated_at = EXCLUDED.updated_at
	`
	_, err = DB.ExecContext(ctx, query,
		row.UserID,
		row.UnlockedUnits,
		row.Results,
		row.Streak,
		row.DailyGoal,
		row.LastStudied,
		row.UserProfile,
		row.Favorites,
		row.WordsLearned,
		row.DailyUsageTime,
		row.Language,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user progress: %v", err)
	}
	return nil
}

// Leaderboard returns the top users ranked by words learned.
func (r *ProgressRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	type leaderRow struct {
		UserID       string `db:"user_id"`
		WordsLearned int    `db:"words_learned"`
		Streak       string `db:"streak"`
	}

	var rows []leaderRow
	query := `
		SELECT user_id, words_learned, streak
		FROM user_progress
		ORDER BY words_learned DESC
		LIMIT $1
	`
	if err := DB.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %v", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entry := models.LeaderboardEntry{
			UserID:       row.UserID,
			WordsLearned: row.WordsLearned,
			Rank:         i + 1,
		}
		// Streak is a JSON column; decode count here instead of using
		// dialect-specific JSON operators
		var streak models.Streak
		if json.Unmarshal([]byte(row.Streak), &streak) == nil {
			entry.StreakCount = streak.Count
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
