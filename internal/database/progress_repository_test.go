package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/example/sozyola/pkg/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	DB = db
	require.NoError(t, initializeSchema())
	t.Cleanup(func() {
		_ = db.Close()
		DB = nil
	})
}

func sampleRecord() *models.ProgressRecord {
	record := models.DefaultProgress("2024-03-10")
	record.UnlockedUnits = map[int][]int{1: {4, 5}}
	record.Results = map[string]models.QuizResult{
		"1-4": {Score: 8, Total: 10, Percentage: 80, Date: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	record.Streak = models.Streak{Count: 4, LastStudyDate: "2024-03-10"}
	record.Favorites = []string{"1-4-apple"}
	record.WordsLearned = 120
	record.Language = "uz"
	record.User = &models.UserProfile{Name: "Aziz", Role: "student"}
	record.LastStudied = &models.LastStudied{BookID: 1, UnitID: 4, Timestamp: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)}
	record.UpdatedAt = time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	return record
}

func TestGetByUserNoRowReturnsNotFound(t *testing.T) {
	setupTestDB(t)
	repo := NewProgressRepository()

	_, err := repo.GetByUser(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertRoundTrip(t *testing.T) {
	setupTestDB(t)
	repo := NewProgressRepository()

	record := sampleRecord()
	require.NoError(t, repo.Upsert(context.Background(), "user-1", record))

	fetched, err := repo.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, record.WordsLearned, fetched.WordsLearned)
	require.Equal(t, record.UnlockedUnits, fetched.UnlockedUnits)
	require.Equal(t, record.Streak, fetched.Streak)
	require.Equal(t, record.DailyGoal, fetched.DailyGoal)
	require.Equal(t, record.Favorites, fetched.Favorites)
	require.Equal(t, record.Language, fetched.Language)
	require.Equal(t, record.User, fetched.User)
	require.Equal(t, 8, fetched.Results["1-4"].Score)
	require.True(t, record.UpdatedAt.Equal(fetched.UpdatedAt))
	require.NotNil(t, fetched.LastStudied)
	require.Equal(t, 4, fetched.LastStudied.UnitID)
}

func TestUpsertIsIdempotent(t *testing.T) {
	setupTestDB(t)
	repo := NewProgressRepository()
	ctx := context.Background()

	record := sampleRecord()
	require.NoError(t, repo.Upsert(ctx, "user-1", record))
	first, err := repo.GetByUser(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, "user-1", record))
	second, err := repo.GetByUser(ctx, "user-1")
	require.NoError(t, err)

	require.Equal(t, first, second)

	var count int
	require.NoError(t, DB.Get(&count, "SELECT COUNT(*) FROM user_progress"))
	require.Equal(t, 1, count, "upsert must keep one row per user")
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	setupTestDB(t)
	repo := NewProgressRepository()
	ctx := context.Background()

	record := sampleRecord()
	require.NoError(t, repo.Upsert(ctx, "user-1", record))

	record.WordsLearned = 200
	record.Favorites = []string{}
	record.UpdatedAt = record.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, "user-1", record))

	fetched, err := repo.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 200, fetched.WordsLearned)
	require.Empty(t, fetched.Favorites)
}

func TestLeaderboardOrdersByWordsLearned(t *testing.T) {
	setupTestDB(t)
	repo := NewProgressRepository()
	ctx := context.Background()

	for _, u := range []struct {
		id     string
		words  int
		streak int
	}{
		{"user-a", 50, 2},
		{"user-b", 300, 9},
		{"user-c", 120, 5},
	} {
		record := models.DefaultProgress("2024-03-10")
		record.WordsLearned = u.words
		record.Streak = models.Streak{Count: u.streak, LastStudyDate: "2024-03-10"}
		record.UpdatedAt = time.Now().UTC()
		require.NoError(t, repo.Upsert(ctx, u.id, record))
	}

	entries, err := repo.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "user-b", entries[0].UserID)
	require.Equal(t, 1, entries[0].Rank)
	require.Equal(t, 9, entries[0].StreakCount)
	require.Equal(t, "user-c", entries[1].UserID)
	require.Equal(t, 2, entries[1].Rank)
}

func TestUnlockGrantAndGet(t *testing.T) {
	setupTestDB(t)
	repo := NewUnlockRepository()
	ctx := context.Background()

	unlock, err := repo.Grant(ctx, "user-1", 2, 5, "admin", "promo")
	require.NoError(t, err)
	require.NotEmpty(t, unlock.ID)

	// Granting the same unit again is a silent no-op
	_, err = repo.Grant(ctx, "user-1", 2, 5, "admin", "")
	require.NoError(t, err)

	unlocks, err := repo.GetForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	require.Equal(t, 2, unlocks[0].BookID)
	require.Equal(t, 5, unlocks[0].UnitID)
	require.Equal(t, "admin", unlocks[0].UnlockedBy)

	other, err := repo.GetForUser(ctx, "user-2")
	require.NoError(t, err)
	require.Empty(t, other)
}
