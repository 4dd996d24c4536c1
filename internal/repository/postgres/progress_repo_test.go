package postgres_test

import (
	"context"
	"testing"

	"github.com/dom/codementor/internal/domain"
	"github.com/dom/codementor/internal/repository/postgres"
	"github.com/dom/codementor/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRepository_Summary(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	users := postgres.NewUserRepository(testDB.DB)
	repo := postgres.NewProgressRepository(testDB.DB)
	ctx := context.Background()

	user := newUser("margaret@example.com", "margaret")
	require.NoError(t, users.Create(ctx, user))

	t.Run("no activity", func(t *testing.T) {
		summary, err := repo.Summary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ProgressSummary{}, *summary)
	})

	lesson := uuid.New()
	exercises := []domain.Exercise{
		{ID: uuid.New(), LessonID: lesson, Title: "Hello", IsActive: true},
		{ID: uuid.New(), LessonID: lesson, Title: "Loops", IsActive: true},
		{ID: uuid.New(), LessonID: lesson, Title: "Maps", IsActive: true},
	}
	require.NoError(t, testDB.DB.Create(&exercises).Error)

	progress := []domain.UserProgress{
		{ID: uuid.New(), UserID: user.ID, ExerciseID: exercises[0].ID, Status: domain.ProgressStatusCompleted, TimeSpent: 120},
		{ID: uuid.New(), UserID: user.ID, ExerciseID: exercises[1].ID, Status: domain.ProgressStatusInProgress, TimeSpent: 30},
	}
	require.NoError(t, testDB.DB.Create(&progress).Error)

	t.Run("with activity", func(t *testing.T) {
		summary, err := repo.Summary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.TotalExercises)
		assert.Equal(t, 1, summary.CompletedExercises)
		assert.Equal(t, int64(150), summary.TotalTimeSpent)
		assert.Equal(t, 0, summary.CurrentStreak)
	})

	t.Run("other user sees only totals", func(t *testing.T) {
		summary, err := repo.Summary(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 3, summary.TotalExercises)
		assert.Equal(t, 0, summary.CompletedExercises)
		assert.Equal(t, int64(0), summary.TotalTimeSpent)
	})
}
