package postgres

import (
	"context"

	"github.com/dom/codementor/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *progressRepository {
	return &progressRepository{db: db}
}

const summaryQuery = `
SELECT
	(SELECT COUNT(*) FROM exercises WHERE is_active = TRUE) AS total_exercises,
	(SELECT COUNT(DISTINCT exercise_id) FROM user_progress WHERE user_id = @user AND status = @completed) AS completed_exercises,
	(SELECT COALESCE(SUM(time_spent), 0) FROM user_progress WHERE user_id = @user) AS total_time_spent
`

func (r *progressRepository) Summary(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	var row struct {
		TotalExercises     int
		CompletedExercises int
		TotalTimeSpent     int64
	}

	err := r.db.WithContext(ctx).
		Raw(summaryQuery, map[string]any{
			"user":      userID,
			"completed": string(domain.ProgressStatusCompleted),
		}).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	// Streaks are not tracked yet.
	return &domain.ProgressSummary{
		TotalExercises:     row.TotalExercises,
		CompletedExercises: row.CompletedExercises,
		TotalTimeSpent:     row.TotalTimeSpent,
	}, nil
}
