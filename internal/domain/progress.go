package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProgressStatus string

const (
	ProgressStatusNotStarted ProgressStatus = "not_started"
	ProgressStatusInProgress ProgressStatus = "in_progress"
	ProgressStatusCompleted  ProgressStatus = "completed"
)

// Exercise is owned by the lessons module; only the columns the progress
// summary reads are mapped here.
type Exercise struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LessonID  uuid.UUID `gorm:"type:uuid;not null"`
	Title     string    `gorm:"not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}

type UserProgress struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null"`
	ExerciseID uuid.UUID      `gorm:"type:uuid;not null"`
	Status     ProgressStatus `gorm:"not null;default:'not_started'"`
	TimeSpent  int            `gorm:"not null;default:0"` // seconds
	UpdatedAt  time.Time
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// ProgressSummary is the aggregate view of a user's learning activity.
type ProgressSummary struct {
	TotalExercises     int   `json:"totalExercises"`
	CompletedExercises int   `json:"completedExercises"`
	CurrentStreak      int   `json:"currentStreak"`
	TotalTimeSpent     int64 `json:"totalTimeSpent"`
}

// UserWithProgress is the response shape of the current-user endpoint.
type UserWithProgress struct {
	*PublicUser
	ProgressSummary
}
