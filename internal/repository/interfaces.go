package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dom/codementor/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// UserRepository is the credential store. Every lookup only sees active
// users; Create fails with ErrDuplicateKey when email or username is taken
// by an active user.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ProgressRepository reads learning aggregates owned by the lessons and
// progress modules.
type ProgressRepository interface {
	Summary(ctx context.Context, userID uuid.UUID) (*domain.ProgressSummary, error)
}

type Repositories struct {
	User     UserRepository
	Progress ProgressRepository
}
