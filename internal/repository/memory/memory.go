// Package memory provides in-process repositories. They back STORAGE=memory
// for local development and stand in for postgres in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dom/codementor/internal/domain"
	"github.com/dom/codementor/internal/repository"
	"github.com/google/uuid"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[uuid.UUID]*domain.User),
		now:   time.Now,
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if !u.IsActive {
			continue
		}
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicateKey
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, ok := r.users[user.ID]; ok {
		return repository.ErrDuplicateKey
	}
	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	r.users[user.ID] = clone(user)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email || u.Username == username })
}

func (r *UserRepository) UpdateProfile(_ context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || !u.IsActive {
		return nil, repository.ErrNotFound
	}
	update.Apply(u)
	u.UpdatedAt = r.now().UTC()
	return clone(u), nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || !u.IsActive {
		return repository.ErrNotFound
	}
	at = at.UTC()
	u.LastLogin = &at
	return nil
}

// Deactivate flips the active flag off, the only removal path accounts have.
func (r *UserRepository) Deactivate(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		u.IsActive = false
	}
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.IsActive && match(u) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func clone(u *domain.User) *domain.User {
	cp := *u
	cp.FirstName = cloneString(u.FirstName)
	cp.LastName = cloneString(u.LastName)
	cp.ProfilePicture = cloneString(u.ProfilePicture)
	if u.LastLogin != nil {
		t := *u.LastLogin
		cp.LastLogin = &t
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ProgressRepository keeps exercises and per-user progress in memory.
type ProgressRepository struct {
	mu        sync.RWMutex
	exercises map[uuid.UUID]domain.Exercise
	progress  map[uuid.UUID]map[uuid.UUID]domain.UserProgress
}

func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{
		exercises: make(map[uuid.UUID]domain.Exercise),
		progress:  make(map[uuid.UUID]map[uuid.UUID]domain.UserProgress),
	}
}

func (r *ProgressRepository) AddExercise(e domain.Exercise) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.exercises[e.ID] = e
}

// Record stores p, replacing any earlier entry for the same exercise.
func (r *ProgressRepository) Record(p domain.UserProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byExercise, ok := r.progress[p.UserID]
	if !ok {
		byExercise = make(map[uuid.UUID]domain.UserProgress)
		r.progress[p.UserID] = byExercise
	}
	byExercise[p.ExerciseID] = p
}

func (r *ProgressRepository) Summary(_ context.Context, userID uuid.UUID) (*domain.ProgressSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &domain.ProgressSummary{}
	for _, e := range r.exercises {
		if e.IsActive {
			summary.TotalExercises++
		}
	}
	for _, p := range r.progress[userID] {
		if p.Status == domain.ProgressStatusCompleted {
			summary.CompletedExercises++
		}
		summary.TotalTimeSpent += int64(p.TimeSpent)
	}
	return summary, nil
}

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User:     NewUserRepository(),
		Progress: NewProgressRepository(),
	}
}
