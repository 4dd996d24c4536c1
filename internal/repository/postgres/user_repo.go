package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dom/codementor/internal/domain"
	"github.com/dom/codementor/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolation = "23505"

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.first(ctx, "id = ? AND is_active = ?", id, true)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ? AND is_active = ?", email, true)
}

func (r *userRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	return r.first(ctx, "(email = ? OR username = ?) AND is_active = ?", email, username, true)
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	columns := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if update.FirstName != nil {
		columns["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		columns["last_name"] = *update.LastName
	}
	if update.ProfilePicture != nil {
		columns["profile_picture"] = *update.ProfilePicture
	}

	var user domain.User
	res := r.db.WithContext(ctx).
		Model(&user).
		Clauses(clause.Returning{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(columns)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("last_login", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicateKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateKey
	}
	return err
}
