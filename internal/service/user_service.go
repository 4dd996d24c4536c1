package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/codementor/internal/auth"
	"github.com/dom/codementor/internal/domain"
	"github.com/dom/codementor/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinPasswordLength is counted in characters and enforced before a password
// is hashed.
const MinPasswordLength = 6

var (
	ErrInvalidCredentials = domain.NewError(domain.KindUnauthorized, "Invalid email or password")
	ErrUserExists         = domain.NewError(domain.KindConflict, "User with this email or username already exists")
	ErrUserNotFound       = domain.NewError(domain.KindNotFound, "User not found")
	ErrNoProfileFields    = domain.NewError(domain.KindValidation, "No valid fields to update")
	ErrInvalidToken       = domain.NewError(domain.KindForbidden, "Invalid or expired token")
	ErrMissingCredentials = domain.NewError(domain.KindValidation, "Email and password are required")
)

type UserService struct {
	users    repository.UserRepository
	progress repository.ProgressRepository
	hasher   auth.PasswordHasher
	tokens   auth.TokenManager
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserService(
	users repository.UserRepository,
	progress repository.ProgressRepository,
	hasher auth.PasswordHasher,
	tokens auth.TokenManager,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:    users,
		progress: progress,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger.Named("user_service"),
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (in *RegisterInput) Normalize() {
	in.Email = normalizeEmail(in.Email)
	in.Username = trimSpace(in.Username)
}

// Validate checks the input as submitted. Call Normalize first.
func (in RegisterInput) Validate() error {
	return validationError(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&in.Password, validation.Required,
			validation.RuneLength(MinPasswordLength, 0), validation.Length(0, auth.MaxPasswordBytes)),
		validation.Field(&in.FirstName, validation.Length(0, 100)),
		validation.Field(&in.LastName, validation.Length(0, 100)),
	))
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	if trimSpace(in.Email) == "" || in.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

type AuthResult struct {
	User      *domain.PublicUser
	Token     string
	ExpiresAt time.Time
}

// Register creates a new active account. The duplicate lookup gives a
// friendly error; the store's unique indexes are what actually guarantee
// uniqueness under concurrent registrations.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.PublicUser, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil && existing != nil:
		return nil, ErrUserExists
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		s.logger.Error("failed to check existing user", zap.String("email", in.Email), zap.Error(err))
		return nil, domain.InternalError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.String("email", in.Email), zap.Error(err))
		return nil, domain.InternalError(err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    optional(in.FirstName),
		LastName:     optional(in.LastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExists.WithCause(err)
		}
		s.logger.Error("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, domain.InternalError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return user.Public(), nil
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same error and comparable latency.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyDummy(in.Password)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user", zap.String("email", email), zap.Error(err))
		return nil, domain.InternalError(err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, domain.InternalError(err)
	}
	user.LastLogin = &now

	token, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		s.logger.Error("failed to issue token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, domain.InternalError(err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &AuthResult{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// GetUserWithProgress joins the account with its learning aggregates.
func (s *UserService) GetUserWithProgress(ctx context.Context, id uuid.UUID) (*domain.UserWithProgress, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}

	result := &domain.UserWithProgress{PublicUser: user.Public()}
	if s.progress == nil {
		return result, nil
	}

	summary, err := s.progress.Summary(ctx, id)
	if err != nil {
		s.logger.Error("failed to load progress summary", zap.String("user_id", id.String()), zap.Error(err))
		return nil, domain.InternalError(err)
	}
	result.ProgressSummary = *summary
	return result, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.PublicUser, error) {
	if update.Empty() {
		return nil, ErrNoProfileFields
	}

	err := validationError(validation.ValidateStruct(&update,
		validation.Field(&update.FirstName, validation.Length(0, 100)),
		validation.Field(&update.LastName, validation.Length(0, 100)),
		validation.Field(&update.ProfilePicture, validation.Length(0, 2048)),
	))
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, s.lookupError(err, id)
	}

	s.logger.Info("profile updated", zap.String("user_id", id.String()))
	return user.Public(), nil
}

// VerifyToken checks a session token's signature and expiry.
func (s *UserService) VerifyToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}
	return claims, nil
}

// ResolveIdentity verifies token and confirms its user is still active.
func (s *UserService) ResolveIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	claimed, err := claims.Identity()
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	user, err := s.users.GetByID(ctx, claimed.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken.WithCause(err)
		}
		s.logger.Error("failed to resolve token user", zap.String("user_id", claimed.ID.String()), zap.Error(err))
		return nil, domain.InternalError(err)
	}

	identity := user.Identity()
	return &identity, nil
}

func (s *UserService) lookupError(err error, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	s.logger.Error("failed to load user", zap.String("user_id", id.String()), zap.Error(err))
	return domain.InternalError(err)
}
