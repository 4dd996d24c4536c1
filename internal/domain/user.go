package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted account record. PasswordHash never leaves the
// repository/service boundary; use Public to build anything a caller sees.
type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email          string     `gorm:"not null"`
	Username       string     `gorm:"not null"`
	PasswordHash   string     `gorm:"not null"`
	FirstName      *string    `gorm:"column:first_name"`
	LastName       *string    `gorm:"column:last_name"`
	ProfilePicture *string    `gorm:"column:profile_picture"`
	IsActive       bool       `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLogin      *time.Time `gorm:"column:last_login"`
}

// PublicUser is the projection of a User that is safe to return to clients.
type PublicUser struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FirstName      *string    `json:"firstName,omitempty"`
	LastName       *string    `json:"lastName,omitempty"`
	ProfilePicture *string    `json:"profilePicture,omitempty"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		LastLogin:      u.LastLogin,
	}
}

// Identity is the request-scoped caller resolved from a session token.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Username: u.Username}
}

// ProfileUpdate carries the optional profile fields; nil means "leave as is".
type ProfileUpdate struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	ProfilePicture *string `json:"profilePicture"`
}

// Empty reports whether no recognized field is set.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.ProfilePicture == nil
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.LastName != nil {
		u.LastName = p.LastName
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = p.ProfilePicture
	}
}
