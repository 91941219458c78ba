// Package domain contains the core business entities for Campstack.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the bootcamp directory.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the access levels a user can hold.
type Role string

const (
	// RoleUser can browse and review bootcamps.
	RoleUser Role = "user"

	// RolePublisher can publish one bootcamp and manage its courses.
	RolePublisher Role = "publisher"

	// RoleAdmin can manage every resource and other users.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RolePublisher, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
// Users own bootcamps (publishers) and reviews, and authenticate with a
// bcrypt-hashed password.
type User struct {
	// ID is the unique identifier for the user.
	ID uuid.UUID `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is the unique login address.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never exposed in API responses.
	PasswordHash string `json:"-"`

	// Role determines route-level authorization.
	Role Role `json:"role"`

	// ResetPasswordToken is the sha256 hash of an outstanding reset token.
	// Transient: cleared once the password is reset or the token expires.
	ResetPasswordToken string `json:"-"`

	// ResetPasswordExpire is when the outstanding reset token stops being valid.
	ResetPasswordExpire *time.Time `json:"-"`

	// CreatedAt is the timestamp when the user registered.
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser creates a User with a fresh ID and the default role applied when
// none is given.
func NewUser(name, email, passwordHash string, role Role) *User {
	if role == "" {
		role = RoleUser
	}
	return &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasValidResetToken reports whether the stored reset token hash matches and
// has not expired.
func (u *User) HasValidResetToken(tokenHash string, now time.Time) bool {
	if u.ResetPasswordToken == "" || u.ResetPasswordExpire == nil {
		return false
	}
	return u.ResetPasswordToken == tokenHash && now.Before(*u.ResetPasswordExpire)
}
