// internal/users/domain.go
package users

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"librarylounge/internal/auth"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("invalid user input")
	ErrRateLimited        = errors.New("too many authentication attempts")
)

// User represents a registered library user.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential holds a user's login secret, stored separately from the profile.
type Credential struct {
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
}
