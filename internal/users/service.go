// internal/users/service.go
package users

import (
	"context"

	"github.com/google/uuid"

	"librarylounge/internal/auth"
)

// Service defines the interface for the users service.
type Service interface {
	Register(ctx context.Context, email, name, phone, password string, role auth.Role) (*User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, name, phone string) (*User, error)
	RemoveUser(ctx context.Context, id uuid.UUID) error
}
