// internal/books/service.go
package books

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the books service.
type Service interface {
	AddBook(ctx context.Context, title, author, publisher, category, imageURL string) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context) ([]Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, title, author, publisher, category, imageURL string) (*Book, error)
	RemoveBook(ctx context.Context, id uuid.UUID) error
}
