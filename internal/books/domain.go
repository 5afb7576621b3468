// internal/books/domain.go
package books

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("book not found")
	ErrValidation = errors.New("invalid book input")
)

// Book represents a title in the catalog. Availability is binary: a book is
// either free or tied up in one active issue record.
type Book struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Publisher string    `json:"publisher"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"imageUrl"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
