// internal/books/implementation.go
package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// service implements the Service interface.
type service struct {
	db *sql.DB
}

// NewService creates a new books service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func validate(title, author, imageURL string) error {
	if title == "" || author == "" {
		return fmt.Errorf("%w: title and author are required", ErrValidation)
	}
	if len(imageURL) > 255 {
		return fmt.Errorf("%w: image URL must not exceed 255 characters", ErrValidation)
	}
	return nil
}

// AddBook creates a new book in the catalog.
func (s *service) AddBook(ctx context.Context, title, author, publisher, category, imageURL string) (*Book, error) {
	if err := validate(title, author, imageURL); err != nil {
		return nil, err
	}

	book := &Book{
		ID:        uuid.New(),
		Title:     title,
		Author:    author,
		Publisher: publisher,
		Category:  category,
		ImageURL:  imageURL,
	}

	query := `
		INSERT INTO books (id, title, author, publisher, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, book.ID, book.Title, book.Author, book.Publisher, book.Category, book.ImageURL).
		Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store book: %w", err)
	}

	// A brand new book cannot have an issue record yet.
	book.Available = true
	return book, nil
}

// availableExpr derives the binary availability flag from the issue ledger.
const availableExpr = `NOT EXISTS (
			SELECT 1 FROM book_issues bi
			WHERE bi.book_id = books.id AND bi.status IN ('requested', 'issued', 'returning')
		) AS available`

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	query := `
		SELECT id, title, author, publisher, category, image_url, created_at, updated_at, ` + availableExpr + `
		FROM books
		WHERE id = $1
	`
	book := &Book{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID, &book.Title, &book.Author, &book.Publisher, &book.Category, &book.ImageURL,
		&book.CreatedAt, &book.UpdatedAt, &book.Available,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// ListBooks returns the full catalog, newest first.
func (s *service) ListBooks(ctx context.Context) ([]Book, error) {
	query := `
		SELECT id, title, author, publisher, category, image_url, created_at, updated_at, ` + availableExpr + `
		FROM books
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var list []Book
	for rows.Next() {
		var book Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Publisher, &book.Category, &book.ImageURL, &book.CreatedAt, &book.UpdatedAt, &book.Available); err != nil {
			return nil, err
		}
		list = append(list, book)
	}
	return list, rows.Err()
}

// UpdateBook replaces a book's catalog fields.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, title, author, publisher, category, imageURL string) (*Book, error) {
	if err := validate(title, author, imageURL); err != nil {
		return nil, err
	}

	query := `
		UPDATE books
		SET title = $1, author = $2, publisher = $3, category = $4, image_url = $5, updated_at = NOW()
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query, title, author, publisher, category, imageURL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetBook(ctx, id)
}

// RemoveBook deletes a book from the catalog.
func (s *service) RemoveBook(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove book: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
