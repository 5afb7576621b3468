// internal/issues/service.go
package issues

import (
	"context"
	"time"

	"github.com/google/uuid"

	"librarylounge/internal/books"
	"librarylounge/internal/users"
)

// Service defines the interface for the issue lifecycle service.
type Service interface {
	RequestBook(ctx context.Context, bookID, userID uuid.UUID, returnDate time.Time) (*BookIssue, error)
	Decide(ctx context.Context, issueID uuid.UUID, approve bool) (*BookIssue, error)
	RequestReturn(ctx context.Context, issueID, userID uuid.UUID) (*BookIssue, error)
	ConfirmReturn(ctx context.Context, issueID uuid.UUID) (*BookIssue, error)
	NotifyOverdue(ctx context.Context, issueID uuid.UUID) (*BookIssue, error)

	ListAll(ctx context.Context) ([]BookIssue, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]BookIssue, error)
	ListDaily(ctx context.Context, date time.Time) ([]BookIssue, error)
	ListReturning(ctx context.Context) ([]BookIssue, error)
	ListOverdue(ctx context.Context) ([]BookIssue, error)
	CountIssued(ctx context.Context) (int, error)
}

// BookLookup is the slice of the books service the lifecycle needs: an
// existence check at request time and a title for notification mails.
type BookLookup interface {
	GetBook(ctx context.Context, id uuid.UUID) (*books.Book, error)
}

// UserLookup resolves the member a notification should go to.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*users.User, error)
}
