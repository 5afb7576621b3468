// internal/reports/service.go
package reports

import (
	"context"

	"librarylounge/internal/issues"
)

// Stats is the admin dashboard aggregate.
type Stats struct {
	Users     int            `json:"users"`
	Books     int            `json:"books"`
	Issues    int            `json:"issues"`
	PerStatus map[string]int `json:"per_status"`
}

// Service derives read-only views over the catalog and the issue ledger.
// Every view is computed fresh per call; nothing here mutates state.
type Service interface {
	BookCount(ctx context.Context) (int, error)
	IssuedBookCount(ctx context.Context) (int, error)
	OverdueBookCount(ctx context.Context) (int, error)
	ReturnedBookCount(ctx context.Context) (int, error)

	IssuedBooks(ctx context.Context) ([]issues.BookIssue, error)
	ReturnedBooks(ctx context.Context) ([]issues.BookIssue, error)
	OverdueBooks(ctx context.Context) ([]issues.BookIssue, error)
	RequestedBooks(ctx context.Context) ([]issues.BookIssue, error)

	AdminStats(ctx context.Context) (*Stats, error)
}
