// internal/reports/implementation.go
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"librarylounge/internal/issues"
)

// service implements the Service interface.
type service struct {
	db    *sql.DB
	store issues.Store
	now   func() time.Time
}

// NewService creates a new reporting service instance.
func NewService(db *sql.DB, store issues.Store) Service {
	return &service{
		db:    db,
		store: store,
		now:   time.Now,
	}
}

func (s *service) BookCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

func (s *service) IssuedBookCount(ctx context.Context) (int, error) {
	return s.store.CountByStatus(ctx, issues.StatusIssued)
}

func (s *service) OverdueBookCount(ctx context.Context) (int, error) {
	overdue, err := s.store.ListOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	return len(overdue), nil
}

func (s *service) ReturnedBookCount(ctx context.Context) (int, error) {
	return s.store.CountByStatus(ctx, issues.StatusReturned)
}

func (s *service) IssuedBooks(ctx context.Context) ([]issues.BookIssue, error) {
	return s.store.ListByStatus(ctx, issues.StatusIssued)
}

func (s *service) ReturnedBooks(ctx context.Context) ([]issues.BookIssue, error) {
	return s.store.ListByStatus(ctx, issues.StatusReturned)
}

func (s *service) OverdueBooks(ctx context.Context) ([]issues.BookIssue, error) {
	return s.store.ListOverdue(ctx, s.now())
}

func (s *service) RequestedBooks(ctx context.Context) ([]issues.BookIssue, error) {
	return s.store.ListByStatus(ctx, issues.StatusRequested)
}

// AdminStats aggregates totals for the super admin dashboard.
func (s *service) AdminStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{PerStatus: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.Users); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&stats.Books); err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	for _, status := range []issues.Status{
		issues.StatusRequested, issues.StatusIssued, issues.StatusRejected,
		issues.StatusReturnRequested, issues.StatusReturned,
	} {
		count, err := s.store.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		stats.PerStatus[string(status)] = count
		stats.Issues += count
	}

	return stats, nil
}
