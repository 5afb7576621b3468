// internal/issues/store.go
package issues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Store is the durable ledger of book issue records.
type Store interface {
	Create(ctx context.Context, issue *BookIssue) error
	Get(ctx context.Context, id uuid.UUID) (*BookIssue, error)
	Save(ctx context.Context, issue *BookIssue) error
	ListAll(ctx context.Context) ([]BookIssue, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]BookIssue, error)
	ListByStatus(ctx context.Context, status Status) ([]BookIssue, error)
	ListByDate(ctx context.Context, date time.Time) ([]BookIssue, error)
	ListOverdue(ctx context.Context, now time.Time) ([]BookIssue, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	HasActiveForBook(ctx context.Context, bookID uuid.UUID) (bool, error)
}

const issueColumns = `id, book_id, user_id, status, issue_date, return_date, actual_return_date, created_at, version`

type postgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewStore creates a Postgres-backed ledger.
func NewStore(db *sql.DB) Store {
	return &postgresStore{
		db:     db,
		tracer: otel.Tracer("librarylounge/issues"),
	}
}

// Create inserts a new record. The partial unique index on active issues
// guarantees a book can only carry one active record even under a race; the
// violation surfaces as ErrConflict.
func (s *postgresStore) Create(ctx context.Context, issue *BookIssue) error {
	ctx, span := s.tracer.Start(ctx, "issues.create",
		trace.WithAttributes(
			attribute.String("issue.id", issue.ID.String()),
			attribute.String("book.id", issue.BookID.String()),
		),
	)
	defer span.End()

	query := `
		INSERT INTO book_issues (id, book_id, user_id, status, return_date, created_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		issue.ID, issue.BookID, issue.UserID, issue.Status, issue.RequestedReturnDate, issue.CreatedAt, issue.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			span.SetAttributes(attribute.Bool("conflict.detected", true))
			return fmt.Errorf("%w: book already has an active issue", ErrConflict)
		}
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	return nil
}

// Get fetches a record by id.
func (s *postgresStore) Get(ctx context.Context, id uuid.UUID) (*BookIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM book_issues WHERE id = $1`
	issue, err := scanIssue(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

// Save persists a full record with an optimistic version check. A lost race
// comes back as ErrConflict, never a silent overwrite.
func (s *postgresStore) Save(ctx context.Context, issue *BookIssue) error {
	ctx, span := s.tracer.Start(ctx, "issues.save",
		trace.WithAttributes(
			attribute.String("issue.id", issue.ID.String()),
			attribute.String("issue.status", string(issue.Status)),
			attribute.Int("expected.version", issue.Version),
		),
	)
	defer span.End()

	query := `
		UPDATE book_issues
		SET status = $1, issue_date = $2, actual_return_date = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		issue.Status, issue.IssueDate, issue.ActualReturnDate, issue.ID, issue.Version)
	if err != nil {
		return fmt.Errorf("failed to save issue: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save issue: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM book_issues WHERE id = $1)`, issue.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to save issue: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return fmt.Errorf("%w: version mismatch", ErrConflict)
	}

	issue.Version++
	return nil
}

// ListAll returns every record, newest request first.
func (s *postgresStore) ListAll(ctx context.Context) ([]BookIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM book_issues ORDER BY created_at DESC`
	return s.queryIssues(ctx, query)
}

// ListByUser returns a member's records, newest request first.
func (s *postgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]BookIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM book_issues WHERE user_id = $1 ORDER BY created_at DESC`
	return s.queryIssues(ctx, query, userID)
}

// ListByStatus returns records currently in the given status.
func (s *postgresStore) ListByStatus(ctx context.Context, status Status) ([]BookIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM book_issues WHERE status = $1 ORDER BY created_at DESC`
	return s.queryIssues(ctx, query, status)
}

// ListByDate returns records issued on the given calendar day, newest issue
// first.
func (s *postgresStore) ListByDate(ctx context.Context, date time.Time) ([]BookIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM book_issues
		WHERE issue_date >= $1 AND issue_date < $2
		ORDER BY issue_date DESC
	`
	day := startOfDay(date)
	return s.queryIssues(ctx, query, day, day.AddDate(0, 0, 1))
}

// ListOverdue returns active issued records past their requested return date.
func (s *postgresStore) ListOverdue(ctx context.Context, now time.Time) ([]BookIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM book_issues
		WHERE status IN ($1, $2) AND return_date < $3
		ORDER BY created_at DESC
	`
	return s.queryIssues(ctx, query, StatusIssued, StatusReturnRequested, now)
}

// CountByStatus counts records currently in the given status.
func (s *postgresStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_issues WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

// HasActiveForBook reports whether the book is tied up in a non-terminal
// record. Used for early rejection; the partial unique index is the backstop.
func (s *postgresStore) HasActiveForBook(ctx context.Context, bookID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM book_issues
			WHERE book_id = $1 AND status IN ($2, $3, $4)
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query, bookID, StatusRequested, StatusIssued, StatusReturnRequested).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active issues: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row rowScanner) (*BookIssue, error) {
	issue := &BookIssue{}
	err := row.Scan(
		&issue.ID, &issue.BookID, &issue.UserID, &issue.Status,
		&issue.IssueDate, &issue.RequestedReturnDate, &issue.ActualReturnDate,
		&issue.CreatedAt, &issue.Version,
	)
	if err != nil {
		return nil, err
	}
	if !issue.Status.Valid() {
		return nil, fmt.Errorf("issue %s has unknown status %q", issue.ID, issue.Status)
	}
	return issue, nil
}

func (s *postgresStore) queryIssues(ctx context.Context, query string, args ...interface{}) ([]BookIssue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var list []BookIssue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *issue)
	}
	return list, rows.Err()
}
