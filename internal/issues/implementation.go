// internal/issues/implementation.go
package issues

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"librarylounge/internal/logger"
	"librarylounge/internal/mailer"
)

// service implements the Service interface. It is the single authority for
// legal transitions; the store only persists what the engine decided.
type service struct {
	store Store
	books BookLookup
	users UserLookup
	mail  mailer.Mailer
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a new issue lifecycle service instance.
func NewService(store Store, books BookLookup, users UserLookup, mail mailer.Mailer) Service {
	return &service{
		store: store,
		books: books,
		users: users,
		mail:  mail,
		log:   logger.With("issues"),
		now:   time.Now,
	}
}

// RequestBook creates a Requested record for a member. Fails with ErrConflict
// while the book is tied up in another active record.
func (s *service) RequestBook(ctx context.Context, bookID, userID uuid.UUID, returnDate time.Time) (*BookIssue, error) {
	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	active, err := s.store.HasActiveForBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("%w: book already has an active issue", ErrConflict)
	}

	issue, err := NewRequest(bookID, userID, returnDate, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, issue); err != nil {
		return nil, err
	}

	s.log.Info("book requested", "issue_id", issue.ID, "book_id", bookID, "user_id", userID)
	return issue, nil
}

// Decide approves or rejects a Requested record and notifies the member.
func (s *service) Decide(ctx context.Context, issueID uuid.UUID, approve bool) (*BookIssue, error) {
	issue, err := s.store.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if approve {
		if err := issue.Approve(s.now()); err != nil {
			return nil, err
		}
	} else {
		if err := issue.Reject(); err != nil {
			return nil, err
		}
	}

	if err := s.store.Save(ctx, issue); err != nil {
		return nil, err
	}

	s.log.Info("issue decided", "issue_id", issue.ID, "approve", approve)
	returnBy := issue.RequestedReturnDate.Format("2006-01-02")
	if approve {
		s.notifyDecision(issue, "Book issued", func(title string) string {
			return fmt.Sprintf("Your request for '%s' has been approved. Please return it by %s.", title, returnBy)
		})
	} else {
		s.notifyDecision(issue, "Book request rejected", func(title string) string {
			return fmt.Sprintf("Your request for '%s' has been rejected. Please contact the library for details.", title)
		})
	}

	return issue, nil
}

// RequestReturn records the owning member's intent to return the book.
func (s *service) RequestReturn(ctx context.Context, issueID, userID uuid.UUID) (*BookIssue, error) {
	issue, err := s.store.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.UserID != userID {
		return nil, ErrNotOwner
	}

	if err := issue.RequestReturn(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, issue); err != nil {
		return nil, err
	}

	s.log.Info("return requested", "issue_id", issue.ID)
	return issue, nil
}

// ConfirmReturn closes an issued or returning record.
func (s *service) ConfirmReturn(ctx context.Context, issueID uuid.UUID) (*BookIssue, error) {
	issue, err := s.store.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if err := issue.ConfirmReturn(s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, issue); err != nil {
		return nil, err
	}

	s.log.Info("book returned", "issue_id", issue.ID)
	return issue, nil
}

// NotifyOverdue mails the member an overdue notice. The record itself does
// not change; a record returned in the meantime fails the overdue check.
func (s *service) NotifyOverdue(ctx context.Context, issueID uuid.UUID) (*BookIssue, error) {
	issue, err := s.store.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if issue.Status != StatusIssued && issue.Status != StatusReturnRequested {
		return nil, fmt.Errorf("%w: cannot send overdue notice for a %s issue", ErrInvalidTransition, issue.Status)
	}
	now := s.now()
	if !issue.Overdue(now) {
		return nil, ErrNotOverdue
	}

	user, err := s.users.GetUser(ctx, issue.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	book, err := s.books.GetBook(ctx, issue.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	days, hours := OverduePeriod(issue.RequestedReturnDate, now)
	subject := fmt.Sprintf("Overdue book notice: %s", book.Title)
	body := fmt.Sprintf(
		"Dear member,\n\nThis is a reminder that the following book you borrowed is overdue.\n\n"+
			"Book Title: %s\nIssued Date: %s\nReturn Date: %s\nOverdue Period: %s\n\n"+
			"Member Name: %s\nEmail: %s\nPhone: %s\n\n"+
			"Please return the book as soon as possible to avoid further penalties.\n\nLibrary Lounge Team",
		book.Title, formatDate(issue.IssueDate), issue.RequestedReturnDate.Format("2006-01-02"),
		FormatOverduePeriod(days, hours),
		user.Name, user.Email, user.Phone,
	)

	s.log.Info("sending overdue notice", "issue_id", issue.ID, "to", user.Email)
	s.send(user.Email, subject, body)

	return issue, nil
}

// notifyDecision enriches and dispatches an approve/reject mail. Lookup or
// delivery failures are logged and swallowed; the transition already stands.
func (s *service) notifyDecision(issue *BookIssue, subject string, makeBody func(title string) string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	go func() {
		defer cancel()
		user, err := s.users.GetUser(ctx, issue.UserID)
		if err != nil {
			s.log.Error("failed to resolve member for notification", "issue_id", issue.ID, "error", err)
			return
		}
		book, err := s.books.GetBook(ctx, issue.BookID)
		if err != nil {
			s.log.Error("failed to resolve book for notification", "issue_id", issue.ID, "error", err)
			return
		}

		body := fmt.Sprintf("Dear %s,\n\n%s\n\nBest regards,\nLibrary Lounge Team",
			user.Name, makeBody(book.Title))
		if err := s.mail.Send(user.Email, subject, body); err != nil {
			s.log.Error("failed to send email", "to", user.Email, "subject", subject, "error", err)
		}
	}()
}

// send dispatches mail without blocking the caller's response.
func (s *service) send(to, subject, body string) {
	go func() {
		if err := s.mail.Send(to, subject, body); err != nil {
			s.log.Error("failed to send email", "to", to, "subject", subject, "error", err)
		}
	}()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("2006-01-02")
}

func (s *service) ListAll(ctx context.Context) ([]BookIssue, error) {
	return s.store.ListAll(ctx)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]BookIssue, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *service) ListDaily(ctx context.Context, date time.Time) ([]BookIssue, error) {
	return s.store.ListByDate(ctx, date)
}

func (s *service) ListReturning(ctx context.Context) ([]BookIssue, error) {
	return s.store.ListByStatus(ctx, StatusReturnRequested)
}

func (s *service) ListOverdue(ctx context.Context) ([]BookIssue, error) {
	return s.store.ListOverdue(ctx, s.now())
}

func (s *service) CountIssued(ctx context.Context) (int, error) {
	return s.store.CountByStatus(ctx, StatusIssued)
}
