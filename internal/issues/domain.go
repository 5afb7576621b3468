// internal/issues/domain.go
package issues

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("book issue not found")
	ErrConflict          = errors.New("conflicting book issue update")
	ErrInvalidTransition = errors.New("invalid issue status transition")
	ErrNotOverdue        = errors.New("book is not overdue")
	ErrValidation        = errors.New("invalid issue input")
	ErrNotOwner          = errors.New("issue belongs to another member")
)

// Status is the lifecycle state of a book issue.
type Status string

const (
	StatusRequested       Status = "requested"
	StatusIssued          Status = "issued"
	StatusRejected        Status = "rejected"
	StatusReturnRequested Status = "returning"
	StatusReturned        Status = "returned"
)

// transitions is the full legal transition graph. Any move not listed here
// is rejected, so unmodeled transitions are impossible by construction.
var transitions = map[Status][]Status{
	StatusRequested:       {StatusIssued, StatusRejected},
	StatusIssued:          {StatusReturnRequested, StatusReturned},
	StatusReturnRequested: {StatusReturned},
	StatusRejected:        {},
	StatusReturned:        {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) canTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BookIssue is one borrowing transaction linking a book and a member.
// Records are never deleted; terminal records stay for reporting.
type BookIssue struct {
	ID                  uuid.UUID  `json:"id"`
	BookID              uuid.UUID  `json:"book_id"`
	UserID              uuid.UUID  `json:"user_id"`
	Status              Status     `json:"status"`
	IssueDate           *time.Time `json:"issue_date,omitempty"`
	RequestedReturnDate time.Time  `json:"return_date"`
	ActualReturnDate    *time.Time `json:"actual_return_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	Version             int        `json:"version"`
}

// NewRequest builds a fresh Requested record. The requested return date must
// not fall on a calendar day before the request itself.
func NewRequest(bookID, userID uuid.UUID, returnDate, now time.Time) (*BookIssue, error) {
	if returnDate.Before(startOfDay(now)) {
		return nil, fmt.Errorf("%w: return date must not be in the past", ErrValidation)
	}
	return &BookIssue{
		ID:                  uuid.New(),
		BookID:              bookID,
		UserID:              userID,
		Status:              StatusRequested,
		RequestedReturnDate: returnDate,
		CreatedAt:           now,
		Version:             1,
	}, nil
}

func (bi *BookIssue) transition(next Status) error {
	if !bi.Status.canTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, bi.Status, next)
	}
	bi.Status = next
	return nil
}

// Approve moves a requested record to issued and stamps the issue date.
func (bi *BookIssue) Approve(now time.Time) error {
	if bi.Status != StatusRequested {
		return fmt.Errorf("%w: only a requested issue can be approved, got %s", ErrInvalidTransition, bi.Status)
	}
	if err := bi.transition(StatusIssued); err != nil {
		return err
	}
	bi.IssueDate = &now
	return nil
}

// Reject moves a requested record to its rejected terminal state.
func (bi *BookIssue) Reject() error {
	if bi.Status != StatusRequested {
		return fmt.Errorf("%w: only a requested issue can be rejected, got %s", ErrInvalidTransition, bi.Status)
	}
	return bi.transition(StatusRejected)
}

// RequestReturn records the member's intent to hand the book back.
func (bi *BookIssue) RequestReturn() error {
	if bi.Status != StatusIssued {
		return fmt.Errorf("%w: return can only be requested for an issued book, got %s", ErrInvalidTransition, bi.Status)
	}
	return bi.transition(StatusReturnRequested)
}

// ConfirmReturn closes the record and stamps the actual return date.
func (bi *BookIssue) ConfirmReturn(now time.Time) error {
	if err := bi.transition(StatusReturned); err != nil {
		return err
	}
	bi.ActualReturnDate = &now
	return nil
}

// Active reports whether the record still blocks the book for other members.
func (bi *BookIssue) Active() bool {
	return !bi.Status.Terminal()
}

// Overdue reports whether the record is past its requested return date.
func (bi *BookIssue) Overdue(now time.Time) bool {
	return IsOverdue(bi.Status, bi.RequestedReturnDate, now)
}

// IsOverdue is the single source of truth for overdue detection, shared by
// the lifecycle engine and the reporting views.
func IsOverdue(status Status, requestedReturnDate, now time.Time) bool {
	if status != StatusIssued && status != StatusReturnRequested {
		return false
	}
	return now.After(requestedReturnDate)
}

// OverduePeriod returns the elapsed time past the requested return date as
// whole days plus remaining whole hours.
func OverduePeriod(requestedReturnDate, now time.Time) (days, hours int) {
	elapsed := now.Sub(requestedReturnDate)
	if elapsed < 0 {
		return 0, 0
	}
	days = int(elapsed / (24 * time.Hour))
	hours = int((elapsed % (24 * time.Hour)) / time.Hour)
	return days, hours
}

// FormatOverduePeriod renders the period the way notification mails expect it.
func FormatOverduePeriod(days, hours int) string {
	return fmt.Sprintf("%d days, %d hr", days, hours)
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
