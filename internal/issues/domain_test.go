// internal/issues/domain_test.go
package issues

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newRequested(t *testing.T) *BookIssue {
	t.Helper()
	issue, err := NewRequest(uuid.New(), uuid.New(), testNow.AddDate(0, 0, 14), testNow)
	require.NoError(t, err)
	return issue
}

func TestNewRequest(t *testing.T) {
	issue := newRequested(t)

	assert.Equal(t, StatusRequested, issue.Status)
	assert.Nil(t, issue.IssueDate)
	assert.Nil(t, issue.ActualReturnDate)
	assert.Equal(t, testNow, issue.CreatedAt)
	assert.Equal(t, 1, issue.Version)
}

func TestNewRequestRejectsPastReturnDate(t *testing.T) {
	_, err := NewRequest(uuid.New(), uuid.New(), testNow.AddDate(0, 0, -1), testNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewRequestAllowsSameDayReturn(t *testing.T) {
	// Return date at midnight of the request day is still "today".
	sameDay := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := NewRequest(uuid.New(), uuid.New(), sameDay, testNow)
	assert.NoError(t, err)
}

func TestApprove(t *testing.T) {
	issue := newRequested(t)

	require.NoError(t, issue.Approve(testNow))
	assert.Equal(t, StatusIssued, issue.Status)
	require.NotNil(t, issue.IssueDate)
	assert.Equal(t, testNow, *issue.IssueDate)
	assert.Nil(t, issue.ActualReturnDate)
}

func TestReject(t *testing.T) {
	issue := newRequested(t)

	require.NoError(t, issue.Reject())
	assert.Equal(t, StatusRejected, issue.Status)
	assert.Nil(t, issue.IssueDate)
	assert.Nil(t, issue.ActualReturnDate)
}

func TestApproveTwiceFails(t *testing.T) {
	issue := newRequested(t)
	require.NoError(t, issue.Approve(testNow))

	assert.ErrorIs(t, issue.Approve(testNow), ErrInvalidTransition)
	assert.ErrorIs(t, issue.Reject(), ErrInvalidTransition)
}

func TestRequestReturn(t *testing.T) {
	issue := newRequested(t)

	// Only an issued book can be flagged for return.
	assert.ErrorIs(t, issue.RequestReturn(), ErrInvalidTransition)

	require.NoError(t, issue.Approve(testNow))
	require.NoError(t, issue.RequestReturn())
	assert.Equal(t, StatusReturnRequested, issue.Status)

	assert.ErrorIs(t, issue.RequestReturn(), ErrInvalidTransition)
}

func TestConfirmReturn(t *testing.T) {
	t.Run("from issued", func(t *testing.T) {
		issue := newRequested(t)
		require.NoError(t, issue.Approve(testNow))

		returnedAt := testNow.Add(48 * time.Hour)
		require.NoError(t, issue.ConfirmReturn(returnedAt))
		assert.Equal(t, StatusReturned, issue.Status)
		require.NotNil(t, issue.ActualReturnDate)
		assert.Equal(t, returnedAt, *issue.ActualReturnDate)
	})

	t.Run("from return requested", func(t *testing.T) {
		issue := newRequested(t)
		require.NoError(t, issue.Approve(testNow))
		require.NoError(t, issue.RequestReturn())

		require.NoError(t, issue.ConfirmReturn(testNow))
		assert.Equal(t, StatusReturned, issue.Status)
	})

	t.Run("from requested fails", func(t *testing.T) {
		issue := newRequested(t)
		assert.ErrorIs(t, issue.ConfirmReturn(testNow), ErrInvalidTransition)
	})

	t.Run("from rejected fails", func(t *testing.T) {
		issue := newRequested(t)
		require.NoError(t, issue.Reject())
		assert.ErrorIs(t, issue.ConfirmReturn(testNow), ErrInvalidTransition)
	})
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	for _, setup := range []func(*BookIssue) error{
		func(bi *BookIssue) error { return bi.Reject() },
		func(bi *BookIssue) error {
			if err := bi.Approve(testNow); err != nil {
				return err
			}
			return bi.ConfirmReturn(testNow)
		},
	} {
		issue := newRequested(t)
		require.NoError(t, setup(issue))
		require.True(t, issue.Status.Terminal())

		assert.Error(t, issue.Approve(testNow))
		assert.Error(t, issue.Reject())
		assert.Error(t, issue.RequestReturn())
		assert.Error(t, issue.ConfirmReturn(testNow))
	}
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsOverdue(StatusIssued, due, due))
	assert.True(t, IsOverdue(StatusIssued, due, due.Add(time.Second)))
	assert.True(t, IsOverdue(StatusReturnRequested, due, due.Add(time.Hour)))

	// Only actively issued records can be overdue.
	assert.False(t, IsOverdue(StatusRequested, due, due.Add(time.Hour)))
	assert.False(t, IsOverdue(StatusRejected, due, due.Add(time.Hour)))
	assert.False(t, IsOverdue(StatusReturned, due, due.Add(time.Hour)))
}

func TestOverduePeriod(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC)

	days, hours := OverduePeriod(due, now)
	assert.Equal(t, 2, days)
	assert.Equal(t, 5, hours)
	assert.Equal(t, "2 days, 5 hr", FormatOverduePeriod(days, hours))
}

func TestOverduePeriodNotYetDue(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	days, hours := OverduePeriod(due, due.Add(-3*time.Hour))
	assert.Zero(t, days)
	assert.Zero(t, hours)
}

// TestLifecycleInvariants walks random intent sequences through the state
// machine and checks the structural invariants after every step.
func TestLifecycleInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		issue, err := NewRequest(uuid.New(), uuid.New(), testNow.AddDate(0, 0, 7), testNow)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}

		steps := rapid.IntRange(1, 12).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			prev := *issue

			var err error
			switch rapid.IntRange(0, 3).Draw(t, "intent") {
			case 0:
				err = issue.Approve(testNow)
			case 1:
				err = issue.Reject()
			case 2:
				err = issue.RequestReturn()
			case 3:
				err = issue.ConfirmReturn(testNow)
			}

			if err != nil {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("unexpected error type: %v", err)
				}
				if *issue != prev {
					t.Fatalf("record mutated on rejected intent: %+v -> %+v", prev, *issue)
				}
				continue
			}

			if prev.Status.Terminal() {
				t.Fatalf("transition out of terminal state %s", prev.Status)
			}
			if !prev.Status.canTransitionTo(issue.Status) {
				t.Fatalf("illegal edge %s -> %s", prev.Status, issue.Status)
			}

			switch issue.Status {
			case StatusRequested, StatusRejected:
				if issue.IssueDate != nil || issue.ActualReturnDate != nil {
					t.Fatalf("%s record carries dates: %+v", issue.Status, issue)
				}
			case StatusIssued, StatusReturnRequested:
				if issue.IssueDate == nil || issue.ActualReturnDate != nil {
					t.Fatalf("%s record has wrong dates: %+v", issue.Status, issue)
				}
			case StatusReturned:
				if issue.IssueDate == nil || issue.ActualReturnDate == nil {
					t.Fatalf("returned record missing dates: %+v", issue)
				}
			}
		}
	})
}
