// internal/users/implementation_test.go
package users

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"librarylounge/internal/auth"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent chan sentMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 4)}
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sent <- sentMail{to: to, subject: subject, body: body}
	return nil
}

func (f *fakeMailer) wait(t *testing.T) sentMail {
	t.Helper()
	select {
	case m := <-f.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert mail")
		return sentMail{}
	}
}

func newTestService(t *testing.T) (*service, sqlmock.Sqlmock, *fakeMailer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mail := newFakeMailer()
	svc := &service{
		db:          db,
		tokens:      auth.NewTokenManager("test-secret", time.Hour),
		mail:        mail,
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return svc, mock, mail
}

func userRow(user *User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "name", "phone", "role", "created_at", "updated_at"}).
		AddRow(user.ID, user.Email, user.Name, user.Phone, user.Role, user.CreatedAt, user.UpdatedAt)
}

func TestRegister(t *testing.T) {
	svc, mock, mail := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ada@example.com", "Ada", "555-0101", auth.RoleMember).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO credentials").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Register(context.Background(), "Ada@Example.com ", "Ada", "555-0101", "long enough pw", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, auth.RoleMember, user.Role)
	assert.Equal(t, now, user.CreatedAt)

	sent := mail.wait(t)
	assert.Equal(t, "ada@example.com", sent.to)
	assert.Equal(t, "Registration Alert", sent.subject)
	assert.Contains(t, sent.body, "Dear Ada,")
	assert.Contains(t, sent.body, "Thank you for registering")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterEmailTaken(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), "taken@example.com", "Ada", "", "long enough pw", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "ada@example.com", "Ada", "", "short", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(context.Background(), "", "Ada", "", "long enough pw", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(context.Background(), "ada@example.com", "Ada", "", "long enough pw", "emperor")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, mock, mail := newTestService(t)

	hash, salt, err := hashPassword("long enough pw")
	require.NoError(t, err)
	user := &User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", Role: auth.RoleLibrarian}

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(user.Email).
		WillReturnRows(userRow(user))
	mock.ExpectQuery("SELECT (.+) FROM credentials").
		WithArgs(user.ID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "password_hash", "salt"}).
			AddRow(user.ID, hash, salt))

	token, got, err := svc.Login(context.Background(), "ada@example.com", "long enough pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// The token must carry the user's role for the middleware to enforce.
	claims, err := svc.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, auth.RoleLibrarian, claims.Role)

	sent := mail.wait(t)
	assert.Equal(t, "Login Alert", sent.subject)
	assert.Contains(t, sent.body, "We noticed a login")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock, _ := newTestService(t)

	hash, salt, err := hashPassword("the real password")
	require.NoError(t, err)
	user := &User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", Role: auth.RoleMember}

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(user.Email).
		WillReturnRows(userRow(user))
	mock.ExpectQuery("SELECT (.+) FROM credentials").
		WithArgs(user.ID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "password_hash", "salt"}).
			AddRow(user.ID, hash, salt))

	_, _, err = svc.Login(context.Background(), "ada@example.com", "a guess")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "phone", "role", "created_at", "updated_at"}))

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRateLimited(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.rateLimiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, svc.rateLimiter.Allow())

	_, _, err := svc.Login(context.Background(), "ada@example.com", "pw")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = svc.Register(context.Background(), "ada@example.com", "Ada", "", "long enough pw", "")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGetUserNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "phone", "role", "created_at", "updated_at"}))

	_, err := svc.GetUser(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	svc, mock, _ := newTestService(t)
	user := &User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada L.", Phone: "555-0102", Role: auth.RoleMember}

	mock.ExpectExec("UPDATE users").
		WithArgs("Ada L.", "555-0102", user.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(user.ID).
		WillReturnRows(userRow(user))

	got, err := svc.UpdateUser(context.Background(), user.ID, "Ada L.", "555-0102")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveUserNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM users").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, svc.RemoveUser(context.Background(), id), ErrNotFound)
}
