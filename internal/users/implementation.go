// internal/users/implementation.go
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"librarylounge/internal/auth"
	"librarylounge/internal/logger"
	"librarylounge/internal/mailer"
)

// service implements the Service interface.
type service struct {
	db          *sql.DB
	tokens      auth.TokenManager
	mail        mailer.Mailer
	rateLimiter *rate.Limiter
	log         *slog.Logger
}

// NewService creates a new users service instance.
func NewService(db *sql.DB, tokens auth.TokenManager, mail mailer.Mailer) Service {
	return &service{
		db:          db,
		tokens:      tokens,
		mail:        mail,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 20), // caps auth bursts, not steady traffic
		log:         logger.With("users"),
	}
}

// Register creates a new user and their credential.
func (s *service) Register(ctx context.Context, email, name, phone, password string, role auth.Role) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || name == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: email, name and a password of at least 8 characters are required", ErrValidation)
	}
	switch role {
	case auth.RoleMember, auth.RoleLibrarian, auth.RoleSuperAdmin:
	case "":
		role = auth.RoleMember
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:    uuid.New(),
		Email: email,
		Name:  name,
		Phone: phone,
		Role:  role,
	}

	if err := s.insertUser(ctx, user, passwordHash, salt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	go s.sendAlert(user.Email, "Registration Alert",
		fmt.Sprintf("Dear %s,\n\nThank you for registering to your account. Enjoy the Library.\n\nBest regards,\nLibrary Lounge Team", user.Name))

	return user, nil
}

func (s *service) insertUser(ctx context.Context, user *User, passwordHash, salt string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (id, email, name, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, userQuery, user.ID, user.Email, user.Name, user.Phone, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return err
	}

	credQuery := `
		INSERT INTO credentials (user_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, credQuery, user.ID, passwordHash, salt); err != nil {
		return err
	}

	return tx.Commit()
}

// Login verifies credentials and returns a signed token with the user's role.
func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	if !s.rateLimiter.Allow() {
		return "", nil, ErrRateLimited
	}

	user, err := s.getUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	credential, err := s.getCredential(ctx, user.ID)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil || !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info("user logged in", "user_id", user.ID, "role", user.Role)
	go s.sendAlert(user.Email, "Login Alert",
		fmt.Sprintf("Dear %s,\n\nWe noticed a login to your account. If this was not you, please contact support immediately.\n\nBest regards,\nLibrary Lounge Team", user.Name))

	return token, user, nil
}

func (s *service) sendAlert(to, subject, body string) {
	if err := s.mail.Send(to, subject, body); err != nil {
		s.log.Error("failed to send email", "to", to, "subject", subject, "error", err)
	}
}

func (s *service) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name, phone, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	user := &User{}
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) getCredential(ctx context.Context, userID uuid.UUID) (*Credential, error) {
	query := `
		SELECT user_id, password_hash, salt
		FROM credentials
		WHERE user_id = $1
	`
	credential := &Credential{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&credential.UserID, &credential.PasswordHash, &credential.Salt,
	)
	if err != nil {
		return nil, err
	}
	return credential, nil
}

// GetUser retrieves a user by their ID.
func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, name, phone, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	user := &User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, newest first.
func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, email, name, phone, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	return list, rows.Err()
}

// UpdateUser changes a user's profile fields.
func (s *service) UpdateUser(ctx context.Context, id uuid.UUID, name, phone string) (*User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	query := `
		UPDATE users
		SET name = $1, phone = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, name, phone, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

// RemoveUser deletes a user and their credential.
func (s *service) RemoveUser(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
