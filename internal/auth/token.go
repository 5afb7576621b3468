// internal/auth/token.go
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Role is the access level carried in a token.
type Role string

const (
	RoleMember     Role = "member"
	RoleLibrarian  Role = "librarian"
	RoleSuperAdmin Role = "superAdmin"
)

// Claims carries the authenticated identity inside a JWT.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates signed tokens.
type TokenManager interface {
	Generate(userID uuid.UUID, role Role) (string, error)
	Validate(tokenString string) (*Claims, error)
}

type tokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a TokenManager signing with HMAC-SHA256.
func NewTokenManager(secret string, expiry time.Duration) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (m *tokenManager) Generate(userID uuid.UUID, role Role) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "librarylounge",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
