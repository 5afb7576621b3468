// internal/users/password_test.go
package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundtrip(t *testing.T) {
	hash, salt, err := hashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	ok, err := verifyPassword("correct horse battery staple", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordWrongPassword(t *testing.T) {
	hash, salt, err := hashPassword("original")
	require.NoError(t, err)

	ok, err := verifyPassword("guess", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordUniqueSalts(t *testing.T) {
	hash1, salt1, err := hashPassword("same password")
	require.NoError(t, err)
	hash2, salt2, err := hashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestPasswordBadSaltEncoding(t *testing.T) {
	_, err := verifyPassword("anything", "!!not base64!!", "also not base64")
	assert.Error(t, err)
}
