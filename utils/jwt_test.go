package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	token, expiresAt, err := ti.GenerateJWT(7, "Dr. Bob", "doctor")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ti.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Dr. Bob", claims.Username)
	assert.Equal(t, "doctor", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_UniqueIDs(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	a, _, err := ti.GenerateJWT(1, "admin", "admin")
	require.NoError(t, err)
	b, _, err := ti.GenerateJWT(1, "admin", "admin")
	require.NoError(t, err)

	ca, err := ti.ValidateJWT(a)
	require.NoError(t, err)
	cb, err := ti.ValidateJWT(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("one", time.Hour).GenerateJWT(1, "admin", "admin")
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).ValidateJWT(token)
	assert.Error(t, err)
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Minute)
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := ti.GenerateJWT(1, "admin", "admin")
	require.NoError(t, err)

	_, err = ti.ValidateJWT(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsNoneAlgorithm(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	claims := JWTClaims{UserID: 1, Username: "admin", Role: "admin"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ti.ValidateJWT(token)
	assert.Error(t, err)
}
