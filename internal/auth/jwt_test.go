package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestVerifyRoundTrip(t *testing.T) {
	token, err := Sign(testSecret, "user-1", time.Minute)
	require.NoError(t, err)

	claims, err := NewVerifier(testSecret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := Sign(testSecret, "user-1", time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier("other-secret").Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := Sign(testSecret, "user-1", -time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier(testSecret).Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	_, err := NewVerifier(testSecret).Verify("")
	assert.Error(t, err)
}

func TestVerifyRejectsMissingUserID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewVerifier(testSecret).Verify(signed)
	assert.Error(t, err)
}

func TestParseBearer(t *testing.T) {
	token, err := ParseBearer("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ParseBearer("")
	assert.Error(t, err)

	_, err = ParseBearer("abc.def.ghi")
	assert.Error(t, err)

	_, err = ParseBearer("Basic dXNlcjpwYXNz")
	assert.Error(t, err)
}
