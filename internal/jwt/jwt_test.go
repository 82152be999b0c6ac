package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/markdevonuk/portal/pkg/domain"
)

const (
	testKey    = "unit-test-signing-key"
	testIssuer = "portal"
)

func signedToken(t *testing.T, key, issuer, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwtlib.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	v := NewValidator(testKey, testIssuer)

	t.Run("accepts valid token and returns subject", func(t *testing.T) {
		userID, err := v.ValidateToken(signedToken(t, testKey, testIssuer, "user-123", time.Hour))
		require.NoError(t, err)
		assert.Equal(t, id.UserID("user-123"), userID)
	})

	t.Run("rejects token signed with a different key", func(t *testing.T) {
		_, err := v.ValidateToken(signedToken(t, "other-key", testIssuer, "user-123", time.Hour))
		assert.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		_, err := v.ValidateToken(signedToken(t, testKey, testIssuer, "user-123", -time.Minute))
		assert.Error(t, err)
	})

	t.Run("rejects wrong issuer", func(t *testing.T) {
		_, err := v.ValidateToken(signedToken(t, testKey, "someone-else", "user-123", time.Hour))
		assert.Error(t, err)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		_, err := v.ValidateToken(signedToken(t, testKey, testIssuer, "", time.Hour))
		assert.Error(t, err)
	})
}
