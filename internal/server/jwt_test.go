package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh/docketmind/internal/config"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(testAuthConfig())
	userID := uuid.New()

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID, claims.GetUserID())
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := NewJWTService(testAuthConfig()).GenerateToken(uuid.New())
	require.NoError(t, err)

	other := NewJWTService(&config.AuthConfig{TokenSecret: "different-secret", TokenTTL: time.Hour})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	svc := NewJWTService(cfg)

	// Sign an already-expired token with the same secret.
	claims := &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.TokenSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsUnexpectedSigningMethod(t *testing.T) {
	svc := NewJWTService(testAuthConfig())

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.New()})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestJWTEmptyToken(t *testing.T) {
	svc := NewJWTService(testAuthConfig())
	_, err := svc.ValidateToken("")
	assert.Error(t, err)
}
