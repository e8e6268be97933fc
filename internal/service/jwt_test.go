package service

import (
	"testing"
	"time"

	"tapearn/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerJWT(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(42)
	require.NoError(t, err)

	id, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseAdminJWT(token)
	assert.Error(t, err, "player token must not pass as admin")
}

func TestAdminJWT(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateAdminJWT(7, domain.RoleSupport)
	require.NoError(t, err)

	claims, err := ParseAdminJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AdminID)
	assert.Equal(t, domain.RoleSupport, claims.Role)

	_, err = ParseJWT(token)
	assert.Error(t, err, "admin token must not pass as player")
}

func TestJWTRejects(t *testing.T) {
	InitJWT("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, playerClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{playerAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	s, err := expired.SignedString(jwtSecret)
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, playerClaims{
		UserID:           1,
		RegisteredClaims: registered(playerAudience, time.Hour),
	})
	s, err = other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, playerClaims{
		UserID:           1,
		RegisteredClaims: registered(playerAudience, time.Hour),
	})
	s, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)

	_, err = ParseJWT("garbage")
	assert.Error(t, err)
}
