package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUtil() *JWTUtil {
	return NewJWTUtil(&JWTConfig{SigningKey: "test-key", AccessTTL: time.Minute, RefreshTTL: time.Hour})
}

func TestGenerateTokenPair(t *testing.T) {
	j := newUtil()
	pair, err := j.GenerateTokenPair(7, "a@b.com", "employer")
	require.NoError(t, err)

	claims, err := j.ValidateToken(pair.Access, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "employer", claims.Role)
	assert.Equal(t, "a@b.com", claims.Email)

	_, err = j.ValidateToken(pair.Refresh, RefreshToken)
	require.NoError(t, err)
}

func TestValidateToken_WrongType(t *testing.T) {
	j := newUtil()
	pair, err := j.GenerateTokenPair(1, "a@b.com", "job_seeker")
	require.NoError(t, err)

	_, err = j.ValidateToken(pair.Refresh, AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateToken_Expired(t *testing.T) {
	j := newUtil()
	j.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, err := j.GenerateToken(1, "a@b.com", "admin")
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ValidateToken(token, AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_BadSignature(t *testing.T) {
	token, err := newUtil().GenerateToken(1, "a@b.com", "admin")
	require.NoError(t, err)

	other := NewJWTUtil(&JWTConfig{SigningKey: "other", AccessTTL: time.Minute})
	_, err = other.ValidateToken(token, AccessToken)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestMissingConfig(t *testing.T) {
	j := NewJWTUtil(nil)
	_, err := j.GenerateToken(1, "a@b.com", "admin")
	assert.ErrorIs(t, err, ErrMissingConfig)
	_, err = j.ValidateToken("x", AccessToken)
	assert.ErrorIs(t, err, ErrMissingConfig)
}
