package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/booking-api/internal/model"
)

func testService() JWTService {
	return NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := testService()
	user := &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "user@example.com",
		Role:  model.RoleDoctor,
	}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.RoleDoctor, claims.Role)
}

func TestRefreshTokenUsesSeparateSecret(t *testing.T) {
	svc := testService()
	user := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}

	refresh, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	// A refresh token is not a valid access token.
	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(Config{
		Secret: "access-secret",
		Expiry: -time.Minute,
	})
	user := &model.User{Base: model.Base{ID: uuid.New()}}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := testService()
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
