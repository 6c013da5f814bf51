package jwttoken

import (
	"testing"
	"time"

	dErrors "modgate/pkg/domain-errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "modgate", "modgate-api")
	moderatorID := uuid.New()

	token, err := svc.GenerateAccessToken(moderatorID, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, moderatorID.String(), claims.ModeratorID)
	assert.Equal(t, "modgate", claims.Issuer)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "modgate", "modgate-api")

	token, err := svc.GenerateAccessToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_WrongKey(t *testing.T) {
	svc := NewJWTService("test-signing-key", "modgate", "modgate-api")
	other := NewJWTService("different-key", "modgate", "modgate-api")

	token, err := svc.GenerateAccessToken(uuid.New(), time.Minute)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_ExtractModeratorID(t *testing.T) {
	svc := NewJWTService("test-signing-key", "modgate", "modgate-api")
	moderatorID := uuid.New()

	token, err := svc.GenerateAccessToken(moderatorID, time.Minute)
	require.NoError(t, err)

	got, err := svc.ExtractModeratorIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, moderatorID, got)
}
