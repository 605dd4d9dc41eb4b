package jwtauth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attache/pkg/domain-errors"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-key", "attache-test")
	actorID := uuid.New()

	token, err := svc.GenerateAccessToken(actorID, []string{"staff", "officer"}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actorID.String(), claims.ActorID)
	assert.Equal(t, []string{"staff", "officer"}, claims.Roles)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-key", "attache-test")

	token, err := svc.GenerateAccessToken(uuid.New(), nil, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_RejectsWrongKey(t *testing.T) {
	issuer := NewJWTService("key-a", "attache-test")
	verifier := NewJWTService("key-b", "attache-test")

	token, err := issuer.GenerateAccessToken(uuid.New(), nil, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
