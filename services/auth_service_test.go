package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func TestRegisterLoginRoundTrip(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	user, token, err := e.auth.Register(ctx, RegisterInput{
		Email:       "admin@example.com",
		DisplayName: "Admin",
		Password:    "correct horse",
		Role:        models.RoleAdmin,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Empty(t, user.PasswordHash, "hash never leaves the service")

	loggedIn, token, err := e.auth.Login(ctx, models.Credentials{Email: "admin@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsedID, err := e.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsedID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	_, _, err := e.auth.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, _, err = e.auth.Login(ctx, models.Credentials{Email: "a@example.com", Password: "wrong"})
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	_, _, err = e.auth.Login(ctx, models.Credentials{Email: "nobody@example.com", Password: "secret-pass"})
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	_, _, err := e.auth.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, _, err = e.auth.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "other-pass"})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	e := newTestEnv()

	_, err := e.auth.ParseToken("not.a.token")
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	// Token signed with a different secret.
	other := NewAuthService(e.store.Users(), "other-secret")
	_, _, err = other.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	_, otherToken, err := other.Login(context.Background(), models.Credentials{Email: "x@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = e.auth.ParseToken(otherToken)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}
