package auth_test

import (
	"testing"
	"time"

	"github.com/Astemirdum/library-catalog/pkg/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueParse(t *testing.T) {
	t.Parallel()
	tokens := auth.NewTokens("secret", 24*time.Hour)
	id := auth.Identity{
		UserID:   uuid.New(),
		Email:    "reader@library.local",
		Name:     "Ana",
		Role:     auth.RoleMember,
		MemberID: uuid.New(),
	}

	signed, expiresAt, err := tokens.Issue(id)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	got, err := tokens.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestTokens_ParseRejects(t *testing.T) {
	t.Parallel()
	id := auth.Identity{UserID: uuid.New(), Role: auth.RoleLibrarian}

	signed, _, err := auth.NewTokens("other", time.Hour).Issue(id)
	require.NoError(t, err)
	_, err = auth.NewTokens("secret", time.Hour).Parse(signed)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, _, err := auth.NewTokens("secret", -time.Minute).Issue(id)
	require.NoError(t, err)
	_, err = auth.NewTokens("secret", time.Hour).Parse(expired)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewTokens("secret", time.Hour).Parse("garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	t.Parallel()
	_, err := auth.HashPassword("short")
	require.ErrorIs(t, err, auth.ErrPasswordTooShort)

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	require.NoError(t, auth.CheckPassword("correct horse", hash))
	require.ErrorIs(t, auth.CheckPassword("wrong horse", hash), auth.ErrInvalidPassword)
}
