package users_test

import (
	"testing"

	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/jrsteele09/knowledge-hub/users"
	"github.com/stretchr/testify/require"
)

func TestClaims_Identity(t *testing.T) {
	t.Run("preferred_username used when email missing", func(t *testing.T) {
		id, err := users.Claims{Name: "A", PreferredUsername: "a@x.com"}.Identity()
		require.NoError(t, err)
		require.Equal(t, users.Identity{Name: "A", Email: "a@x.com"}, id)
	})

	t.Run("email wins over preferred_username", func(t *testing.T) {
		id, err := users.Claims{Name: "B", Email: "b@mail.com", PreferredUsername: "b@upn.com"}.Identity()
		require.NoError(t, err)
		require.Equal(t, "b@mail.com", id.Email)
	})

	t.Run("blank email falls through", func(t *testing.T) {
		id, err := users.Claims{Name: "C", Email: "  ", PreferredUsername: "c@upn.com"}.Identity()
		require.NoError(t, err)
		require.Equal(t, "c@upn.com", id.Email)
	})

	t.Run("missing name falls back to email", func(t *testing.T) {
		id, err := users.Claims{Email: "d@x.com"}.Identity()
		require.NoError(t, err)
		require.Equal(t, "d@x.com", id.Name)
	})

	t.Run("no usable claims", func(t *testing.T) {
		_, err := users.Claims{Name: "Only Name", Subject: "sub-1"}.Identity()
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrNoIdentityClaims))
	})
}

func TestIdentity_IsZero(t *testing.T) {
	require.True(t, users.Identity{}.IsZero())
	require.False(t, users.Identity{Name: "A", Email: "a@x.com"}.IsZero())
}
