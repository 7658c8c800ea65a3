package oauthmodel_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/knowledge-hub/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestNewAuthFlow(t *testing.T) {
	now := time.Now()
	a := oauthmodel.NewAuthFlow(now)
	b := oauthmodel.NewAuthFlow(now)

	require.NotEmpty(t, a.State)
	require.NotEmpty(t, a.Nonce)
	require.NotEmpty(t, a.CodeVerifier)
	require.NotEqual(t, a.State, b.State)
	require.NotEqual(t, a.Nonce, b.Nonce)
	require.NotEqual(t, a.CodeVerifier, b.CodeVerifier)
	require.Equal(t, now, a.CreatedAt)
}

func TestAuthFlow_Expired(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := &oauthmodel.AuthFlow{CreatedAt: start}

	require.False(t, f.Expired(start.Add(5*time.Minute), 10*time.Minute))
	require.True(t, f.Expired(start.Add(11*time.Minute), 10*time.Minute))
	require.False(t, f.Expired(start.Add(24*time.Hour), 0), "zero timeout never expires")
}

func TestCallbackParameters_Validate(t *testing.T) {
	flow := &oauthmodel.AuthFlow{State: "expected-state"}

	t.Run("valid", func(t *testing.T) {
		p := oauthmodel.CallbackParameters{Code: "abc", State: "expected-state"}
		require.NoError(t, p.Validate(flow))
	})

	t.Run("missing state", func(t *testing.T) {
		p := oauthmodel.CallbackParameters{Code: "abc"}
		require.ErrorIs(t, p.Validate(flow), oauthmodel.ErrMissingState)
	})

	t.Run("missing code", func(t *testing.T) {
		p := oauthmodel.CallbackParameters{State: "expected-state"}
		require.ErrorIs(t, p.Validate(flow), oauthmodel.ErrMissingCode)
	})

	t.Run("state mismatch", func(t *testing.T) {
		p := oauthmodel.CallbackParameters{Code: "abc", State: "other"}
		require.ErrorIs(t, p.Validate(flow), oauthmodel.ErrStateMismatch)
	})

	t.Run("no pending flow", func(t *testing.T) {
		p := oauthmodel.CallbackParameters{Code: "abc", State: "expected-state"}
		require.ErrorIs(t, p.Validate(nil), oauthmodel.ErrStateMismatch)
	})
}

func TestCallbackParametersFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth/callback?error=access_denied&error_description=User+cancelled&state=s1", nil)
	p := oauthmodel.CallbackParametersFromRequest(r)

	require.True(t, p.HasError())
	require.Equal(t, "access_denied", p.Error)
	require.Equal(t, "User cancelled", p.ErrorDescription)
	require.Equal(t, "s1", p.State)
	require.Empty(t, p.Code)
}
