package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/knowledge-hub/internal/config"
	"github.com/jrsteele09/knowledge-hub/oauthclient/fakeprovider"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	provider := fakeprovider.New(t, "app-tenant", "app-client")

	s := config.Default()
	s.Env = "TEST"
	s.SecretKey = "app-test-secret"
	s.OAuth.TenantID = "app-tenant"
	s.OAuth.ClientID = "app-client"
	s.OAuth.Authority = provider.Authority()
	s.Backend.URL = "http://127.0.0.1:1"
	return &s
}

func TestNewApp_SessionBackends(t *testing.T) {
	tests := []struct {
		name      string
		configure func(t *testing.T, s *config.Settings)
	}{
		{
			name:      "memory",
			configure: func(t *testing.T, s *config.Settings) {},
		},
		{
			name: "filesystem",
			configure: func(t *testing.T, s *config.Settings) {
				s.Session.Backend = config.SessionBackendFilesystem
				s.Session.Dir = filepath.Join(t.TempDir(), "sessions")
			},
		},
		{
			name: "redis",
			configure: func(t *testing.T, s *config.Settings) {
				mr := miniredis.RunT(t)
				s.Session.Backend = config.SessionBackendRedis
				s.Session.RedisURL = "redis://" + mr.Addr() + "/0"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(t)
			tt.configure(t, s)

			handler, cleanup, err := newApp(context.Background(), s)
			require.NoError(t, err)
			t.Cleanup(cleanup)

			app := httptest.NewServer(handler)
			t.Cleanup(app.Close)

			resp, err := http.Get(app.URL + "/healthz")
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, "ok", string(body))

			resp, err = http.Get(app.URL + "/metrics")
			require.NoError(t, err)
			body, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
			require.Contains(t, string(body), "go_goroutines")
		})
	}
}

func TestNewApp_UnreachableRedis(t *testing.T) {
	s := testSettings(t)
	s.Session.Backend = config.SessionBackendRedis
	s.Session.RedisURL = "redis://127.0.0.1:1/0"

	_, _, err := newApp(context.Background(), s)
	require.Error(t, err)
}
