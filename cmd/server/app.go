package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/knowledge-hub/internal/config"
	"github.com/jrsteele09/knowledge-hub/internal/metrics"
	"github.com/jrsteele09/knowledge-hub/measurements"
	"github.com/jrsteele09/knowledge-hub/oauthclient"
	"github.com/jrsteele09/knowledge-hub/server"
	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// newApp wires the HTTP handler from configuration. cleanup releases the
// session backend.
func newApp(ctx context.Context, c *config.Settings) (http.Handler, func(), error) {
	keys, err := sessions.DeriveKeys(c.GetSecretKey())
	if err != nil {
		return nil, nil, err
	}

	repo, closeRepo, err := sessions.NewRepoFromConfig(ctx, c, sessions.NewSealer(keys.Storage))
	if err != nil {
		return nil, nil, fmt.Errorf("[newApp] session store: %w", err)
	}
	cleanup := func() {
		if err := closeRepo(); err != nil {
			log.Warn().Err(err).Msg("Failed to close session store")
		}
	}
	log.Info().Str("backend", c.GetSessionBackend()).Msg("Session store ready")

	authClient, err := oauthclient.New(ctx, c)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Info().Str("issuer", c.GetIssuerURL()).Strs("scopes", authClient.Scopes()).Msg("Identity provider discovered")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	backend, err := measurements.NewClient(c, collector)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Info().Str("endpoint", backend.Endpoint()).Dur("timeout", c.GetBackendTimeout()).Msg("Measurements backend configured")

	srv, err := server.New(c, server.Dependencies{
		Sessions:     repo,
		Cookies:      sessions.NewCookieCodec(keys.CookieSigning),
		Auth:         authClient,
		Measurements: backend,
		Metrics:      collector,
		Gatherer:     registry,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return srv, cleanup, nil
}
