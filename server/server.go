package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/knowledge-hub/internal/config"
	"github.com/jrsteele09/knowledge-hub/internal/metrics"
	"github.com/jrsteele09/knowledge-hub/oauthmodel"
	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/jrsteele09/knowledge-hub/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Authenticator runs the provider side of the authorization-code flow.
type Authenticator interface {
	AuthCodeURL(flow *oauthmodel.AuthFlow) string
	Exchange(ctx context.Context, code string, flow *oauthmodel.AuthFlow) (users.Identity, error)
}

// MeasurementsSource returns the backend's recent measurements. It never
// fails; an unusable backend yields an empty JSON array.
type MeasurementsSource interface {
	Recent(ctx context.Context) json.RawMessage
}

// Dependencies are the collaborators built at startup. Metrics, Gatherer,
// Renderer and Now are optional.
type Dependencies struct {
	Sessions     sessions.Repo
	Cookies      *sessions.CookieCodec
	Auth         Authenticator
	Measurements MeasurementsSource
	Metrics      *metrics.Collector
	Gatherer     prometheus.Gatherer
	Renderer     Renderer
	Now          func() time.Time
}

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	router       chi.Router
	routes       []string
	config       config.Config
	sessions     sessions.Repo
	cookies      *sessions.CookieCodec
	auth         Authenticator
	measurements MeasurementsSource
	metrics      *metrics.Collector
	gatherer     prometheus.Gatherer
	renderer     Renderer
	loginLimiter *RateLimiter
	now          func() time.Time
}

func New(c config.Config, deps Dependencies) (*Server, error) {
	if deps.Sessions == nil || deps.Cookies == nil || deps.Auth == nil || deps.Measurements == nil {
		return nil, fmt.Errorf("[Server New] sessions, cookies, auth and measurements are required")
	}

	s := &Server{
		env:          c.GetEnv(),
		router:       chi.NewRouter(),
		config:       c,
		sessions:     deps.Sessions,
		cookies:      deps.Cookies,
		auth:         deps.Auth,
		measurements: deps.Measurements,
		metrics:      deps.Metrics,
		gatherer:     deps.Gatherer,
		renderer:     deps.Renderer,
		now:          deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.renderer == nil {
		renderer, err := NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
		}
		s.renderer = renderer
	}
	if c.GetEnableRateLimiting() {
		s.loginLimiter = NewRateLimiter(c.GetLoginRatePerMinute(), c.GetLoginRateBurst())
	}
	if c.GetTrustProxyHeaders() {
		s.router.Use(middleware.RealIP)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteHandler registers handler for a "METHOD /path" pattern.
func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		s.router.Handle(pattern, handler)
		return
	}
	s.router.Method(method, path, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.RegisterRouteHandler(pattern, http.HandlerFunc(handler))
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, ok := strings.Cut(route, " ")
		if !ok {
			method, path = "", route
		}
		logRoute(method, path)
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

// getScheme determines the scheme the browser used. X-Forwarded-Proto is
// only honoured behind a trusted proxy.
func (s *Server) getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if s.config.GetTrustProxyHeaders() {
		if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
			return strings.ToLower(scheme)
		}
	}
	return "http"
}
