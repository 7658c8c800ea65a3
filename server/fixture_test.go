package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/knowledge-hub/internal/config"
	"github.com/jrsteele09/knowledge-hub/internal/metrics"
	"github.com/jrsteele09/knowledge-hub/measurements"
	"github.com/jrsteele09/knowledge-hub/oauthclient"
	"github.com/jrsteele09/knowledge-hub/oauthclient/fakeprovider"
	"github.com/jrsteele09/knowledge-hub/server"
	"github.com/jrsteele09/knowledge-hub/sessions"
	"github.com/jrsteele09/knowledge-hub/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testTenantID = "kh-tenant"
	testClientID = "kh-client"
	testSecret   = "server-test-secret"
)

type renderedPage struct {
	name string
	data any
}

// recordingRenderer renders the real templates and keeps the page models.
type recordingRenderer struct {
	next  server.Renderer
	mu    sync.Mutex
	pages []renderedPage
}

func (r *recordingRenderer) Render(w io.Writer, page string, data any) error {
	r.mu.Lock()
	r.pages = append(r.pages, renderedPage{name: page, data: data})
	r.mu.Unlock()
	return r.next.Render(w, page, data)
}

func (r *recordingRenderer) last(t *testing.T) renderedPage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.pages, "no page rendered")
	return r.pages[len(r.pages)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type measurementsFunc func(ctx context.Context) json.RawMessage

func (f measurementsFunc) Recent(ctx context.Context) json.RawMessage {
	return f(ctx)
}

type response struct {
	status int
	header http.Header
	body   string
}

func (r response) location() string {
	return r.header.Get("Location")
}

type testFixture struct {
	provider *fakeprovider.Provider
	backend  *httptest.Server
	app      *httptest.Server
	settings config.Settings
	repo     *sessions.InMemoryRepo
	codec    *sessions.CookieCodec
	renderer *recordingRenderer
	registry *prometheus.Registry
	clock    *fakeClock
	browser  *http.Client

	mu              sync.Mutex
	backendHandler  http.HandlerFunc
	backendRequests int
	measurementsFn  measurementsFunc
}

func setupTestFixture(t *testing.T, configure ...func(*config.Settings)) *testFixture {
	t.Helper()
	ctx := context.Background()

	f := &testFixture{
		clock:    &fakeClock{now: time.Now()},
		registry: prometheus.NewRegistry(),
		repo:     sessions.NewInMemoryRepo(),
	}
	f.setBackend(http.StatusOK, `[{"id":1,"value":42}]`)

	f.provider = fakeprovider.New(t, testTenantID, testClientID)
	f.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		h := f.backendHandler
		f.backendRequests++
		f.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(f.backend.Close)

	var app http.Handler
	f.app = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.ServeHTTP(w, r)
	}))
	t.Cleanup(f.app.Close)

	settings := config.Default()
	settings.Env = "TEST"
	settings.SecretKey = testSecret
	settings.OAuth.TenantID = testTenantID
	settings.OAuth.ClientID = testClientID
	settings.OAuth.ClientSecret = "kh-secret"
	settings.OAuth.Authority = f.provider.Authority()
	settings.OAuth.RedirectURI = f.app.URL + server.RouteCallback
	settings.Backend.URL = f.backend.URL
	settings.Backend.Timeout = 200 * time.Millisecond
	settings.Security.RateLimitEnabled = false
	for _, c := range configure {
		c(&settings)
	}
	f.settings = settings

	keys, err := sessions.DeriveKeys(settings.SecretKey)
	require.NoError(t, err)
	f.codec = sessions.NewCookieCodec(keys.CookieSigning)

	authClient, err := oauthclient.New(ctx, settings)
	require.NoError(t, err)

	collector := metrics.NewCollector(f.registry)
	backendClient, err := measurements.NewClient(settings, collector)
	require.NoError(t, err)

	templates, err := server.NewTemplateRenderer()
	require.NoError(t, err)
	f.renderer = &recordingRenderer{next: templates}

	srv, err := server.New(settings, server.Dependencies{
		Sessions: f.repo,
		Cookies:  f.codec,
		Auth:     authClient,
		Measurements: measurementsFunc(func(ctx context.Context) json.RawMessage {
			f.mu.Lock()
			override := f.measurementsFn
			f.mu.Unlock()
			if override != nil {
				return override(ctx)
			}
			return backendClient.Recent(ctx)
		}),
		Metrics:  collector,
		Gatherer: f.registry,
		Renderer: f.renderer,
		Now:      f.clock.Now,
	})
	require.NoError(t, err)
	app = srv

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.browser = &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

func (f *testFixture) setBackend(status int, body string) {
	f.setBackendHandler(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *testFixture) setBackendHandler(h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backendHandler = h
}

func (f *testFixture) setMeasurements(fn measurementsFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.measurementsFn = fn
}

// get fetches path (or an absolute URL) with the browser's cookie jar.
func (f *testFixture) get(t *testing.T, path string) response {
	t.Helper()
	target := path
	if u, err := url.Parse(path); err == nil && !u.IsAbs() {
		target = f.app.URL + path
	}
	resp, err := f.browser.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: string(body)}
}

// startLogin runs /login and the provider's authorize step, returning the
// callback query the provider would send the browser back with.
func (f *testFixture) startLogin(t *testing.T) url.Values {
	t.Helper()
	resp := f.get(t, server.RouteLogin)
	require.Equal(t, http.StatusFound, resp.status)
	require.Contains(t, resp.location(), f.provider.Issuer()+"/authorize")

	code, state := f.provider.Authorize(t, resp.location())
	return url.Values{"code": {code}, "state": {state}}
}

func (f *testFixture) callback(t *testing.T, q url.Values) response {
	t.Helper()
	return f.get(t, server.RouteCallback+"?"+q.Encode())
}

// login completes a full sign-in with the given ID token claims.
func (f *testFixture) login(t *testing.T, claims map[string]any) {
	t.Helper()
	f.provider.SetIDTokenClaims(claims)
	resp := f.callback(t, f.startLogin(t))
	require.Equal(t, http.StatusSeeOther, resp.status)
	require.Equal(t, server.RouteDashboard, resp.location())
}

// signIn stores an authenticated session directly and hands its cookie to
// the browser.
func (f *testFixture) signIn(t *testing.T, user users.Identity) *sessions.Session {
	t.Helper()
	s := sessions.New(time.Now(), time.Hour)
	s.User = &user
	require.NoError(t, f.repo.Upsert(context.Background(), s))

	value, err := f.codec.Encode(s)
	require.NoError(t, err)
	f.setCookie(t, value)
	return s
}

func (f *testFixture) setCookie(t *testing.T, value string) {
	t.Helper()
	u, err := url.Parse(f.app.URL)
	require.NoError(t, err)
	f.browser.Jar.SetCookies(u, []*http.Cookie{{Name: sessions.CookieName, Value: value, Path: "/"}})
}

// cookie returns the browser's session cookie value, or "".
func (f *testFixture) cookie(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(f.app.URL)
	require.NoError(t, err)
	for _, c := range f.browser.Jar.Cookies(u) {
		if c.Name == sessions.CookieName {
			return c.Value
		}
	}
	return ""
}

// session loads the session the browser's cookie points at.
func (f *testFixture) session(t *testing.T) *sessions.Session {
	t.Helper()
	value := f.cookie(t)
	require.NotEmpty(t, value, "browser has no session cookie")
	id, err := f.codec.Decode(value)
	require.NoError(t, err)
	s, err := f.repo.Get(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *testFixture) metricsText(t *testing.T) string {
	t.Helper()
	resp := f.get(t, server.RouteMetrics)
	require.Equal(t, http.StatusOK, resp.status)
	return resp.body
}

func (f *testFixture) backendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backendRequests
}
