// Package fakeprovider is an in-process OpenID Connect provider for tests.
// It implements discovery, authorize (302 back to the redirect URI),
// token (with PKCE verification), JWKS and userinfo.
package fakeprovider

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const keyID = "fake-provider-key"

// TB is the part of testing.TB the provider uses.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

type grant struct {
	nonce         string
	codeChallenge string
	redirectURI   string
	claims        map[string]any
}

type Provider struct {
	Server   *httptest.Server
	TenantID string
	ClientID string

	key *rsa.PrivateKey

	mu                sync.Mutex
	idTokenClaims     map[string]any
	userInfoClaims    map[string]any
	omitIDToken       bool
	failTokenExchange bool
	grants            map[string]grant
	tokenRequests     int
}

// New starts a provider that serves tenantID under /<tenantID>/v2.0.
func New(t TB, tenantID, clientID string) *Provider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}

	p := &Provider{
		TenantID: tenantID,
		ClientID: clientID,
		key:      key,
		grants:   make(map[string]grant),
	}

	base := "/" + tenantID + "/v2.0"
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base+"/.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("GET "+base+"/authorize", p.authorize)
	mux.HandleFunc("POST "+base+"/token", p.token)
	mux.HandleFunc("GET "+base+"/keys", p.jwks)
	mux.HandleFunc("GET "+base+"/userinfo", p.userinfo)

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

// Authority is the value for AAD_AUTHORITY.
func (p *Provider) Authority() string {
	return p.Server.URL
}

func (p *Provider) Issuer() string {
	return p.Server.URL + "/" + p.TenantID + "/v2.0"
}

// SetIDTokenClaims sets the identity claims placed in subsequently issued ID tokens.
func (p *Provider) SetIDTokenClaims(claims map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idTokenClaims = claims
}

// SetUserInfoClaims sets the userinfo response. nil makes userinfo fail.
func (p *Provider) SetUserInfoClaims(claims map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userInfoClaims = claims
}

// OmitIDToken makes the token endpoint leave out id_token.
func (p *Provider) OmitIDToken(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = omit
}

// FailTokenExchange makes the token endpoint answer invalid_grant.
func (p *Provider) FailTokenExchange(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failTokenExchange = fail
}

func (p *Provider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// Authorize follows an authorization URL produced by the client under test
// and returns the code and state the provider would redirect back with.
func (p *Provider) Authorize(t TB, authURL string) (code, state string) {
	t.Helper()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(authURL)
	if err != nil {
		t.Fatalf("authorize request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("authorize status = %d, want 302", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse authorize redirect: %v", err)
	}
	return loc.Query().Get("code"), loc.Query().Get("state")
}

func (p *Provider) discovery(w http.ResponseWriter, r *http.Request) {
	issuer := p.Issuer()
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + "/authorize",
		"token_endpoint":                        issuer + "/token",
		"jwks_uri":                              issuer + "/keys",
		"userinfo_endpoint":                     issuer + "/userinfo",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"pairwise"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      []string{"openid", "profile", "email", "offline_access"},
		"code_challenge_methods_supported":      []string{"S256"},
	})
}

func (p *Provider) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("client_id") != p.ClientID || q.Get("response_type") != "code" {
		http.Error(w, "invalid_request", http.StatusBadRequest)
		return
	}
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		http.Error(w, "pkce required", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	claims := make(map[string]any, len(p.idTokenClaims))
	for k, v := range p.idTokenClaims {
		claims[k] = v
	}
	code := randomString()
	p.grants[code] = grant{
		nonce:         q.Get("nonce"),
		codeChallenge: q.Get("code_challenge"),
		redirectURI:   q.Get("redirect_uri"),
		claims:        claims,
	}
	p.mu.Unlock()

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}
	rq := redirect.Query()
	rq.Set("code", code)
	rq.Set("state", q.Get("state"))
	redirect.RawQuery = rq.Encode()
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (p *Provider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	p.mu.Lock()
	p.tokenRequests++
	g, ok := p.grants[r.PostForm.Get("code")]
	delete(p.grants, r.PostForm.Get("code"))
	fail := p.failTokenExchange
	omitIDToken := p.omitIDToken
	p.mu.Unlock()

	clientID, _, hasBasic := r.BasicAuth()
	if !hasBasic {
		clientID = r.PostForm.Get("client_id")
	}

	if fail || !ok || clientID != p.ClientID || r.PostForm.Get("redirect_uri") != g.redirectURI {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}
	sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
	if base64.RawURLEncoding.EncodeToString(sum[:]) != g.codeChallenge {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "PKCE verification failed"})
		return
	}

	resp := map[string]any{
		"access_token": randomString(),
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	if !omitIDToken {
		idToken, err := p.signIDToken(g)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
			return
		}
		resp["id_token"] = idToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func (p *Provider) signIDToken(g grant) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   p.Issuer(),
		"aud":   p.ClientID,
		"sub":   "fake-subject",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"nonce": g.nonce,
	}
	for k, v := range g.claims {
		claims[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID
	return token.SignedString(p.key)
}

func (p *Provider) jwks(w http.ResponseWriter, r *http.Request) {
	pub := p.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": keyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (p *Provider) userinfo(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	claims := p.userInfoClaims
	p.mu.Unlock()

	if claims == nil {
		http.Error(w, "userinfo unavailable", http.StatusInternalServerError)
		return
	}
	out := map[string]any{"sub": "fake-subject"}
	for k, v := range claims {
		out[k] = v
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func randomString() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
