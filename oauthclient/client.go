package oauthclient

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/knowledge-hub/internal/config"
	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/jrsteele09/knowledge-hub/oauthmodel"
	"github.com/jrsteele09/knowledge-hub/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const providerTimeout = 15 * time.Second

// Azure AD tenants that are not a single directory. Their discovery document
// advertises a templated issuer, so issuer checks cannot be exact.
var multiTenantAliases = map[string]struct{}{
	"common":        {},
	"organizations": {},
	"consumers":     {},
}

// Client drives the authorization-code flow against the identity provider.
type Client struct {
	provider   *oidc.Provider
	oauth2     *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

// New discovers the provider and builds the OAuth2 configuration. Scopes
// always include openid, profile and email.
func New(ctx context.Context, c config.OAuthConfig) (*Client, error) {
	httpClient := &http.Client{Timeout: providerTimeout}
	ctx = oidc.ClientContext(ctx, httpClient)

	issuer := c.GetIssuerURL()
	_, multiTenant := multiTenantAliases[strings.ToLower(c.GetTenantID())]
	if multiTenant {
		templated := strings.Replace(issuer, "/"+c.GetTenantID()+"/", "/{tenantid}/", 1)
		ctx = oidc.InsecureIssuerURLContext(ctx, templated)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("[oauthclient New] failed to create OIDC provider for %s: %w", issuer, err)
	}

	scopes := []string{oidc.ScopeOpenID, "profile", "email"}
	for _, extra := range c.GetExtraScopes() {
		if !slices.Contains(scopes, extra) {
			scopes = append(scopes, extra)
		}
	}

	return &Client{
		provider: provider,
		oauth2: &oauth2.Config{
			ClientID:     c.GetClientID(),
			ClientSecret: c.GetClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  c.GetRedirectURI(),
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{
			ClientID:        c.GetClientID(),
			SkipIssuerCheck: multiTenant,
		}),
		httpClient: httpClient,
	}, nil
}

// Scopes returns the scopes requested on the authorization redirect.
func (c *Client) Scopes() []string {
	return append([]string(nil), c.oauth2.Scopes...)
}

// AuthCodeURL returns the provider authorization URL for flow, carrying
// state, nonce and an S256 PKCE challenge.
func (c *Client) AuthCodeURL(flow *oauthmodel.AuthFlow) string {
	return c.oauth2.AuthCodeURL(
		flow.State,
		oidc.Nonce(flow.Nonce),
		oauth2.S256ChallengeOption(flow.CodeVerifier),
	)
}

// Exchange swaps the authorization code for tokens and extracts the user
// identity. Claims come from the verified ID token; when that is missing or
// lacks usable claims the userinfo endpoint is consulted.
func (c *Client) Exchange(ctx context.Context, code string, flow *oauthmodel.AuthFlow) (users.Identity, error) {
	logger := zerolog.Ctx(ctx)
	ctx = oidc.ClientContext(ctx, c.httpClient)

	token, err := c.oauth2.Exchange(ctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return users.Identity{}, apperrors.Wrapf(apperrors.ErrTokenExchange, "%v", err)
	}

	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		identity, err := c.identityFromIDToken(ctx, rawIDToken, flow.Nonce)
		if err == nil {
			return identity, nil
		}
		if !apperrors.Is(err, apperrors.ErrNoIdentityClaims) {
			return users.Identity{}, err
		}
		logger.Debug().Err(err).Msg("ID token lacks identity claims, falling back to userinfo")
	} else {
		logger.Debug().Msg("No ID token in token response, falling back to userinfo")
	}

	return c.identityFromUserInfo(ctx, token)
}

func (c *Client) identityFromIDToken(ctx context.Context, rawIDToken, nonce string) (users.Identity, error) {
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return users.Identity{}, apperrors.Wrapf(apperrors.ErrInvalidIDToken, "%v", err)
	}

	// Validate nonce to prevent replay attacks
	if idToken.Nonce != nonce {
		return users.Identity{}, apperrors.Wrapf(apperrors.ErrInvalidIDToken, "nonce mismatch")
	}

	var claims users.Claims
	if err := idToken.Claims(&claims); err != nil {
		return users.Identity{}, apperrors.Wrapf(apperrors.ErrInvalidIDToken, "decode claims: %v", err)
	}
	return claims.Identity()
}

func (c *Client) identityFromUserInfo(ctx context.Context, token *oauth2.Token) (users.Identity, error) {
	info, err := c.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return users.Identity{}, apperrors.Wrapf(apperrors.ErrNoIdentityClaims, "userinfo: %v", err)
	}

	var claims users.Claims
	if err := info.Claims(&claims); err != nil {
		return users.Identity{}, apperrors.Wrapf(apperrors.ErrNoIdentityClaims, "decode userinfo claims: %v", err)
	}
	if claims.Email == "" {
		claims.Email = info.Email
	}
	return claims.Identity()
}
