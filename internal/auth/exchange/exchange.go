// Package exchange converts a provider-issued authorization code into
// an access token and fetches the raw profile behind it. It never
// retries: a provider outage fails the attempt visibly.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AraBlocks/ara.team/internal/auth/antiforgery"
	"github.com/AraBlocks/ara.team/internal/auth/provider"

	"github.com/dghubble/oauth1"
	"golang.org/x/oauth2"
)

const maxProfileBody = 1 << 20

var (
	ErrTokenExchange = errors.New("token exchange failed")
	ErrProfileFetch  = errors.New("profile fetch failed")
)

// CallbackParams are the provider-supplied query parameters of the
// callback leg. Code is set for OAuth 2.0, the other two for 1.0a.
type CallbackParams struct {
	Code          string
	OAuthToken    string
	OAuthVerifier string
}

// RequestToken is the OAuth 1.0a pre-redirect handshake result.
type RequestToken struct {
	Token        string
	Secret       string
	AuthorizeURL string
}

// Client performs the server-to-server legs of the flow. Both outbound
// calls share one bounded HTTP client; a timeout surfaces as the same
// typed failure as a non-2xx response.
type Client struct {
	http *http.Client
}

func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// ObtainRequestToken runs the OAuth 1.0a request-token leg and returns
// the token pair plus the authorization URL to redirect the user to.
func (c *Client) ObtainRequestToken(cfg *provider.Config, callbackURL string) (*RequestToken, error) {
	oc := c.oauth1Config(cfg, callbackURL)

	token, secret, err := oc.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("%w: request token: %v", ErrTokenExchange, err)
	}

	authorizeURL, err := oc.AuthorizationURL(token)
	if err != nil {
		return nil, fmt.Errorf("%w: authorize url: %v", ErrTokenExchange, err)
	}

	return &RequestToken{
		Token:        token,
		Secret:       secret,
		AuthorizeURL: authorizeURL.String(),
	}, nil
}

// Exchange redeems the callback parameters for an access token and
// immediately fetches the user's raw profile. The sub-protocol is
// selected by the provider's declared dialect.
func (c *Client) Exchange(
	ctx context.Context,
	cfg *provider.Config,
	redirectURL string,
	params CallbackParams,
	state *antiforgery.FlowState,
) (json.RawMessage, error) {
	switch cfg.Dialect {
	case provider.DialectOAuth1:
		return c.exchangeOAuth1(ctx, cfg, redirectURL, params, state)
	default:
		return c.exchangeOAuth2(ctx, cfg, redirectURL, params, state)
	}
}

func (c *Client) exchangeOAuth2(
	ctx context.Context,
	cfg *provider.Config,
	redirectURL string,
	params CallbackParams,
	state *antiforgery.FlowState,
) (json.RawMessage, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	var opts []oauth2.AuthCodeOption
	if cfg.UsePKCE {
		opts = append(opts, oauth2.VerifierOption(state.PKCEVerifier))
	}

	token, err := cfg.OAuth2(redirectURL).Exchange(ctx, params.Code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	if cfg.IDTokenVerifier != nil {
		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok || rawIDToken == "" {
			return nil, fmt.Errorf("%w: provider did not return id_token", ErrTokenExchange)
		}
		if _, err := cfg.IDTokenVerifier.Verify(ctx, rawIDToken); err != nil {
			return nil, fmt.Errorf("%w: id_token verification: %v", ErrTokenExchange, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	return c.fetchProfile(req, c.http)
}

func (c *Client) exchangeOAuth1(
	ctx context.Context,
	cfg *provider.Config,
	redirectURL string,
	params CallbackParams,
	state *antiforgery.FlowState,
) (json.RawMessage, error) {
	oc := c.oauth1Config(cfg, redirectURL)

	accessToken, accessSecret, err := oc.AccessToken(params.OAuthToken, state.RequestSecret, params.OAuthVerifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	// The oauth1 transport signs each request with the token pair.
	signing := oc.Client(ctx, oauth1.NewToken(accessToken, accessSecret))
	signing.Timeout = c.http.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	return c.fetchProfile(req, signing)
}

func (c *Client) fetchProfile(req *http.Request, client *http.Client) (json.RawMessage, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: malformed response body", ErrProfileFetch)
	}

	return json.RawMessage(body), nil
}

func (c *Client) oauth1Config(cfg *provider.Config, callbackURL string) *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    cfg.ClientID,
		ConsumerSecret: cfg.ClientSecret,
		CallbackURL:    callbackURL,
		// Request-token and access-token legs go through the bounded
		// client; without this the library falls back to
		// http.DefaultClient, which has no timeout.
		HTTPClient: c.http,
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: cfg.RequestTokenURL,
			AuthorizeURL:    cfg.AuthURL,
			AccessTokenURL:  cfg.TokenURL,
		},
	}
}
