package provider

import (
	"github.com/AraBlocks/ara.team/internal/auth"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Dialect selects the token-exchange sub-protocol for a provider.
// The exchange client dispatches on it; handlers never compare
// provider names to pick a protocol.
type Dialect int

const (
	DialectOAuth2 Dialect = iota
	DialectOAuth1
)

// MapFunc converts a raw provider profile response into a normalized
// identity. Implementations must be pure: no network, no shared state.
type MapFunc func(raw []byte) (*auth.Identity, error)

// Config is the immutable OAuth dialect definition for one provider.
// It is created once at startup and shared read-only across requests.
type Config struct {
	ID      string
	Dialect Dialect

	AuthURL    string
	TokenURL   string
	ProfileURL string

	// RequestTokenURL is only set for OAuth 1.0a providers.
	RequestTokenURL string

	ClientID     string
	ClientSecret string
	Scopes       []string

	// UsePKCE adds an S256 code challenge to the authorization URL and
	// the matching verifier to the token exchange.
	UsePKCE bool

	// Map normalizes the provider's profile response.
	Map MapFunc

	// IDTokenVerifier, when set, makes the exchange client verify the
	// id_token returned alongside the access token (OIDC providers).
	IDTokenVerifier *oidc.IDTokenVerifier
}

// Configured reports whether the provider carries client credentials.
// Unconfigured providers stay registered but fail at flow start.
func (c *Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuth2 builds the oauth2 client configuration for this provider with
// the exact redirect URL used across both flow legs.
func (c *Config) OAuth2(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
	}
}

// AuthCodeURL builds the provider authorization URL embedding the state
// nonce and, for PKCE providers, the S256 code challenge.
func (c *Config) AuthCodeURL(redirectURL, state, pkceVerifier string) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if c.UsePKCE {
		opts = append(opts, oauth2.S256ChallengeOption(pkceVerifier))
	}
	return c.OAuth2(redirectURL).AuthCodeURL(state, opts...)
}
