package provider

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGet(t *testing.T) {
	cfg := &Config{ID: "acme", ClientID: "id", ClientSecret: "secret"}
	registry := NewRegistry(cfg)

	got, err := registry.Get("acme")
	require.NoError(t, err)
	assert.Same(t, cfg, got)

	_, err = registry.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestConfigured(t *testing.T) {
	assert.True(t, (&Config{ClientID: "id", ClientSecret: "secret"}).Configured())
	assert.False(t, (&Config{ClientID: "id"}).Configured())
	assert.False(t, (&Config{ClientSecret: "secret"}).Configured())
	assert.False(t, (&Config{}).Configured())
}

func TestAuthCodeURL(t *testing.T) {
	cfg := &Config{
		ID:       "acme",
		AuthURL:  "https://acme.example/oauth/authorize",
		TokenURL: "https://acme.example/oauth/token",
		ClientID: "client-1",
		Scopes:   []string{"identify", "email"},
	}

	raw := cfg.AuthCodeURL("https://relay.example/auth/callback/acme", "nonce-1", "")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "nonce-1", query.Get("state"))
	assert.Equal(t, "client-1", query.Get("client_id"))
	assert.Equal(t, "https://relay.example/auth/callback/acme", query.Get("redirect_uri"))
	assert.Equal(t, "identify email", query.Get("scope"))
	assert.Empty(t, query.Get("code_challenge"))
}

func TestAuthCodeURLWithPKCE(t *testing.T) {
	cfg := &Config{
		ID:       "acme",
		AuthURL:  "https://acme.example/oauth/authorize",
		ClientID: "client-1",
		UsePKCE:  true,
	}

	raw := cfg.AuthCodeURL("https://relay.example/auth/callback/acme", "nonce-1", "verifier-verifier-verifier-verifier-verifier")
	require.True(t, strings.HasPrefix(raw, cfg.AuthURL))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
}
