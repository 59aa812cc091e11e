// Package handler drives a single authorization attempt from start
// through completion or failure. All flow state crosses the provider
// round trip inside the browser-held signed cookie; nothing is kept
// in process memory between the two legs.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/AraBlocks/ara.team/internal/auth"
	"github.com/AraBlocks/ara.team/internal/auth/antiforgery"
	"github.com/AraBlocks/ara.team/internal/auth/exchange"
	"github.com/AraBlocks/ara.team/internal/auth/provider"
	"github.com/AraBlocks/ara.team/internal/credential"
	"github.com/AraBlocks/ara.team/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// flowCookiePath scopes the flow cookie to the auth routes only.
const flowCookiePath = "/auth"

// Hooks are the two collaborator-supplied lifecycle callbacks. The
// relay terminates at "identity verified": anything the application
// does with the result happens behind these.
type Hooks struct {
	// OnVerified receives ownership of the canonical identity once per
	// successful flow. Errors and panics are logged and isolated; they
	// never change the redirect, since verification already succeeded.
	OnVerified func(ctx context.Context, identity *auth.Identity) error

	// ResolveDestination picks the final redirect target. hint is the
	// destination captured at flow start, empty when none was given.
	ResolveDestination func(identity *auth.Identity, hint string) string
}

type Handler struct {
	providers *provider.Registry
	flows     *antiforgery.Engine
	exchanger *exchange.Client
	issuer    *credential.Issuer
	hooks     Hooks

	externalURL string
	successPath string
	failurePath string
}

func NewHandler(
	registry *provider.Registry,
	flows *antiforgery.Engine,
	exchanger *exchange.Client,
	issuer *credential.Issuer,
	hooks Hooks,
	externalURL, successPath, failurePath string,
) *Handler {
	h := &Handler{
		providers:   registry,
		flows:       flows,
		exchanger:   exchanger,
		issuer:      issuer,
		hooks:       hooks,
		externalURL: strings.TrimSuffix(externalURL, "/"),
		successPath: successPath,
		failurePath: failurePath,
	}
	if h.hooks.ResolveDestination == nil {
		h.hooks.ResolveDestination = func(_ *auth.Identity, hint string) string {
			if hint != "" {
				return hint
			}
			return h.successPath
		}
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/auth/start/:provider", h.start)
	r.GET("/auth/callback/:provider", h.callback)
}

func (h *Handler) start(c *gin.Context) {
	name := c.Param("provider")

	p, err := h.providers.Get(name)
	if err != nil {
		h.fail(c, name, "start", err)
		return
	}
	if !p.Configured() {
		// Fail fast here, not at callback.
		h.fail(c, name, "start", provider.ErrMisconfigured)
		return
	}

	state := antiforgery.FlowState{
		Provider:    name,
		Destination: sanitizeDestination(c.Query("callback")),
	}

	redirectURL := h.callbackURL(name)
	var authorizeURL string

	switch p.Dialect {
	case provider.DialectOAuth1:
		// 1.0a needs a server-to-server handshake before the redirect.
		// The request token doubles as the state nonce; its secret
		// rides in the flow cookie until the access-token leg.
		reqToken, err := h.exchanger.ObtainRequestToken(p, redirectURL)
		if err != nil {
			h.fail(c, name, "request_token", err)
			return
		}
		state.Nonce = reqToken.Token
		state.RequestSecret = reqToken.Secret
		authorizeURL = reqToken.AuthorizeURL
	default:
		if p.UsePKCE {
			state.PKCEVerifier = oauth2.GenerateVerifier()
		}
	}

	state, cookieValue, err := h.flows.Issue(state)
	if err != nil {
		h.fail(c, name, "start", err)
		return
	}
	if authorizeURL == "" {
		authorizeURL = p.AuthCodeURL(redirectURL, state.Nonce, state.PKCEVerifier)
	}

	h.setFlowCookie(c, cookieValue)
	c.Redirect(http.StatusFound, authorizeURL)
}

func (h *Handler) callback(c *gin.Context) {
	name := c.Param("provider")

	p, err := h.providers.Get(name)
	if err != nil {
		h.fail(c, name, "callback", err)
		return
	}

	// The user declined at the provider, or the provider rejected the
	// request. Common and not an attack; abort without validation.
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("provider returned error", map[string]any{
			"provider": name,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.fail(c, name, "callback", fmt.Errorf("provider error: %s", errParam))
		return
	}

	cookie, err := c.Request.Cookie(antiforgery.CookieName)
	if err != nil || cookie.Value == "" {
		h.fail(c, name, "verify", antiforgery.ErrCSRFMismatch)
		return
	}

	params := exchange.CallbackParams{
		Code:          c.Query("code"),
		OAuthToken:    c.Query("oauth_token"),
		OAuthVerifier: c.Query("oauth_verifier"),
	}

	returnedState := c.Query("state")
	if p.Dialect == provider.DialectOAuth1 {
		returnedState = params.OAuthToken
	}

	// Signature, nonce, age, in that order, before any provider call.
	state, err := h.flows.Verify(cookie.Value, returnedState)
	if err != nil {
		h.fail(c, name, "verify", err)
		return
	}
	if state.Provider != name {
		h.fail(c, name, "verify", antiforgery.ErrStateMismatch)
		return
	}
	if p.Dialect != provider.DialectOAuth1 && params.Code == "" {
		h.fail(c, name, "verify", fmt.Errorf("%w: missing code", exchange.ErrTokenExchange))
		return
	}

	raw, err := h.exchanger.Exchange(c.Request.Context(), p, h.callbackURL(name), params, state)
	if err != nil {
		h.fail(c, name, "exchange", err)
		return
	}

	identity, err := p.Map(raw)
	if err != nil {
		h.fail(c, name, "normalize", err)
		return
	}
	identity.Raw = raw
	if err := identity.Validate(); err != nil {
		h.fail(c, name, "normalize", err)
		return
	}

	h.notifyVerified(c.Request.Context(), identity)

	credValue, err := h.issuer.Issue(identity)
	if err != nil {
		h.fail(c, name, "credential", err)
		return
	}

	logger.Info("identity verified", map[string]any{
		"provider":    identity.Provider,
		"external_id": identity.ExternalID,
	})

	credential.SetCookie(c.Writer, credValue, h.issuer.TTL(), credential.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	h.clearFlowCookie(c)

	c.Redirect(http.StatusFound, h.hooks.ResolveDestination(identity, state.Destination))
}

// notifyVerified isolates the collaborator hook: a panicking or failing
// application must not undo a verification that already succeeded.
func (h *Handler) notifyVerified(ctx context.Context, identity *auth.Identity) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("onVerified hook panicked", map[string]any{
				"provider": identity.Provider,
				"panic":    fmt.Sprint(r),
			})
		}
	}()

	if h.hooks.OnVerified == nil {
		return
	}
	if err := h.hooks.OnVerified(ctx, identity); err != nil {
		logger.Error("onVerified hook failed", map[string]any{
			"provider": identity.Provider,
			"error":    err.Error(),
		})
	}
}

// fail terminates the flow: both cookies cleared, clean redirect. Raw
// provider error bodies are logged server-side, never echoed.
func (h *Handler) fail(c *gin.Context, providerID, stage string, err error) {
	logger.Warn("oauth flow failed", map[string]any{
		"provider": providerID,
		"stage":    stage,
		"error":    err.Error(),
	})

	h.clearFlowCookie(c)
	credential.ClearCookie(c.Writer, credential.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	c.Redirect(http.StatusFound, h.failurePath)
}

func (h *Handler) callbackURL(providerID string) string {
	return h.externalURL + "/auth/callback/" + providerID
}

func (h *Handler) setFlowCookie(c *gin.Context, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     antiforgery.CookieName,
		Value:    value,
		Path:     flowCookiePath,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.flows.MaxAge().Seconds()),
	})
}

func (h *Handler) clearFlowCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     antiforgery.CookieName,
		Value:    "",
		Path:     flowCookiePath,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// sanitizeDestination accepts only site-relative paths so a crafted
// start link cannot turn the callback into an open redirect.
func sanitizeDestination(dest string) string {
	if !strings.HasPrefix(dest, "/") {
		return ""
	}
	if strings.HasPrefix(dest, "//") || strings.HasPrefix(dest, "/\\") {
		return ""
	}
	return dest
}
