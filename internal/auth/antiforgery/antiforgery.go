// Package antiforgery issues and verifies the signed cookie that
// carries OAuth flow state across the provider redirect round trip.
// Nothing is stored server-side: the browser holds the only copy.
package antiforgery

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/AraBlocks/ara.team/internal/utils"

	"github.com/gorilla/securecookie"
)

// CookieName is the flow cookie issued at start and consumed at
// callback. Scoped to the auth path; see handler.
const CookieName = "__Secure-oauth-flow"

var (
	// ErrCSRFMismatch covers any cookie whose signature does not verify:
	// tampering, truncation, or a cookie signed under another secret.
	ErrCSRFMismatch = errors.New("flow cookie signature mismatch")

	// ErrStateMismatch means the state parameter returned by the
	// provider does not match the nonce bound to this browser's cookie.
	ErrStateMismatch = errors.New("state does not match flow cookie nonce")

	// ErrExpired means the flow outlived the configured max age.
	ErrExpired = errors.New("flow state expired")
)

// FlowState is one in-progress authorization attempt, serialized into
// the signed cookie. Single use: the cookie is cleared on callback.
type FlowState struct {
	Provider string `json:"provider"`

	// CSRF proves the callback request originated from the browser that
	// started the flow.
	CSRF string `json:"csrf"`

	// Nonce round-trips through the provider as the state parameter.
	// For OAuth 1.0a flows it holds the request token instead, which
	// plays the same binding role.
	Nonce string `json:"nonce"`

	PKCEVerifier  string `json:"pkce_verifier,omitempty"`
	RequestSecret string `json:"request_secret,omitempty"`

	// Destination is the collaborator-supplied redirect hint captured
	// at flow start.
	Destination string `json:"destination,omitempty"`

	IssuedAt int64 `json:"issued_at"`
}

// Engine signs and verifies flow cookies with the process secret.
type Engine struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	now    func() time.Time
}

// New creates an engine signing with the given secret. maxAge bounds
// the whole flow; a few minutes is plenty for a redirect round trip.
func New(secret []byte, maxAge time.Duration) *Engine {
	codec := securecookie.New(secret, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	// The engine performs its own age check so the inclusive boundary
	// and check ordering stay under its control.
	codec.MaxAge(0)

	return &Engine{
		codec:  codec,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SetNow overrides the time source (for testing).
func (e *Engine) SetNow(fn func() time.Time) {
	e.now = fn
}

// MaxAge returns the configured flow lifetime.
func (e *Engine) MaxAge() time.Duration {
	return e.maxAge
}

// Issue fills the CSRF token, state nonce, and issue time of the given
// state and returns it alongside the signed cookie value. A preset
// nonce (the OAuth 1.0a request token) is kept.
func (e *Engine) Issue(state FlowState) (FlowState, string, error) {
	state.CSRF = utils.RandomString(32)
	if state.Nonce == "" {
		state.Nonce = utils.RandomString(32)
	}
	state.IssuedAt = e.now().Unix()

	encoded, err := e.codec.Encode(CookieName, state)
	if err != nil {
		return FlowState{}, "", err
	}
	return state, encoded, nil
}

// Verify validates a returned flow cookie against the state parameter
// the provider echoed back. Checks run in a fixed order, each aborting
// the flow: signature, then nonce, then age. No provider call may be
// made before all three pass.
func (e *Engine) Verify(cookieValue, returnedState string) (*FlowState, error) {
	var state FlowState
	if err := e.codec.Decode(CookieName, cookieValue, &state); err != nil {
		return nil, ErrCSRFMismatch
	}
	if state.CSRF == "" || state.Nonce == "" {
		return nil, ErrCSRFMismatch
	}

	if subtle.ConstantTimeCompare([]byte(state.Nonce), []byte(returnedState)) != 1 {
		return nil, ErrStateMismatch
	}

	// Inclusive at the boundary: a flow aged exactly maxAge still verifies.
	age := e.now().Sub(time.Unix(state.IssuedAt, 0))
	if age > e.maxAge {
		return nil, ErrExpired
	}

	return &state, nil
}
