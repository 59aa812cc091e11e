package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AraBlocks/ara.team/internal/auth"
	"github.com/AraBlocks/ara.team/internal/config"
	"github.com/AraBlocks/ara.team/internal/credential"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// A cancelled context makes OIDC discovery fail immediately, so the
	// google adapter takes its static-endpoint fallback.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	router, err := setupHTTP(ctx, config.Config{
		AppPort:        "8080",
		ExternalURL:    "https://relay.example",
		SigningSecret:  "0123456789abcdef0123456789abcdef",
		FlowMaxAge:     5 * time.Minute,
		CredentialTTL:  900 * time.Second,
		RequestTimeout: 5 * time.Second,
		SuccessPath:    "/",
		FailurePath:    "/auth/error",
	})
	require.NoError(t, err)
	return router
}

func serve(router *gin.Engine, req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Result()
}

func TestHealthRoute(t *testing.T) {
	router := newTestRouter(t)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFailureRedirectLandsOnServedRoute(t *testing.T) {
	router := newTestRouter(t)

	// A failed flow redirects to the failure path; the default path must
	// resolve to a real page, not a 404.
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/auth/start/nope", nil))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/error", resp.Header.Get("Location"))

	resp = serve(router, httptest.NewRequest(http.MethodGet, "/auth/error", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerificationRouteRequiresCredential(t *testing.T) {
	router := newTestRouter(t)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/verification", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerificationRouteWithCredential(t *testing.T) {
	router := newTestRouter(t)

	issuer := credential.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), 900*time.Second)
	value, err := issuer.Issue(&auth.Identity{Provider: "github", ExternalID: "583231"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/verification", nil)
	req.AddCookie(&http.Cookie{Name: credential.CookieName, Value: value})

	resp := serve(router, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
