package app

import (
	"context"

	"github.com/AraBlocks/ara.team/internal/auth"
	"github.com/AraBlocks/ara.team/internal/auth/antiforgery"
	"github.com/AraBlocks/ara.team/internal/auth/exchange"
	"github.com/AraBlocks/ara.team/internal/auth/handler"
	"github.com/AraBlocks/ara.team/internal/auth/provider"
	"github.com/AraBlocks/ara.team/internal/auth/provider/discord"
	githubp "github.com/AraBlocks/ara.team/internal/auth/provider/github"
	"github.com/AraBlocks/ara.team/internal/auth/provider/google"
	"github.com/AraBlocks/ara.team/internal/auth/provider/twitter"
	"github.com/AraBlocks/ara.team/internal/config"
	"github.com/AraBlocks/ara.team/internal/credential"
	"github.com/AraBlocks/ara.team/internal/logger"
	"github.com/AraBlocks/ara.team/internal/middleware"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, error) {

	// ----------------------------
	// Dependencies
	// ----------------------------

	// Providers without credentials stay registered; their flows fail
	// fast at start instead of surfacing at callback.
	registry := provider.NewRegistry(
		google.New(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret),
		twitter.New(cfg.TwitterClientID, cfg.TwitterClientSecret),
		githubp.New(cfg.GitHubClientID, cfg.GitHubClientSecret),
		discord.New(cfg.DiscordClientID, cfg.DiscordClientSecret),
	)

	flows := antiforgery.New([]byte(cfg.SigningSecret), cfg.FlowMaxAge)
	exchanger := exchange.New(cfg.RequestTimeout)
	issuer := credential.NewIssuer([]byte(cfg.SigningSecret), cfg.CredentialTTL)

	hooks := handler.Hooks{
		// The relay owns no user records; the surrounding application
		// decides what a verified identity means.
		OnVerified: func(_ context.Context, identity *auth.Identity) error {
			logger.Info("verified identity handed off", map[string]any{
				"provider":    identity.Provider,
				"external_id": identity.ExternalID,
			})
			return nil
		},
	}

	authHandler := handler.NewHandler(
		registry,
		flows,
		exchanger,
		issuer,
		hooks,
		cfg.ExternalURL,
		cfg.SuccessPath,
		cfg.FailurePath,
	)

	verified := middleware.NewVerifiedMiddleware(issuer)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Landing page for the default failure redirect. Deployments that
	// point AUTH_FAILURE_PATH at their own page bypass it.
	router.GET("/auth/error", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "verification_failed"})
	})

	// ----------------------------
	// Verified-only Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireVerified(verified))

	api.GET("/verification", func(c *gin.Context) {
		claims, ok := middleware.IdentityFromContext(c.Request.Context())
		if !ok {
			c.JSON(401, gin.H{"error": "verification required"})
			return
		}
		c.JSON(200, gin.H{
			"provider":    claims.Provider,
			"external_id": claims.Subject,
			"name":        claims.Name,
			"handle":      claims.Handle,
			"expires_at":  claims.ExpiresAt,
		})
	})

	return router, nil
}
