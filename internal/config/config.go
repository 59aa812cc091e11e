package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	// ExternalURL is the public base URL of this service as registered
	// with every OAuth provider. Callback URLs are derived from it and
	// must match the registered values byte for byte.
	ExternalURL string `env:"EXTERNAL_URL" envDefault:"http://localhost:8080"`

	// SigningSecret signs flow cookies and ephemeral credentials.
	// The process refuses to start without it.
	SigningSecret string `env:"AUTH_SIGNING_SECRET"`

	FlowMaxAge     time.Duration `env:"AUTH_FLOW_MAX_AGE" envDefault:"5m"`
	CredentialTTL  time.Duration `env:"AUTH_CREDENTIAL_TTL" envDefault:"900s"`
	RequestTimeout time.Duration `env:"AUTH_REQUEST_TIMEOUT" envDefault:"10s"`

	SuccessPath string `env:"AUTH_SUCCESS_PATH" envDefault:"/"`
	FailurePath string `env:"AUTH_FAILURE_PATH" envDefault:"/auth/error"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	TwitterClientID     string `env:"TWITTER_CLIENT_ID"`
	TwitterClientSecret string `env:"TWITTER_CLIENT_SECRET"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`

	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.SigningSecret == "" {
		return Config{}, errors.New("AUTH_SIGNING_SECRET is required")
	}

	return cfg, nil
}
