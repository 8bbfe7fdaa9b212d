// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package config loads the bizcore settings from the environment with
// caarlos0/env. cmd/api and cmd/prune call [Load] once at startup and pass the
// result down through constructors; nothing reads the environment later.
package config

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/bizcore/pkg/query"
)

// Config is the full runtime configuration. Fields without envDefault and
// marked required abort startup when unset.
type Config struct {
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// RSA key pair (PEM) signing access and magic-link tokens.
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`
	JWTIssuer      string `env:"JWT_ISSUER" envDefault:"bizcore.app"`

	// Token lifetimes
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	MagicLinkTTL    time.Duration `env:"MAGIC_LINK_TTL"    envDefault:"15m"`

	// MagicLinkURL is the front-end callback that receives ?token=<magic link token>.
	MagicLinkURL string `env:"MAGIC_LINK_URL" envDefault:"http://localhost:3000/auth/magic"`

	// Outbound mail (SMTP). An empty host logs messages instead of sending them.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"     envDefault:"no-reply@bizcore.app"`

	// Retention for the out-of-band prune command.
	LoginAttemptRetention time.Duration `env:"LOGIN_ATTEMPT_RETENTION" envDefault:"2160h"`
	SessionRetention      time.Duration `env:"SESSION_RETENTION"       envDefault:"168h"`

	// ExtraOrigins is a comma-separated CORS allow list, used outside development.
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists the CIDR ranges whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the socket peer is the client.
	TrustedProxies []netip.Prefix `env:"TRUSTED_PROXIES" envSeparator:","`
}

// Load parses and checks the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	for name, ttl := range map[string]time.Duration{
		"ACCESS_TOKEN_TTL":  cfg.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": cfg.RefreshTokenTTL,
		"MAGIC_LINK_TTL":    cfg.MagicLinkTTL,
	} {
		if ttl <= 0 {
			return nil, fmt.Errorf("config: %s must be positive, got %s", name, ttl)
		}
	}

	return &cfg, nil
}

// IsDevelopment enables the permissive CORS policy.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins splits ExtraOrigins.
func (c *Config) AllowedOrigins() []string {
	return query.StringSlice(c.ExtraOrigins)
}
