// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Token/Session services)
    via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Amanat API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) — backs the token revocation list.
	RedisURL string `env:"REDIS_URL,required"`

	// AuthSecret is the process-wide HMAC signing secret for JWTs (HS256).
	AuthSecret string `env:"AUTH_SECRET,required"`

	// Token lifetimes
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	// Server-side session lifetime
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// Session cookie attributes
	SessionCookieName     string `env:"SESSION_COOKIE_NAME"     envDefault:"sessionid"`
	SessionCookieSecure   bool   `env:"SESSION_COOKIE_SECURE"   envDefault:"true"`
	SessionCookieHTTPOnly bool   `env:"SESSION_COOKIE_HTTPONLY" envDefault:"true"`
	SessionCookieSameSite string `env:"SESSION_COOKIE_SAMESITE" envDefault:"lax"`

	// SeedRBAC loads the default role/resource/rule fixtures at startup.
	SeedRBAC bool `env:"SEED_RBAC" envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SameSite maps the configured SameSite string to its [http.SameSite] value.
// Unknown values fall back to Lax, the safe cross-site default.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.SessionCookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
