// Package config provides environment-driven configuration for feedbackd.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the full service configuration.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"ENABLE_DEBUG" envDefault:"false"`

	// Mode selection: MOCK swaps the AI adapter for a canned client.
	Mode string `env:"FEEDBACKD_MODE"`

	// AI completion service
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT" envDefault:"60s"`

	// Issue tracker. Either a personal access token or a GitHub App
	// (app id + installation id + private key) must be configured.
	GitHubToken         string        `env:"GITHUB_TOKEN"`
	GitHubRepository    string        `env:"GITHUB_REPOSITORY"`
	GitHubMention       string        `env:"GITHUB_MENTION" envDefault:"@claude"`
	GitHubTimeout       time.Duration `env:"GITHUB_TIMEOUT" envDefault:"10s"`
	GitHubAppID         string        `env:"GITHUB_APP_ID"`
	GitHubInstallID     string        `env:"GITHUB_INSTALLATION_ID"`
	GitHubAppPrivateKey string        `env:"GITHUB_APP_PRIVATE_KEY"`
	GitHubAppKeyPath    string        `env:"GITHUB_APP_PRIVATE_KEY_PATH"`

	// Trust table: "domain1:key1,key2;domain2:key3".
	DomainAPIMappings string `env:"DOMAIN_API_MAPPINGS"`

	// Session store backend: "memory" (default) or "sqlite".
	SessionBackend  string `env:"SESSION_BACKEND" envDefault:"memory"`
	SessionDatabase string `env:"SESSION_DATABASE" envDefault:"file:feedbackd.db?cache=shared&mode=rwc"`

	// Submission policy: optional rego source overriding the built-in policy.
	SubmissionPolicy string `env:"SUBMISSION_POLICY"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// AIConfigured reports whether a real AI backend can be constructed.
func (c *Config) AIConfigured() bool {
	return c.GeminiAPIKey != ""
}

// TrackerConfigured reports whether an issue tracker credential is present.
func (c *Config) TrackerConfigured() bool {
	if c.GitHubToken != "" {
		return true
	}
	return c.GitHubAppID != "" && c.GitHubInstallID != "" &&
		(c.GitHubAppPrivateKey != "" || c.GitHubAppKeyPath != "")
}
