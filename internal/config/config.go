// Package config loads server configuration with Viper. Values come from
// environment variables (prefix SNIPY_) layered over an optional config.yaml
// in the working directory; env always wins.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config keys as they appear in config.yaml. Nested keys map to env vars by
// replacing dots with underscores: lists.owner_scoped → SNIPY_LISTS_OWNER_SCOPED.
const (
	keyPort             = "port"
	keyDBPath           = "db_path"
	keyJWTSecret        = "jwt_secret"
	keyGitHubID         = "github.client_id"
	keyGitHubSecret     = "github.client_secret"
	keyGitHubCallback   = "github.callback_url"
	keyRunnerEnabled    = "runner.enabled"
	keyListsOwnerScoped = "lists.owner_scoped"
)

// Config holds everything main needs to wire the server.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs session tokens. Empty disables authentication; the
	// server still starts and serves public reads.
	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// RunnerEnabled controls whether the Docker snippet runner is started.
	RunnerEnabled bool

	// ListsOwnerScoped switches list endpoints from global visibility to
	// owner-scoped rows (snippets: owner's rows or public ones).
	ListsOwnerScoped bool
}

// Load reads configuration from config.yaml (if present) and the environment.
// A missing config file is not an error.
func Load() (*Config, error) {
	return load(".")
}

// load is the testable core of Load; dir is where config.yaml is searched.
func load(dir string) (*Config, error) {
	v := viper.New()
	v.SetDefault(keyPort, 8080)
	v.SetDefault(keyDBPath, "data/snipy.db")
	v.SetDefault(keyRunnerEnabled, true)
	v.SetDefault(keyListsOwnerScoped, false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("SNIPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:               v.GetInt(keyPort),
		DBPath:             v.GetString(keyDBPath),
		JWTSecret:          v.GetString(keyJWTSecret),
		GitHubClientID:     v.GetString(keyGitHubID),
		GitHubClientSecret: v.GetString(keyGitHubSecret),
		GitHubCallbackURL:  v.GetString(keyGitHubCallback),
		RunnerEnabled:      v.GetBool(keyRunnerEnabled),
		ListsOwnerScoped:   v.GetBool(keyListsOwnerScoped),
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: invalid port %d", cfg.Port)
	}

	return cfg, nil
}
