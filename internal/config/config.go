// Package config loads application configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults. The redirect URI uses explicit IPv4 loopback as required by
// Spotify for local development.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"
)

// Config holds the application configuration.
type Config struct {
	Addr        string `koanf:"addr"`
	ClientID    string `koanf:"client_id"`
	RedirectURI string `koanf:"redirect_uri"`

	// DatabaseURL enables the Postgres-backed session store when set;
	// sessions stay in memory otherwise.
	DatabaseURL string `koanf:"database_url"`

	Commentary CommentaryConfig `koanf:"commentary"`
}

// CommentaryConfig holds settings for the external text-generation service.
// Commentary stays disabled until an API key is configured.
type CommentaryConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
}

// Load reads config.toml from the user config dir and the working directory
// (last wins), then applies environment variable overrides for credentials.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Addr:        DefaultAddr,
		RedirectURI: DefaultRedirectURI,
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if id := os.Getenv("SPOTIFY_ID"); id != "" {
		cfg.ClientID = id
	}
	if cfg.Commentary.APIKey == "" {
		cfg.Commentary.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	return cfg, nil
}

func configPaths() []string {
	var paths []string

	// 1. ~/.config/spotify-receipt/config.toml
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "spotify-receipt", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}
