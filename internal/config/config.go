// Package config loads the daemon configuration.
//
// RESOLUTION ORDER:
// 1. Environment variables (highest priority — works everywhere, no file needed)
// 2. YAML config file (ZENJID_CONFIG, or ~/.config/zenjid/config.yaml)
// 3. Built-in defaults
//
// Secrets (OpenAI key, Spotify client secret, Mongo URI) may also live in the
// encrypted secret store; components that need them fall back to it at use time
// when the corresponding config field is empty. Config itself never writes
// secrets anywhere.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Remote backend kinds accepted by Config.Remote.Backend.
const (
	BackendPostgres = "postgres"
	BackendMongoDB  = "mongodb"
)

// Config is the full daemon configuration.
type Config struct {
	Port      int    `yaml:"port"`
	StatePath string `yaml:"statePath"` // sqlite file for the local state store
	KeyPath   string `yaml:"keyPath"`   // secret-store key file
	JWTSecret string `yaml:"jwtSecret"`

	Remote    RemoteConfig    `yaml:"remote"`
	GitHub    OAuthConfig     `yaml:"github"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Assistant AssistantConfig `yaml:"assistant"`

	// AutoSyncDebounce is how long the write-back queue waits after the last
	// local mutation before pushing. Coalesces bursts of edits into one sync.
	AutoSyncDebounce time.Duration `yaml:"autoSyncDebounce"`
}

// RemoteConfig selects and configures the remote document store backend.
type RemoteConfig struct {
	Backend    string `yaml:"backend"`    // "postgres" or "mongodb"
	PostgresDS string `yaml:"postgresDsn"`
	MongoURI   string `yaml:"mongoUri"`
	MongoDB    string `yaml:"mongoDatabase"`
	Collection string `yaml:"collection"` // mongo collection / postgres table suffix
}

// OAuthConfig holds an OAuth app registration.
type OAuthConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	CallbackURL  string `yaml:"callbackUrl"`
}

// SpotifyConfig is OAuthConfig plus the mock switch. With Mock set (or with no
// client id configured) the daemon uses the canned mock adapter instead of the
// real Web API client.
type SpotifyConfig struct {
	OAuthConfig `yaml:",inline"`
	Mock        bool `yaml:"mock"`
}

// AssistantConfig configures the AI chat adapter.
type AssistantConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// Load reads the config file (if any) and applies environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("ZENJID_CONFIG")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".config", "zenjid", "config.yaml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if cfg.Spotify.CallbackURL == "" {
		cfg.Spotify.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/spotify/callback", cfg.Port)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:      7439,
		StatePath: "data/zenjid.db",
		KeyPath:   "data/zenjid.key",
		Remote: RemoteConfig{
			Backend:    BackendPostgres,
			MongoDB:    "zenji",
			Collection: "userdata",
		},
		Assistant: AssistantConfig{
			Model: "gpt-3.5-turbo",
		},
		AutoSyncDebounce: 2 * time.Second,
	}
}

// applyEnv overrides config fields from the environment. Empty env vars are
// ignored so a set-but-empty variable can't blank out a file value.
func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	setStr(&cfg.StatePath, "ZENJID_STATE_PATH")
	setStr(&cfg.KeyPath, "ZENJID_KEY_PATH")
	setStr(&cfg.JWTSecret, "JWT_SECRET")

	setStr(&cfg.Remote.Backend, "ZENJI_REMOTE_BACKEND")
	setStr(&cfg.Remote.PostgresDS, "ZENJI_POSTGRES_DSN")
	setStr(&cfg.Remote.MongoURI, "ZENJI_MONGODB_CONNECTION_STRING")
	setStr(&cfg.Remote.MongoDB, "MONGODB_DATABASE")
	setStr(&cfg.Remote.Collection, "MONGODB_COLLECTION")

	setStr(&cfg.GitHub.ClientID, "GITHUB_CLIENT_ID")
	setStr(&cfg.GitHub.ClientSecret, "GITHUB_CLIENT_SECRET")
	setStr(&cfg.GitHub.CallbackURL, "GITHUB_CALLBACK_URL")

	setStr(&cfg.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setStr(&cfg.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setStr(&cfg.Spotify.CallbackURL, "SPOTIFY_CALLBACK_URL")
	if v := os.Getenv("SPOTIFY_MOCK"); v != "" {
		cfg.Spotify.Mock = v == "1" || v == "true"
	}

	setStr(&cfg.Assistant.APIKey, "OPENAI_API_KEY")
	setStr(&cfg.Assistant.Model, "OPENAI_MODEL")

	if v := os.Getenv("ZENJI_AUTOSYNC_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AutoSyncDebounce = d
		}
	}
}
