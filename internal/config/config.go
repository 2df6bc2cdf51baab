package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultTrelloURL   = "https://api.trello.com"
	defaultBugzillaURL = "https://bugzilla.redhat.com"
)

// Config holds application configuration, read from a YAML file with
// environment variables taking precedence.
type Config struct {
	Trello   TrelloConfig   `yaml:"trello"`
	Bugzilla BugzillaConfig `yaml:"bugzilla"`
}

// TrelloConfig holds the board API credentials.
type TrelloConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Token     string `yaml:"token"`
}

// BugzillaConfig holds the issue tracker endpoint and credentials.
type BugzillaConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// Load reads the configuration file, applies environment overrides and
// validates that the trello section is present. Config errors are fatal
// before any board access happens.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if cfg.Trello.APIKey == "" || cfg.Trello.Token == "" {
		return nil, fmt.Errorf("config file %s does not contain a complete trello section", path)
	}
	return cfg, nil
}

// HasBugzillaConfig returns true if tracker credentials are configured.
func (c *Config) HasBugzillaConfig() bool {
	return c.Bugzilla.APIKey != ""
}

func applyEnvOverrides(cfg *Config) {
	cfg.Trello.BaseURL = envOrValue("TRELLO_URL", cfg.Trello.BaseURL)
	cfg.Trello.APIKey = envOrValue("TRELLO_API_KEY", cfg.Trello.APIKey)
	cfg.Trello.APISecret = envOrValue("TRELLO_API_SECRET", cfg.Trello.APISecret)
	cfg.Trello.Token = envOrValue("TRELLO_TOKEN", cfg.Trello.Token)
	cfg.Bugzilla.URL = envOrValue("BUGZILLA_URL", cfg.Bugzilla.URL)
	cfg.Bugzilla.APIKey = envOrValue("BUGZILLA_API_KEY", cfg.Bugzilla.APIKey)
}

func applyDefaults(cfg *Config) {
	if cfg.Trello.BaseURL == "" {
		cfg.Trello.BaseURL = defaultTrelloURL
	}
	if cfg.Bugzilla.URL == "" {
		cfg.Bugzilla.URL = defaultBugzillaURL
	}
}

func envOrValue(key, value string) string {
	if env := os.Getenv(key); env != "" {
		return env
	}
	return value
}
