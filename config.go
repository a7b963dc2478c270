package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	defaultDataDir = "data"
	// Default cadence for the status polling loop. The tracked message is
	// edited once per tick.
	defaultPollIntervalSeconds = 30
	// Default bounds for retrying game API reads before the server is
	// declared offline.
	defaultRetryAttempts         = 3
	defaultRetryBaseDelaySeconds = 1
	// Per-attempt HTTP timeout for game API and webhook calls. Each retry
	// attempt gets its own budget.
	defaultAPITimeoutSeconds = 5
	defaultEmbedTitle        = "Motor Town Server Status"
)

type Config struct {
	// DiscordBotToken authenticates the gateway session. Environment only
	// (DISCORD_BOT_TOKEN); never written to config files.
	DiscordBotToken string
	// APIBaseURL is the root of the game server's admin REST API,
	// e.g. "http://127.0.0.1:8080".
	APIBaseURL string
	// APIPassword is sent as the password query parameter on every game
	// API call. Environment only (API_PASSWORD).
	APIPassword string
	// WebhookURL receives the standing "server down" alert. Environment
	// only (WEBHOOK_URL). Empty disables alerts; presence tracking still
	// runs.
	WebhookURL string
	// AdminRoleID gates every slash command. Members without this role get
	// an ephemeral denial.
	AdminRoleID string
	// GuildID scopes slash-command registration to one guild. Empty
	// registers commands globally (slower to propagate).
	GuildID string
	// EmbedTitle is the headline of the tracked status embed.
	EmbedTitle string

	PollIntervalSeconds   int
	RetryAttempts         int
	RetryBaseDelaySeconds int
	APITimeoutSeconds     int

	DataDir  string
	LogDebug bool
}

func (c Config) pollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return defaultPollIntervalSeconds * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) retryBaseDelay() time.Duration {
	if c.RetryBaseDelaySeconds <= 0 {
		return defaultRetryBaseDelaySeconds * time.Second
	}
	return time.Duration(c.RetryBaseDelaySeconds) * time.Second
}

func (c Config) apiTimeout() time.Duration {
	if c.APITimeoutSeconds <= 0 {
		return defaultAPITimeoutSeconds * time.Second
	}
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		EmbedTitle:            defaultEmbedTitle,
		PollIntervalSeconds:   defaultPollIntervalSeconds,
		RetryAttempts:         defaultRetryAttempts,
		RetryBaseDelaySeconds: defaultRetryBaseDelaySeconds,
		APITimeoutSeconds:     defaultAPITimeoutSeconds,
		DataDir:               defaultDataDir,
	}
}

// fileConfig is the on-disk TOML shape. Secrets (bot token, API password,
// webhook URL) are intentionally absent; they come from the environment.
type fileConfig struct {
	APIBaseURL          string `toml:"api_base_url"`
	AdminRoleID         string `toml:"admin_role_id"`
	GuildID             string `toml:"guild_id"`
	EmbedTitle          string `toml:"embed_title"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	RetryAttempts       int    `toml:"retry_attempts"`
	RetryBaseDelaySecs  int    `toml:"retry_base_delay_seconds"`
	APITimeoutSeconds   int    `toml:"api_timeout_seconds"`
	DataDir             string `toml:"data_dir"`
	LogDebug            bool   `toml:"log_debug"`
}

func buildFileConfig(cfg Config) fileConfig {
	return fileConfig{
		APIBaseURL:          cfg.APIBaseURL,
		AdminRoleID:         cfg.AdminRoleID,
		GuildID:             cfg.GuildID,
		EmbedTitle:          cfg.EmbedTitle,
		PollIntervalSeconds: cfg.PollIntervalSeconds,
		RetryAttempts:       cfg.RetryAttempts,
		RetryBaseDelaySecs:  cfg.RetryBaseDelaySeconds,
		APITimeoutSeconds:   cfg.APITimeoutSeconds,
		DataDir:             cfg.DataDir,
		LogDebug:            cfg.LogDebug,
	}
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if strings.TrimSpace(fc.APIBaseURL) != "" {
		cfg.APIBaseURL = strings.TrimSpace(fc.APIBaseURL)
	}
	if strings.TrimSpace(fc.AdminRoleID) != "" {
		cfg.AdminRoleID = strings.TrimSpace(fc.AdminRoleID)
	}
	if strings.TrimSpace(fc.GuildID) != "" {
		cfg.GuildID = strings.TrimSpace(fc.GuildID)
	}
	if strings.TrimSpace(fc.EmbedTitle) != "" {
		cfg.EmbedTitle = strings.TrimSpace(fc.EmbedTitle)
	}
	if fc.PollIntervalSeconds > 0 {
		cfg.PollIntervalSeconds = fc.PollIntervalSeconds
	}
	if fc.RetryAttempts > 0 {
		cfg.RetryAttempts = fc.RetryAttempts
	}
	if fc.RetryBaseDelaySecs > 0 {
		cfg.RetryBaseDelaySeconds = fc.RetryBaseDelaySecs
	}
	if fc.APITimeoutSeconds > 0 {
		cfg.APITimeoutSeconds = fc.APITimeoutSeconds
	}
	if strings.TrimSpace(fc.DataDir) != "" {
		cfg.DataDir = strings.TrimSpace(fc.DataDir)
	}
	if fc.LogDebug {
		cfg.LogDebug = true
	}
}

func defaultConfigPath() string {
	return filepath.Join(defaultDataDir, "config", "config.toml")
}

// loadConfig reads the TOML config when present and falls back to defaults
// otherwise. A missing file is not an error; a malformed one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyFileConfig(&cfg, fc)
	logger.Info("config loaded", "path", path)
	return cfg, nil
}

// applyEnvOverrides layers environment variables (typically from .env) over
// the file config. Environment wins so deployments can swap secrets without
// touching the config file.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")); v != "" {
		cfg.DiscordBotToken = v
	}
	if v := strings.TrimSpace(os.Getenv("API_BASE_URL")); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("API_PASSWORD")); v != "" {
		cfg.APIPassword = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBHOOK_URL")); v != "" {
		cfg.WebhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_ROLE_ID")); v != "" {
		cfg.AdminRoleID = v
	}
	if v := strings.TrimSpace(os.Getenv("GUILD_ID")); v != "" {
		cfg.GuildID = v
	}
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DiscordBotToken) == "" {
		return errors.New("DISCORD_BOT_TOKEN is required")
	}
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		return errors.New("api_base_url (or API_BASE_URL) is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_base_url %q is not a valid URL", base)
	}
	if strings.TrimSpace(cfg.APIPassword) == "" {
		return errors.New("API_PASSWORD is required")
	}
	if strings.TrimSpace(cfg.AdminRoleID) == "" {
		return errors.New("admin_role_id (or ADMIN_ROLE_ID) is required")
	}
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		logger.Warn("WEBHOOK_URL not set; offline alerts are disabled")
	}
	return nil
}
