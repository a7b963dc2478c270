package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.PollIntervalSeconds != defaultPollIntervalSeconds {
		t.Fatalf("poll interval = %d", cfg.PollIntervalSeconds)
	}
	if cfg.pollInterval() != 30*time.Second {
		t.Fatalf("pollInterval() = %v", cfg.pollInterval())
	}
	if cfg.EmbedTitle != defaultEmbedTitle {
		t.Fatalf("embed title = %q", cfg.EmbedTitle)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
api_base_url = "http://10.0.0.5:8080"
admin_role_id = "123456"
poll_interval_seconds = 60
embed_title = "My Server"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIBaseURL != "http://10.0.0.5:8080" {
		t.Fatalf("api base url = %q", cfg.APIBaseURL)
	}
	if cfg.PollIntervalSeconds != 60 {
		t.Fatalf("poll interval = %d", cfg.PollIntervalSeconds)
	}
	if cfg.RetryAttempts != defaultRetryAttempts {
		t.Fatalf("retry attempts = %d, want default", cfg.RetryAttempts)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_base_url = [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token-abc")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:9090")
	t.Setenv("API_PASSWORD", "secret")
	t.Setenv("ADMIN_ROLE_ID", "999")
	t.Setenv("WEBHOOK_URL", "https://discord.com/api/webhooks/1/x")

	cfg := defaultConfig()
	cfg.APIBaseURL = "http://from-file:8080"
	applyEnvOverrides(&cfg)

	if cfg.DiscordBotToken != "token-abc" {
		t.Fatalf("token = %q", cfg.DiscordBotToken)
	}
	if cfg.APIBaseURL != "http://127.0.0.1:9090" {
		t.Fatalf("env did not win over file: %q", cfg.APIBaseURL)
	}
	if cfg.APIPassword != "secret" || cfg.AdminRoleID != "999" {
		t.Fatalf("overrides missing: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := defaultConfig()
	valid.DiscordBotToken = "token"
	valid.APIBaseURL = "http://127.0.0.1:8080"
	valid.APIPassword = "secret"
	valid.AdminRoleID = "123"
	if err := validateConfig(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.DiscordBotToken = "" }, "DISCORD_BOT_TOKEN"},
		{"missing base url", func(c *Config) { c.APIBaseURL = "" }, "api_base_url"},
		{"invalid base url", func(c *Config) { c.APIBaseURL = "not a url" }, "not a valid URL"},
		{"missing password", func(c *Config) { c.APIPassword = "" }, "API_PASSWORD"},
		{"missing admin role", func(c *Config) { c.AdminRoleID = "" }, "admin_role_id"},
	}
	for _, tc := range cases {
		cfg := valid
		tc.mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error = %v, want mention of %q", tc.name, err, tc.want)
		}
	}
}

func TestExampleConfigGeneration(t *testing.T) {
	dataDir := t.TempDir()
	ensureExampleConfig(dataDir)
	path := filepath.Join(dataDir, "config", "config.toml.example")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("example config not written: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "admin_role_id") {
		t.Fatalf("example missing admin_role_id:\n%s", text)
	}
	for _, secret := range []string{"DISCORD_BOT_TOKEN =", "api_password", "webhook_url"} {
		if strings.Contains(text, secret) {
			t.Fatalf("example config leaks secret field %q:\n%s", secret, text)
		}
	}
}
