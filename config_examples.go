package main

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

func ensureExampleConfig(dataDir string) {
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	configDir := filepath.Join(dataDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		logger.Warn("create config directory failed", "dir", configDir, "error", err)
		return
	}
	path := filepath.Join(configDir, "config.toml.example")
	contents := exampleConfigBytes()
	if len(contents) == 0 {
		return
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		logger.Warn("write example config failed", "path", path, "error", err)
	}
}

func exampleConfigBytes() []byte {
	cfg := defaultConfig()
	cfg.APIBaseURL = "http://127.0.0.1:8080"
	cfg.AdminRoleID = "YOUR_ADMIN_ROLE_ID"
	fc := buildFileConfig(cfg)
	data, err := toml.Marshal(fc)
	if err != nil {
		logger.Warn("encode config example failed", "error", err)
		return nil
	}
	header := "# Generated example (copy to config.toml and edit as needed).\n" +
		"# Secrets come from the environment or a .env file:\n" +
		"#   DISCORD_BOT_TOKEN, API_PASSWORD, WEBHOOK_URL\n\n"
	return append([]byte(header), data...)
}
