package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the TOML config file")
	dataDir := flag.String("data-dir", "", "override the data directory")
	logDir := flag.String("log-dir", "", "directory for log files (empty logs to stdout only)")
	stdout := flag.Bool("stdout", false, "mirror log output to stdout when logging to a file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal("load config", err)
	}
	applyEnvOverrides(&cfg)
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *debug {
		cfg.LogDebug = true
	}
	if cfg.LogDebug {
		setLogLevel(logLevelDebug)
	}
	if *logDir != "" {
		if err := os.MkdirAll(*logDir, 0o755); err != nil {
			fatal("create log directory", err, "dir", *logDir)
		}
		configureFileLogging(filepath.Join(*logDir, "mtbot.log"), *stdout)
	}
	defer logger.Stop()

	if err := validateConfig(cfg); err != nil {
		fatal("invalid config", err)
	}
	ensureExampleConfig(cfg.DataDir)

	audit, err := openAuditStore(cfg.DataDir)
	if err != nil {
		// Moderation still works without the audit trail.
		logger.Warn("audit store unavailable", "error", err)
		audit = nil
	}
	defer audit.Close()

	api := newGameAPIClient(cfg.APIBaseURL, cfg.APIPassword, cfg.apiTimeout())
	alerts := newWebhookAlerter(cfg.WebhookURL, cfg.apiTimeout())
	tracker := newPresenceTracker(api, alerts, cfg.RetryAttempts, cfg.retryBaseDelay())

	bot, err := newServerBot(cfg, api, tracker, audit)
	if err != nil {
		fatal("create bot", err)
	}
	if err := bot.open(); err != nil {
		fatal("connect to discord", err)
	}
	logger.Info("bot running", "api", cfg.APIBaseURL, "poll_interval", cfg.pollInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	bot.close()
}
