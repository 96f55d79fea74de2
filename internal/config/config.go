package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort             = 3030
	defaultEnv              = "development"
	defaultTimezone         = "UTC"
	defaultLogRetentionDays = 180
	defaultBackupsDir       = "./backups"
	defaultLogsDir          = "./logs"
)

// Load reads the YAML config file, applies environment overrides, and fills
// defaults. A missing file is not an error; env vars alone can configure the
// app.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required (config `dsn` or STORYSEED_DSN)")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("STORYSEED_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("STORYSEED_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("STORYSEED_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("STORYSEED_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("STORYSEED_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("STORYSEED_WEB_URL"); v != "" {
		cfg.WebURL = v
	}
	if v := os.Getenv("STORYSEED_OPENAI_API_KEY"); v != "" && len(cfg.AI.Providers) == 0 {
		cfg.AI.Providers = []AIProvider{{
			ID:      "openai",
			Name:    "OpenAI",
			Type:    "openai-compatible",
			APIKey:  v,
			Enabled: true,
		}}
	}
	if v := os.Getenv("STORYSEED_RESEND_KEY"); v != "" {
		cfg.Mail.Enable = true
		cfg.Mail.UseResend = true
		cfg.Mail.ResendKey = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = defaultEnv
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		cfg.Timezone = defaultTimezone
	}
	if strings.TrimSpace(cfg.Paths.Backups) == "" {
		cfg.Paths.Backups = defaultBackupsDir
	}
	if strings.TrimSpace(cfg.Paths.Logs) == "" {
		cfg.Paths.Logs = defaultLogsDir
	}
	if cfg.Scheduler.LogRetentionDays <= 0 {
		cfg.Scheduler.LogRetentionDays = defaultLogRetentionDays
	}
	if cfg.Scheduler.FailureAlertStreak <= 0 {
		cfg.Scheduler.FailureAlertStreak = 3
	}
	if strings.TrimSpace(cfg.WebURL) == "" {
		cfg.WebURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.WebURL = strings.TrimRight(cfg.WebURL, "/")
}
