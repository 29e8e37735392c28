package config

import "os"

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKDECK_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TASKDECK_DESCRIPTION"); v != "" {
		cfg.DefaultDescription = v
	}
	if v := os.Getenv("TASKDECK_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("TASKDECK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TASKDECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
