package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/taskdeck/taskdeck/internal/appdir"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.taskdeck/taskdeck.toml)
// 3. Project config file (taskdeck.toml or .taskdeck.toml in the working directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if userFile := findUserConfigFile(); userFile != "" {
		if err := loadConfigFile(cfg, userFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userFile, err)
		}
	}

	if projectFile := findProjectConfigFile(); projectFile != "" {
		if err := loadConfigFile(cfg, projectFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectFile, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.BaseURL = DefaultBaseURL
	cfg.DefaultDescription = DefaultDescription
	cfg.LogLevel = DefaultLogLevel
}

func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

func findUserConfigFile() string {
	path, err := appdir.ConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func findProjectConfigFile() string {
	for _, name := range []string{appdir.DefaultConfigFile, "." + appdir.DefaultConfigFile} {
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			return name
		}
	}
	return ""
}

// parseFlags registers the global flags on fs and applies parsed values over
// the config.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	baseURL := fs.String("base-url", cfg.BaseURL, "Todo service base URL")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level (trace|debug|info|warn|error)")
	logFile := fs.String("log-file", cfg.LogFile, "Log file path")
	sessionFile := fs.String("session-file", cfg.SessionFile, "Session file path")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.BaseURL = *baseURL
	cfg.LogLevel = *logLevel
	cfg.LogFile = *logFile
	cfg.SessionFile = *sessionFile
	return nil
}

// finalizeConfig expands paths and fills in app-directory defaults.
func finalizeConfig(cfg *Config) error {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	cfg.SessionFile = expandPath(cfg.SessionFile)
	cfg.LogFile = expandPath(cfg.LogFile)

	if cfg.SessionFile == "" {
		path, err := appdir.SessionPath()
		if err != nil {
			return fmt.Errorf("resolving session path: %w", err)
		}
		cfg.SessionFile = path
	}
	if cfg.LogFile == "" {
		path, err := appdir.LogPath()
		if err != nil {
			return fmt.Errorf("resolving log path: %w", err)
		}
		cfg.LogFile = path
	}
	return nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
