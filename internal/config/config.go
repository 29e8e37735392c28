// Package config handles configuration loading and defaults.
package config

// Default values.
const (
	DefaultBaseURL     = "http://localhost:8080"
	DefaultDescription = "Default description"
	DefaultLogLevel    = "info"
)

// Config holds the full configuration for taskdeck.
type Config struct {
	// BaseURL is the root URL of the todo service.
	BaseURL string `toml:"base_url"`

	// DefaultDescription is sent with every created task; the service
	// requires a description and the dashboard only asks for a title.
	DefaultDescription string `toml:"default_description"`

	// Paths. Empty values resolve to the ~/.taskdeck defaults.
	SessionFile string `toml:"session_file"`
	LogFile     string `toml:"log_file"`

	// Logging
	LogLevel string `toml:"log_level"`
}
