package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points HOME at a temp dir so tests never read the real user config.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"TASKDECK_BASE_URL",
		"TASKDECK_DESCRIPTION",
		"TASKDECK_SESSION_FILE",
		"TASKDECK_LOG_FILE",
		"TASKDECK_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return home
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.DefaultDescription != DefaultDescription {
		t.Errorf("DefaultDescription = %q, want %q", cfg.DefaultDescription, DefaultDescription)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	wantSession := filepath.Join(home, ".taskdeck", "session.json")
	if cfg.SessionFile != wantSession {
		t.Errorf("SessionFile = %q, want %q", cfg.SessionFile, wantSession)
	}
	wantLog := filepath.Join(home, ".taskdeck", "taskdeck.log")
	if cfg.LogFile != wantLog {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoadUserConfigFile(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".taskdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "base_url = \"https://todos.example.com\"\nlog_level = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, "taskdeck.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "https://todos.example.com" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "https://todos.example.com")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.DefaultDescription != DefaultDescription {
		t.Errorf("DefaultDescription = %q, want default preserved", cfg.DefaultDescription)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".taskdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "taskdeck.toml"), []byte("base_url = \"https://from-file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKDECK_BASE_URL", "https://from-env")
	t.Setenv("TASKDECK_DESCRIPTION", "via env")

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "https://from-env" {
		t.Errorf("BaseURL = %q, want env value", cfg.BaseURL)
	}
	if cfg.DefaultDescription != "via env" {
		t.Errorf("DefaultDescription = %q, want env value", cfg.DefaultDescription)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TASKDECK_BASE_URL", "https://from-env")

	cfg, err := Load(newFlagSet(), []string{"-base-url", "https://from-flag", "-log-level", "trace"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "https://from-flag" {
		t.Errorf("BaseURL = %q, want flag value", cfg.BaseURL)
	}
	if cfg.LogLevel != "trace" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "trace")
	}
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	isolate(t)

	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:8080/", "http://localhost:8080"},
		{"http://localhost:8080///", "http://localhost:8080"},
		{"http://localhost:8080", "http://localhost:8080"},
	}

	for _, tt := range tests {
		cfg, err := Load(newFlagSet(), []string{"-base-url", tt.in})
		if err != nil {
			t.Fatalf("Load(%q) error = %v", tt.in, err)
		}
		if cfg.BaseURL != tt.want {
			t.Errorf("BaseURL for %q = %q, want %q", tt.in, cfg.BaseURL, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	tests := []struct {
		in   string
		want string
	}{
		{"~/custom/session.json", filepath.Join(home, "custom", "session.json")},
		{"~", home},
		{"/absolute/path.json", "/absolute/path.json"},
		{"relative/path.json", "relative/path.json"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadExpandsSessionFile(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(newFlagSet(), []string{"-session-file", "~/elsewhere/session.json"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := filepath.Join(home, "elsewhere", "session.json")
	if cfg.SessionFile != want {
		t.Errorf("SessionFile = %q, want %q", cfg.SessionFile, want)
	}
	if strings.HasPrefix(cfg.SessionFile, "~") {
		t.Errorf("SessionFile %q still carries ~", cfg.SessionFile)
	}
}
