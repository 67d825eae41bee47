package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.toml"))

	if cfg.ServerPort != "7315" {
		t.Errorf("port = %q", cfg.ServerPort)
	}
	if cfg.BackendTimeout != 30*time.Second {
		t.Errorf("backend timeout = %v", cfg.BackendTimeout)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("nats url = %q", cfg.NATSURL)
	}
	if cfg.RateLimitRequests != 120 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.TracingEnabled {
		t.Error("tracing enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
port = "9000"
data_dir = "/tmp/devlink-test"

[backend]
url = "https://staging.devlink.example"

[realtime]
url = "nats://push.devlink.example:4222"
token = "file-token"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Load(path)
	if cfg.ServerPort != "9000" {
		t.Errorf("port = %q", cfg.ServerPort)
	}
	if cfg.DataDir != "/tmp/devlink-test" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.BackendURL != "https://staging.devlink.example" {
		t.Errorf("backend url = %q", cfg.BackendURL)
	}
	if cfg.NATSURL != "nats://push.devlink.example:4222" || cfg.NATSToken != "file-token" {
		t.Errorf("realtime = %q / %q", cfg.NATSURL, cfg.NATSToken)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = \"9000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load(path)
	if cfg.ServerPort != "9100" {
		t.Errorf("port = %q, env must win over file", cfg.ServerPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("rate limit window = %v", cfg.RateLimitWindow)
	}
	if !cfg.TracingEnabled {
		t.Error("tracing flag not read from env")
	}
}

func TestMalformedFileIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("{{not toml"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Load(path)
	if cfg.ServerPort != "7315" {
		t.Errorf("port = %q, want default after malformed file", cfg.ServerPort)
	}
}
