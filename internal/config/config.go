// Package config provides configuration for the client gateway.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the gateway process.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Backend REST API
	BackendURL     string
	BackendTimeout time.Duration

	// Realtime (NATS) settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings (backend-issued session tokens)
	JWTSecret string

	// Local durable storage
	DataDir string

	// Payment return routes (registered with the checkout session)
	SuccessURL string
	CancelURL  string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// File mirrors the subset of Config persisted in the optional TOML config
// file (~/.devlink/config.toml). Environment variables override file values.
type File struct {
	Server struct {
		Port    string `toml:"port"`
		DataDir string `toml:"data_dir"`
	} `toml:"server"`
	Backend struct {
		URL string `toml:"url"`
	} `toml:"backend"`
	Realtime struct {
		URL   string `toml:"url"`
		Token string `toml:"token"`
	} `toml:"realtime"`
}

// Load reads configuration from the optional TOML file and then from
// environment variables, environment taking precedence.
func Load(path string) *Config {
	var file File
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".devlink", "config.toml")
		}
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// A malformed file is ignored; env defaults still apply.
			_ = toml.Unmarshal(data, &file)
		}
	}

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", fallback(file.Server.Port, "7315")),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Backend
		BackendURL:     getEnv("BACKEND_URL", fallback(file.Backend.URL, "https://api.devlink.example")),
		BackendTimeout: getDurationEnv("BACKEND_TIMEOUT", 30*time.Second),

		// Realtime
		NATSURL:      getEnv("NATS_URL", fallback(file.Realtime.URL, "nats://localhost:4222")),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", file.Realtime.Token),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Storage
		DataDir: getEnv("DATA_DIR", fallback(file.Server.DataDir, defaultDataDir())),

		// Payment return routes
		SuccessURL: getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:7315/api/v1/checkout/success"),
		CancelURL:  getEnv("CHECKOUT_CANCEL_URL", "http://localhost:7315/api/v1/checkout/cancel"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".devlink")
}

func fallback(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
