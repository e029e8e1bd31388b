// Package config loads configuration from environment variables with
// validated defaults. The CLI and the dev server read separate sections.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Client holds the configuration for the reperto CLI.
type Client struct {
	APIURL            string
	Timeout           time.Duration
	StateDir          string // Credential and log storage
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
}

// Server holds the configuration for the repertod dev server.
type Server struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogRetentionWeeks int
	MaxLogFileSize    int64
	MaxRequestBody    int64 // Maximum request body size in bytes
}

// LogDir is where the client writes its log files, under the state dir.
func (c *Client) LogDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// LoadClient loads and validates the CLI configuration.
func LoadClient() (*Client, error) {
	cfg := &Client{
		APIURL:            getEnvWithDefault("REPERTO_API_URL", "http://127.0.0.1:8000"),
		Timeout:           time.Duration(getIntEnvWithDefault("REPERTO_TIMEOUT_SECONDS", 10)) * time.Second,
		StateDir:          getEnvWithDefault("REPERTO_STATE_DIR", defaultStateDir()),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
	}

	if err := validateURL(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("invalid REPERTO_API_URL: %w", err)
	}
	if err := validateTimeout(cfg.Timeout); err != nil {
		return nil, fmt.Errorf("invalid REPERTO_TIMEOUT_SECONDS: %w", err)
	}
	if cfg.StateDir == "" {
		return nil, fmt.Errorf("invalid REPERTO_STATE_DIR: cannot be empty")
	}
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return nil, fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}
	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return nil, fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	return cfg, nil
}

// LoadServer loads and validates the dev server configuration.
func LoadServer() (*Server, error) {
	cfg := &Server{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               getEnvWithDefault("ENV", "dev"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600),
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
	}

	if err := validatePort(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if err := validateAddress(cfg.Address); err != nil {
		return nil, fmt.Errorf("invalid ADDRESS: %w", err)
	}
	if err := validateEnv(cfg.Env); err != nil {
		return nil, fmt.Errorf("invalid ENV: %w", err)
	}
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return nil, fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}
	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return nil, fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}
	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return nil, fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	return cfg, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reperto"
	}
	return filepath.Join(home, ".reperto")
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("cannot be empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return fmt.Errorf("must start with http:// or https://, got: %s", raw)
	}
	return nil
}

func validateTimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive, got: %s", d)
	}
	if d > 5*time.Minute {
		return fmt.Errorf("is too large (max 5 minutes), got: %s", d)
	}
	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}
	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}
	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, the dev server only binds private ranges", address)
	}
	return nil
}

func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)
	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}
	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)
	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}
	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}
	if size > 100*1024*1024 {
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}
	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}
	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}
	return nil
}

func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}
	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
