// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultMaxUploadBytes caps document uploads at 16MB.
const DefaultMaxUploadBytes = 16 << 20

// ServerConfig holds everything the HTTP service needs to start.
type ServerConfig struct {
	Port           int
	DatabaseURL    string
	GeminiAPIKey   string
	StorageDir     string
	StorageBaseURL string
	WebhookSecret  string
	MaxUploadBytes int64
}

// NewServerConfig reads the service configuration from environment
// variables. DATABASE_URL, GEMINI_API_KEY and BILLING_WEBHOOK_SECRET are
// required; the rest have defaults.
func NewServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port:           8080,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		StorageDir:     os.Getenv("STORAGE_DIR"),
		StorageBaseURL: os.Getenv("STORAGE_BASE_URL"),
		WebhookSecret:  os.Getenv("BILLING_WEBHOOK_SECRET"),
		MaxUploadBytes: DefaultMaxUploadBytes,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	if maxStr := os.Getenv("MAX_UPLOAD_BYTES"); maxStr != "" {
		maxBytes, err := strconv.ParseInt(maxStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %v", err)
		}
		cfg.MaxUploadBytes = maxBytes
	}

	if cfg.StorageDir == "" {
		cfg.StorageDir = "./data/blobs"
	}
	if cfg.StorageBaseURL == "" {
		cfg.StorageBaseURL = fmt.Sprintf("http://localhost:%d/files", cfg.Port)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize validates the configuration.
func (c *ServerConfig) normalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required but not set")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("BILLING_WEBHOOK_SECRET is required but not set")
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got: %d", c.MaxUploadBytes)
	}
	return nil
}
