package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Gemini configuration
	GeminiAPIKey          string // fallback when no key has been saved through /settings
	GeminiBaseURL         string
	GeminiCandidates      []string // "version/model" pairs, tried in order
	GeminiAttemptTimeout  time.Duration
	GeminiTemperature     float64
	GeminiMaxOutputTokens int

	// Prompt configuration
	SecondarySources []string

	// Storage configuration
	StorageBackend   string // "memory", "file" or "azure"
	StorageDir       string
	StorageAccount   string
	StorageContainer string
	StoreLookups     bool

	// API key health check
	KeyCheckSchedule string // cron expression with seconds, empty disables

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Rate limiting for POST /rating
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultCandidates mirrors the model order the extension shipped with.
var DefaultCandidates = []string{
	"v1beta/gemini-2.0-flash",
	"v1/gemini-pro",
	"v1beta/gemini-1.5-pro",
	"v1beta/gemini-1.5-flash",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		GeminiAPIKey:          strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiCandidates:      getSliceEnv("GEMINI_CANDIDATES", DefaultCandidates),
		GeminiAttemptTimeout:  getDurationEnv("GEMINI_ATTEMPT_TIMEOUT", 30*time.Second),
		GeminiTemperature:     getFloatEnv("GEMINI_TEMPERATURE", 0.1),
		GeminiMaxOutputTokens: getIntEnv("GEMINI_MAX_OUTPUT_TOKENS", 4096),

		SecondarySources: getSliceEnv("SECONDARY_SOURCES", nil),

		StorageBackend:   getEnv("STORAGE_BACKEND", "memory"),
		StorageDir:       getEnv("STORAGE_DIR", "data"),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "hotel-ratings"),
		StoreLookups:     getBoolEnv("STORE_LOOKUPS", false),

		KeyCheckSchedule: getEnv("KEY_CHECK_SCHEDULE", "0 0 */6 * * *"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 5),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.GeminiCandidates) == 0 {
		return fmt.Errorf("GEMINI_CANDIDATES must list at least one version/model pair")
	}

	for _, candidate := range c.GeminiCandidates {
		if parts := strings.Split(candidate, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("invalid GEMINI_CANDIDATES entry %q, expected version/model", candidate)
		}
	}

	if c.GeminiAttemptTimeout <= 0 {
		return fmt.Errorf("GEMINI_ATTEMPT_TIMEOUT must be positive")
	}

	if c.GeminiMaxOutputTokens <= 0 {
		return fmt.Errorf("GEMINI_MAX_OUTPUT_TOKENS must be positive")
	}

	switch c.StorageBackend {
	case "memory":
	case "file":
		if c.StorageDir == "" {
			return fmt.Errorf("STORAGE_DIR is required when STORAGE_BACKEND is 'file'")
		}
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'memory', 'file' or 'azure'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// NotificationsEnabled reports whether any alert channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	return defaultValue
}
