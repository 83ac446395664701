package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultCandidates, cfg.GeminiCandidates)
	assert.Equal(t, 30*time.Second, cfg.GeminiAttemptTimeout)
	assert.Equal(t, 0.1, cfg.GeminiTemperature)
	assert.Equal(t, 4096, cfg.GeminiMaxOutputTokens)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Empty(t, cfg.SecondarySources)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "  env-key  ")
	t.Setenv("GEMINI_CANDIDATES", "v1beta/gemini-2.0-flash, ,v1/gemini-pro")
	t.Setenv("GEMINI_ATTEMPT_TIMEOUT", "45s")
	t.Setenv("SECONDARY_SOURCES", "Booking.com, TripAdvisor")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("STORAGE_DIR", "/var/lib/ratings")
	t.Setenv("TEAMS_WEBHOOK_URL", "https://example.webhook.office.com/x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
	assert.Equal(t, []string{"v1beta/gemini-2.0-flash", "v1/gemini-pro"}, cfg.GeminiCandidates)
	assert.Equal(t, 45*time.Second, cfg.GeminiAttemptTimeout)
	assert.Equal(t, []string{"Booking.com", "TripAdvisor"}, cfg.SecondarySources)
	assert.Equal(t, "/var/lib/ratings", cfg.StorageDir)
	assert.True(t, cfg.NotificationsEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "Bad candidate", env: map[string]string{"GEMINI_CANDIDATES": "gemini-pro"}, wantErr: "expected version/model"},
		{name: "Zero timeout", env: map[string]string{"GEMINI_ATTEMPT_TIMEOUT": "0s"}, wantErr: "GEMINI_ATTEMPT_TIMEOUT"},
		{name: "Azure without account", env: map[string]string{"STORAGE_BACKEND": "azure"}, wantErr: "AZURE_STORAGE_ACCOUNT"},
		{name: "Unknown backend", env: map[string]string{"STORAGE_BACKEND": "s3"}, wantErr: "STORAGE_BACKEND"},
		{name: "Email without SMTP", env: map[string]string{"NOTIFICATION_EMAIL": "ops@example.com"}, wantErr: "SMTP configuration"},
		{name: "Zero rate limit", env: map[string]string{"RATE_LIMIT_RPS": "0"}, wantErr: "RATE_LIMIT_RPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
