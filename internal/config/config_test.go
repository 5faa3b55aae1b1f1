package config_test

import (
	"testing"
	"time"

	"github.com/dom/storyverse/internal/config"
	"github.com/dom/storyverse/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Storyverse API", cfg.AppName)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, int32(5), cfg.CheckpointPoolSize)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Argon2MemoryAtCeiling(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("ARGON2_MEMORY_KIB", "1048576")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(security.MaxArgon2MemoryKiB), cfg.Argon2MemoryKiB)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "short secret",
			env:  map[string]string{"SECRET_KEY": "short"},
		},
		{
			name: "refresh shorter than access",
			env: map[string]string{
				"SECRET_KEY":        testSecret,
				"ACCESS_TOKEN_TTL":  "2h",
				"REFRESH_TOKEN_TTL": "1h",
			},
		},
		{
			name: "argon2 memory above the verifiable ceiling",
			env: map[string]string{
				"SECRET_KEY":        testSecret,
				"ARGON2_MEMORY_KIB": "1048577",
			},
		},
		{
			name: "argon2 memory zero",
			env: map[string]string{
				"SECRET_KEY":        testSecret,
				"ARGON2_MEMORY_KIB": "0",
			},
		},
		{
			name: "prefix without slash",
			env: map[string]string{
				"SECRET_KEY": testSecret,
				"API_PREFIX": "api",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
