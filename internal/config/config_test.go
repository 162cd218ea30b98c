package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Set some test environment variables
	if err := os.Setenv("SERVER_PORT", "9090"); err != nil {
		t.Fatalf("Failed to set SERVER_PORT: %v", err)
	}
	if err := os.Setenv("POSTGRES_HOST", "testhost"); err != nil {
		t.Fatalf("Failed to set POSTGRES_HOST: %v", err)
	}
	if err := os.Setenv("CACHE_TTL", "30s"); err != nil {
		t.Fatalf("Failed to set CACHE_TTL: %v", err)
	}
	if err := os.Setenv("OPENAI_MODEL", "gpt-4o"); err != nil {
		t.Fatalf("Failed to set OPENAI_MODEL: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("POSTGRES_HOST")
		_ = os.Unsetenv("CACHE_TTL")
		_ = os.Unsetenv("OPENAI_MODEL")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}

	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host = %v, want %v", cfg.Database.Postgres.Host, "testhost")
	}

	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, 30*time.Second)
	}

	if cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("Oracle.Model = %v, want %v", cfg.Oracle.Model, "gpt-4o")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Database.ClickHouse.Port != "9000" {
		t.Errorf("ClickHouse.Port = %v, want %v", cfg.Database.ClickHouse.Port, "9000")
	}

	if cfg.Oracle.Timeout != 60*time.Second {
		t.Errorf("Oracle.Timeout = %v, want %v", cfg.Oracle.Timeout, 60*time.Second)
	}

	if cfg.RateLimit.FreeTier != 10 {
		t.Errorf("RateLimit.FreeTier = %v, want %v", cfg.RateLimit.FreeTier, 10)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_KEY_UNSET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("Failed to set %s: %v", tt.key, err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	if err := os.Setenv("TEST_INT", "42"); err != nil {
		t.Fatalf("Failed to set TEST_INT: %v", err)
	}
	if err := os.Setenv("TEST_INT_BAD", "not-a-number"); err != nil {
		t.Fatalf("Failed to set TEST_INT_BAD: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("TEST_INT")
		_ = os.Unsetenv("TEST_INT_BAD")
	}()

	if got := getEnvAsInt("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvAsInt() = %v, want %v", got, 42)
	}

	if got := getEnvAsInt("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("getEnvAsInt() with invalid value = %v, want default %v", got, 7)
	}

	if got := getEnvAsInt("TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("getEnvAsInt() with missing value = %v, want default %v", got, 7)
	}
}
