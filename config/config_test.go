package config

import (
	"os"
	"reflect"
	"testing"
)

var configEnvVars = []string{
	"PORT",
	"STORE_DB_PATH",
	"STORE_BACKUP_PATH",
	"STATS_DB_PATH",
	"REDIS_URL",
	"SESSION_TTL_IN_HOURS",
	"RATE_LIMIT_PER_SECOND",
	"RATE_LIMIT_BURST_LIMIT",
	"SYNC_RATE_LIMIT_PER_SECOND",
	"SYNC_RATE_LIMIT_BURST_LIMIT",
	"API_KEY",
	"ALLOWED_ORIGINS",
	"CIRCUIT_BREAKER_THRESHOLD",
	"CIRCUIT_BREAKER_COOLDOWN_SECS",
	"FF_STORE_COMPRESSION",
	"FF_API_KEY_REQUIRED",
}

// clearEnv unsets every config variable and restores them after the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, value) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestConfigDefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port default", cfg.Configuration.Port, "8080"},
		{"StoreDBPath default", cfg.Configuration.StoreDBPath, "./data/store.db"},
		{"StoreBackupPath default", cfg.Configuration.StoreBackupPath, "./data/backups"},
		{"StatsDBPath default", cfg.Configuration.StatsDBPath, "./data/stats.db"},
		{"RedisURL default", cfg.Configuration.RedisURL, "redis://localhost:6379/0"},
		{"SessionTTLInHours default", cfg.Configuration.SessionTTLInHours, 72},
		{"RateLimitPerSecond default", cfg.Configuration.RateLimitPerSecond, 20},
		{"RateLimitBurstLimit default", cfg.Configuration.RateLimitBurstLimit, 40},
		{"SyncRateLimitPerSecond default", cfg.Configuration.SyncRateLimitPerSecond, 60},
		{"SyncRateLimitBurstLimit default", cfg.Configuration.SyncRateLimitBurstLimit, 120},
		{"CircuitBreakerThreshold default", cfg.Configuration.CircuitBreakerThreshold, 5},
		{"CircuitBreakerCooldownSecs default", cfg.Configuration.CircuitBreakerCooldownSecs, 30},
		{"StoreCompression default", cfg.FeatureFlags.StoreCompression, false},
		{"APIKeyRequired default", cfg.FeatureFlags.APIKeyRequired, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL_IN_HOURS", "12")
	t.Setenv("FF_STORE_COMPRESSION", "true")
	t.Setenv("FF_API_KEY_REQUIRED", "false")

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Configuration.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Configuration.Port)
	}
	if cfg.Configuration.SessionTTLInHours != 12 {
		t.Errorf("Expected session TTL 12, got %d", cfg.Configuration.SessionTTLInHours)
	}
	if !cfg.FeatureFlags.StoreCompression {
		t.Error("Expected store compression to be enabled")
	}
	if cfg.FeatureFlags.APIKeyRequired {
		t.Error("Expected API key requirement to be disabled")
	}
}

func TestConfigInvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL_IN_HOURS", "a day")

	if _, err := load(); err == nil {
		t.Error("Expected error for non-numeric SESSION_TTL_IN_HOURS")
	}
}

func TestOrigins(t *testing.T) {
	tests := []struct {
		raw      string
		expected []string
	}{
		{"*", []string{"*"}},
		{"", []string{"*"}},
		{"https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
		{" , https://a.example ,", []string{"https://a.example"}},
	}

	for _, tt := range tests {
		var cfg Config
		cfg.Configuration.AllowedOrigins = tt.raw
		if got := cfg.Origins(); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Origins(%q): expected %v, got %v", tt.raw, tt.expected, got)
		}
	}
}

func TestGet(t *testing.T) {
	cfg := Get()
	if cfg.Configuration.Port == "" && cfg.Configuration.StoreDBPath == "" {
		t.Error("Expected Get to return the loaded configuration")
	}
}
