package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.APIBaseURL != "https://api.pokemontcg.io/v2" {
		t.Errorf("Expected default API base URL, got %q", cfg.APIBaseURL)
	}
	if cfg.ImageSize != "small" {
		t.Errorf("Expected image size 'small', got %q", cfg.ImageSize)
	}
	if cfg.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Workers)
	}
	if cfg.PageSize != 100 {
		t.Errorf("Expected page size 100, got %d", cfg.PageSize)
	}
	if cfg.MinFileSize != 10_000 {
		t.Errorf("Expected min file size 10000, got %d", cfg.MinFileSize)
	}
	if cfg.Retry.MaxAttempts != 6 {
		t.Errorf("Expected 6 retry attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if len(cfg.SetIDs) != 1 || cfg.SetIDs[0] != "base1" {
		t.Errorf("Expected default set list [base1], got %v", cfg.SetIDs)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent, got %q", cfg.UserAgent)
	}
	if cfg.APIKey != "" {
		t.Errorf("Expected empty API key, got %q", cfg.APIKey)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(APIKeyEnv, "  secret-key  ")
	t.Setenv("APP_IMAGE_SIZE", "large")
	t.Setenv("APP_WORKERS", "3")
	t.Setenv("APP_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("APP_SET_IDS", "base1,jungle")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.APIKey != "secret-key" {
		t.Errorf("Expected trimmed API key from %s, got %q", APIKeyEnv, cfg.APIKey)
	}
	if cfg.ImageSize != "large" {
		t.Errorf("Expected image size 'large', got %q", cfg.ImageSize)
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Workers)
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Errorf("Expected 2 retry attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if len(cfg.SetIDs) != 2 || cfg.SetIDs[0] != "base1" || cfg.SetIDs[1] != "jungle" {
		t.Errorf("Expected set list [base1 jungle], got %v", cfg.SetIDs)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{name: "empty uses default", value: "", def: time.Second, want: time.Second},
		{name: "valid", value: "250ms", def: time.Second, want: 250 * time.Millisecond},
		{name: "invalid uses default", value: "soon", def: 2 * time.Second, want: 2 * time.Second},
		{name: "negative uses default", value: "-5s", def: 3 * time.Second, want: 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDuration("test", tt.value, tt.def); got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetUserAgent(t *testing.T) {
	if ua := GetUserAgent(); ua == "" {
		t.Error("Expected a non-empty user agent")
	}
}
