package unit

import (
	"testing"

	"github.com/gamerjani006/anonchat/internal/server"
)

// TestNewConfigDefaults verifies the default configuration values.
func TestNewConfigDefaults(t *testing.T) {
	cfg := server.NewConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Expected default port :8080, got %q", cfg.Port)
	}
	if cfg.MaxMessageSize != 8192 {
		t.Errorf("Expected default max message size 8192, got %d", cfg.MaxMessageSize)
	}
	if len(cfg.AllowedOrigins) == 0 {
		t.Error("Expected a default allowed origin")
	}
}

// TestNewConfigFromEnv verifies that environment variables override the
// defaults.
func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")

	cfg := server.NewConfigFromEnv()

	if cfg.Port != ":9999" {
		t.Errorf("Expected port :9999, got %q", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 ||
		cfg.AllowedOrigins[0] != "http://a.example" ||
		cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("Unexpected allowed origins: %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 2048 {
		t.Errorf("Expected max message size 2048, got %d", cfg.MaxMessageSize)
	}
}

// TestNewConfigFromEnvInvalidValues verifies that malformed environment
// values fall back to the defaults instead of breaking startup.
func TestNewConfigFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")

	cfg := server.NewConfigFromEnv()

	if cfg.MaxMessageSize != 8192 {
		t.Errorf("Expected fallback max message size 8192, got %d", cfg.MaxMessageSize)
	}
}

// TestSetConfigNilResetsDefaults verifies that SetConfig(nil) restores the
// default configuration without panicking.
func TestSetConfigNilResetsDefaults(t *testing.T) {
	custom := server.NewConfig()
	custom.Port = ":17171"
	server.SetConfig(custom)

	server.SetConfig(nil)

	// The active config is package-internal; what matters here is that the
	// reset path is safe and subsequent clients pick up sane values again.
	client := server.NewClient(nil, server.NewHub(), "general", "127.0.0.1:1")
	if client == nil {
		t.Fatal("NewClient returned nil after config reset")
	}
}
