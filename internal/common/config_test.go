package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Storage.Namespace != "portgraph" {
		t.Errorf("Storage.Namespace default = %q, want %q", cfg.Storage.Namespace, "portgraph")
	}
	if cfg.Clients.FactSet.RateLimit != 5 {
		t.Errorf("FactSet.RateLimit default = %d, want 5", cfg.Clients.FactSet.RateLimit)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level default = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORTGRAPH_ENV", "production")
	t.Setenv("PORTGRAPH_LOG_LEVEL", "debug")
	t.Setenv("PORTGRAPH_STORAGE_ADDRESS", "ws://db:8000/rpc")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Environment != "production" {
		t.Errorf("Environment = %q after env override, want %q", cfg.Environment, "production")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q after env override, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Storage.Address != "ws://db:8000/rpc" {
		t.Errorf("Storage.Address = %q after env override, want %q", cfg.Storage.Address, "ws://db:8000/rpc")
	}
}

func TestConfig_FactSetCredentialsEnv(t *testing.T) {
	t.Setenv("FDS_USERNAME", "user@corp")
	t.Setenv("FDS_API_KEY", "key-from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.FactSet.Username != "user@corp" {
		t.Errorf("FactSet.Username = %q, want %q", cfg.Clients.FactSet.Username, "user@corp")
	}
	if cfg.Clients.FactSet.APIKey != "key-from-env" {
		t.Errorf("FactSet.APIKey = %q, want %q", cfg.Clients.FactSet.APIKey, "key-from-env")
	}
	if !cfg.HasFactSetCredentials() {
		t.Error("HasFactSetCredentials() = false, want true")
	}
}

func TestConfig_CredentialsFile(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "fds-api.key")
	content := "FDS_USERNAME=file-user\nFDS_API_KEY=file-key\n"
	if err := os.WriteFile(keyFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write credentials file: %v", err)
	}

	cfg := NewDefaultConfig()
	cfg.Clients.FactSet.CredentialsFile = keyFile
	loadCredentialsFile(cfg)
	applyEnvOverrides(cfg)

	if cfg.Clients.FactSet.Username != "file-user" {
		t.Errorf("FactSet.Username = %q, want %q", cfg.Clients.FactSet.Username, "file-user")
	}
	if cfg.Clients.FactSet.APIKey != "file-key" {
		t.Errorf("FactSet.APIKey = %q, want %q", cfg.Clients.FactSet.APIKey, "file-key")
	}
}

func TestConfig_LoadMergesFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "portgraph.toml")
	content := `
environment = "staging"

[storage]
database = "graph_test"

[clients.factset]
rate_limit = 9
max_retry_delay = "90s"
`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Environment != "staging" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "staging")
	}
	if cfg.Storage.Database != "graph_test" {
		t.Errorf("Storage.Database = %q, want %q", cfg.Storage.Database, "graph_test")
	}
	// Defaults survive a partial file.
	if cfg.Storage.Namespace != "portgraph" {
		t.Errorf("Storage.Namespace = %q, want default %q", cfg.Storage.Namespace, "portgraph")
	}
	if cfg.Clients.FactSet.GetMaxRetryDelay() != 90*time.Second {
		t.Errorf("GetMaxRetryDelay() = %v, want 90s", cfg.Clients.FactSet.GetMaxRetryDelay())
	}
}

func TestConfig_LoadMissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/portgraph.toml")
	if err != nil {
		t.Fatalf("LoadConfig with missing file: %v", err)
	}
	if cfg.Storage.Namespace != "portgraph" {
		t.Errorf("Storage.Namespace = %q, want default", cfg.Storage.Namespace)
	}
}

func TestFactSetConfig_GetTimeout_InvalidFallsBack(t *testing.T) {
	cfg := &FactSetConfig{Timeout: "not-a-duration"}
	if d := cfg.GetTimeout(); d != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s fallback", d)
	}
}

func TestFactSetConfig_GetMaxRetryDelay_Default(t *testing.T) {
	cfg := &FactSetConfig{}
	if d := cfg.GetMaxRetryDelay(); d != 5*time.Minute {
		t.Errorf("GetMaxRetryDelay() = %v, want 5m fallback", d)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{" Production ", true},
		{"development", false},
		{"", false},
	}
	for _, tt := range tests {
		cfg := &Config{Environment: tt.env}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() with %q = %v, want %v", tt.env, got, tt.want)
		}
	}
}
