package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "rainbowforge.yaml")

	configContent := `
status_server:
  enabled: true
  port: ":9090"

database:
  enabled: true
  hosts:
    - "localhost"
  keyspace: "test_keyspace"
  consistency: "ONE"

storage:
  enabled: true
  bucket: "test-bucket"
  region: "us-east-1"

generator:
  max_chain_len_per_pass: 10000
  output_dir: "/tmp/tables"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	os.Setenv("CONFIG_PATH", configPath)
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Status.Port != ":9090" {
		t.Errorf("Status.Port = %s, want :9090", cfg.Status.Port)
	}
	if len(cfg.Database.Hosts) != 1 || cfg.Database.Hosts[0] != "localhost" {
		t.Errorf("Database.Hosts = %v, want [localhost]", cfg.Database.Hosts)
	}
	if cfg.Database.Keyspace != "test_keyspace" {
		t.Errorf("Database.Keyspace = %s, want test_keyspace", cfg.Database.Keyspace)
	}
	if cfg.Storage.Bucket != "test-bucket" {
		t.Errorf("Storage.Bucket = %s, want test-bucket", cfg.Storage.Bucket)
	}
	if cfg.Generator.MaxChainLenPerPass != 10000 {
		t.Errorf("Generator.MaxChainLenPerPass = %d, want 10000", cfg.Generator.MaxChainLenPerPass)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "rainbowforge.yaml")

	configContent := `
status_server:
  port: ":8099"

database:
  hosts:
    - "localhost"
  keyspace: "rainbowforge"

generator:
  max_chain_len_per_pass: 450000
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	os.Setenv("CONFIG_PATH", configPath)
	os.Setenv("STATUS_PORT", ":9999")
	os.Setenv("STATUS_SERVER_ENABLED", "true")
	defer func() {
		os.Unsetenv("CONFIG_PATH")
		os.Unsetenv("STATUS_PORT")
		os.Unsetenv("STATUS_SERVER_ENABLED")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Status.Port != ":9999" {
		t.Errorf("Status.Port = %s, want :9999 (from env)", cfg.Status.Port)
	}
	if !cfg.Status.Enabled {
		t.Error("Status.Enabled should be true (from env)")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generator.MaxChainLenPerPass != 450000 {
		t.Errorf("Generator.MaxChainLenPerPass = %d, want 450000", cfg.Generator.MaxChainLenPerPass)
	}
	if cfg.Database.Keyspace != "rainbowforge" {
		t.Errorf("Database.Keyspace = %s, want rainbowforge", cfg.Database.Keyspace)
	}
	if cfg.Verifier.RandomChainsNTLM9 != 50 {
		t.Errorf("Verifier.RandomChainsNTLM9 = %d, want 50", cfg.Verifier.RandomChainsNTLM9)
	}
	if cfg.Verifier.RandomChainsOther != 100 {
		t.Errorf("Verifier.RandomChainsOther = %d, want 100", cfg.Verifier.RandomChainsOther)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "zero max chain len per pass",
			modify: func(c *Config) {
				c.Generator.MaxChainLenPerPass = 0
			},
			wantErr: true,
		},
		{
			name: "database enabled with no hosts",
			modify: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Hosts = nil
			},
			wantErr: true,
		},
		{
			name: "storage enabled with no bucket",
			modify: func(c *Config) {
				c.Storage.Enabled = true
				c.Storage.Bucket = ""
			},
			wantErr: true,
		},
		{
			name: "archive enabled with no vault",
			modify: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Vault = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
