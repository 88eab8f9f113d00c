// Package config loads rainbowforge.yaml plus environment overrides,
// following the same load-defaults/read-file/apply-env/validate pipeline
// the teacher service uses for its own configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the rainbowforge engine.
type Config struct {
	Status    StatusServerConfig `yaml:"status_server"`
	Database  DatabaseConfig     `yaml:"database"`
	Storage   StorageConfig      `yaml:"storage"`
	Archive   ArchiveConfig      `yaml:"archive"`
	Generator GeneratorConfig    `yaml:"generator"`
	Lookup    LookupConfig       `yaml:"lookup"`
	Verifier  VerifierConfig     `yaml:"verifier"`
}

// StatusServerConfig holds the optional progress/status HTTP server settings.
type StatusServerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds the optional Cassandra-backed cluster crack ledger
// connection settings.
type DatabaseConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Hosts       []string `yaml:"hosts"`
	Keyspace    string   `yaml:"keyspace"`
	Consistency string   `yaml:"consistency"`
	LocalDC     string   `yaml:"local_dc"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
}

// StorageConfig holds the optional S3-backed table distribution settings.
type StorageConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// ArchiveConfig holds the optional Glacier cold-archival settings for
// tables that have been superseded or verified-and-shelved.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Vault   string `yaml:"vault"`
	Region  string `yaml:"region"`
}

// GeneratorConfig holds chain-generation pipeline tuning knobs.
type GeneratorConfig struct {
	MaxChainLenPerPass uint64        `yaml:"max_chain_len_per_pass"`
	LockTimeout        time.Duration `yaml:"lock_timeout"`
	OutputDir          string        `yaml:"output_dir"`
}

// LookupConfig holds lookup-pipeline tuning knobs.
type LookupConfig struct {
	TableDir          string `yaml:"table_dir"`
	PreloadQueueDepth int    `yaml:"preload_queue_depth"`
	PotFilePath       string `yaml:"pot_file_path"`
	PrecalcCacheDir   string `yaml:"precalc_cache_dir"`
}

// VerifierConfig holds the default random-chain sample sizes.
type VerifierConfig struct {
	RandomChainsNTLM9 int `yaml:"random_chains_ntlm9"`
	RandomChainsOther int `yaml:"random_chains_other"`
}

// Load reads CONFIG_PATH (default "rainbowforge.yaml") over a set of
// defaults, applies environment overrides, then validates the result.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getEnv("CONFIG_PATH", "rainbowforge.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", configPath, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns sensible defaults for a single-node run with every
// optional subsystem disabled.
func DefaultConfig() *Config {
	return &Config{
		Status: StatusServerConfig{
			Enabled:      false,
			Port:         ":8099",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:     false,
			Hosts:       []string{"localhost:9042"},
			Keyspace:    "rainbowforge",
			Consistency: "LOCAL_QUORUM",
		},
		Storage: StorageConfig{
			Enabled: false,
			Region:  "us-east-1",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Region:  "us-east-1",
		},
		Generator: GeneratorConfig{
			MaxChainLenPerPass: 450000,
			LockTimeout:        30 * time.Second,
			OutputDir:          ".",
		},
		Lookup: LookupConfig{
			TableDir:          ".",
			PreloadQueueDepth: 2,
			PotFilePath:       "rainbowforge.pot",
			PrecalcCacheDir:   os.TempDir(),
		},
		Verifier: VerifierConfig{
			RandomChainsNTLM9: 50,
			RandomChainsOther: 100,
		},
	}
}

// applyEnvOverrides applies environment variable overrides, the same way
// the teacher service layers env vars on top of the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STATUS_PORT"); v != "" {
		c.Status.Port = v
	}
	if v := os.Getenv("STATUS_SERVER_ENABLED"); v != "" {
		c.Status.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("CASSANDRA_HOSTS"); v != "" {
		c.Database.Hosts = []string{v}
	}
	if v := os.Getenv("CASSANDRA_KEYSPACE"); v != "" {
		c.Database.Keyspace = v
	}
	if v := os.Getenv("CASSANDRA_USERNAME"); v != "" {
		c.Database.Username = v
	}
	if v := os.Getenv("CASSANDRA_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("CASSANDRA_ENABLED"); v != "" {
		c.Database.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		c.Storage.Region = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.Storage.Endpoint = v
	}
	if v := os.Getenv("S3_TABLESTORE_ENABLED"); v != "" {
		c.Storage.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("GLACIER_VAULT"); v != "" {
		c.Archive.Vault = v
	}
	if v := os.Getenv("GLACIER_ARCHIVE_ENABLED"); v != "" {
		c.Archive.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("GENERATOR_OUTPUT_DIR"); v != "" {
		c.Generator.OutputDir = v
	}
	if v := os.Getenv("GENERATOR_MAX_CHAIN_LEN_PER_PASS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Generator.MaxChainLenPerPass = n
		}
	}

	if v := os.Getenv("LOOKUP_TABLE_DIR"); v != "" {
		c.Lookup.TableDir = v
	}
	if v := os.Getenv("LOOKUP_POTFILE_PATH"); v != "" {
		c.Lookup.PotFilePath = v
	}
}

// Validate checks if the configuration is structurally usable.
func (c *Config) Validate() error {
	if c.Generator.MaxChainLenPerPass == 0 {
		return fmt.Errorf("generator.max_chain_len_per_pass must be > 0")
	}
	if c.Database.Enabled && len(c.Database.Hosts) == 0 {
		return fmt.Errorf("database.hosts required when database.enabled is true")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket required when storage.enabled is true")
	}
	if c.Archive.Enabled && c.Archive.Vault == "" {
		return fmt.Errorf("archive.vault required when archive.enabled is true")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
