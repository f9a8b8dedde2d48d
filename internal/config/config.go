// Package config loads CLI configuration from PROBECARTO_* environment
// variables and probe geometries from YAML or TOML files.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "PROBECARTO"

// Config holds all CLI configuration.
type Config struct {
	Log       LogConfig      `envconfig:"LOG"`
	Store     StoreConfig    `envconfig:"STORE"`
	Resources ResourceConfig `envconfig:"LIMIT"`
	Toolkit   ToolkitConfig  `envconfig:"TOOLKIT"`
	Metrics   MetricsConfig  `envconfig:"METRICS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
}

// StoreConfig selects and configures the blob store.
type StoreConfig struct {
	// Kind is one of local, memory, s3 or minio.
	Kind        string `envconfig:"KIND" default:"local"`
	Root        string `envconfig:"ROOT" default:"."`
	Bucket      string `envconfig:"BUCKET"`
	Prefix      string `envconfig:"PREFIX"`
	Region      string `envconfig:"REGION"`
	Endpoint    string `envconfig:"ENDPOINT"`
	AccessKey   string `envconfig:"ACCESS_KEY"`
	SecretKey   string `envconfig:"SECRET_KEY"`
	Secure      bool   `envconfig:"SECURE" default:"true"`
	Compression string `envconfig:"COMPRESSION" default:"none"`

	// CatalogTable enables the DynamoDB revision catalog for s3 stores.
	CatalogTable    string `envconfig:"CATALOG_TABLE"`
	CatalogEndpoint string `envconfig:"CATALOG_ENDPOINT"`
}

// ResourceConfig bounds batch persistence.
type ResourceConfig struct {
	Workers            int64 `envconfig:"WORKERS" default:"4"`
	MemoryLimitBytes   int64 `envconfig:"MEMORY" default:"0"`
	IOLimitBytesPerSec int64 `envconfig:"IO" default:"0"`
}

// ToolkitConfig holds algorithm defaults.
type ToolkitConfig struct {
	Strategy     string `envconfig:"STRATEGY" default:"mask"`
	Connectivity int    `envconfig:"CONNECTIVITY" default:"8"`
}

// MetricsConfig configures the Prometheus textfile dump.
type MetricsConfig struct {
	File string `envconfig:"FILE"`
}

// Load reads configuration from PROBECARTO_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info", Format: "text"},
		Store:     StoreConfig{Kind: "local", Root: ".", Secure: true, Compression: "none"},
		Resources: ResourceConfig{Workers: 4},
		Toolkit:   ToolkitConfig{Strategy: "mask", Connectivity: 8},
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Kind) {
	case "local", "memory":
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("config: %s store needs %s_STORE_BUCKET", c.Store.Kind, Prefix)
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store.Kind)
	}
	switch c.Toolkit.Connectivity {
	case 4, 8:
	default:
		return fmt.Errorf("config: connectivity must be 4 or 8, got %d", c.Toolkit.Connectivity)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Usage returns the table of recognized environment variables.
func Usage() string {
	var sb strings.Builder
	_ = envconfig.Usagef(Prefix, &Config{}, &sb, "{{range .}}{{usage_key .}}\t{{usage_default .}}\n{{end}}")
	return sb.String()
}
