package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for crossquery-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Source
// credentials are part of the source catalog (see pkg/catalog) and may be
// overridden per source via environment variables there.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3470"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Transport selects how the MCP server is exposed: "stdio" for a
	// spawned-process client, "http" for the streamable HTTP transport.
	Transport string `yaml:"transport" env:"MCP_TRANSPORT" env-default:"stdio"`

	// SourcesPath is the source catalog file (names, keywords, credentials,
	// query templates per source).
	SourcesPath string `yaml:"sources_path" env:"SOURCES_PATH" env-default:"sources.yaml"`

	Router Router `yaml:"router"`
	Fanout Fanout `yaml:"fanout"`
}

// Router holds detection tunables.
type Router struct {
	// ConfidenceThreshold is the minimum confidence percentage required to
	// auto-route a question to a single source.
	ConfidenceThreshold int `yaml:"confidence_threshold" env:"ROUTER_CONFIDENCE_THRESHOLD" env-default:"50"`
}

// Fanout holds cross-source execution tunables.
type Fanout struct {
	// PerSourceTimeoutSeconds bounds each source's unit of work in a fan-out.
	PerSourceTimeoutSeconds int `yaml:"per_source_timeout_seconds" env:"FANOUT_PER_SOURCE_TIMEOUT_SECONDS" env-default:"5"`

	// RowCap is the default per-query row limit applied by the translator.
	RowCap int `yaml:"row_cap" env:"FANOUT_ROW_CAP" env-default:"50"`

	// MaxTablesPerSource bounds how many tables the total_records metric
	// counts per source.
	MaxTablesPerSource int `yaml:"max_tables_per_source" env:"FANOUT_MAX_TABLES_PER_SOURCE" env-default:"20"`
}

// PerSourceTimeout returns the fan-out unit timeout as a duration.
func (f Fanout) PerSourceTimeout() time.Duration {
	return time.Duration(f.PerSourceTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. A missing config.yaml is not an error; defaults and
// environment variables apply.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Transport != "stdio" && c.Transport != "http" {
		return fmt.Errorf("invalid transport %q: must be stdio or http", c.Transport)
	}
	if c.Router.ConfidenceThreshold < 0 || c.Router.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence_threshold must be in [0,100], got %d", c.Router.ConfidenceThreshold)
	}
	if c.Fanout.PerSourceTimeoutSeconds <= 0 {
		return fmt.Errorf("per_source_timeout_seconds must be positive, got %d", c.Fanout.PerSourceTimeoutSeconds)
	}
	if c.Fanout.RowCap <= 0 {
		return fmt.Errorf("row_cap must be positive, got %d", c.Fanout.RowCap)
	}
	return nil
}
