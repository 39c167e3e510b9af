// Package config provides shared configuration types for bridgeql. It is
// decoupled from CLI concerns so other tools embedding the pipeline can load
// the same project configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/bridgeql/bridgeql/pkg/engine"
	"github.com/bridgeql/bridgeql/pkg/infer"
)

// TargetConfig holds execution-engine target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, sqlite

	// Database is the file path; empty means in-memory.
	Database string `koanf:"database"`

	// Schema is the default schema for catalog lookups.
	Schema string `koanf:"schema"`

	// Options are backend-specific connection options.
	Options map[string]string `koanf:"options"`
}

// knownTargets are the backends with an engine implementation.
var knownTargets = []string{"duckdb", "sqlite"}

// Validate checks if the target configuration is valid.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	for _, known := range knownTargets {
		if strings.EqualFold(t.Type, known) {
			return nil
		}
	}
	return fmt.Errorf("unknown target type %q (available: %s)",
		t.Type, strings.Join(knownTargets, ", "))
}

// EngineConfig converts the target to the engine connection settings.
func (t *TargetConfig) EngineConfig() engine.Config {
	return engine.Config{Path: t.Database, Options: t.Options}
}

// Config is the full project configuration.
type Config struct {
	// Dialect is the default source dialect assumed for incoming queries.
	// Empty means detect per query.
	Dialect string `koanf:"dialect"`

	Target *TargetConfig `koanf:"target"`
	Infer  infer.Config  `koanf:"infer"`
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.Target == nil {
		return fmt.Errorf("target configuration is required")
	}
	if err := c.Target.Validate(); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if c.Infer.BaseThreshold < 0 || c.Infer.BaseThreshold > 1 {
		return fmt.Errorf("infer: base_threshold must be in [0, 1]")
	}
	if c.Infer.LoweredThreshold < 0 || c.Infer.LoweredThreshold > 1 {
		return fmt.Errorf("infer: lowered_threshold must be in [0, 1]")
	}
	return nil
}
