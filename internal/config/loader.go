package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "bridgeql.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "bridgeql.yml"

// EnvPrefix is the prefix for environment variable overrides. Double
// underscore nests, single underscore stays inside a key, e.g.
// BRIDGEQL_TARGET__DATABASE=warehouse.db or BRIDGEQL_INFER__SAMPLE_LIMIT=50.
const EnvPrefix = "BRIDGEQL_"

// Load builds a Config by layering defaults, the config file at path (if
// non-empty), and BRIDGEQL_* environment variables. Later layers win key by
// key.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadFromDir loads a Config from the given directory. It looks for
// bridgeql.yaml or bridgeql.yml; when neither exists the defaults-plus-env
// layering still applies.
func LoadFromDir(dir string) (*Config, error) {
	return Load(findConfigFile(dir))
}

// findConfigFile finds the config file in the given directory. Returns empty
// string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}
