package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at path, applies environment overrides and
// validates the result. When the file does not exist and required is false the
// defaults are used.
func LoadConfig(path string, required bool) (*Config, error) {
	if path == "" && required {
		return nil, fmt.Errorf("config file path is required (use --config or -c)")
	}

	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns a configuration populated with every default value.
func Default() *Config {
	return &Config{
		Monitor: DefaultMonitorConfig,
		Source:  DefaultSourceConfig,
		Retry:   DefaultRetryConfig,
		Storage: DefaultStorageConfig,
		API:     DefaultAPIConfig,
		Logging: DefaultLoggingConfig,
	}
}

func (c *Config) UnmarshalYAML(unmarshall func(interface{}) error) error {
	type raw Config
	r := raw(*Default())

	if err := unmarshall(&r); err != nil {
		return err
	}

	*c = Config(r)

	return nil
}

func applyEnv(c *Config) error {
	var overrides EnvOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if overrides.PollIntervalSeconds != 0 {
		c.Monitor.PollingInterval = strconv.Itoa(overrides.PollIntervalSeconds) + "s"
	}
	if overrides.LogLevel != "" {
		c.Logging.Level = overrides.LogLevel
	}
	if overrides.InstancesFile != "" {
		c.Storage.InstancesFile = overrides.InstancesFile
	}
	if overrides.StateDir != "" {
		c.Storage.StateDir = overrides.StateDir
	}
	if overrides.LegacyDir != "" {
		c.Storage.LegacyDir = overrides.LegacyDir
	}

	return nil
}
