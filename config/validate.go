package config

import (
	"fmt"
	"slices"
	"time"
)

type Validator interface {
	validateMonitorConfig() error
	validateRetryConfig() error
	validateStorageConfig() error
	validateLoggingConfig() error
}

func validateConfig(config Validator) error {
	if err := config.validateMonitorConfig(); err != nil {
		return err
	}

	if err := config.validateRetryConfig(); err != nil {
		return err
	}

	if err := config.validateStorageConfig(); err != nil {
		return err
	}

	if err := config.validateLoggingConfig(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateMonitorConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	if err := validateDuration("monitor.polling_interval", c.Monitor.PollingInterval, false); err != nil {
		return err
	}

	if err := validateDuration("monitor.startup_delay", c.Monitor.StartupDelay, true); err != nil {
		return err
	}

	if err := validateDuration("monitor.timeout", c.Monitor.Timeout, false); err != nil {
		return err
	}

	if c.Monitor.Workers <= 0 {
		return fmt.Errorf(fmtErrNotPositive, "monitor.workers")
	}

	if c.Source.URL == "" {
		return fmt.Errorf(fmtErrEmptyConfigOption, "source.url")
	}

	return nil
}

func (c *Config) validateRetryConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf(fmtErrNotPositive, "retry.max_attempts")
	}

	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("config field 'retry.multiplier' must be at least 1")
	}

	if err := validateDuration("retry.base_delay", c.Retry.BaseDelay, true); err != nil {
		return err
	}

	return validateDuration("retry.max_delay", c.Retry.MaxDelay, false)
}

func (c *Config) validateStorageConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	if c.Storage.InstancesFile == "" {
		return fmt.Errorf(fmtErrEmptyConfigOption, "storage.instances_file")
	}

	if c.Storage.StateDir == "" {
		return fmt.Errorf(fmtErrEmptyConfigOption, "storage.state_dir")
	}

	if c.API.Enabled && c.API.Address == "" {
		return fmt.Errorf(fmtErrEmptyConfigOption, "api.address")
	}

	if c.API.Enabled && c.API.KeyDir == "" {
		return fmt.Errorf(fmtErrEmptyConfigOption, "api.key_dir")
	}

	return nil
}

func (c *Config) validateLoggingConfig() error {
	if c == nil {
		return fmt.Errorf(fmtErrEmptyConfig, "config")
	}

	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("config field 'logging.level' must be one of %v", validLogLevels)
	}

	return nil
}

func validateDuration(field, value string, allowZero bool) error {
	if value == "" {
		return fmt.Errorf(fmtErrEmptyConfigOption, field)
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf(fmtErrInvalidDuration, field, err)
	}

	if d < 0 || (d == 0 && !allowZero) {
		return fmt.Errorf(fmtErrNotPositive, field)
	}

	return nil
}
