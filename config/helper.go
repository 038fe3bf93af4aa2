package config

import (
	"path/filepath"
	"time"

	"github.com/Crowley723/mattermost-update-notifier/retry"
)

// SigningKeyPath returns the path of the private key used to sign API tokens.
func (c *APIConfig) SigningKeyPath(dir string) string {
	if dir == "" {
		return filepath.Join(c.KeyDir, ConstSigningKeyName)
	}
	return filepath.Join(dir, ConstSigningKeyName)
}

// SigningPublicKeyPath returns the path of the public key used to verify API tokens.
func (c *APIConfig) SigningPublicKeyPath(dir string) string {
	if dir == "" {
		return filepath.Join(c.KeyDir, ConstSigningPublicKeyName)
	}
	return filepath.Join(dir, ConstSigningPublicKeyName)
}

// The duration accessors below are only safe after validation.

func (c *MonitorConfig) PollingIntervalDuration() time.Duration {
	return mustDuration(c.PollingInterval)
}

func (c *MonitorConfig) StartupDelayDuration() time.Duration {
	return mustDuration(c.StartupDelay)
}

func (c *MonitorConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// Policy converts the retry section into the policy consumed by network clients.
func (c *RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   mustDuration(c.BaseDelay),
		Multiplier:  c.Multiplier,
		MaxDelay:    mustDuration(c.MaxDelay),
	}
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
