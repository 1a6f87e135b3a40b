package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAcoustID(); err != nil {
		return err
	}
	if err := c.validateFingerprint(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireAPIKey reports a descriptive error when no lookup API key is configured.
// Commands that only compute fingerprints do not need one.
func (c *Config) RequireAPIKey() error {
	if c.AcoustID.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("acoustid.api_key is required. Set ACOUSTID_API_KEY env var or edit %s (create with 'tuneprint config init')", defaultPath)
}

func (c *Config) validateAcoustID() error {
	parsed, err := url.Parse(c.AcoustID.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("acoustid.base_url must be an absolute URL, got %q", c.AcoustID.BaseURL)
	}
	if c.AcoustID.TimeoutSeconds <= 0 {
		return errors.New("acoustid.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateFingerprint() error {
	if c.Fingerprint.MaxProcesses < 1 {
		return errors.New("fingerprint.max_processes must be at least 1")
	}
	if c.Fingerprint.MaxLengthSeconds < 1 {
		return errors.New("fingerprint.max_length_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
