package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tuneprint/internal/deps"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAcoustID()
	if err := c.normalizeFingerprint(); err != nil {
		return err
	}
	if err := c.normalizeMatchLog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAcoustID() {
	c.AcoustID.APIKey = strings.TrimSpace(c.AcoustID.APIKey)
	if c.AcoustID.APIKey == "" {
		if value, ok := os.LookupEnv("ACOUSTID_API_KEY"); ok {
			c.AcoustID.APIKey = strings.TrimSpace(value)
		}
	}
	c.AcoustID.BaseURL = strings.TrimRight(strings.TrimSpace(c.AcoustID.BaseURL), "/")
	if c.AcoustID.BaseURL == "" {
		c.AcoustID.BaseURL = defaultAcoustIDBaseURL
	}
	if c.AcoustID.TimeoutSeconds <= 0 {
		c.AcoustID.TimeoutSeconds = defaultAcoustIDTimeout
	}
}

func (c *Config) normalizeFingerprint() error {
	c.Fingerprint.FpcalcPath = strings.TrimSpace(c.Fingerprint.FpcalcPath)
	if c.Fingerprint.FpcalcPath == "" {
		if found, ok := deps.FindExecutable(deps.FpcalcNames()...); ok {
			c.Fingerprint.FpcalcPath = found
		}
	} else if strings.ContainsRune(c.Fingerprint.FpcalcPath, os.PathSeparator) || strings.HasPrefix(c.Fingerprint.FpcalcPath, "~") {
		expanded, err := expandPath(c.Fingerprint.FpcalcPath)
		if err != nil {
			return fmt.Errorf("fingerprint.fpcalc_path: %w", err)
		}
		c.Fingerprint.FpcalcPath = expanded
	}
	c.Fingerprint.FFprobePath = strings.TrimSpace(c.Fingerprint.FFprobePath)
	if c.Fingerprint.MaxProcesses == 0 {
		c.Fingerprint.MaxProcesses = defaultMaxProcesses
	}
	if c.Fingerprint.MaxLengthSeconds == 0 {
		c.Fingerprint.MaxLengthSeconds = defaultMaxLengthSeconds
	}
	if c.Fingerprint.ProcessTimeout < 0 {
		c.Fingerprint.ProcessTimeout = 0
	}
	return nil
}

func (c *Config) normalizeMatchLog() error {
	if strings.TrimSpace(c.MatchLog.Path) == "" {
		c.MatchLog.Path = filepath.Join(c.Paths.StateDir, defaultMatchLogName)
		return nil
	}
	expanded, err := expandPath(c.MatchLog.Path)
	if err != nil {
		return fmt.Errorf("match_log.path: %w", err)
	}
	c.MatchLog.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
