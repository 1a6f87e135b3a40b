package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// AcoustID contains configuration for the fingerprint lookup service.
type AcoustID struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// IgnoreExistingFingerprints skips fingerprints found in file tags and
	// always recomputes them with fpcalc.
	IgnoreExistingFingerprints bool `toml:"ignore_existing_fingerprints"`
}

// Fingerprint contains configuration for the fpcalc worker pool.
type Fingerprint struct {
	FpcalcPath       string `toml:"fpcalc_path"`
	FFprobePath      string `toml:"ffprobe_path"`
	MaxProcesses     int    `toml:"max_processes"`
	MaxLengthSeconds int    `toml:"max_length_seconds"`
	// ProcessTimeout caps the wall-clock runtime of one fpcalc process in
	// seconds. Zero disables the cap.
	ProcessTimeout int `toml:"process_timeout"`
}

// MatchLog contains configuration for the persistent match-details log.
type MatchLog struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tuneprint.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - AcoustID: lookup service credentials and fingerprint reuse policy
//   - Fingerprint: fpcalc/ffprobe binaries and worker pool limits
//   - MatchLog: SQLite log of raw lookup replies and scored candidates
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	AcoustID    AcoustID    `toml:"acoustid"`
	Fingerprint Fingerprint `toml:"fingerprint"`
	MatchLog    MatchLog    `toml:"match_log"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tuneprint.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FpcalcBinary returns the fpcalc executable, falling back to a PATH lookup at run time.
func (c *Config) FpcalcBinary() string {
	if bin := strings.TrimSpace(c.Fingerprint.FpcalcPath); bin != "" {
		return bin
	}
	return "fpcalc"
}

// FFprobeBinary returns the ffprobe executable used for duration and tag probing.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Fingerprint.FFprobePath); bin != "" {
		return bin
	}
	return "ffprobe"
}

// ProcessTimeout returns the per-process wall-clock cap, or zero when disabled.
func (c *Config) ProcessTimeout() time.Duration {
	if c.Fingerprint.ProcessTimeout <= 0 {
		return 0
	}
	return time.Duration(c.Fingerprint.ProcessTimeout) * time.Second
}

// LookupTimeout returns the HTTP timeout for lookup requests.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.AcoustID.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
