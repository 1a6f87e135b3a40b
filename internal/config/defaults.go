package config

const (
	defaultConfigPath       = "~/.config/tuneprint/config.toml"
	defaultStateDir         = "~/.local/share/tuneprint"
	defaultLogDir           = "~/.local/share/tuneprint/logs"
	defaultMatchLogName     = "matches.db"
	defaultAcoustIDBaseURL  = "https://api.acoustid.org/v2"
	defaultAcoustIDTimeout  = 10
	defaultMaxProcesses     = 2
	defaultMaxLengthSeconds = 120
	defaultProcessTimeout   = 300
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		AcoustID: AcoustID{
			BaseURL:        defaultAcoustIDBaseURL,
			TimeoutSeconds: defaultAcoustIDTimeout,
		},
		Fingerprint: Fingerprint{
			MaxProcesses:     defaultMaxProcesses,
			MaxLengthSeconds: defaultMaxLengthSeconds,
			ProcessTimeout:   defaultProcessTimeout,
		},
		MatchLog: MatchLog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
