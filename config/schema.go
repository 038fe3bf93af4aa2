package config

type Config struct {
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
	Source  SourceConfig  `yaml:"source" json:"source"`
	Retry   RetryConfig   `yaml:"retry" json:"retry"`
	Notify  NotifyConfig  `yaml:"notify" json:"notify"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	API     APIConfig     `yaml:"api" json:"api"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

type MonitorConfig struct {
	PollingInterval string `yaml:"polling_interval" json:"polling_interval"`
	StartupDelay    string `yaml:"startup_delay" json:"startup_delay"`
	Timeout         string `yaml:"timeout" json:"timeout"`
	Workers         int    `yaml:"workers" json:"workers"`
}

var DefaultMonitorConfig = MonitorConfig{
	PollingInterval: `1800s`,
	StartupDelay:    `10s`,
	Timeout:         `15s`,
	Workers:         4,
}

type SourceConfig struct {
	URL             string `yaml:"url" json:"url"`
	ReleaseNotesURL string `yaml:"release_notes_url" json:"release_notes_url"`
	UserAgent       string `yaml:"user_agent" json:"user_agent"`
}

var DefaultSourceConfig = SourceConfig{
	URL:             "https://releases.mattermost.com/",
	ReleaseNotesURL: "https://docs.mattermost.com/install/self-managed-changelog.html",
	UserAgent:       "mattermost-update-notifier",
}

type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   string  `yaml:"base_delay" json:"base_delay"`
	Multiplier  float64 `yaml:"multiplier" json:"multiplier"`
	MaxDelay    string  `yaml:"max_delay" json:"max_delay"`
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   `2s`,
	Multiplier:  2,
	MaxDelay:    `1m`,
}

type NotifyConfig struct {
	Username string `yaml:"username" json:"username"`
	IconURL  string `yaml:"icon_url" json:"icon_url"`
}

type StorageConfig struct {
	InstancesFile string `yaml:"instances_file" json:"instances_file"`
	StateDir      string `yaml:"state_dir" json:"state_dir"`

	// LegacyDir holds lastversion<N>.txt files from older releases. Empty
	// disables the migration.
	LegacyDir string `yaml:"legacy_dir" json:"legacy_dir"`
}

var DefaultStorageConfig = StorageConfig{
	InstancesFile: "./data/instances.json",
	StateDir:      "./data/state",
	LegacyDir:     ".",
}

type APIConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	Address        string   `yaml:"address" json:"address"`
	KeyDir         string   `yaml:"key_dir" json:"key_dir"`
	Audience       string   `yaml:"audience" json:"audience"`
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`
}

var DefaultAPIConfig = APIConfig{
	Enabled:  false,
	Address:  ":8080",
	KeyDir:   "./data/keys",
	Audience: "update-notifier-api",
}

type LoggingConfig struct {
	Path       string `yaml:"path" json:"path"`
	Level      string `yaml:"level" json:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

var DefaultLoggingConfig = LoggingConfig{
	Level:      "info",
	MaxSizeMB:  10,
	MaxBackups: 3,
	MaxAgeDays: 28,
}

// EnvOverrides are applied on top of the file configuration.
type EnvOverrides struct {
	PollIntervalSeconds int    `env:"POLL_INTERVAL"`
	LogLevel            string `env:"LOG_LEVEL"`
	InstancesFile       string `env:"INSTANCES_FILE"`
	StateDir            string `env:"STATE_DIR"`
	LegacyDir           string `env:"LEGACY_DIR"`
}
