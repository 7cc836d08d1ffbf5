package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download engine configuration
type DownloadConfig struct {
	YTDLPBinary    string        `mapstructure:"ytdlp_binary"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	ItemDelay      time.Duration `mapstructure:"item_delay"`      // wait between batch items
	TerminateGrace time.Duration `mapstructure:"terminate_grace"` // wait before escalating to kill
	RateLimit      string        `mapstructure:"rate_limit"`      // passed to --limit-rate, empty disables
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`   // playlist metadata fetch
	Defaults       BatchSettings `mapstructure:"defaults"`
}

// StorageConfig contains state persistence configuration
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"` // sqlite batch task records
	HistoryFile  string `mapstructure:"history_file"`  // JSON download ledger
	SnapshotFile string `mapstructure:"snapshot_file"` // JSON playlist snapshots
	LogsDir      string `mapstructure:"logs_dir"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			YTDLPBinary:    "yt-dlp",
			MaxRetries:     3,
			RetryDelay:     2 * time.Second,
			ItemDelay:      2 * time.Second,
			TerminateGrace: 5 * time.Second,
			FetchTimeout:   180 * time.Second,
			Defaults: BatchSettings{
				Quality:            "best",
				SubtitleLang:       DefaultSubtitleLanguages,
				AutoTrimFilename:   true,
				TrimFilenameLength: DefaultTrimFilenameLength,
				DownloadTimeout:    DefaultDownloadTimeoutSeconds,
			},
		},
		Storage: StorageConfig{
			DatabasePath: "$HOME/.vidbatch/tasks.db",
			HistoryFile:  "$HOME/.vidbatch/download_history.json",
			SnapshotFile: "$HOME/.vidbatch/playlist_state.json",
			LogsDir:      "$HOME/.vidbatch/logs",
		},
		Notification: NotificationConfig{
			Enabled: true,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
