// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Backend BackendConfig `mapstructure:"backend"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig holds connection settings for the MedAlert backend.
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	HealthProbe    bool   `mapstructure:"health_probe"`
}

// UploadConfig holds settings for the prescription upload workflow.
type UploadConfig struct {
	MaxFileSize  int64    `mapstructure:"max_file_size"` // bytes
	AllowedTypes []string `mapstructure:"allowed_types"`
	ProgressTick int      `mapstructure:"progress_tick"` // milliseconds
	DisplayDelay int      `mapstructure:"display_delay"` // milliseconds, hold at 100%
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"` // "stdout" or a file path
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsConfig holds settings for the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
