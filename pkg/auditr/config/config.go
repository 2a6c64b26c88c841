// Package config loads auditr settings from $XDG_CONFIG_HOME/auditr/config.yaml
// and AUDITR_* environment variables on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation. MaxSize accepts sizes such
// as "10MB" or "512KiB".
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config is the complete application configuration.
type Config struct {
	Output   string        `mapstructure:"output"`
	Template string        `mapstructure:"template"`
	Progress bool          `mapstructure:"progress"`
	History  HistoryConfig `mapstructure:"history"`
	Watch    WatchConfig   `mapstructure:"watch"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("template", "")
	v.SetDefault("progress", DefaultProgress)

	v.SetDefault("history.enabled", DefaultHistoryEnabled)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("watch.debounce", DefaultWatchDebounce)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", DefaultLogMaxAge)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.rotation.daily", DefaultLogDailyRotation)
	v.SetDefault("logging.components", DefaultComponents)
}

// Prepare points v at the config file (explicit path, or config.yaml in
// ConfigDir()) and enables environment overrides.
func Prepare(v *viper.Viper, explicit string) {
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Read loads the config file into v. A missing file is not an error.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// Decode converts v into a Config, expanding ~ in paths.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	var err error
	if cfg.History.Path, err = ExpandPath(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}
	return &cfg, nil
}

// Load reads configuration with a private viper instance.
func Load(explicit string) (*Config, error) {
	v := viper.New()
	Prepare(v, explicit)
	if err := Read(v); err != nil {
		return nil, err
	}
	return Decode(v)
}

// ConfigDir returns $XDG_CONFIG_HOME/auditr.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns $XDG_DATA_HOME/auditr.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateDir returns $XDG_STATE_HOME/auditr.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultHistoryPath is the badger directory used for run history.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultLogPath is the log file used when logging.path is empty.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), AppName+".log")
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// WriteDefault writes a commented default config to path unless a file is
// already there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate()), 0o644); err != nil {
		return false, fmt.Errorf("writing default config: %w", err)
	}
	return true, nil
}

func defaultTemplate() string {
	return fmt.Sprintf(`# auditr configuration

# Report format: plain, pretty, json, yaml, template
output: %s

# text/template used by the "template" output
template: ""

# Show a progress bar while hashing (terminals only)
progress: %t

# Run history
history:
  enabled: %t
  # Empty means %s
  path: ""
  retention_days: %d

# auditr watch
watch:
  debounce: %s

logging:
  # debug, info, warn, error
  level: %s
  # Empty means %s
  path: ""
  rotation:
    max_size: %s
    max_age: %d       # days
    max_backups: %d
    daily: %t
  components:
    workflow: info
    scanner: info
    index: info
    history: warn
    watcher: warn
`, DefaultOutput, DefaultProgress, DefaultHistoryEnabled, DefaultHistoryPath(), DefaultRetentionDays,
		DefaultWatchDebounce, DefaultLogLevel, DefaultLogPath(), DefaultLogMaxSize,
		DefaultLogMaxAge, DefaultLogMaxBackups, DefaultLogDailyRotation)
}
