package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/auditr/pkg/auditr/config"
	"github.com/jamesainslie/auditr/pkg/auditr/logging"
)

// initializeLogging is the root PersistentPreRunE: it creates the XDG
// directories, decodes the configuration and starts the logging system.
func initializeLogging(_ *cobra.Command, _ []string) error {
	for _, dir := range []string{config.ConfigDir(), config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appConfig = cfg

	consoleLevel := "warn"
	switch {
	case viper.GetBool("verbose"):
		consoleLevel = "debug"
	case getQuiet():
		consoleLevel = "error"
	}

	path := cfg.Logging.Path
	if path == "" {
		path = config.DefaultLogPath()
	}

	return logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         path,
		Rotation:     parseRotationConfig(cfg.Logging.Rotation),
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel,
	})
}

// parseRotationConfig converts the config representation, falling back to
// the default size when max_size is empty or unparsable.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
	if rc.MaxSize != "" {
		if n, err := humanize.ParseBytes(rc.MaxSize); err == nil && n > 0 {
			out.MaxSize = int64(n)
		}
	}
	return out
}
