package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/auditr/pkg/auditr/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage auditr configuration settings.

Configuration is loaded from $XDG_CONFIG_HOME/auditr/config.yaml
(~/.config/auditr/config.yaml by default) or the file given with --config.

Environment variables override file settings using the AUDITR_ prefix:
  AUDITR_OUTPUT=json
  AUDITR_HISTORY_ENABLED=false
  AUDITR_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configFilePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if cfg == nil {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			fmt.Fprintf(out, "Config file: %s\n\n", used)
		} else {
			fmt.Fprintln(out, "Config file: (using defaults, no file found)")
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "output:                   %s\n", cfg.Output)
	fmt.Fprintf(out, "template:                 %q\n", cfg.Template)
	fmt.Fprintf(out, "progress:                 %t\n", cfg.Progress)
	fmt.Fprintf(out, "history.enabled:          %t\n", cfg.History.Enabled)
	fmt.Fprintf(out, "history.path:             %s\n", cfg.History.Path)
	fmt.Fprintf(out, "history.retention_days:   %d\n", cfg.History.RetentionDays)
	fmt.Fprintf(out, "watch.debounce:           %s\n", cfg.Watch.Debounce)
	fmt.Fprintf(out, "logging.level:            %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "logging.path:             %s\n", cfg.Logging.Path)
	fmt.Fprintf(out, "logging.rotation:         max_size=%s max_age=%d max_backups=%d daily=%t\n",
		cfg.Logging.Rotation.MaxSize, cfg.Logging.Rotation.MaxAge,
		cfg.Logging.Rotation.MaxBackups, cfg.Logging.Rotation.Daily)

	names := make([]string, 0, len(cfg.Logging.Components))
	for name := range cfg.Logging.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "logging.components.%-6s %s\n", name+":", cfg.Logging.Components[name])
	}

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	found := false
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			fmt.Fprintln(out, kv)
			found = true
		}
	}
	if !found {
		fmt.Fprintln(out, "(none)")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := configFilePath()
	written, err := config.WriteDefault(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	status := statusWriter(cmd)
	if !written {
		fmt.Fprintf(status, "Config file already exists: %s\n", path)
		return nil
	}
	fmt.Fprintf(status, "Created default config file: %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
	return nil
}
