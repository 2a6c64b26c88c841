package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/auditr/pkg/auditr/config"
	"github.com/jamesainslie/auditr/pkg/auditr/history"
	"github.com/jamesainslie/auditr/pkg/auditr/logging"
	"github.com/jamesainslie/auditr/pkg/auditr/output"
	"github.com/jamesainslie/auditr/pkg/auditr/progress"
	"github.com/jamesainslie/auditr/pkg/auditr/prompt"
	"github.com/jamesainslie/auditr/pkg/auditr/workflow"
)

var (
	cfgFile   string
	configErr error
	appConfig *config.Config

	rootCmd = &cobra.Command{
		Use:   "auditr",
		Short: "Detect changed, moved and rotting files in a directory tree",
		Long: `Auditr records a SHA-256 snapshot of a directory tree and later compares
the tree against it, reporting added, removed, updated and moved files, and
files whose content changed while their modification time did not (bitrot).

Examples:
  auditr init ~/Photos            # Record the first snapshot
  auditr update ~/Photos          # Accept intentional changes
  auditr audit ~/Photos           # Verify every file against the snapshot
  auditr audit -o json ~/Photos   # Machine-readable report
  auditr history                  # Past runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	// Set outside the literal: initializeLogging refers to rootCmd.
	rootCmd.PersistentPreRunE = initializeLogging
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: "+config.ConfigPath()+")")
	flags.BoolP("verbose", "v", false, "debug output on stderr")
	flags.BoolP("quiet", "q", false, "suppress status messages")
	flags.StringP("output", "o", "", fmt.Sprintf("report format %v", output.Available()))
	flags.String("template", "", "text/template for the template output")
	flags.Bool("no-progress", false, "disable the progress bar")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("template", flags.Lookup("template"))
	_ = viper.BindPFlag("no_progress", flags.Lookup("no-progress"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	config.Prepare(v, cfgFile)
	configErr = config.Read(v)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	_ = logging.Close()
	return err
}

// loadConfig decodes the global viper state.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Output == "" {
		cfg.Output = config.DefaultOutput
	}
	// a template on the command line implies the template output
	flags := rootCmd.PersistentFlags()
	if flags.Changed("template") && !flags.Changed("output") {
		cfg.Output = "template"
	}
	if viper.GetBool("no_progress") {
		cfg.Progress = false
	}
	return cfg, nil
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// statusWriter is where status lines go: stderr, or nowhere with --quiet.
func statusWriter(cmd *cobra.Command) io.Writer {
	if getQuiet() {
		return io.Discard
	}
	return cmd.ErrOrStderr()
}

// newFormatter returns the configured report formatter.
func newFormatter(cfg *config.Config) (output.Formatter, error) {
	f, err := output.Get(cfg.Output)
	if err != nil {
		return nil, err
	}
	if tf, ok := f.(*output.TemplateFormatter); ok && cfg.Template != "" {
		tf.SetTemplate(cfg.Template)
	}
	return f, nil
}

// newRunner wires a workflow runner to the command's streams. With record
// set, runs are logged to the history store, which the returned cleanup
// closes.
func newRunner(cmd *cobra.Command, record bool) (*workflow.Runner, func(), error) {
	cfg := appConfig
	if cfg == nil {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return nil, nil, err
		}
	}

	f, err := newFormatter(cfg)
	if err != nil {
		return nil, nil, err
	}

	status := statusWriter(cmd)
	r := &workflow.Runner{
		Out:       cmd.OutOrStdout(),
		Err:       status,
		Formatter: f,
		Confirm: func(question string) (bool, error) {
			return prompt.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), question)
		},
	}
	if cfg.Progress && !getQuiet() {
		r.NewProgress = func(total uint64) workflow.Progress {
			return progress.New(cmd.ErrOrStderr(), total)
		}
	}

	cleanup := func() {}
	if record && cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logging.Get("workflow").Warn("history unavailable", "path", cfg.History.Path, "error", err)
		} else {
			r.History = store
			cleanup = func() { _ = store.Close() }
		}
	}
	return r, cleanup, nil
}

// rootArg resolves the directory argument, defaulting to the working
// directory.
func rootArg(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", expanded)
	}
	return expanded, nil
}
