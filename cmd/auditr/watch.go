package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/auditr/pkg/auditr/filter"
	"github.com/jamesainslie/auditr/pkg/auditr/logging"
	"github.com/jamesainslie/auditr/pkg/auditr/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Report changes against the snapshot as they happen",
	Long: `Watch dir for filesystem events and, once they settle, compare sizes and
modification times with the snapshot and print the report. The snapshot
is never written. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := rootArg(args)
	if err != nil {
		return err
	}
	runner, cleanup, err := newRunner(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// baseline report; also fails early without a snapshot
	if _, err := runner.Check(ctx, root); err != nil {
		return err
	}

	f, err := filter.Load(root)
	if err != nil {
		return err
	}
	w, err := watcher.New(root, f, appConfig.Watch.Debounce)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Start(); err != nil {
		return err
	}

	logger := logging.Get("watcher")
	status := statusWriter(cmd)
	fmt.Fprintf(status, "Watching '%s' (%d directories)...\n", root, w.Dirs())

	return w.Run(ctx, func(paths []string) {
		fmt.Fprintf(status, "\n%d path(s) changed\n", len(paths))
		if _, err := runner.Check(ctx, root); err != nil {
			logger.Error("check failed", "root", root, "error", err)
		}
	})
}
