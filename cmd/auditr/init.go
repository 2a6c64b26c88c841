package main

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Record the first snapshot of a directory",
	Long: `Hash every file below dir and write the snapshot records
.checksums.sha256 and .checksums.meta into dir.

Paths matching the rules in dir/.auditr-ignore are skipped. Fails when a
snapshot already exists; use update or audit --update to refresh it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := rootArg(args)
	if err != nil {
		return err
	}
	runner, cleanup, err := newRunner(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	return runner.Init(cmd.Context(), root)
}
