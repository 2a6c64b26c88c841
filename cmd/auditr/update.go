package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/auditr/pkg/auditr/workflow"
)

var updateCmd = &cobra.Command{
	Use:   "update [dir]",
	Short: "Accept changes made since the last snapshot",
	Long: `Compare sizes and modification times with the snapshot, show what
changed and, after confirmation, hash only the new and modified files and
rewrite the snapshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

var updateOpts workflow.UpdateOptions

func init() {
	updateCmd.Flags().BoolVarP(&updateOpts.Yes, "yes", "y", false, "do not ask for confirmation")
	updateCmd.Flags().BoolVar(&updateOpts.ShowDiff, "diff", false, "print a unified diff of the digest record")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	root, err := rootArg(args)
	if err != nil {
		return err
	}
	runner, cleanup, err := newRunner(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = runner.Update(cmd.Context(), root, updateOpts)
	return err
}
