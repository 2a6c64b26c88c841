package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/auditr/pkg/auditr/workflow"
)

var auditCmd = &cobra.Command{
	Use:   "audit [dir]",
	Short: "Verify every file against the snapshot",
	Long: `Hash every file below dir and compare digests and modification times
with the snapshot.

Exit status:
  0  no differences
  1  error, e.g. no snapshot in dir
  2  files were added, removed, updated or moved
  3  bitrot: content changed while the modification time did not

With --update the snapshot is rewritten after differences are found,
but never when bitrot is detected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

var auditOpts workflow.AuditOptions

func init() {
	auditCmd.Flags().BoolVarP(&auditOpts.Update, "update", "u", false, "save the scanned state when differences are found")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	root, err := rootArg(args)
	if err != nil {
		return err
	}
	runner, cleanup, err := newRunner(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := runner.Audit(cmd.Context(), root, auditOpts)
	if err != nil {
		return err
	}
	if code := outcome.AuditExitCode(); code != workflow.ExitOK {
		return &exitError{code: code}
	}
	return nil
}
