package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/auditr/pkg/auditr/config"
	"github.com/jamesainslie/auditr/pkg/auditr/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Long: `View the history of init, update and audit runs.

Each run is stored with its outcome, counts and the list of changed
paths.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove runs older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
	historyRoot  string
)

// maxShownChanges caps the change list printed by history show.
const maxShownChanges = 50

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")
	historyCmd.Flags().StringVarP(&historyRoot, "root", "r", "", "only show runs for this directory")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, *config.Config, error) {
	cfg := appConfig
	if cfg == nil {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return nil, nil, err
		}
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, cfg, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	root := historyRoot
	if root != "" {
		if root, err = config.ExpandPath(root); err != nil {
			return err
		}
	}

	records, err := store.List(root, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No history entries found.")
		return nil
	}

	fmt.Fprintf(out, "\n%-36s  %-19s  %-6s  %-9s  %-8s  %s\n", "ID", "TIME", "OP", "OUTCOME", "CHANGES", "ROOT")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, rec := range records {
		fmt.Fprintf(out, "%-36s  %-19s  %-6s  %-9s  %-8d  %s\n",
			rec.ID,
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			rec.Operation,
			rec.Outcome,
			len(rec.Changes)+rec.Truncated,
			truncateString(rec.Root, 40),
		)
	}
	fmt.Fprintln(out, strings.Repeat("-", 100))
	fmt.Fprintf(out, "\nShowing %d entries. Use --limit to see more.\n", len(records))
	fmt.Fprintln(out, "Use 'auditr history show <id>' for details on a specific run.")
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nRun Details")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "ID:         %s\n", rec.ID)
	fmt.Fprintf(out, "Timestamp:  %s\n", rec.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Operation:  %s\n", rec.Operation)
	fmt.Fprintf(out, "Root:       %s\n", rec.Root)
	fmt.Fprintf(out, "Outcome:    %s\n", rec.Outcome)
	fmt.Fprintf(out, "Elapsed:    %s\n", rec.Elapsed)
	c := rec.Counts
	fmt.Fprintf(out, "Counts:     %d new, %d updated, %d bitrot, %d removed, %d moved, %d unchanged, %d total\n",
		c.Added, c.Updated, c.UpdatedBitrot, c.Removed, c.Moved, c.Unchanged, c.Total)

	if len(rec.Changes) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nChanges:")
	fmt.Fprintln(out, strings.Repeat("-", 60))
	limit := min(len(rec.Changes), maxShownChanges)
	for _, ch := range rec.Changes[:limit] {
		name := ch.Path
		if ch.From != "" {
			name = fmt.Sprintf("%s (from %s)", ch.Path, ch.From)
		}
		fmt.Fprintf(out, "[%s] %-10s  %s\n", ch.Kind.Marker(), humanize.IBytes(ch.Len), filepath.FromSlash(name))
	}
	if more := len(rec.Changes) - limit + rec.Truncated; more > 0 {
		fmt.Fprintf(out, "\n... and %d more changes\n", more)
	}
	return nil
}

func runHistoryClean(cmd *cobra.Command, _ []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	retention := cfg.History.RetentionDays
	if retention <= 0 {
		retention = config.DefaultRetentionDays
	}

	status := statusWriter(cmd)
	fmt.Fprintf(status, "Cleaning history entries older than %d days...\n", retention)
	n, err := store.Cleanup(retention)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	fmt.Fprintf(status, "Removed %d entries.\n", n)
	return nil
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
