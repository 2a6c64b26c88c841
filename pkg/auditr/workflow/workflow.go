// Package workflow runs the init, update, audit and check operations on an
// audited root, tying together scanning, snapshot storage, comparison and
// reporting.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jamesainslie/auditr/pkg/auditr/diff"
	"github.com/jamesainslie/auditr/pkg/auditr/entry"
	"github.com/jamesainslie/auditr/pkg/auditr/filter"
	"github.com/jamesainslie/auditr/pkg/auditr/history"
	"github.com/jamesainslie/auditr/pkg/auditr/index"
	"github.com/jamesainslie/auditr/pkg/auditr/logging"
	"github.com/jamesainslie/auditr/pkg/auditr/output"
	"github.com/jamesainslie/auditr/pkg/auditr/scanner"
	"github.com/jamesainslie/auditr/pkg/auditr/stats"
)

var (
	// ErrSnapshotExists is returned by Init when a snapshot is present.
	ErrSnapshotExists = errors.New("index already exists")

	// ErrNoSnapshot is returned when a snapshot is required but absent.
	ErrNoSnapshot = errors.New("no index found")
)

var logger = logging.Get("workflow")

// Progress receives hashing progress. *progress.Bar satisfies it.
type Progress interface {
	Add(n int64)
	Finish()
}

// Recorder stores completed runs. *history.Store satisfies it.
type Recorder interface {
	Put(rec *history.Record) error
}

// Runner executes workflows. The zero value is not usable; fill at least
// Out, Err and Formatter.
type Runner struct {
	// Out receives reports and record diffs.
	Out io.Writer

	// Err receives status lines and the progress bar.
	Err io.Writer

	Formatter output.Formatter

	// Confirm asks a yes/no question. Nil declines every question.
	Confirm func(question string) (bool, error)

	// NewProgress returns a sink for total bytes of hashing. Nil disables
	// progress reporting.
	NewProgress func(total uint64) Progress

	// History records completed runs. Nil disables recording.
	History Recorder

	now func() time.Time
}

// UpdateOptions tune Update.
type UpdateOptions struct {
	// Yes skips the confirmation question.
	Yes bool

	// ShowDiff writes a unified diff of the digest record after saving.
	ShowDiff bool
}

// AuditOptions tune Audit.
type AuditOptions struct {
	// Update saves the scanned state when differences but no bitrot were
	// found.
	Update bool
}

// Init scans root with digests and writes its first snapshot.
func (r *Runner) Init(ctx context.Context, root string) error {
	if index.Exists(root) {
		return fmt.Errorf("%w in directory '%s'", ErrSnapshotExists, root)
	}
	f, err := filter.Load(root)
	if err != nil {
		return err
	}

	start := r.clock()
	fmt.Fprintf(r.Err, "Initializing indices in '%s'...\n", root)

	entries, err := r.scanWithHashes(ctx, root, f)
	if err != nil {
		return err
	}
	if err := index.Save(root, entries); err != nil {
		return err
	}
	fmt.Fprintln(r.Err, "Done.")

	s := stats.Collect(diff.Entries(nil, entries, entry.CompareHash))
	r.record(history.OpInit, &output.Report{
		Command: "init", Root: root, Outcome: OutcomeOK.String(), Stats: s, Elapsed: r.since(start),
	})
	logger.Info("snapshot initialized", "root", root, "files", len(entries))
	return nil
}

// Update refreshes the snapshot of root from a metadata scan, hashing only
// files whose size or mtime changed, after the user confirms the summary.
func (r *Runner) Update(ctx context.Context, root string, opts UpdateOptions) (Outcome, error) {
	f, err := filter.Load(root)
	if err != nil {
		return OutcomeOK, err
	}
	start := r.clock()

	recorded, err := r.load(root, f)
	if err != nil {
		return OutcomeOK, err
	}
	scanned, err := scanner.Scan(ctx, scanner.Options{Root: root, Filter: f, Meta: true})
	if err != nil {
		return OutcomeOK, err
	}

	s := stats.Collect(diff.Entries(recorded, scanned, entry.CompareMeta))
	if !s.Modified() {
		fmt.Fprintln(r.Err, "Nothing to update.")
		return OutcomeUnchanged, nil
	}

	report := &output.Report{Command: "update", Root: root, Outcome: OutcomeChanged.String(), Stats: s}
	if err := r.render(report); err != nil {
		return OutcomeOK, err
	}

	if !opts.Yes {
		ok, err := r.ask("Continue?")
		if err != nil {
			return OutcomeOK, err
		}
		if !ok {
			fmt.Fprintln(r.Err, "Aborted.")
			report.Outcome = OutcomeAborted.String()
			report.Elapsed = r.since(start)
			r.record(history.OpUpdate, report)
			return OutcomeAborted, nil
		}
	}

	sink := r.progress(s.PendingBytes())
	next := make([]*entry.Entry, 0, s.Total)
	for e := range s.IterNew() {
		c := e.Clone()
		if err := c.UpdateHash(root, false, sink.Add); err != nil {
			sink.Finish()
			return OutcomeOK, err
		}
		next = append(next, c)
	}
	sink.Finish()
	slices.SortFunc(next, entry.Compare)

	var before []byte
	if opts.ShowDiff {
		if before, err = index.ReadHashRecord(root); err != nil {
			return OutcomeOK, err
		}
	}
	if err := index.Save(root, next); err != nil {
		return OutcomeOK, err
	}
	if opts.ShowDiff {
		after, err := index.ReadHashRecord(root)
		if err != nil {
			return OutcomeOK, err
		}
		if err := output.RecordDiff(r.Out, index.HashFileName, before, after); err != nil {
			return OutcomeOK, err
		}
	}

	report.Elapsed = r.since(start)
	r.record(history.OpUpdate, report)
	logger.Info("snapshot updated", "root", root, "files", len(next))
	return OutcomeChanged, nil
}

// Audit compares a full digest scan of root with its snapshot. Bitrot is
// never written back, even with opts.Update.
func (r *Runner) Audit(ctx context.Context, root string, opts AuditOptions) (Outcome, error) {
	f, err := filter.Load(root)
	if err != nil {
		return OutcomeOK, err
	}
	start := r.clock()

	recorded, err := r.load(root, f)
	if err != nil {
		return OutcomeOK, err
	}
	scanned, err := r.scanWithHashes(ctx, root, f)
	if err != nil {
		return OutcomeOK, err
	}

	s := stats.Collect(diff.Entries(recorded, scanned, entry.CompareHashAndMtime))

	outcome := OutcomeOK
	switch {
	case s.HasBitrot():
		outcome = OutcomeBitrot
	case s.Modified():
		outcome = OutcomeChanged
	}

	report := &output.Report{Command: "audit", Root: root, Outcome: outcome.String(), Stats: s, Elapsed: r.since(start)}
	if err := r.render(report); err != nil {
		return outcome, err
	}

	switch outcome {
	case OutcomeBitrot:
		fmt.Fprintln(r.Err, "Audit failed - bitrot detected!")
		logger.Warn("bitrot detected", "root", root, "files", len(s.UpdatedBitrot))
	case OutcomeChanged:
		fmt.Fprintln(r.Err, "Audit failed - difference detected!")
		if opts.Update {
			if err := index.Save(root, scanned); err != nil {
				return outcome, err
			}
			fmt.Fprintln(r.Err, "Index updated.")
		}
	default:
		fmt.Fprintln(r.Err, "Audit successful")
	}

	r.record(history.OpAudit, report)
	return outcome, nil
}

// Check compares a metadata scan of root with its snapshot and renders the
// report without writing anything.
func (r *Runner) Check(ctx context.Context, root string) (*stats.Stats, error) {
	f, err := filter.Load(root)
	if err != nil {
		return nil, err
	}
	recorded, err := r.load(root, f)
	if err != nil {
		return nil, err
	}
	scanned, err := scanner.Scan(ctx, scanner.Options{Root: root, Filter: f, Meta: true})
	if err != nil {
		return nil, err
	}

	s := stats.Collect(diff.Entries(recorded, scanned, entry.CompareMeta))
	outcome := OutcomeUnchanged
	if s.Modified() {
		outcome = OutcomeChanged
	}
	return s, r.render(&output.Report{Command: "watch", Root: root, Outcome: outcome.String(), Stats: s})
}

func (r *Runner) load(root string, f filter.PathFilter) ([]*entry.Entry, error) {
	if !index.Exists(root) {
		return nil, fmt.Errorf("%w in directory '%s'", ErrNoSnapshot, root)
	}
	return index.Load(root, f)
}

func (r *Runner) scanWithHashes(ctx context.Context, root string, f filter.PathFilter) ([]*entry.Entry, error) {
	var sink Progress = nopProgress{}
	if r.NewProgress != nil {
		total, err := scanner.TotalSize(ctx, scanner.Options{Root: root, Filter: f})
		if err != nil {
			return nil, err
		}
		sink = r.progress(total)
	}
	entries, err := scanner.Scan(ctx, scanner.Options{Root: root, Filter: f, Hash: true, OnRead: sink.Add})
	sink.Finish()
	return entries, err
}

func (r *Runner) render(report *output.Report) error {
	var buf bytes.Buffer
	if err := r.Formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	_, err := r.Out.Write(buf.Bytes())
	return err
}

func (r *Runner) ask(question string) (bool, error) {
	if r.Confirm == nil {
		return false, nil
	}
	return r.Confirm(question)
}

func (r *Runner) progress(total uint64) Progress {
	if r.NewProgress == nil {
		return nopProgress{}
	}
	return r.NewProgress(total)
}

func (r *Runner) record(op history.Operation, report *output.Report) {
	if r.History == nil {
		return
	}
	if err := r.History.Put(history.NewRecord(op, report)); err != nil {
		logger.Warn("failed to record run", "operation", op, "root", report.Root, "error", err)
	}
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) since(start time.Time) time.Duration {
	return r.clock().Sub(start)
}

type nopProgress struct{}

func (nopProgress) Add(int64) {}
func (nopProgress) Finish()   {}
