package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/auditr/pkg/auditr/entry"
	"github.com/jamesainslie/auditr/pkg/auditr/logging"
)

var logger = logging.Get("scanner")

// Scan walks opts.Root and returns its regular files sorted by key.
//
// Traversal runs on fastwalk's goroutines; metadata and digests are then
// computed one file at a time in key order. Any I/O error aborts the scan.
// Symbolic links and other non-regular files are ignored.
func Scan(ctx context.Context, opts Options) ([]*entry.Entry, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	entries, err := walk(ctx, opts)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.Meta {
			if err := e.UpdateMeta(opts.Root); err != nil {
				return nil, err
			}
		}
		if opts.Hash {
			if err := e.UpdateHash(opts.Root, false, opts.OnRead); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("scan complete", "root", opts.Root, "files", len(entries), "meta", opts.Meta, "hash", opts.Hash)
	return entries, nil
}

// TotalSize returns the summed size of the files Scan would return.
func TotalSize(ctx context.Context, opts Options) (uint64, error) {
	opts.Meta, opts.Hash = true, false
	entries, err := Scan(ctx, opts)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, e := range entries {
		total += e.Len
	}
	return total, nil
}

func walk(ctx context.Context, opts Options) ([]*entry.Entry, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s: not a directory", opts.Root)
	}

	var (
		mu      sync.Mutex
		entries []*entry.Entry
	)

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if !opts.Filter.Matches(rel) {
			logger.Debug("excluded", "path", rel)
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		e := entry.New(rel)
		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", opts.Root, err)
	}

	slices.SortFunc(entries, entry.Compare)
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key == entries[i].Key {
			return nil, fmt.Errorf("paths %q and %q normalize to the same name", entries[i-1].Path, entries[i].Path)
		}
	}
	return entries, nil
}
