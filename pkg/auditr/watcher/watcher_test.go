package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/auditr/pkg/auditr/filter"
	"github.com/jamesainslie/auditr/pkg/auditr/watcher"
)

func TestStartSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "keep", "deep"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cache", "deep"), 0o755))

	rules, err := filter.ParseRules(strings.NewReader("cache\n"))
	require.NoError(t, err)

	w, err := watcher.New(root, filter.New(filter.WithRules(rules...)), 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Start())
	assert.Equal(t, 3, w.Dirs()) // root, keep, keep/deep
}

func TestRunDeliversSettledBatch(t *testing.T) {
	root := t.TempDir()

	w, err := watcher.New(root, nil, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { batches <- paths })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".checksums.meta"), []byte("x"), 0o644))

	select {
	case batch := <-batches:
		assert.Equal(t, []string{"a.txt", "b.txt"}, batch)
	case <-ctx.Done():
		t.Fatal("no batch delivered")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestRunRearmsAfterEachBatch(t *testing.T) {
	root := t.TempDir()

	w, err := watcher.New(root, nil, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { batches <- paths })
	}()

	// Quiet tree: nothing is delivered before the first event.
	select {
	case batch := <-batches:
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(100 * time.Millisecond):
	}

	for _, name := range []string{"first.txt", "second.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(name), 0o644))
		select {
		case batch := <-batches:
			assert.Equal(t, []string{name}, batch)
		case <-ctx.Done():
			t.Fatalf("no batch delivered for %s", name)
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestStartMissingRoot(t *testing.T) {
	w, err := watcher.New(filepath.Join(t.TempDir(), "missing"), nil, 0)
	require.NoError(t, err)
	defer w.Close()
	assert.ErrorIs(t, w.Start(), os.ErrNotExist)
}
