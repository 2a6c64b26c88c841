package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/auditr/pkg/auditr/filter"
	"github.com/jamesainslie/auditr/pkg/auditr/index"
	"github.com/jamesainslie/auditr/pkg/auditr/scanner"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestScanListsRegularFilesSorted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.txt":            "bb",
		"a/deep/file.txt":  "x",
		"a.txt":            "a",
		index.HashFileName: "",
		index.MetaFileName: "",
		"sub/" + index.MetaFileName: "nested records are regular files",
	})
	require.NoError(t, os.Symlink(filepath.Join(root, "b.txt"), filepath.Join(root, "link")))

	entries, err := scanner.Scan(context.Background(), scanner.Options{Root: root})
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
		assert.Empty(t, e.Hash)
		assert.Zero(t, e.Len)
	}
	assert.Equal(t, []string{"a.txt", "a/deep/file.txt", "b.txt", "sub/" + index.MetaFileName}, paths)
}

func TestScanMetaAndHash(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"f": "abc"})

	var read int64
	entries, err := scanner.Scan(context.Background(), scanner.Options{
		Root:   root,
		Hash:   true,
		OnRead: func(n int64) { read += n },
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, uint64(3), e.Len)
	assert.NotZero(t, e.Modified)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", e.Hash)
	assert.Equal(t, int64(3), read)
}

func TestScanPrunesExcludedDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep/a.txt":      "a",
		"cache/x.bin":     "x",
		"cache/sub/y.bin": "y",
		"notes.tmp":       "t",
	})

	rules, err := filter.ParseRules(strings.NewReader("cache\n*.tmp\n"))
	require.NoError(t, err)

	entries, err := scanner.Scan(context.Background(), scanner.Options{
		Root:   root,
		Filter: filter.New(filter.WithRules(rules...)),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep/a.txt", entries[0].Path)
}

func TestTotalSize(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "12345", "d/b": "678"})

	total, err := scanner.TotalSize(context.Background(), scanner.Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), total)
}

func TestScanErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty root", func(t *testing.T) {
		t.Parallel()
		_, err := scanner.Scan(context.Background(), scanner.Options{})
		assert.ErrorIs(t, err, scanner.ErrNoRoot)
	})

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		_, err := scanner.Scan(context.Background(), scanner.Options{Root: filepath.Join(t.TempDir(), "nope")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("root is a file", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeTree(t, root, map[string]string{"f": "x"})
		_, err := scanner.Scan(context.Background(), scanner.Options{Root: filepath.Join(root, "f")})
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeTree(t, root, map[string]string{"f": "x"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := scanner.Scan(ctx, scanner.Options{Root: root})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
