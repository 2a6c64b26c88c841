package index_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/auditr/pkg/auditr/entry"
	"github.com/jamesainslie/auditr/pkg/auditr/index"
)

func mk(path, hash string, size uint64, modified int64) *entry.Entry {
	e := entry.New(path)
	e.Hash, e.Len, e.Modified = hash, size, modified
	return e
}

func writeRecords(t *testing.T, root, hashes, metas string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, index.HashFileName), []byte(hashes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, index.MetaFileName), []byte(metas), 0o644))
}

type rejectPrefix string

func (p rejectPrefix) Matches(path string) bool { return !strings.HasPrefix(path, string(p)) }

func TestSaveLoadRoundTripIgnoresInputOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entries := []*entry.Entry{
		mk("z.txt", "cc", 3, 30),
		mk("a b  c.txt", "aa", 1, 10),
		mk("dir/m.txt", "bb", 2, 20),
	}

	require.NoError(t, index.Save(root, entries))
	first, err := index.Load(root, nil)
	require.NoError(t, err)

	require.NoError(t, index.Save(root, first))
	second, err := index.Load(root, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, []string{"a b  c.txt", "dir/m.txt", "z.txt"}, []string{first[0].Path, first[1].Path, first[2].Path})
	assert.Equal(t, "aa", first[0].Hash)
	assert.Equal(t, uint64(1), first[0].Len)
	assert.Equal(t, int64(10), first[0].Modified)
}

func TestSaveWritesSortedRecords(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, index.Save(root, []*entry.Entry{mk("b", "h2", 2, 20), mk("a", "h1", 1, 10)}))

	hashes, err := os.ReadFile(filepath.Join(root, index.HashFileName))
	require.NoError(t, err)
	assert.Equal(t, "h1  a\nh2  b\n", string(hashes))

	metas, err := os.ReadFile(filepath.Join(root, index.MetaFileName))
	require.NoError(t, err)
	assert.Equal(t, "10  1  a\n20  2  b\n", string(metas))
}

func TestLoadSortsEachRecordIndependently(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRecords(t, root, "h2  b\nh1  a\n", "10  1  a\n20  2  b\n")

	entries, err := index.Load(root, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "h1", entries[0].Hash)
	assert.Equal(t, "h2", entries[1].Hash)
}

func TestLoadAppliesFilterToBothRecords(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRecords(t, root, "h1  a\nh2  skip/b\n", "10  1  a\n20  2  skip/b\n")

	entries, err := index.Load(root, rejectPrefix("skip/"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Path)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hashes  string
		metas   string
		message string
	}{
		{"count mismatch", "h1  a\nh2  b\n", "10  1  a\n", "same number of entries"},
		{"path mismatch", "h1  a\n", "10  1  b\n", "do not match"},
		{"hash line without separator", "h1 a\n", "10  1  a\n", "invalid hash record"},
		{"meta line short", "h1  a\n", "10  a\n", "invalid line format"},
		{"meta bad timestamp", "h1  a\n", "ten  1  a\n", "invalid timestamp"},
		{"meta bad length", "h1  a\n", "10  -1  a\n", "invalid length"},
		{"duplicate path", "h1  a\nh2  a\n", "10  1  a\n10  1  a\n", "duplicate path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			writeRecords(t, root, tt.hashes, tt.metas)

			_, err := index.Load(root, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, index.ErrMalformed), "error %v should wrap ErrMalformed", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadMissingRecord(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, index.HashFileName), nil, 0o644))

	_, err := index.Load(root, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExists(t *testing.T) {
	t.Parallel()

	for _, name := range []string{index.HashFileName, index.MetaFileName} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			assert.False(t, index.Exists(root))
			require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
			assert.True(t, index.Exists(root))
		})
	}
}

func TestReadHashRecord(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	data, err := index.ReadHashRecord(root)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, index.Save(root, []*entry.Entry{mk("a", "h", 1, 1)}))
	data, err = index.ReadHashRecord(root)
	require.NoError(t, err)
	assert.Equal(t, "h  a\n", string(data))
}
