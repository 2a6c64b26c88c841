// Package index persists snapshots as two line-oriented records in the
// audited root: the content digests and the size/mtime metadata.
//
//	.checksums.sha256   <hash>  <path>
//	.checksums.meta     <modified>  <len>  <path>
//
// Each record is written sorted by key. Loading sorts each record on its own
// and joins them by position, so both must describe the same set of paths.
package index

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jamesainslie/auditr/pkg/auditr/entry"
	"github.com/jamesainslie/auditr/pkg/auditr/logging"
)

// Record file names, relative to the audited root.
const (
	HashFileName = ".checksums.sha256"
	MetaFileName = ".checksums.meta"
)

const sep = "  "

// ErrMalformed wraps every record parse and consistency failure.
var ErrMalformed = errors.New("malformed snapshot")

// Matcher selects the paths to keep when loading. filter.PathFilter
// satisfies it.
type Matcher interface {
	Matches(path string) bool
}

var logger = logging.Get("index")

// Exists reports whether either record file is present in root.
func Exists(root string) bool {
	for _, name := range []string{HashFileName, MetaFileName} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}
	return false
}

// Load reads the snapshot of root. Paths rejected by m are dropped from both
// records before they are joined; a nil m keeps everything.
func Load(root string, m Matcher) ([]*entry.Entry, error) {
	hashes, err := readRecord(filepath.Join(root, HashFileName), parseHashLine, m)
	if err != nil {
		return nil, err
	}
	metas, err := readRecord(filepath.Join(root, MetaFileName), parseMetaLine, m)
	if err != nil {
		return nil, err
	}

	if len(hashes) != len(metas) {
		return nil, fmt.Errorf("%w: records must have same number of entries (%d hashes, %d meta)",
			ErrMalformed, len(hashes), len(metas))
	}

	entries := make([]*entry.Entry, len(hashes))
	for i, h := range hashes {
		meta := metas[i]
		if h.Key != meta.Key {
			return nil, fmt.Errorf("%w: paths of record entries do not match: %q vs %q",
				ErrMalformed, h.Path, meta.Path)
		}
		meta.Hash = h.Hash
		entries[i] = meta
	}

	logger.Debug("snapshot loaded", "root", root, "entries", len(entries))
	return entries, nil
}

// Save writes both records for entries, sorted by key. Each file is
// replaced atomically.
func Save(root string, entries []*entry.Entry) error {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, entry.Compare)

	var hashes, metas bytes.Buffer
	for _, e := range sorted {
		hashes.WriteString(FormatHashLine(e))
		metas.WriteString(FormatMetaLine(e))
	}

	if err := writeAtomic(filepath.Join(root, HashFileName), hashes.Bytes()); err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(root, MetaFileName), metas.Bytes()); err != nil {
		return err
	}

	logger.Info("snapshot saved", "root", root, "entries", len(sorted))
	return nil
}

// FormatHashLine renders e as a digest record line.
func FormatHashLine(e *entry.Entry) string {
	return e.Hash + sep + e.Path + "\n"
}

// FormatMetaLine renders e as a metadata record line.
func FormatMetaLine(e *entry.Entry) string {
	return strconv.FormatInt(e.Modified, 10) + sep + strconv.FormatUint(e.Len, 10) + sep + e.Path + "\n"
}

// ReadHashRecord returns the raw digest record of root, or nil when absent.
func ReadHashRecord(root string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(root, HashFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

type lineParser func(line string) (*entry.Entry, error)

func readRecord(path string, parse lineParser, m Matcher) ([]*entry.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	entries, err := parseRecord(f, parse, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

func parseRecord(r io.Reader, parse lineParser, m Matcher) ([]*entry.Entry, error) {
	var entries []*entry.Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		e, err := parse(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if m != nil && !m.Matches(e.Path) {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	slices.SortFunc(entries, entry.Compare)
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key == entries[i].Key {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrMalformed, entries[i].Path)
		}
	}
	return entries, nil
}

func parseHashLine(line string) (*entry.Entry, error) {
	hash, path, ok := strings.Cut(line, sep)
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: invalid hash record", ErrMalformed)
	}
	e := entry.New(path)
	e.Hash = hash
	return e, nil
}

func parseMetaLine(line string) (*entry.Entry, error) {
	fields := strings.SplitN(line, sep, 3)
	if len(fields) != 3 || fields[2] == "" {
		return nil, fmt.Errorf("%w: meta record: invalid line format", ErrMalformed)
	}
	modified, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: meta record: invalid timestamp %q", ErrMalformed, fields[0])
	}
	size, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: meta record: invalid length %q", ErrMalformed, fields[1])
	}
	e := entry.New(fields[2])
	e.Modified = modified
	e.Len = size
	return e, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", filepath.Base(path), err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting mode of %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
