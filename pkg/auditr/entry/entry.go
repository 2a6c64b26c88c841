// Package entry defines the per-file record that snapshots, scans and
// comparisons operate on.
package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jamesainslie/auditr/pkg/auditr/hasher"
)

// Entry is the recorded identity of one regular file.
//
// Path keeps the bytes as found on disk (slash separated, relative to the
// audited root). Key is the NFC form of Path and is what orders and
// identifies entries, so the same name written in composed or decomposed
// form compares equal.
type Entry struct {
	Path     string `json:"path" yaml:"path"`
	Key      string `json:"-" yaml:"-"`
	Hash     string `json:"hash,omitempty" yaml:"hash,omitempty"`
	Len      uint64 `json:"len" yaml:"len"`
	Modified int64  `json:"modified" yaml:"modified"`
}

// New returns an entry for the root-relative path with only Path and Key set.
func New(path string) *Entry {
	path = filepath.ToSlash(path)
	return &Entry{Path: path, Key: Key(path)}
}

// Key returns the normalized comparison key of a path.
func Key(path string) string {
	return norm.NFC.String(path)
}

// Clone returns an independent copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// HasHash reports whether the content digest has been computed.
func (e *Entry) HasHash() bool { return e.Hash != "" }

func (e *Entry) String() string { return e.Path }

// Abs joins the entry's path onto root.
func (e *Entry) Abs(root string) string {
	return filepath.Join(root, filepath.FromSlash(e.Path))
}

// UpdateMeta fills Len and Modified from the file below root.
func (e *Entry) UpdateMeta(root string) error {
	info, err := os.Stat(e.Abs(root))
	if err != nil {
		return fmt.Errorf("reading metadata of %s: %w", e.Path, err)
	}
	e.Len = uint64(info.Size())
	e.Modified = info.ModTime().UnixMilli()
	return nil
}

// UpdateHash computes the content digest unless one is present and force
// is false.
func (e *Entry) UpdateHash(root string, force bool, onRead hasher.Progress) error {
	if e.HasHash() && !force {
		return nil
	}
	sum, err := hasher.File(e.Abs(root), onRead)
	if err != nil {
		return err
	}
	e.Hash = sum
	return nil
}

// Compare orders entries by key.
func Compare(a, b *Entry) int {
	return strings.Compare(a.Key, b.Key)
}

// CompareMeta reports whether size and modification time match.
func CompareMeta(a, b *Entry) bool {
	return a.Len == b.Len && a.Modified == b.Modified
}

// CompareHash reports whether the content digests match.
func CompareHash(a, b *Entry) bool {
	return a.Hash == b.Hash
}

// CompareHashAndMtime reports whether digest and modification time match.
func CompareHashAndMtime(a, b *Entry) bool {
	return a.Hash == b.Hash && a.Modified == b.Modified
}
