// Package scanner enumerates the regular files below a root and fills in
// their metadata and digests.
package scanner

import (
	"errors"

	"github.com/jamesainslie/auditr/pkg/auditr/filter"
	"github.com/jamesainslie/auditr/pkg/auditr/hasher"
)

// ErrNoRoot is returned when Options.Root is empty.
var ErrNoRoot = errors.New("scan root not set")

// Options configures a scan.
type Options struct {
	// Root is the directory to scan.
	Root string

	// Filter prunes excluded paths. Directories it rejects are skipped
	// with their whole subtree. Nil means filter.Default().
	Filter filter.PathFilter

	// Meta fills Len and Modified.
	Meta bool

	// Hash fills Hash. It implies Meta.
	Hash bool

	// OnRead receives the byte count of every chunk read while hashing.
	OnRead hasher.Progress
}

// Validate applies defaults and rejects unusable options.
func (o *Options) Validate() error {
	if o.Root == "" {
		return ErrNoRoot
	}
	if o.Filter == nil {
		o.Filter = filter.Default()
	}
	if o.Hash {
		o.Meta = true
	}
	return nil
}
