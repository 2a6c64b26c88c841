// Package output renders comparison reports in several formats (plain,
// pretty, json, yaml, template).
//
// Formatters are looked up by name from a registry:
//
//	f, err := output.Get("plain")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Format(&buf, report); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/auditr/pkg/auditr/entry"
	"github.com/jamesainslie/auditr/pkg/auditr/stats"
)

// Report is the result of one init, update, audit or watch comparison.
type Report struct {
	// Command is the workflow that produced the report.
	Command string

	// Root is the audited directory.
	Root string

	// Outcome summarizes the verdict ("ok", "changed", "bitrot", ...).
	Outcome string

	Stats   *stats.Stats
	Elapsed time.Duration
}

// ChangeKind labels a line of the change list.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeBitrot  ChangeKind = "bitrot"
	ChangeRemoved ChangeKind = "removed"
	ChangeMoved   ChangeKind = "moved"
)

// Marker returns the one-character symbol used in text reports.
func (k ChangeKind) Marker() string {
	switch k {
	case ChangeAdded:
		return "+"
	case ChangeUpdated:
		return "*"
	case ChangeBitrot:
		return "!"
	case ChangeRemoved:
		return "-"
	case ChangeMoved:
		return ">"
	}
	return "?"
}

// Change is one non-unchanged path in a report.
type Change struct {
	Kind ChangeKind `json:"kind" yaml:"kind"`
	Path string     `json:"path" yaml:"path"`
	From string     `json:"from,omitempty" yaml:"from,omitempty"`
	Len  uint64     `json:"len" yaml:"len"`
	Hash string     `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// Changes flattens the report's buckets in display order: added, updated,
// bitrot, removed, moved.
func (r *Report) Changes() []Change {
	if r.Stats == nil {
		return nil
	}
	s := r.Stats
	changes := make([]Change, 0, len(s.Added)+len(s.Updated)+len(s.UpdatedBitrot)+len(s.Removed)+len(s.Moved))
	add := func(kind ChangeKind, es []*entry.Entry) {
		for _, e := range es {
			changes = append(changes, Change{Kind: kind, Path: e.Path, Len: e.Len, Hash: e.Hash})
		}
	}
	add(ChangeAdded, s.Added)
	add(ChangeUpdated, s.Updated)
	add(ChangeBitrot, s.UpdatedBitrot)
	add(ChangeRemoved, s.Removed)
	for _, m := range s.Moved {
		changes = append(changes, Change{Kind: ChangeMoved, Path: m.To.Path, From: m.From.Path, Len: m.To.Len, Hash: m.To.Hash})
	}
	return changes
}

// Counts returns the bucket sizes, or zero counts for an empty report.
func (r *Report) Counts() stats.Counts {
	if r.Stats == nil {
		return stats.Counts{}
	}
	return r.Stats.Counts()
}

// Formatter renders a report.
type Formatter interface {
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory returns a fresh Formatter.
type FormatterFactory func() Formatter

// Registry maps formatter names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces a formatter.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new instance of the named formatter.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

func Register(name string, factory FormatterFactory) { DefaultRegistry.Register(name, factory) }

func Get(name string) (Formatter, error) { return DefaultRegistry.Get(name) }

func Available() []string { return DefaultRegistry.Available() }
