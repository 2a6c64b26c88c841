// Package diff reconciles two key-sorted sequences into a stream of change
// events. Inputs are consumed lazily, one element per side at a time, so
// arbitrarily large snapshots can be compared without buffering.
package diff

import (
	"fmt"
	"iter"
	"slices"

	"github.com/jamesainslie/auditr/pkg/auditr/entry"
)

// Kind classifies an Event.
type Kind int

// Event kinds.
const (
	Added Kind = iota
	Removed
	Updated
	Unchanged
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	}
	return "unknown"
}

// Event is one reconciliation result. Added events carry only New,
// Removed events only Old; the other kinds carry both.
type Event[T any] struct {
	Kind Kind
	Old  T
	New  T
}

// Diff merges before and after, both sorted ascending by cmp without duplicate
// keys, and yields one event per distinct key in ascending key order.
// Elements sharing a key are reported Unchanged when equal(old, new) holds
// and Updated otherwise. Unsorted input is not detected and yields
// unspecified events.
//
// The returned sequence pulls from its inputs on demand; stopping the range
// loop early releases both inputs.
func Diff[T any](before, after iter.Seq[T], cmp func(a, b T) int, equal func(old, cur T) bool) iter.Seq[Event[T]] {
	return func(yield func(Event[T]) bool) {
		nextOld, stopOld := iter.Pull(before)
		defer stopOld()
		nextNew, stopNew := iter.Pull(after)
		defer stopNew()

		o, okOld := nextOld()
		n, okNew := nextNew()

		for okOld || okNew {
			var ev Event[T]
			switch {
			case !okOld:
				ev = Event[T]{Kind: Added, New: n}
				n, okNew = nextNew()
			case !okNew:
				ev = Event[T]{Kind: Removed, Old: o}
				o, okOld = nextOld()
			default:
				switch c := cmp(o, n); {
				case c < 0:
					ev = Event[T]{Kind: Removed, Old: o}
					o, okOld = nextOld()
				case c > 0:
					ev = Event[T]{Kind: Added, New: n}
					n, okNew = nextNew()
				default:
					ev = Event[T]{Kind: Unchanged, Old: o, New: n}
					if !equal(o, n) {
						ev.Kind = Updated
					}
					o, okOld = nextOld()
					n, okNew = nextNew()
				}
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Slices is Diff over two sorted slices.
func Slices[T any](before, after []T, cmp func(a, b T) int, equal func(old, cur T) bool) iter.Seq[Event[T]] {
	return Diff(slices.Values(before), slices.Values(after), cmp, equal)
}

// Entries diffs two key-sorted entry lists using the given equality.
func Entries(before, after []*entry.Entry, equal func(old, cur *entry.Entry) bool) iter.Seq[Event[*entry.Entry]] {
	return Slices(before, after, entry.Compare, equal)
}

// String renders the event as "+ path", "- path", "* path" or "  path".
func (e Event[T]) String() string {
	switch e.Kind {
	case Added:
		return fmt.Sprintf("+ %v", e.New)
	case Removed:
		return fmt.Sprintf("- %v", e.Old)
	case Updated:
		return fmt.Sprintf("* %v", e.New)
	}
	return fmt.Sprintf("  %v", e.New)
}
