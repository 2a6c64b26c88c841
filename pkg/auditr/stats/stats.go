// Package stats aggregates diff events into per-category buckets and
// detects bitrot and moved files.
package stats

import (
	"iter"

	"github.com/jamesainslie/auditr/pkg/auditr/diff"
	"github.com/jamesainslie/auditr/pkg/auditr/entry"
)

// Move pairs a removed entry with the added entry carrying the same hash.
type Move struct {
	From *entry.Entry `json:"from" yaml:"from"`
	To   *entry.Entry `json:"to" yaml:"to"`
}

// Stats is the classification of one comparison.
//
// Total counts entries present on the new side (added, updated, bitrot,
// unchanged); moves do not change it.
type Stats struct {
	Added         []*entry.Entry
	Removed       []*entry.Entry
	Updated       []*entry.Entry
	UpdatedBitrot []*entry.Entry
	Moved         []Move
	Unchanged     []*entry.Entry
	Total         uint64
}

// Counts is the size of each bucket.
type Counts struct {
	Added         int    `json:"added" yaml:"added"`
	Removed       int    `json:"removed" yaml:"removed"`
	Updated       int    `json:"updated" yaml:"updated"`
	UpdatedBitrot int    `json:"updated_bitrot" yaml:"updated_bitrot"`
	Moved         int    `json:"moved" yaml:"moved"`
	Unchanged     int    `json:"unchanged" yaml:"unchanged"`
	Total         uint64 `json:"total" yaml:"total"`
}

// Collect drains events and returns the classified result.
//
// Updated entries whose modification time did not change while the digest
// did are filed as bitrot: content changed without a write going through the
// filesystem. For Unchanged events the new entry is kept when it carries a
// digest, otherwise the recorded one, so a metadata-only scan does not lose
// known hashes.
func Collect(events iter.Seq[diff.Event[*entry.Entry]]) *Stats {
	s := &Stats{}
	for ev := range events {
		switch ev.Kind {
		case diff.Added:
			s.Added = append(s.Added, ev.New)
			s.Total++
		case diff.Removed:
			s.Removed = append(s.Removed, ev.Old)
		case diff.Updated:
			if ev.Old.Modified == ev.New.Modified && ev.Old.Hash != ev.New.Hash {
				s.UpdatedBitrot = append(s.UpdatedBitrot, ev.New)
			} else {
				s.Updated = append(s.Updated, ev.New)
			}
			s.Total++
		case diff.Unchanged:
			kept := ev.New
			if !kept.HasHash() {
				kept = ev.Old
			}
			s.Unchanged = append(s.Unchanged, kept)
			s.Total++
		}
	}
	s.detectMoves()
	return s
}

// detectMoves turns removed/added pairs with equal digests into moves.
// When several removed entries share a digest the one latest in key order
// wins; the others stay removed. Entries without a digest never pair.
func (s *Stats) detectMoves() {
	if len(s.Removed) == 0 || len(s.Added) == 0 {
		return
	}

	byHash := make(map[string]*entry.Entry, len(s.Removed))
	for _, e := range s.Removed {
		if e.HasHash() {
			byHash[e.Hash] = e
		}
	}

	moved := make(map[string]struct{})
	added := s.Added[:0:0]
	for _, e := range s.Added {
		from, ok := byHash[e.Hash]
		if !ok || !e.HasHash() {
			added = append(added, e)
			continue
		}
		delete(byHash, e.Hash)
		moved[from.Key] = struct{}{}
		s.Moved = append(s.Moved, Move{From: from, To: e})
	}
	if len(moved) == 0 {
		return
	}
	s.Added = added

	removed := s.Removed[:0:0]
	for _, e := range s.Removed {
		if _, ok := moved[e.Key]; !ok {
			removed = append(removed, e)
		}
	}
	s.Removed = removed
}

// Modified reports whether anything other than unchanged entries was found.
func (s *Stats) Modified() bool {
	return len(s.Added) > 0 || len(s.Removed) > 0 || len(s.Updated) > 0 ||
		len(s.UpdatedBitrot) > 0 || len(s.Moved) > 0
}

// HasBitrot reports whether any entry changed content without a new mtime.
func (s *Stats) HasBitrot() bool { return len(s.UpdatedBitrot) > 0 }

// MovedTo returns the destination of the entry previously recorded at path.
func (s *Stats) MovedTo(path string) (*entry.Entry, bool) {
	key := entry.Key(path)
	for _, m := range s.Moved {
		if m.From.Key == key {
			return m.To, true
		}
	}
	return nil, false
}

// IterNew yields the entries that make up the new state: added, unchanged,
// updated, bitrot, then move destinations.
func (s *Stats) IterNew() iter.Seq[*entry.Entry] {
	return func(yield func(*entry.Entry) bool) {
		for _, bucket := range [][]*entry.Entry{s.Added, s.Unchanged, s.Updated, s.UpdatedBitrot} {
			for _, e := range bucket {
				if !yield(e) {
					return
				}
			}
		}
		for _, m := range s.Moved {
			if !yield(m.To) {
				return
			}
		}
	}
}

// PendingBytes sums the sizes of new-state entries that still lack a digest.
func (s *Stats) PendingBytes() uint64 {
	var n uint64
	for e := range s.IterNew() {
		if !e.HasHash() {
			n += e.Len
		}
	}
	return n
}

// Counts returns the bucket sizes.
func (s *Stats) Counts() Counts {
	return Counts{
		Added:         len(s.Added),
		Removed:       len(s.Removed),
		Updated:       len(s.Updated),
		UpdatedBitrot: len(s.UpdatedBitrot),
		Moved:         len(s.Moved),
		Unchanged:     len(s.Unchanged),
		Total:         s.Total,
	}
}
