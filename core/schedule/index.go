package schedule

import (
	"fmt"
	"sort"
)

// Entry is what an occupancy index stores for one event.
type Entry struct {
	ID       EventID
	Interval Interval
}

func entryLess(a, b Entry) bool {
	if !a.Interval.Start.Equal(b.Interval.Start) {
		return a.Interval.Start.Before(b.Interval.Start)
	}
	return a.ID < b.ID
}

// OccupancyIndex holds the events committed at one location. Entries are
// keyed by (start, id) so equal start times coexist. Results are returned in
// key order.
type OccupancyIndex interface {
	Insert(e Entry)
	Remove(e Entry) bool
	FindOverlaps(iv Interval) []EventID
	IsEmpty() bool
	All() []EventID
	Len() int
}

// IndexFactory builds an empty index for a newly used location.
type IndexFactory func() OccupancyIndex

// NewIndexFactory maps a configuration name to an index implementation.
func NewIndexFactory(kind string) (IndexFactory, error) {
	switch kind {
	case "", "tree":
		return func() OccupancyIndex { return NewIntervalTree() }, nil
	case "sorted":
		return func() OccupancyIndex { return NewSortedIndex() }, nil
	default:
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}
}

// SortedIndex keeps entries in a slice sorted by start and scans it
// linearly. It suits locations with few events.
type SortedIndex struct {
	entries []Entry
}

func NewSortedIndex() *SortedIndex { return &SortedIndex{} }

func (s *SortedIndex) search(e Entry) int {
	return sort.Search(len(s.entries), func(i int) bool { return !entryLess(s.entries[i], e) })
}

func (s *SortedIndex) Insert(e Entry) {
	i := s.search(e)
	if i < len(s.entries) && s.entries[i].ID == e.ID && s.entries[i].Interval.Start.Equal(e.Interval.Start) {
		panic(fmt.Sprintf("event %d already indexed", e.ID))
	}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

func (s *SortedIndex) Remove(e Entry) bool {
	i := s.search(e)
	if i >= len(s.entries) || s.entries[i].ID != e.ID {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

func (s *SortedIndex) FindOverlaps(iv Interval) []EventID {
	var out []EventID
	for _, e := range s.entries {
		if !e.Interval.Start.Before(iv.End) {
			break
		}
		if e.Interval.Overlaps(iv) {
			out = append(out, e.ID)
		}
	}
	return out
}

func (s *SortedIndex) IsEmpty() bool { return len(s.entries) == 0 }

func (s *SortedIndex) All() []EventID {
	out := make([]EventID, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.ID
	}
	return out
}

func (s *SortedIndex) Len() int { return len(s.entries) }
