package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/railsched/core/track"
)

// Schedule owns every event of one planning run. Events are stored once by
// id; the per-location indexes and per-train timelines only hold ids.
// A Schedule is not safe for concurrent mutation.
type Schedule struct {
	ID int

	ids       *IDAllocator
	newIndex  IndexFactory
	events    map[EventID]Event
	locations map[string]OccupancyIndex
	timelines map[int]*Timeline
}

// Option customises a Schedule.
type Option func(*Schedule)

// WithIndex selects the occupancy index implementation.
func WithIndex(f IndexFactory) Option {
	return func(s *Schedule) {
		if f != nil {
			s.newIndex = f
		}
	}
}

// New returns an empty schedule.
func New(id int, opts ...Option) *Schedule {
	s := &Schedule{
		ID:        id,
		ids:       NewIDAllocator(),
		newIndex:  func() OccupancyIndex { return NewIntervalTree() },
		events:    make(map[EventID]Event),
		locations: make(map[string]OccupancyIndex),
		timelines: make(map[int]*Timeline),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddEvent stores a copy of e under a fresh id and returns the copy.
func (s *Schedule) AddEvent(e Event) Event {
	e.ID = s.ids.Next()
	e.ScheduleID = s.ID
	s.insert(e)
	return e
}

func (s *Schedule) insert(e Event) {
	if _, ok := s.events[e.ID]; ok {
		panic(fmt.Sprintf("schedule %d: event %d already present", s.ID, e.ID))
	}
	s.events[e.ID] = e
	name := e.From.Name()
	idx, ok := s.locations[name]
	if !ok {
		idx = s.newIndex()
		s.locations[name] = idx
	}
	idx.Insert(Entry{ID: e.ID, Interval: e.Interval})
	tl, ok := s.timelines[e.TrainID]
	if !ok {
		tl = &Timeline{TrainID: e.TrainID}
		s.timelines[e.TrainID] = tl
	}
	tl.append(e.ID)
}

// RemoveEvent deletes the event from every index. Empty indexes and
// timelines are dropped.
func (s *Schedule) RemoveEvent(id EventID) bool {
	e, ok := s.events[id]
	if !ok {
		return false
	}
	delete(s.events, id)
	name := e.From.Name()
	if idx, ok := s.locations[name]; ok {
		idx.Remove(Entry{ID: e.ID, Interval: e.Interval})
		if idx.IsEmpty() {
			delete(s.locations, name)
		}
	}
	if tl, ok := s.timelines[e.TrainID]; ok {
		tl.remove(id)
		if tl.Len() == 0 {
			delete(s.timelines, e.TrainID)
		}
	}
	return true
}

// Event looks up an event by id.
func (s *Schedule) Event(id EventID) (Event, bool) {
	e, ok := s.events[id]
	return e, ok
}

func (s *Schedule) Len() int { return len(s.events) }

func (s *Schedule) resolve(ids []EventID) []Event {
	out := make([]Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.events[id])
	}
	return out
}

// FindOverlaps returns the events starting at loc whose interval overlaps iv.
func (s *Schedule) FindOverlaps(loc track.Location, iv Interval) []Event {
	idx, ok := s.locations[loc.Name()]
	if !ok {
		return nil
	}
	return s.resolve(idx.FindOverlaps(iv))
}

// ActiveEventsAt returns the events whose interval contains t.
func (s *Schedule) ActiveEventsAt(t time.Time) []Event {
	var out []Event
	for _, e := range s.events {
		if e.Interval.Contains(t) {
			out = append(out, e)
		}
	}
	sortByTime(out)
	return out
}

// Timeline returns the events of a train in commit order.
func (s *Schedule) Timeline(trainID int) []Event {
	tl, ok := s.timelines[trainID]
	if !ok {
		return nil
	}
	return s.resolve(tl.events)
}

// LastEnd is the end of the latest event on the train's timeline.
func (s *Schedule) LastEnd(trainID int) (time.Time, bool) {
	tl, ok := s.timelines[trainID]
	if !ok {
		return time.Time{}, false
	}
	var last time.Time
	for _, id := range tl.events {
		if end := s.events[id].Interval.End; end.After(last) {
			last = end
		}
	}
	return last, true
}

// TrainIDs lists the trains that own at least one event.
func (s *Schedule) TrainIDs() []int {
	out := make([]int, 0, len(s.timelines))
	for id := range s.timelines {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Locations lists the names of occupied locations.
func (s *Schedule) Locations() []string {
	out := make([]string, 0, len(s.locations))
	for name := range s.locations {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AllEvents returns every event ordered by id.
func (s *Schedule) AllEvents() []Event {
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllEventsTimeSorted returns every event ordered by start time.
func (s *Schedule) AllEventsTimeSorted() []Event {
	out := s.AllEvents()
	sortByTime(out)
	return out
}

// EventsUpToMostRecentFirst returns the events starting at or before t,
// latest first.
func (s *Schedule) EventsUpToMostRecentFirst(t time.Time) []Event {
	var out []Event
	for _, e := range s.events {
		if !e.Interval.Start.After(t) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.After(b.Interval.Start)
		}
		return a.ID > b.ID
	})
	return out
}

func sortByTime(evs []Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		a, b := evs[i], evs[j]
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		return a.ID < b.ID
	})
}
