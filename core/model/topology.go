package model

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownFacility is returned when a facility id is not part of the network.
	ErrUnknownFacility = errors.New("unknown facility")
	// ErrSidingOutOfRange is returned when a siding does not fit inside its segment.
	ErrSidingOutOfRange = errors.New("siding does not fit in segment")
)

// Facility is a station or terminal.
type Facility struct {
	ID   string
	Name string
}

// Siding is a passing loop laid alongside a segment.
type Siding struct {
	ID       string
	Position float64 // metres from the segment end closest to the line origin
	Length   float64 // metres
}

// Segment is one stretch of track on a line.
type Segment struct {
	ID            string
	Length        float64 // metres
	Tracks        int
	SpeedLimitKMH float64
	Siding        *Siding
}

// Validate checks the segment geometry.
func (s Segment) Validate() error {
	if s.Length <= 0 {
		return fmt.Errorf("segment %s: length must be positive", s.ID)
	}
	if s.Tracks < 1 {
		return fmt.Errorf("segment %s: at least one track required", s.ID)
	}
	if s.SpeedLimitKMH <= 0 {
		return fmt.Errorf("segment %s: speed limit must be positive", s.ID)
	}
	if s.Siding != nil {
		sd := s.Siding
		if sd.Position <= 0 || sd.Length <= 0 || sd.Position+sd.Length >= s.Length {
			return fmt.Errorf("segment %s siding %s: %w", s.ID, sd.ID, ErrSidingOutOfRange)
		}
	}
	return nil
}

// Line links two facilities through an ordered list of segments. Segments
// are stored in the From→To direction.
type Line struct {
	ID       string
	Name     string
	From     string
	To       string
	Segments []Segment
}

// Connects reports whether the line joins a and b in either direction.
func (l Line) Connects(a, b string) bool {
	return (l.From == a && l.To == b) || (l.From == b && l.To == a)
}

// SegmentsBetween returns the segments in travel order from a to b and
// whether that order is the line's own direction.
func (l Line) SegmentsBetween(a, b string) ([]Segment, bool) {
	if l.From == a && l.To == b {
		out := make([]Segment, len(l.Segments))
		copy(out, l.Segments)
		return out, true
	}
	out := make([]Segment, 0, len(l.Segments))
	for i := len(l.Segments) - 1; i >= 0; i-- {
		out = append(out, l.Segments[i])
	}
	return out, false
}

// Topology is the read-only track network.
type Topology struct {
	facilities map[string]Facility
	lines      []Line
}

// NewTopology validates and indexes the network.
func NewTopology(facilities []Facility, lines []Line) (*Topology, error) {
	t := &Topology{facilities: make(map[string]Facility, len(facilities))}
	for _, f := range facilities {
		if _, ok := t.facilities[f.ID]; ok {
			return nil, fmt.Errorf("duplicate facility %s", f.ID)
		}
		t.facilities[f.ID] = f
	}
	seen := make(map[string]struct{})
	for _, l := range lines {
		if _, ok := seen[l.ID]; ok {
			return nil, fmt.Errorf("duplicate line %s", l.ID)
		}
		seen[l.ID] = struct{}{}
		for _, id := range []string{l.From, l.To} {
			if _, ok := t.facilities[id]; !ok {
				return nil, fmt.Errorf("line %s: %w %s", l.ID, ErrUnknownFacility, id)
			}
		}
		for _, s := range l.Segments {
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("line %s: %w", l.ID, err)
			}
		}
		t.lines = append(t.lines, l)
	}
	return t, nil
}

// Facility looks up a facility by id.
func (t *Topology) Facility(id string) (Facility, bool) {
	f, ok := t.facilities[id]
	return f, ok
}

// LineBetween returns the first line joining a and b.
func (t *Topology) LineBetween(a, b string) (Line, bool) {
	for _, l := range t.lines {
		if l.Connects(a, b) {
			return l, true
		}
	}
	return Line{}, false
}

// Facilities returns all facilities ordered by id.
func (t *Topology) Facilities() []Facility {
	out := make([]Facility, 0, len(t.facilities))
	for _, f := range t.facilities {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lines returns the lines in declaration order.
func (t *Topology) Lines() []Line {
	out := make([]Line, len(t.lines))
	copy(out, t.lines)
	return out
}
