package scheduler

import (
	"errors"
	"fmt"

	"github.com/kilianp07/railsched/core/model"
	"github.com/kilianp07/railsched/core/track"
)

var (
	// ErrShortRoute is returned for routes with fewer than two facilities.
	ErrShortRoute = errors.New("route needs at least two facilities")
	// ErrNoLine is returned when no line joins two consecutive facilities.
	ErrNoLine = errors.New("no line between facilities")
	// ErrNoSegments is returned when the joining line has no segments.
	ErrNoSegments = errors.New("line has no segments")
)

// IsTopologyError reports whether err excludes a train from planning
// rather than aborting the run.
func IsTopologyError(err error) bool {
	return errors.Is(err, ErrShortRoute) || errors.Is(err, ErrNoLine) ||
		errors.Is(err, ErrNoSegments) || errors.Is(err, model.ErrUnknownFacility) ||
		errors.Is(err, model.ErrSidingOutOfRange)
}

// PathBuilder expands facility routes into track location sequences.
type PathBuilder struct {
	topo *model.Topology
}

func NewPathBuilder(topo *model.Topology) *PathBuilder {
	return &PathBuilder{topo: topo}
}

// Build returns the locations a train passes through, starting and ending
// at a facility. A segment with a siding becomes
// [near half, siding, siding, far half] in travel order; runs of two or more
// plain single-track segments within one hop collapse into a joint.
func (b *PathBuilder) Build(route model.Route) ([]track.Location, error) {
	fs := route.Facilities
	if len(fs) < 2 {
		return nil, ErrShortRoute
	}
	origin, ok := b.topo.Facility(fs[0])
	if !ok {
		return nil, fmt.Errorf("%w %s", model.ErrUnknownFacility, fs[0])
	}
	path := []track.Location{track.Facility(origin)}
	for i := 1; i < len(fs); i++ {
		hop, err := b.hop(fs[i-1], fs[i])
		if err != nil {
			return nil, err
		}
		path = append(path, hop...)
	}
	return path, nil
}

type hopItem struct {
	loc   track.Location
	plain *model.Segment
}

// hop returns the locations after from, up to and including to.
func (b *PathBuilder) hop(from, to string) ([]track.Location, error) {
	dest, ok := b.topo.Facility(to)
	if !ok {
		return nil, fmt.Errorf("%w %s", model.ErrUnknownFacility, to)
	}
	line, ok := b.topo.LineBetween(from, to)
	if !ok {
		return nil, fmt.Errorf("%w: %s and %s", ErrNoLine, from, to)
	}
	segs, forward := line.SegmentsBetween(from, to)
	if len(segs) == 0 {
		return nil, fmt.Errorf("line %s: %w", line.ID, ErrNoSegments)
	}
	items := make([]hopItem, 0, len(segs))
	for i := range segs {
		s := segs[i]
		if s.Siding == nil {
			items = append(items, hopItem{loc: track.Plain(s), plain: &segs[i]})
			continue
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		near := track.Half(s, 1, s.Siding.Position)
		far := track.Half(s, 2, s.Length-s.Siding.Position-s.Siding.Length)
		if !forward {
			near, far = far, near
		}
		sid := track.SidingOf(s)
		items = append(items, hopItem{loc: near}, hopItem{loc: sid}, hopItem{loc: sid}, hopItem{loc: far})
	}
	out := collapse(items)
	return append(out, track.Facility(dest)), nil
}

func collapse(items []hopItem) []track.Location {
	var out []track.Location
	for i := 0; i < len(items); {
		if !joinable(items[i]) {
			out = append(out, items[i].loc)
			i++
			continue
		}
		j := i
		var run []model.Segment
		for j < len(items) && joinable(items[j]) {
			run = append(run, *items[j].plain)
			j++
		}
		if len(run) > 1 {
			out = append(out, track.Joint(run))
		} else {
			out = append(out, items[i].loc)
		}
		i = j
	}
	return out
}

func joinable(it hopItem) bool {
	return it.plain != nil && it.plain.Tracks == 1
}
