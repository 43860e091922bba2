package track

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kilianp07/railsched/core/model"
)

// Kind tags the variant held by a Location.
type Kind int

const (
	KindFacility Kind = iota
	KindSegment
	KindDividedHalf
	KindJoint
	KindSiding
)

func (k Kind) String() string {
	switch k {
	case KindFacility:
		return "facility"
	case KindSegment:
		return "segment"
	case KindDividedHalf:
		return "divided_half"
	case KindJoint:
		return "joint"
	case KindSiding:
		return "siding"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Location is a place a train can occupy. The zero value is invalid; build
// locations with the constructors below.
type Location struct {
	kind       Kind
	id         string
	owner      string
	part       int
	length     float64
	tracks     int
	speedLimit float64
	members    []string
}

// Facility wraps a station.
func Facility(f model.Facility) Location {
	return Location{kind: KindFacility, id: f.ID}
}

// Plain wraps a segment that is traversed whole.
func Plain(s model.Segment) Location {
	return Location{
		kind:       KindSegment,
		id:         s.ID,
		length:     s.Length,
		tracks:     s.Tracks,
		speedLimit: s.SpeedLimitKMH,
	}
}

// Half is one side of a segment split at its siding. Part 1 lies between the
// line origin and the siding, part 2 between the siding and the line end.
func Half(s model.Segment, part int, length float64) Location {
	return Location{
		kind:       KindDividedHalf,
		id:         s.ID,
		owner:      s.ID,
		part:       part,
		length:     length,
		tracks:     s.Tracks,
		speedLimit: s.SpeedLimitKMH,
	}
}

// Joint merges consecutive single-track segments into one collision unit.
// Member ids are sorted so both travel directions share the same name.
func Joint(segs []model.Segment) Location {
	ids := make([]string, 0, len(segs))
	var length float64
	limit := math.Inf(1)
	for _, s := range segs {
		ids = append(ids, s.ID)
		length += s.Length
		limit = math.Min(limit, s.SpeedLimitKMH)
	}
	sort.Strings(ids)
	return Location{
		kind:       KindJoint,
		id:         strings.Join(ids, "+"),
		length:     length,
		tracks:     1,
		speedLimit: limit,
		members:    ids,
	}
}

// SidingOf returns the siding laid along s. It panics when s has none.
func SidingOf(s model.Segment) Location {
	if s.Siding == nil {
		panic(fmt.Sprintf("segment %s has no siding", s.ID))
	}
	return Location{
		kind:       KindSiding,
		id:         s.Siding.ID,
		owner:      s.ID,
		length:     s.Siding.Length,
		tracks:     1,
		speedLimit: s.SpeedLimitKMH,
	}
}

// Transit is a plain stand-in for the siding used to time a move along it.
func (l Location) Transit() Location {
	return Location{
		kind:       KindSegment,
		id:         l.owner,
		length:     l.length,
		tracks:     1,
		speedLimit: l.speedLimit,
	}
}

func (l Location) Kind() Kind             { return l.kind }
func (l Location) ID() string             { return l.id }
func (l Location) Owner() string          { return l.owner }
func (l Location) Part() int              { return l.part }
func (l Location) Length() float64        { return l.length }
func (l Location) Tracks() int            { return l.tracks }
func (l Location) SpeedLimitKMH() float64 { return l.speedLimit }

// IsFacility reports whether l is a station.
func (l Location) IsFacility() bool { return l.kind == KindFacility }

// IsSiding reports whether l is a siding.
func (l Location) IsSiding() bool { return l.kind == KindSiding }

// IsSegmentLike reports whether l is finite-length running track.
func (l Location) IsSegmentLike() bool {
	return l.kind == KindSegment || l.kind == KindDividedHalf || l.kind == KindJoint
}

// SingleTrack reports whether head-on checks apply to l.
func (l Location) SingleTrack() bool {
	return l.IsSegmentLike() && l.tracks == 1
}

// Name identifies the physical resource. Two locations with the same name
// are the same resource regardless of travel direction.
func (l Location) Name() string {
	switch l.kind {
	case KindFacility:
		return "Facility:" + l.id
	case KindSegment:
		return "Segment:" + l.id
	case KindDividedHalf:
		return fmt.Sprintf("Segment:%s/part%d", l.id, l.part)
	case KindJoint:
		return "Joint:" + l.id
	case KindSiding:
		return "Siding:" + l.id
	default:
		return ""
	}
}

func (l Location) String() string { return l.Name() }

// Equal compares by resource identity.
func (l Location) Equal(o Location) bool { return l.Name() == o.Name() }

type locationJSON struct {
	Kind          string   `json:"kind"`
	ID            string   `json:"id"`
	Owner         string   `json:"owner,omitempty"`
	Part          int      `json:"part,omitempty"`
	Length        float64  `json:"length,omitempty"`
	Tracks        int      `json:"tracks,omitempty"`
	SpeedLimitKMH float64  `json:"speed_limit_kmh,omitempty"`
	Members       []string `json:"members,omitempty"`
}

// MarshalJSON encodes every attribute so a location survives a round trip
// through the dispatch history.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationJSON{
		Kind:          l.kind.String(),
		ID:            l.id,
		Owner:         l.owner,
		Part:          l.part,
		Length:        l.length,
		Tracks:        l.tracks,
		SpeedLimitKMH: l.speedLimit,
		Members:       l.members,
	})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (l *Location) UnmarshalJSON(b []byte) error {
	var v locationJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	kind, err := parseKind(v.Kind)
	if err != nil {
		return err
	}
	*l = Location{
		kind:       kind,
		id:         v.ID,
		owner:      v.Owner,
		part:       v.Part,
		length:     v.Length,
		tracks:     v.Tracks,
		speedLimit: v.SpeedLimitKMH,
		members:    v.Members,
	}
	return nil
}

func parseKind(s string) (Kind, error) {
	for k := KindFacility; k <= KindSiding; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown location kind %q", s)
}
