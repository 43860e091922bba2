package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/railsched/core/model"
	"github.com/kilianp07/railsched/core/track"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

// constantSpeed times every segment-like location at mps metres per second.
func constantSpeed(mps float64) TravelTimeFunc {
	return func(_ model.Train, loc track.Location) (time.Duration, error) {
		if !loc.IsSegmentLike() {
			return 0, ErrNoTravelTime
		}
		return time.Duration(loc.Length() / mps * float64(time.Second)), nil
	}
}

func single(id string, length float64) model.Segment {
	return model.Segment{ID: id, Length: length, Tracks: 1, SpeedLimitKMH: 100}
}

func withSiding(id string, length, pos, sidingLength float64) model.Segment {
	s := single(id, length)
	s.Siding = &model.Siding{ID: id + "-loop", Position: pos, Length: sidingLength}
	return s
}

func network(t *testing.T, lines ...model.Line) *model.Topology {
	t.Helper()
	seen := map[string]bool{}
	var fs []model.Facility
	for _, l := range lines {
		for _, id := range []string{l.From, l.To} {
			if !seen[id] {
				seen[id] = true
				fs = append(fs, model.Facility{ID: id})
			}
		}
	}
	topo, err := model.NewTopology(fs, lines)
	require.NoError(t, err)
	return topo
}

func train(id int, loco string, start time.Time, facilities ...string) model.Train {
	return model.Train{
		ID:           id,
		NominalStart: start,
		Locomotives:  []model.Locomotive{{ID: loco, Model: model.LocomotiveModel{MaxSpeedKMH: 100, PowerKW: 3000, WeightT: 80}}},
		Route:        model.Route{Facilities: facilities},
	}
}

func generator(t *testing.T, topo *model.Topology, cfg Config, opts ...Option) *Generator {
	t.Helper()
	g, err := NewGenerator(cfg, topo, constantSpeed(20), opts...)
	require.NoError(t, err)
	return g
}
