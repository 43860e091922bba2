package track

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/railsched/core/model"
)

func TestJointNameIsDirectionIndependent(t *testing.T) {
	a := model.Segment{ID: "s1", Length: 1000, Tracks: 1, SpeedLimitKMH: 100}
	b := model.Segment{ID: "s2", Length: 500, Tracks: 1, SpeedLimitKMH: 60}
	fwd := Joint([]model.Segment{a, b})
	rev := Joint([]model.Segment{b, a})
	assert.True(t, fwd.Equal(rev))
	assert.Equal(t, "Joint:s1+s2", fwd.Name())
	assert.Equal(t, 1500.0, fwd.Length())
	assert.Equal(t, 60.0, fwd.SpeedLimitKMH())
	assert.True(t, fwd.SingleTrack())
}

func TestKindPredicates(t *testing.T) {
	seg := model.Segment{ID: "s", Length: 5000, Tracks: 1, SpeedLimitKMH: 80,
		Siding: &model.Siding{ID: "sd", Position: 2000, Length: 1000}}
	fac := Facility(model.Facility{ID: "A"})
	sid := SidingOf(seg)
	half := Half(seg, 2, 2000)

	assert.True(t, fac.IsFacility())
	assert.False(t, fac.IsSegmentLike())
	assert.True(t, sid.IsSiding())
	assert.False(t, sid.SingleTrack(), "sidings are not subject to head-on checks")
	assert.True(t, half.SingleTrack())
	assert.Equal(t, "Segment:s/part2", half.Name())
	assert.Equal(t, "s", sid.Owner())

	tr := sid.Transit()
	assert.Equal(t, KindSegment, tr.Kind())
	assert.Equal(t, 1000.0, tr.Length())
	assert.Equal(t, 80.0, tr.SpeedLimitKMH())
}

func TestSidingOfPanicsWithoutSiding(t *testing.T) {
	assert.Panics(t, func() { SidingOf(model.Segment{ID: "x"}) })
}

func TestLocationJSON(t *testing.T) {
	loc := Joint([]model.Segment{
		{ID: "b", Length: 10, Tracks: 1, SpeedLimitKMH: 50},
		{ID: "a", Length: 20, Tracks: 1, SpeedLimitKMH: 40},
	})
	data, err := json.Marshal(loc)
	require.NoError(t, err)
	var back Location
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, loc, back)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"tunnel","id":"x"}`), &back))
}
