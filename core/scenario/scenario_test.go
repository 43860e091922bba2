package scenario

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/railsched/core/model"
)

func TestLoadYAML(t *testing.T) {
	sc, err := Load("testdata/corridor.yaml")
	require.NoError(t, err)

	require.Len(t, sc.Trains, 2)
	assert.Equal(t, 1, sc.Trains[0].ID, "trains are sorted by id")
	north, ok := sc.Train(1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), north.NominalStart.UTC())
	assert.Equal(t, "e4700", north.Locomotives[0].Model.ID)
	assert.Equal(t, 88.0+22+24, north.TotalWeightT())
	assert.Equal(t, []string{"PRT", "ERM", "TRF"}, north.Route.Facilities)

	line, ok := sc.Topology.LineBetween("ERM", "PRT")
	require.True(t, ok)
	require.NotNil(t, line.Segments[1].Siding)
	assert.Equal(t, 1500.0, line.Segments[1].Siding.Length)
	assert.Len(t, sc.Topology.Facilities(), 3)

	_, ok = sc.Train(9)
	assert.False(t, ok)
}

func TestDecodeJSON(t *testing.T) {
	doc := `{
	  "facilities": [{"id": "A"}, {"id": "B"}],
	  "lines": [{"id": "AB", "from": "A", "to": "B",
	    "segments": [{"id": "s", "length": 1000, "tracks": 1, "speed_limit_kmh": 60}]}],
	  "locomotive_models": [{"id": "m", "max_speed_kmh": 100, "power_kw": 1000, "weight_t": 80}],
	  "locomotives": [{"id": "L", "model": "m"}],
	  "trains": [{"id": 7, "nominal_start": "2025-03-01T08:00:00Z", "locomotives": ["L"], "route": ["A", "B"]}]
	}`
	sc, err := Decode(strings.NewReader(doc), "json")
	require.NoError(t, err)
	require.Len(t, sc.Trains, 1)
	assert.Equal(t, 7, sc.Trains[0].ID)
}

func TestBuildRejectsBadReferences(t *testing.T) {
	base := func() File {
		return File{
			Facilities:       []Facility{{ID: "A"}, {ID: "B"}},
			Lines:            []Line{{ID: "AB", From: "A", To: "B", Segments: []Segment{{ID: "s", Length: 100, Tracks: 1, SpeedLimitKMH: 50}}}},
			LocomotiveModels: []LocomotiveModel{{ID: "m", MaxSpeedKMH: 100, PowerKW: 1000, WeightT: 80}},
			Locomotives:      []Locomotive{{ID: "L", Model: "m"}},
			Wagons:           []Wagon{{ID: "W", TareWeightT: 20}},
			Trains:           []Train{{ID: 1, Locomotives: []string{"L"}, Route: []string{"A", "B"}}},
		}
	}
	_, err := base().Build()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*File)
		ref    bool
	}{
		{"unknown model", func(f *File) { f.Locomotives[0].Model = "x" }, true},
		{"unknown locomotive", func(f *File) { f.Trains[0].Locomotives = []string{"Q"} }, true},
		{"unknown wagon", func(f *File) { f.Trains[0].Freights = []Freight{{ID: "f", Wagons: []string{"Z"}}} }, true},
		{"unknown facility", func(f *File) { f.Trains[0].Route = []string{"A", "Z"} }, true},
		{"duplicate train", func(f *File) { f.Trains = append(f.Trains, f.Trains[0]) }, false},
		{"duplicate wagon", func(f *File) { f.Wagons = append(f.Wagons, f.Wagons[0]) }, false},
		{"short route", func(f *File) { f.Trains[0].Route = []string{"A"} }, false},
		{"bad line endpoint", func(f *File) { f.Lines[0].To = "Z" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base()
			tt.mutate(&f)
			_, err := f.Build()
			require.Error(t, err)
			assert.Equal(t, tt.ref, errors.Is(err, ErrUnknownReference))
		})
	}
	f := base()
	f.Lines[0].To = "Z"
	_, err = f.Build()
	assert.ErrorIs(t, err, model.ErrUnknownFacility)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("facilities: []\nstations: []\n"), "yaml")
	assert.Error(t, err, "unknown fields are rejected")
	_, err = Decode(strings.NewReader(""), "toml")
	assert.Error(t, err)
	_, err = Load("testdata/missing.yaml")
	assert.Error(t, err)
}
