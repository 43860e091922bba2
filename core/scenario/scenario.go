// Package scenario loads a track network and a batch of trains from a YAML
// or JSON document.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/railsched/core/model"
)

// ErrUnknownReference is returned when an id does not resolve.
var ErrUnknownReference = errors.New("unknown reference")

type Facility struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type Siding struct {
	ID       string  `json:"id" yaml:"id"`
	Position float64 `json:"position" yaml:"position"`
	Length   float64 `json:"length" yaml:"length"`
}

type Segment struct {
	ID            string  `json:"id" yaml:"id"`
	Length        float64 `json:"length" yaml:"length"`
	Tracks        int     `json:"tracks" yaml:"tracks"`
	SpeedLimitKMH float64 `json:"speed_limit_kmh" yaml:"speed_limit_kmh"`
	Siding        *Siding `json:"siding,omitempty" yaml:"siding,omitempty"`
}

type Line struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	From     string    `json:"from" yaml:"from"`
	To       string    `json:"to" yaml:"to"`
	Segments []Segment `json:"segments" yaml:"segments"`
}

type LocomotiveModel struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name,omitempty" yaml:"name,omitempty"`
	MaxSpeedKMH  float64 `json:"max_speed_kmh" yaml:"max_speed_kmh"`
	PowerKW      float64 `json:"power_kw" yaml:"power_kw"`
	WeightT      float64 `json:"weight_t" yaml:"weight_t"`
	Acceleration float64 `json:"acceleration,omitempty" yaml:"acceleration,omitempty"`
}

type Locomotive struct {
	ID    string `json:"id" yaml:"id"`
	Model string `json:"model" yaml:"model"`
}

type Wagon struct {
	ID          string  `json:"id" yaml:"id"`
	TareWeightT float64 `json:"tare_weight_t" yaml:"tare_weight_t"`
}

type Freight struct {
	ID     string   `json:"id" yaml:"id"`
	Wagons []string `json:"wagons" yaml:"wagons"`
}

type Train struct {
	ID           int       `json:"id" yaml:"id"`
	Name         string    `json:"name,omitempty" yaml:"name,omitempty"`
	NominalStart time.Time `json:"nominal_start" yaml:"nominal_start"`
	Dispatched   bool      `json:"dispatched,omitempty" yaml:"dispatched,omitempty"`
	Locomotives  []string  `json:"locomotives" yaml:"locomotives"`
	Route        []string  `json:"route" yaml:"route"`
	Freights     []Freight `json:"freights,omitempty" yaml:"freights,omitempty"`
}

// File mirrors the document layout.
type File struct {
	Facilities       []Facility        `json:"facilities" yaml:"facilities"`
	Lines            []Line            `json:"lines" yaml:"lines"`
	LocomotiveModels []LocomotiveModel `json:"locomotive_models" yaml:"locomotive_models"`
	Locomotives      []Locomotive      `json:"locomotives" yaml:"locomotives"`
	Wagons           []Wagon           `json:"wagons" yaml:"wagons"`
	Trains           []Train           `json:"trains" yaml:"trains"`
}

// Scenario is a resolved network plus the trains to plan on it.
type Scenario struct {
	Topology *model.Topology
	Trains   []model.Train
}

// Train looks a train up by id.
func (s *Scenario) Train(id int) (model.Train, bool) {
	for _, tr := range s.Trains {
		if tr.ID == id {
			return tr, true
		}
	}
	return model.Train{}, false
}

// Load reads a scenario file; the format follows the extension.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	sc, err := Decode(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Decode parses and resolves a scenario. Unknown fields are rejected.
func Decode(r io.Reader, format string) (*Scenario, error) {
	var doc File
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, err
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format: %s", format)
	}
	return doc.Build()
}

// Build resolves every reference and validates the result.
func (f File) Build() (*Scenario, error) {
	facilities := make([]model.Facility, 0, len(f.Facilities))
	for _, fc := range f.Facilities {
		facilities = append(facilities, model.Facility{ID: fc.ID, Name: fc.Name})
	}
	lines := make([]model.Line, 0, len(f.Lines))
	for _, l := range f.Lines {
		ml := model.Line{ID: l.ID, Name: l.Name, From: l.From, To: l.To}
		for _, s := range l.Segments {
			seg := model.Segment{ID: s.ID, Length: s.Length, Tracks: s.Tracks, SpeedLimitKMH: s.SpeedLimitKMH}
			if s.Siding != nil {
				seg.Siding = &model.Siding{ID: s.Siding.ID, Position: s.Siding.Position, Length: s.Siding.Length}
			}
			ml.Segments = append(ml.Segments, seg)
		}
		lines = append(lines, ml)
	}
	topo, err := model.NewTopology(facilities, lines)
	if err != nil {
		return nil, err
	}

	models := make(map[string]model.LocomotiveModel, len(f.LocomotiveModels))
	for _, m := range f.LocomotiveModels {
		if _, ok := models[m.ID]; ok {
			return nil, fmt.Errorf("duplicate locomotive model %s", m.ID)
		}
		models[m.ID] = model.LocomotiveModel{
			ID: m.ID, Name: m.Name, MaxSpeedKMH: m.MaxSpeedKMH,
			PowerKW: m.PowerKW, WeightT: m.WeightT, Acceleration: m.Acceleration,
		}
	}
	locos := make(map[string]model.Locomotive, len(f.Locomotives))
	for _, l := range f.Locomotives {
		if _, ok := locos[l.ID]; ok {
			return nil, fmt.Errorf("duplicate locomotive %s", l.ID)
		}
		m, ok := models[l.Model]
		if !ok {
			return nil, fmt.Errorf("locomotive %s: %w model %s", l.ID, ErrUnknownReference, l.Model)
		}
		locos[l.ID] = model.Locomotive{ID: l.ID, Model: m}
	}
	wagons := make(map[string]model.Wagon, len(f.Wagons))
	for _, w := range f.Wagons {
		if _, ok := wagons[w.ID]; ok {
			return nil, fmt.Errorf("duplicate wagon %s", w.ID)
		}
		wagons[w.ID] = model.Wagon{ID: w.ID, TareWeightT: w.TareWeightT}
	}

	sc := &Scenario{Topology: topo}
	seen := make(map[int]bool, len(f.Trains))
	for _, t := range f.Trains {
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate train %d", t.ID)
		}
		seen[t.ID] = true
		tr, err := resolveTrain(t, topo, locos, wagons)
		if err != nil {
			return nil, err
		}
		sc.Trains = append(sc.Trains, tr)
	}
	sort.Slice(sc.Trains, func(i, j int) bool { return sc.Trains[i].ID < sc.Trains[j].ID })
	return sc, nil
}

func resolveTrain(t Train, topo *model.Topology, locos map[string]model.Locomotive, wagons map[string]model.Wagon) (model.Train, error) {
	tr := model.Train{
		ID:           t.ID,
		Name:         t.Name,
		NominalStart: t.NominalStart,
		Dispatched:   t.Dispatched,
		Route:        model.Route{Facilities: append([]string(nil), t.Route...)},
	}
	for _, id := range t.Locomotives {
		l, ok := locos[id]
		if !ok {
			return tr, fmt.Errorf("train %d: %w locomotive %s", t.ID, ErrUnknownReference, id)
		}
		tr.Locomotives = append(tr.Locomotives, l)
	}
	for _, id := range t.Route {
		if _, ok := topo.Facility(id); !ok {
			return tr, fmt.Errorf("train %d: %w facility %s", t.ID, ErrUnknownReference, id)
		}
	}
	for _, fr := range t.Freights {
		mf := model.Freight{ID: fr.ID}
		for _, id := range fr.Wagons {
			w, ok := wagons[id]
			if !ok {
				return tr, fmt.Errorf("train %d: %w wagon %s", t.ID, ErrUnknownReference, id)
			}
			mf.Wagons = append(mf.Wagons, w)
		}
		tr.Route.Freights = append(tr.Route.Freights, mf)
	}
	if err := tr.Validate(); err != nil {
		return tr, err
	}
	return tr, nil
}
