package model

import (
	"fmt"
	"time"
)

// LocomotiveModel holds the performance characteristics shared by locomotives
// of the same series.
type LocomotiveModel struct {
	ID           string
	Name         string
	MaxSpeedKMH  float64 // top speed in km/h
	PowerKW      float64 // traction power in kW
	WeightT      float64 // service weight in tonnes
	Acceleration float64 // m/s², zero when unknown
}

// Locomotive is a single traction unit.
type Locomotive struct {
	ID    string
	Model LocomotiveModel
}

// Wagon is a single unpowered vehicle.
type Wagon struct {
	ID          string
	TareWeightT float64 // empty weight in tonnes
}

// Freight groups the wagons carrying one consignment.
type Freight struct {
	ID     string
	Wagons []Wagon
}

// Route is the ordered list of facilities a train calls at and the freights
// it hauls between them.
type Route struct {
	Facilities []string
	Freights   []Freight
}

// Train is one scheduled service.
type Train struct {
	ID           int
	Name         string
	NominalStart time.Time // requested departure from the first facility
	Dispatched   bool      // committed plans are never altered by later runs
	Locomotives  []Locomotive
	Route        Route
}

// Validate checks that the train can be planned.
func (t Train) Validate() error {
	if len(t.Locomotives) == 0 {
		return fmt.Errorf("train %d: no locomotive assigned", t.ID)
	}
	if len(t.Route.Facilities) < 2 {
		return fmt.Errorf("train %d: route needs at least two facilities", t.ID)
	}
	return nil
}

// Wagons returns every wagon hauled on the route.
func (t Train) Wagons() []Wagon {
	var out []Wagon
	for _, f := range t.Route.Freights {
		out = append(out, f.Wagons...)
	}
	return out
}

// RollingStock returns identifiers of every locomotive and wagon the train
// uses. Locomotive and wagon ids live in separate namespaces.
func (t Train) RollingStock() []string {
	ids := make([]string, 0, len(t.Locomotives))
	for _, l := range t.Locomotives {
		ids = append(ids, "loco:"+l.ID)
	}
	for _, w := range t.Wagons() {
		ids = append(ids, "wagon:"+w.ID)
	}
	return ids
}

// SharesRollingStock reports whether t and o use at least one common
// locomotive or wagon.
func (t Train) SharesRollingStock(o Train) bool {
	mine := make(map[string]struct{})
	for _, id := range t.RollingStock() {
		mine[id] = struct{}{}
	}
	for _, id := range o.RollingStock() {
		if _, ok := mine[id]; ok {
			return true
		}
	}
	return false
}

// TotalPowerKW sums the traction power of all locomotives.
func (t Train) TotalPowerKW() float64 {
	var p float64
	for _, l := range t.Locomotives {
		p += l.Model.PowerKW
	}
	return p
}

// TotalWeightT sums locomotive service weights and wagon tare weights.
func (t Train) TotalWeightT() float64 {
	var w float64
	for _, l := range t.Locomotives {
		w += l.Model.WeightT
	}
	for _, wg := range t.Wagons() {
		w += wg.TareWeightT
	}
	return w
}

// MaxSpeedKMH is the top speed of the fastest locomotive.
func (t Train) MaxSpeedKMH() float64 {
	var v float64
	for _, l := range t.Locomotives {
		if l.Model.MaxSpeedKMH > v {
			v = l.Model.MaxSpeedKMH
		}
	}
	return v
}

// MaxAcceleration is the best acceleration among the locomotives.
func (t Train) MaxAcceleration() float64 {
	var a float64
	for _, l := range t.Locomotives {
		if l.Model.Acceleration > a {
			a = l.Model.Acceleration
		}
	}
	return a
}
