// Package plugins holds the pluggable travel-time models selectable from
// configuration.
package plugins

import (
	"github.com/kilianp07/railsched/core/factory"
	"github.com/kilianp07/railsched/core/scheduler"
)

// DefaultTravelModel is used when no model is configured.
const DefaultTravelModel = "physics"

var travelTimers = factory.NewRegistry[scheduler.TravelTimer]()

// RegisterTravelTimer adds a travel-time model under name.
func RegisterTravelTimer(name string, f factory.Factory[scheduler.TravelTimer]) error {
	return travelTimers.Register(name, f)
}

// TravelTimerTypes lists the registered models.
func TravelTimerTypes() []string { return travelTimers.Names() }

// NewTravelTimer builds the model named in cfg.
func NewTravelTimer(cfg factory.ModuleConfig) (scheduler.TravelTimer, error) {
	if cfg.Type == "" {
		cfg.Type = DefaultTravelModel
	}
	return travelTimers.Create(cfg)
}
